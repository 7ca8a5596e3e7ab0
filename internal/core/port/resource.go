package port

import "imagemate/internal/core/domain"

type ResourceStore interface {
	// Allocate stores data and returns a revocable handle that can be used to display or save it.
	Allocate(data []byte, mimeType string) (domain.Resource, error)
	// Revoke releases the handle. Every allocated resource must be revoked exactly once.
	Revoke(res domain.Resource) error
}
