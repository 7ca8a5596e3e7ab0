package port

import (
	"context"
	"imagemate/internal/core/domain"
)

type VersionProber interface {
	// Probe queries the conversion engine for its component versions. On failure it still returns a usable
	// domain.VersionInfo, with every field set to domain.VersionUnavailable, alongside the error.
	Probe(ctx context.Context) (domain.VersionInfo, error)
}
