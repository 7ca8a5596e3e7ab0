package domain

import "errors"

var (
	ErrNoFileSelected       = errors.New("no file selected")
	ErrConversionInFlight   = errors.New("conversion already in progress")
	ErrSupersededRequest    = errors.New("conversion result discarded, file changed")
	ErrResourceNotAllocated = errors.New("resource not allocated")
)

const (
	DefaultFormat  = WebP
	DefaultQuality = 90

	MinQuality = 1
	MaxQuality = 100

	// DefaultInboundContentType is assumed for proxied bodies that carry no Content-Type.
	DefaultInboundContentType = "image/jpeg"
	// DefaultResultContentType is returned when the engine omits a Content-Type.
	DefaultResultContentType = "image/webp"

	DefaultBackendURL = "http://localhost:9000"

	VersionUnknown     = "unknown"
	VersionUnavailable = "unavailable"
)
