package port

import (
	"context"
	"imagemate/internal/core/domain"
)

type ImageConverter interface {
	// Convert sends the raw image with the requested settings to the conversion endpoint and returns the converted
	// bytes. Failures are reported as *domain.UpstreamError or *domain.TransportError.
	Convert(ctx context.Context, req domain.ConversionRequest) (*domain.ConvertedImage, error)
}
