package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"imagemate/internal/core/domain"

	"github.com/rs/zerolog/log"
)

// Prober reads component versions from the root endpoint of an imaginary server.
type Prober struct {
	baseURL string
	client  *http.Client
}

func NewProber(baseURL string, client *http.Client) *Prober {
	if client == nil {
		client = &http.Client{}
	}
	return &Prober{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (p *Prober) Probe(ctx context.Context) (domain.VersionInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/", nil)
	if err != nil {
		return domain.UnavailableVersionInfo(), fmt.Errorf("error creating version request %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	res, err := p.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("url", p.baseURL).Msg("engine unreachable")
		return domain.UnavailableVersionInfo(), &domain.TransportError{Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return domain.UnavailableVersionInfo(), &domain.UpstreamError{StatusCode: res.StatusCode}
	}

	var v map[string]any
	dec := json.NewDecoder(res.Body)
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return domain.UnavailableVersionInfo(), fmt.Errorf("error decoding version response %w", err)
	}

	return domain.VersionInfo{
		Imaginary: versionField(v["imaginary"]),
		Bimg:      versionField(v["bimg"]),
		Libvips:   versionField(v["libvips"]),
	}, nil
}

// versionField renders a version value of any JSON type. Missing, empty,
// zero and false values are unknown.
func versionField(v any) string {
	switch val := v.(type) {
	case string:
		if val != "" {
			return val
		}
	case json.Number:
		if f, err := val.Float64(); err == nil && f != 0 {
			return val.String()
		}
	case bool:
		if val {
			return "true"
		}
	case nil:
	default:
		if b, err := json.Marshal(val); err == nil {
			return string(b)
		}
	}

	return domain.VersionUnknown
}
