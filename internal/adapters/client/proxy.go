package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"imagemate/internal/core/domain"

	"github.com/rs/zerolog/log"
)

// Proxy talks to an imagemate server over its /api routes.
type Proxy struct {
	baseURL    string
	httpClient *http.Client
}

func NewProxy(baseURL string, httpClient *http.Client) *Proxy {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Proxy{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// Convert posts the raw image to /api/convert. Non-success responses become
// *domain.UpstreamError carrying the response text, network failures *domain.TransportError.
func (p *Proxy) Convert(ctx context.Context, in domain.ConversionRequest) (*domain.ConvertedImage, error) {
	target := p.baseURL + "/api/convert"
	if len(in.Query) > 0 {
		target += "?" + in.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(in.Body))
	if err != nil {
		return nil, fmt.Errorf("error creating request %w", err)
	}
	if in.ContentType != "" {
		req.Header.Set("Content-Type", in.ContentType)
	}

	log.Debug().Str("url", target).Int("bytes", len(in.Body)).Msg("sending conversion request")

	res, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Err: err}
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &domain.TransportError{Err: fmt.Errorf("error reading response %w", err)}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &domain.UpstreamError{StatusCode: res.StatusCode, Body: string(data)}
	}

	return &domain.ConvertedImage{Data: data, ContentType: res.Header.Get("Content-Type")}, nil
}

// Probe reads /api/version. The body is decoded on 503 as well, since the
// server reports unavailable versions there.
func (p *Proxy) Probe(ctx context.Context) (domain.VersionInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/version", nil)
	if err != nil {
		return domain.UnavailableVersionInfo(), fmt.Errorf("error creating request %w", err)
	}

	res, err := p.httpClient.Do(req)
	if err != nil {
		return domain.UnavailableVersionInfo(), &domain.TransportError{Err: err}
	}
	defer res.Body.Close()

	var info domain.VersionInfo
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return domain.UnavailableVersionInfo(), fmt.Errorf("error decoding version response %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return info, &domain.UpstreamError{StatusCode: res.StatusCode}
	}

	return info, nil
}
