package handler

import (
	"context"
	"net/http"
	"time"

	"imagemate/internal/adapters/proxy"
	"imagemate/internal/core/port"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog/log"
)

type HTTP struct {
	forwarder http.Handler
	prober    port.VersionProber
	timeout   time.Duration
}

// NewHTTP serves the conversion proxy and the version probe. timeout bounds each version probe.
func NewHTTP(forwarder http.Handler, prober port.VersionProber, timeout time.Duration) *HTTP {
	return &HTTP{forwarder: forwarder, prober: prober, timeout: timeout}
}

func (h *HTTP) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/convert", h.forwarder)
	mux.HandleFunc("/api/version", h.HandleVersion)
	mux.HandleFunc("/healthcheck", h.HandleHealth)

	return requestLogger(mux)
}

func (h *HTTP) HandleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		proxy.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	w.Header().Set("Cache-Control", "no-store")

	info, err := h.prober.Probe(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("version probe failed")
		proxy.WriteJSON(w, http.StatusServiceUnavailable, info)
		return
	}

	proxy.WriteJSON(w, http.StatusOK, info)
}

func (h *HTTP) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	if _, err := w.Write([]byte("OK")); err != nil {
		log.Error().Err(err).Msg("unable to write healthcheck")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.Must(uuid.NewV4())
		w.Header().Set("X-Request-Id", id.String())

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		log.Info().
			Str("requestId", id.String()).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("handled request")
	})
}
