package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"imagemate/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProber struct{ mock.Mock }

func (m *MockProber) Probe(ctx context.Context) (domain.VersionInfo, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.VersionInfo), args.Error(1)
}

func TestHTTP_Version(t *testing.T) {
	tests := []struct {
		name       string
		info       domain.VersionInfo
		err        error
		wantStatus int
	}{
		{
			name:       "reachable",
			info:       domain.VersionInfo{Imaginary: "1.2.4", Bimg: "1.1.9", Libvips: "8.12.1"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unreachable",
			info:       domain.UnavailableVersionInfo(),
			err:        &domain.TransportError{Err: errors.New("connection refused")},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			prober := new(MockProber)
			prober.On("Probe", mock.Anything).Return(tc.info, tc.err)

			h := NewHTTP(http.NotFoundHandler(), prober, time.Second)
			rec := httptest.NewRecorder()
			h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
			assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

			var got domain.VersionInfo
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tc.info, got)
			prober.AssertExpectations(t)
		})
	}
}

func TestHTTP_VersionMethodNotAllowed(t *testing.T) {
	h := NewHTTP(http.NotFoundHandler(), new(MockProber), 0)
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/version", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHTTP_Routes(t *testing.T) {
	forwarded := false
	forwarder := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		forwarded = true
		w.WriteHeader(http.StatusTeapot)
	})

	h := NewHTTP(forwarder, new(MockProber), 0)

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/convert?type=png", nil))
	assert.True(t, forwarded)
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
