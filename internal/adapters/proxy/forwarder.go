package proxy

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"imagemate/internal/core/domain"

	"github.com/rs/zerolog/log"
)

// Forwarder relays conversion requests to the engine's /convert endpoint.
type Forwarder struct {
	backendURL string
	client     *http.Client
}

func NewForwarder(backendURL string, client *http.Client) *Forwarder {
	if client == nil {
		client = &http.Client{}
	}
	return &Forwarder{backendURL: strings.TrimRight(backendURL, "/"), client: client}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (f *Forwarder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	target := f.backendURL + "/convert"
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	l := log.With().Str("target", target).Logger()

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = domain.DefaultInboundContentType
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, target, r.Body)
	if err != nil {
		l.Error().Err(err).Msg("error creating upstream request")
		writeError(w, http.StatusInternalServerError, "Conversion failed: "+err.Error())
		return
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = r.ContentLength

	res, err := f.client.Do(req)
	if err != nil {
		l.Error().Err(err).Msg("error forwarding conversion request")
		writeError(w, http.StatusInternalServerError, "Conversion failed: "+err.Error())
		return
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, err := io.ReadAll(res.Body)
		if err != nil {
			l.Error().Err(err).Msg("error reading upstream error body")
			writeError(w, http.StatusInternalServerError, "Conversion failed: "+err.Error())
			return
		}
		l.Warn().Int("status", res.StatusCode).Str("body", string(body)).Msg("engine rejected conversion")
		writeError(w, res.StatusCode, "Conversion failed: "+string(body))
		return
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		l.Error().Err(err).Msg("error reading converted image")
		writeError(w, http.StatusInternalServerError, "Conversion failed: "+err.Error())
		return
	}

	resultType := res.Header.Get("Content-Type")
	if resultType == "" {
		resultType = domain.DefaultResultContentType
	}

	w.Header().Set("Content-Type", resultType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		l.Error().Err(err).Msg("error writing converted image")
		return
	}

	l.Debug().Int("bytes", len(data)).Str("contentType", resultType).Msg("relayed converted image")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, errorResponse{Error: msg})
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(fmt.Errorf("error encoding response %w", err)).Send()
	}
}
