package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"imagemate/internal/adapters/engine"
	"imagemate/internal/adapters/handler"
	"imagemate/internal/adapters/proxy"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the conversion proxy",
		Long: `Starts the HTTP server that relays conversions to the imaginary engine.

Routes:
  POST /api/convert   forward an image to <backend>/convert
  GET  /api/version   report engine component versions
  GET  /healthcheck   liveness probe`,
		Example: `  # Proxy to the default engine on localhost:9000
  imagemate serve

  # Custom engine and port
  BACKEND_URL=http://imaginary:8088 imagemate serve --addr :8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.ServerAddr
			}

			forwarder := proxy.NewForwarder(a.cfg.BackendURL, &http.Client{Timeout: a.cfg.ProxyTimeout})
			prober := engine.NewProber(a.cfg.BackendURL, &http.Client{})
			h := handler.NewHTTP(forwarder, prober, a.cfg.ProbeTimeout)

			server := &http.Server{
				Addr:              addr,
				Handler:           h.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			serverErr := make(chan error, 1)
			go func() {
				log.Info().Str("addr", addr).Str("backend", a.cfg.BackendURL).Msg("imagemate proxy listening")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			select {
			case <-cmd.Context().Done():
				log.Info().Msg("shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("server shutdown failed")
					return err
				}
				log.Info().Msg("server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (default from server.addr)")

	return cmd
}
