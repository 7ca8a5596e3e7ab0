package cmd

import (
	"fmt"
	"net/http"

	"imagemate/internal/adapters/client"
	"imagemate/internal/adapters/notifier"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newVersionCmd(a *app) *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show client and conversion engine versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if server == "" {
				server = a.cfg.ServerURL
			}

			p := client.NewProxy(server, &http.Client{Timeout: a.cfg.ProbeTimeout})
			info, err := p.Probe(cmd.Context())
			if err != nil {
				log.Warn().Err(err).Msg("engine version unavailable")
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), notifier.RenderVersions(a.version, info))
			return err
		},
	}

	cmd.Flags().StringVarP(&server, "server", "s", "", "imagemate server URL (default from server.url)")

	return cmd
}
