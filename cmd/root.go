package cmd

import (
	"os"

	"imagemate/internal/config"

	"github.com/spf13/cobra"
)

type app struct {
	version    string
	configPath string
	logLevel   string
	cfg        config.Config
}

func NewRootCmd(version string) *cobra.Command {
	a := &app{version: version}

	cmd := &cobra.Command{
		Use:   "imagemate",
		Short: "Image conversion front end for an imaginary server",
		Long: `imagemate converts images through an imaginary conversion engine.

It can run the HTTP proxy that relays conversions to the engine, or convert
files directly from the command line through a running proxy.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := config.New(a.configPath)
			if err := v.BindPFlag("log.level", cmd.Flags().Lookup("log-level")); err != nil {
				return err
			}

			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			config.SetupLogging(cfg.LogLevel, os.Stderr)
			a.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", ".", "Directory containing config.toml")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newConvertCmd(a))
	cmd.AddCommand(newVersionCmd(a))

	return cmd
}
