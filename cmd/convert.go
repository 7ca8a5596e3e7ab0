package cmd

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"imagemate/internal/adapters/client"
	"imagemate/internal/adapters/file"
	"imagemate/internal/adapters/notifier"
	"imagemate/internal/core/domain"
	"imagemate/internal/core/service"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type convertOptions struct {
	format  string
	quality int
	width   string
	height  string
	server  string
	out     string
}

func newConvertCmd(a *app) *cobra.Command {
	opts := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert <file or url>",
		Short: "Convert an image through an imagemate server",
		Example: `  # Convert to webp at the default quality
  imagemate convert photo.jpg

  # Resize to 640px wide avif and write next to the source
  imagemate convert photo.png --format avif --quality 50 --width 640 --out .`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, a, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Output format (webp, jpeg, png, avif, tiff)")
	cmd.Flags().IntVarP(&opts.quality, "quality", "q", 0, "Output quality 1-100")
	cmd.Flags().StringVar(&opts.width, "width", "", "Target width in pixels")
	cmd.Flags().StringVar(&opts.height, "height", "", "Target height in pixels")
	cmd.Flags().StringVarP(&opts.server, "server", "s", "", "imagemate server URL (default from server.url)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", ".", "Directory to write the converted image to")

	return cmd
}

func runConvert(cmd *cobra.Command, a *app, opts *convertOptions, location string) error {
	settings := a.cfg.Settings()
	track := a.cfg.TrackSourceFormat

	var update domain.SettingsUpdate
	if cmd.Flags().Changed("format") {
		f, ok := domain.ParseFormat(strings.ToLower(opts.format))
		if !ok {
			return &domain.ValidationError{Field: "format", Reason: "unsupported format " + opts.format}
		}
		update.Format = &f
		// an explicit choice wins over source format tracking
		track = false
	}
	if cmd.Flags().Changed("quality") {
		q := domain.ClampQuality(opts.quality)
		update.Quality = &q
	}
	if cmd.Flags().Changed("width") {
		w := domain.ParseDimension(opts.width)
		update.Width = &w
	}
	if cmd.Flags().Changed("height") {
		h := domain.ParseDimension(opts.height)
		update.Height = &h
	}

	server := opts.server
	if server == "" {
		server = a.cfg.ServerURL
	}

	store, err := file.NewTempStore("")
	if err != nil {
		return err
	}
	defer closeLogged(store, "could not clean up resources")

	orchestrator := service.NewOrchestrator(
		client.NewProxy(server, &http.Client{Timeout: a.cfg.ClientTimeout}),
		store,
		service.WithSettings(settings.Apply(update)),
		service.WithSourceFormatTracking(track),
	)
	defer closeLogged(orchestrator, "could not release conversion session")
	orchestrator.Subscribe(notifier.NewConsole(cmd.ErrOrStderr()))

	src, err := file.LoadSource(cmd.Context(), location)
	if err != nil {
		return err
	}

	if err := orchestrator.SelectFile(src); err != nil {
		return err
	}

	result, err := orchestrator.Convert(cmd.Context())
	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			return err
		}
		return errors.New(domain.UserMessage(err))
	}

	out, err := file.SaveResult(store, *result, opts.out)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}

func closeLogged(c io.Closer, msg string) {
	if err := c.Close(); err != nil {
		log.Warn().Err(err).Msg(msg)
	}
}
