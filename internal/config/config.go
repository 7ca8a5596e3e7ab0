package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"imagemate/internal/core/domain"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	BackendURL        string
	ServerAddr        string
	ServerURL         string
	LogLevel          string
	ProxyTimeout      time.Duration
	ProbeTimeout      time.Duration
	ClientTimeout     time.Duration
	TrackSourceFormat bool
	DefaultFormat     domain.Format
	DefaultQuality    int
}

// New returns a viper instance with defaults and env bindings. Settings can
// be overridden by a config.toml in dir or by IMAGEMATE_* variables.
func New(dir string) *viper.Viper {
	v := viper.New()

	v.SetDefault("backend.url", domain.DefaultBackendURL)
	v.SetDefault("server.addr", ":3000")
	v.SetDefault("server.url", "http://localhost:3000")
	v.SetDefault("log.level", "info")
	v.SetDefault("proxy.timeout", "0s")
	v.SetDefault("version.timeout", "5s")
	v.SetDefault("client.timeout", "0s")
	v.SetDefault("convert.track_source_format", true)
	v.SetDefault("convert.format", string(domain.DefaultFormat))
	v.SetDefault("convert.quality", domain.DefaultQuality)

	v.SetEnvPrefix("imagemate")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("backend.url", "BACKEND_URL", "IMAGEMATE_BACKEND_URL")

	if dir != "" {
		v.AddConfigPath(dir)
	}
	v.SetConfigName("config")
	v.SetConfigType("toml")

	return v
}

// Load reads .env and the optional config file, then decodes v.
func Load(v *viper.Viper) (Config, error) {
	_ = godotenv.Load()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("could not read config file: %w", err)
		}
		log.Debug().Msg("no config file, using defaults")
	}

	proxyTimeout, err := time.ParseDuration(v.GetString("proxy.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid proxy timeout in config: %w", err)
	}

	probeTimeout, err := time.ParseDuration(v.GetString("version.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid version timeout in config: %w", err)
	}

	clientTimeout, err := time.ParseDuration(v.GetString("client.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid client timeout in config: %w", err)
	}

	format, ok := domain.ParseFormat(v.GetString("convert.format"))
	if !ok {
		return Config{}, &domain.ValidationError{Field: "convert.format", Reason: "unsupported format " + v.GetString("convert.format")}
	}

	return Config{
		BackendURL:        strings.TrimRight(v.GetString("backend.url"), "/"),
		ServerAddr:        v.GetString("server.addr"),
		ServerURL:         strings.TrimRight(v.GetString("server.url"), "/"),
		LogLevel:          v.GetString("log.level"),
		ProxyTimeout:      proxyTimeout,
		ProbeTimeout:      probeTimeout,
		ClientTimeout:     clientTimeout,
		TrackSourceFormat: v.GetBool("convert.track_source_format"),
		DefaultFormat:     format,
		DefaultQuality:    domain.ClampQuality(v.GetInt("convert.quality")),
	}, nil
}

// Settings is the initial conversion settings described by the config.
func (c Config) Settings() domain.Settings {
	s := domain.DefaultSettings()
	s.Format = c.DefaultFormat
	s.Quality = c.DefaultQuality
	return s
}

// SetupLogging sets the global zerolog level and writer. Terminals get the console writer.
func SetupLogging(level string, out *os.File) {
	var logLevel zerolog.Level

	switch level {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	var w io.Writer = out
	if isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd()) {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}
