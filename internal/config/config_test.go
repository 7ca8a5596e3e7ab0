package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"imagemate/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New(t.TempDir()))
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultBackendURL, cfg.BackendURL)
	assert.Equal(t, ":3000", cfg.ServerAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, time.Duration(0), cfg.ProxyTimeout)
	assert.Equal(t, 5*time.Second, cfg.ProbeTimeout)
	assert.True(t, cfg.TrackSourceFormat)
	assert.Equal(t, domain.DefaultSettings(), cfg.Settings())
}

func TestLoad_Overrides(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantBackend string
		wantFormat  domain.Format
		wantQuality int
		wantErr     bool
	}{
		{
			name:        "backend env",
			env:         map[string]string{"BACKEND_URL": "http://imaginary:8088/"},
			wantBackend: "http://imaginary:8088",
			wantFormat:  domain.WebP,
			wantQuality: 90,
		},
		{
			name: "config file",
			file: `
[backend]
url = "http://files:9000"

[convert]
format = "jpg"
quality = 250
`,
			wantBackend: "http://files:9000",
			wantFormat:  domain.JPEG,
			wantQuality: 100,
		},
		{
			name:        "env wins over file",
			env:         map[string]string{"BACKEND_URL": "http://env:1"},
			file:        "[backend]\nurl = \"http://file:2\"\n",
			wantBackend: "http://env:1",
			wantFormat:  domain.WebP,
			wantQuality: 90,
		},
		{
			name:    "bad format",
			env:     map[string]string{"IMAGEMATE_CONVERT_FORMAT": "bmp"},
			wantErr: true,
		},
		{
			name:    "bad timeout",
			env:     map[string]string{"IMAGEMATE_PROXY_TIMEOUT": "soon"},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			dir := t.TempDir()
			if tc.file != "" {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(tc.file), 0o644))
			}

			cfg, err := Load(New(dir))
			if tc.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantBackend, cfg.BackendURL)
			assert.Equal(t, tc.wantFormat, cfg.Settings().Format)
			assert.Equal(t, tc.wantQuality, cfg.Settings().Quality)
		})
	}
}
