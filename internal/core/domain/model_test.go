package domain

import (
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
)

func TestSavingsPercent(t *testing.T) {
	tests := []struct {
		name      string
		original  int64
		converted int64
		want      int
	}{
		{"half", 200000, 100000, 50},
		{"unknown original", 0, 100, 0},
		{"unknown result", 100, 0, 0},
		{"result grew", 100, 150, -50},
		{"rounds", 3, 2, 33},
		{"same size", 100, 100, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SavingsPercent(tc.original, tc.converted))
		})
	}
}

func TestConversionResult_Savings(t *testing.T) {
	smaller := ConversionResult{Size: 100000, OriginalSize: 200000}
	p, ok := smaller.Savings()
	assert.True(t, ok)
	assert.Equal(t, 50, p)

	bigger := ConversionResult{Size: 150, OriginalSize: 100}
	p, ok = bigger.Savings()
	assert.False(t, ok)
	assert.Equal(t, -50, p)
}

func TestConversionResult_DownloadName(t *testing.T) {
	assert.Equal(t, "converted.avif", ConversionResult{Format: AVIF}.DownloadName())
}

func TestSourceFile_IsImage(t *testing.T) {
	tests := []struct {
		mime string
		want bool
	}{
		{"image/png", true},
		{"IMAGE/JPEG", true},
		{"application/pdf", false},
		{"", false},
		{"text/image/png", false},
	}

	for _, tc := range tests {
		t.Run(tc.mime, func(t *testing.T) {
			assert.Equal(t, tc.want, SourceFile{MIMEType: tc.mime}.IsImage())
		})
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "converting", Converting.String())
	assert.Equal(t, "converted", Converted.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestResource_IsZero(t *testing.T) {
	assert.True(t, Resource{}.IsZero())
	assert.False(t, Resource{ID: uuid.Must(uuid.NewV4())}.IsZero())
}

func TestUnavailableVersionInfo(t *testing.T) {
	assert.Equal(t, VersionInfo{Imaginary: "unavailable", Bimg: "unavailable", Libvips: "unavailable"},
		UnavailableVersionInfo())
}
