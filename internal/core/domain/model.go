package domain

import (
	"math"
	"net/url"
	"strings"

	"github.com/gofrs/uuid/v5"
)

// SourceFile is the image picked by the user.
type SourceFile struct {
	Name     string
	MIMEType string
	Data     []byte
}

func (f SourceFile) Size() int64 {
	return int64(len(f.Data))
}

// IsImage reports whether the declared media type is an image type.
func (f SourceFile) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(f.MIMEType), "image/")
}

// Resource is a revocable handle to in-memory or on-disk image data, used for previews and results.
type Resource struct {
	ID       uuid.UUID
	URL      string
	MIMEType string
	Size     int64
}

func (r Resource) IsZero() bool {
	return r.ID == uuid.Nil
}

// ConversionRequest is what gets sent to the conversion endpoint.
type ConversionRequest struct {
	Query       url.Values
	ContentType string
	Body        []byte
}

// ConvertedImage is the raw reply of a successful conversion.
type ConvertedImage struct {
	Data        []byte
	ContentType string
}

type ConversionResult struct {
	Resource     Resource
	Format       Format
	Size         int64
	OriginalSize int64
}

// SavingsPercent is the rounded size reduction relative to the original. It is
// negative when the result grew and 0 when either size is unknown.
func (r ConversionResult) SavingsPercent() int {
	return SavingsPercent(r.OriginalSize, r.Size)
}

// Savings returns the savings percentage only when the result is actually smaller.
func (r ConversionResult) Savings() (int, bool) {
	p := r.SavingsPercent()
	return p, p > 0
}

func (r ConversionResult) DownloadName() string {
	return "converted." + string(r.Format)
}

func SavingsPercent(original, converted int64) int {
	if original == 0 || converted == 0 {
		return 0
	}

	ratio := float64(original-converted) / float64(original) * 100
	// rounds half up, so -2.5 becomes -2
	return int(math.Floor(ratio + 0.5))
}

type State int

const (
	Idle State = iota
	Ready
	Converting
	Converted
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Ready:
		return "ready"
	case Converting:
		return "converting"
	case Converted:
		return "converted"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event describes a state transition of a conversion session.
type Event struct {
	From     State
	To       State
	FileName string
	Result   *ConversionResult
	Err      error
}

type VersionInfo struct {
	Imaginary string `json:"imaginary"`
	Bimg      string `json:"bimg"`
	Libvips   string `json:"libvips"`
}

func UnavailableVersionInfo() VersionInfo {
	return VersionInfo{
		Imaginary: VersionUnavailable,
		Bimg:      VersionUnavailable,
		Libvips:   VersionUnavailable,
	}
}
