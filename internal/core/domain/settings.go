package domain

import (
	"net/url"
	"strconv"
	"strings"
)

type Format string

const (
	WebP Format = "webp"
	JPEG Format = "jpeg"
	PNG  Format = "png"
	AVIF Format = "avif"
	TIFF Format = "tiff"
)

// Formats lists the selectable output formats in display order.
var Formats = []Format{WebP, JPEG, PNG, AVIF, TIFF}

// ParseFormat resolves a user supplied format name. "jpg" is accepted as an alias for jpeg.
func ParseFormat(name string) (Format, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "jpg" {
		return JPEG, true
	}

	for _, f := range Formats {
		if string(f) == name {
			return f, true
		}
	}

	return "", false
}

// FormatFromMIME maps an image media type to a known format.
func FormatFromMIME(mimeType string) (Format, bool) {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}

	switch mimeType {
	case "image/webp":
		return WebP, true
	case "image/jpeg", "image/jpg", "image/pjpeg":
		return JPEG, true
	case "image/png":
		return PNG, true
	case "image/avif":
		return AVIF, true
	case "image/tiff", "image/tif":
		return TIFF, true
	}

	return "", false
}

// IsLossless reports whether quality has no effect on the encoding.
func (f Format) IsLossless() bool {
	return f == PNG || f == TIFF
}

func (f Format) MIMEType() string {
	return "image/" + string(f)
}

func (f Format) String() string {
	return string(f)
}

// Settings describes the requested output. Width and Height are zero when absent.
// SourceFormat is empty unless the source format is being tracked.
type Settings struct {
	Format       Format
	Quality      int
	Width        int
	Height       int
	SourceFormat Format
}

// SettingsUpdate is a partial update, nil fields are left untouched.
type SettingsUpdate struct {
	Format  *Format
	Quality *int
	Width   *int
	Height  *int
}

func DefaultSettings() Settings {
	return Settings{Format: DefaultFormat, Quality: DefaultQuality}
}

// Apply returns a copy of s with the update applied. It never fails: non-positive
// dimensions become absent, unknown or disallowed formats and out of range quality
// values keep the previous value.
func (s Settings) Apply(u SettingsUpdate) Settings {
	next := s

	if u.Format != nil {
		if f, ok := ParseFormat(string(*u.Format)); ok && next.Allows(f) {
			next.Format = f
		}
	}

	if u.Quality != nil && *u.Quality >= MinQuality && *u.Quality <= MaxQuality {
		next.Quality = *u.Quality
	}

	if u.Width != nil {
		next.Width = positiveOrAbsent(*u.Width)
	}

	if u.Height != nil {
		next.Height = positiveOrAbsent(*u.Height)
	}

	return next
}

// Check reports the format part of u that Apply would ignore.
func (s Settings) Check(u SettingsUpdate) error {
	if u.Format == nil {
		return nil
	}

	f, ok := ParseFormat(string(*u.Format))
	if !ok {
		return &ValidationError{Field: "format", Reason: "unsupported format " + string(*u.Format)}
	}

	if !s.Allows(f) {
		return &ValidationError{Field: "format", Reason: "output format must differ from the source format " + string(s.SourceFormat)}
	}

	return nil
}

// Allows reports whether f may be chosen as output format. When the source
// format is tracked, converting to the same format is not allowed.
func (s Settings) Allows(f Format) bool {
	return s.SourceFormat == "" || f != s.SourceFormat
}

// WithSourceFormat starts tracking src. If the current output format equals src,
// the first other format is picked.
func (s Settings) WithSourceFormat(src Format) Settings {
	s.SourceFormat = src
	if s.Allows(s.Format) {
		return s
	}

	for _, f := range Formats {
		if s.Allows(f) {
			s.Format = f
			break
		}
	}

	return s
}

// MateriallyDiffers reports whether other would produce a different conversion.
// Quality changes are ignored when both formats are lossless.
func (s Settings) MateriallyDiffers(other Settings) bool {
	if s.Format != other.Format || s.Width != other.Width || s.Height != other.Height {
		return true
	}

	if s.Format.IsLossless() {
		return false
	}

	return s.Quality != other.Quality
}

// Query builds the engine query. width and height are only present when set.
func (s Settings) Query() url.Values {
	q := url.Values{}
	q.Set("type", string(s.Format))
	q.Set("quality", strconv.Itoa(s.Quality))

	if s.Width > 0 {
		q.Set("width", strconv.Itoa(s.Width))
	}

	if s.Height > 0 {
		q.Set("height", strconv.Itoa(s.Height))
	}

	return q
}

// ClampQuality bounds raw control input to the valid quality range.
func ClampQuality(q int) int {
	return min(max(q, MinQuality), MaxQuality)
}

// ParseDimension parses a dimension input field. Empty or invalid input and
// non-positive numbers are absent (0).
func ParseDimension(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}

	n, err := strconv.Atoi(leadingDigits(raw))
	if err != nil {
		return 0
	}

	return positiveOrAbsent(n)
}

func positiveOrAbsent(n int) int {
	if n <= 0 {
		return 0
	}
	return n
}

// leadingDigits keeps an optional sign and the digits that follow it, so "640px" parses as 640.
func leadingDigits(s string) string {
	end := 0
	for i, r := range s {
		if i == 0 && (r == '-' || r == '+') {
			end = 1
			continue
		}
		if r < '0' || r > '9' {
			break
		}
		end = i + 1
	}
	return s[:end]
}
