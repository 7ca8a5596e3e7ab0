package file

import (
	"bytes"
	"net/http"
)

var (
	pngSig    = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}
	jpegSig   = []byte{0xff, 0xd8, 0xff}
	gifSig    = []byte("GIF8")
	tiffSigLE = []byte{0x49, 0x49, 0x2a, 0x00}
	tiffSigBE = []byte{0x4d, 0x4d, 0x00, 0x2a}
	riffSig   = []byte("RIFF")
	webpSig   = []byte("WEBP")
	ftypSig   = []byte("ftyp")
)

// DetectMediaType inspects the leading bytes for known image signatures and
// falls back to http.DetectContentType.
func DetectMediaType(data []byte) string {
	switch {
	case bytes.HasPrefix(data, jpegSig):
		return "image/jpeg"
	case bytes.HasPrefix(data, pngSig):
		return "image/png"
	case bytes.HasPrefix(data, gifSig):
		return "image/gif"
	case bytes.HasPrefix(data, tiffSigLE), bytes.HasPrefix(data, tiffSigBE):
		return "image/tiff"
	case len(data) >= 12 && bytes.Equal(data[:4], riffSig) && bytes.Equal(data[8:12], webpSig):
		return "image/webp"
	case isAVIF(data):
		return "image/avif"
	}

	return http.DetectContentType(data)
}

// isAVIF checks the ISO-BMFF ftyp box for an avif brand.
func isAVIF(data []byte) bool {
	if len(data) < 12 || !bytes.Equal(data[4:8], ftypSig) {
		return false
	}

	brand := string(data[8:12])
	return brand == "avif" || brand == "avis"
}
