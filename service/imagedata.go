package service

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/webp"
)

// Image formats recognized by the renderer
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatWEBP = "webp"
)

// IsBlankDataURL reports whether a data URL carries no usable payload.
// Canvas elements serialize an untouched state as "data:," which must
// be treated the same as absent.
func IsBlankDataURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || s == "data:," {
		return true
	}
	if i := strings.IndexByte(s, ','); i >= 0 && strings.TrimSpace(s[i+1:]) == "" {
		return true
	}
	return false
}

// ParseDataURL decodes a base64 data URL into raw bytes and the image
// format sniffed from the payload signature. The declared media type is
// ignored; the bytes decide.
func ParseDataURL(s string) (string, []byte, error) {
	s = strings.TrimSpace(s)
	if IsBlankDataURL(s) {
		return "", nil, fmt.Errorf("empty data URL")
	}
	if !strings.HasPrefix(s, "data:") {
		return "", nil, fmt.Errorf("not a data URL")
	}
	comma := strings.IndexByte(s, ',')
	if comma < 0 {
		return "", nil, fmt.Errorf("malformed data URL")
	}
	meta, payload := s[5:comma], s[comma+1:]
	if !strings.HasSuffix(meta, ";base64") {
		return "", nil, fmt.Errorf("unsupported data URL encoding")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode data URL payload: %w", err)
	}

	format := SniffFormat(data)
	if format == "" {
		return "", nil, fmt.Errorf("unrecognized image format")
	}
	return format, data, nil
}

// SniffFormat identifies an image format by its magic bytes. Returns an
// empty string for anything that is not PNG, JPEG or WEBP.
func SniffFormat(data []byte) string {
	switch {
	case len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}):
		return FormatPNG
	case len(data) >= 3 && data[0] == 0xff && data[1] == 0xd8 && data[2] == 0xff:
		return FormatJPEG
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return FormatWEBP
	}
	return ""
}

// ProbeDimensions reads the pixel dimensions of an encoded image
// without decoding the full raster.
func ProbeDimensions(data []byte, format string) (int, int, error) {
	r := bytes.NewReader(data)
	switch format {
	case FormatPNG:
		cfg, err := png.DecodeConfig(r)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to read PNG header: %w", err)
		}
		return cfg.Width, cfg.Height, nil
	case FormatJPEG:
		cfg, err := jpeg.DecodeConfig(r)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to read JPEG header: %w", err)
		}
		return cfg.Width, cfg.Height, nil
	case FormatWEBP:
		cfg, err := webp.DecodeConfig(r)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to read WEBP header: %w", err)
		}
		return cfg.Width, cfg.Height, nil
	}
	return 0, 0, fmt.Errorf("unsupported image format %q", format)
}
