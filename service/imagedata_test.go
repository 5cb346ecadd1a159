package service

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"image/png"
	"testing"
)

// pngDataURL builds a valid PNG data URL with the given dimensions.
func pngDataURL(t *testing.T, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("Failed to encode test PNG: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

// jpegDataURL builds a valid JPEG data URL with the given dimensions.
func jpegDataURL(t *testing.T, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatalf("Failed to encode test JPEG: %v", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestIsBlankDataURL(t *testing.T) {
	blanks := []string{"", "   ", "data:,", "data:image/png;base64,", "data:image/png;base64,   "}
	for _, s := range blanks {
		if !IsBlankDataURL(s) {
			t.Errorf("Expected %q to be blank", s)
		}
	}

	if IsBlankDataURL(pngDataURL(t, 2, 2)) {
		t.Error("Expected real PNG data URL to not be blank")
	}
}

func TestParseDataURLSniffsBytes(t *testing.T) {
	// The declared media type lies; the payload bytes decide.
	url := pngDataURL(t, 4, 6)
	lying := "data:image/jpeg;base64," + url[len("data:image/png;base64,"):]

	format, data, err := ParseDataURL(lying)
	if err != nil {
		t.Fatalf("Expected parse to succeed, got %v", err)
	}
	if format != FormatPNG {
		t.Errorf("Expected format png, got %s", format)
	}
	if len(data) == 0 {
		t.Error("Expected decoded payload bytes")
	}

	w, h, err := ProbeDimensions(data, format)
	if err != nil {
		t.Fatalf("Expected dimensions, got %v", err)
	}
	if w != 4 || h != 6 {
		t.Errorf("Expected 4x6, got %dx%d", w, h)
	}
}

func TestParseDataURLRejectsBadInput(t *testing.T) {
	bad := []string{
		"data:,",
		"not a url",
		"data:image/png;base64,!!!not-base64!!!",
		"data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hello")),
	}
	for _, s := range bad {
		if _, _, err := ParseDataURL(s); err == nil {
			t.Errorf("Expected error for %q", s)
		}
	}
}

func TestSniffFormat(t *testing.T) {
	webpHeader := append([]byte("RIFF"), 0, 0, 0, 0)
	webpHeader = append(webpHeader, []byte("WEBP")...)

	cases := []struct {
		data []byte
		want string
	}{
		{[]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0}, FormatPNG},
		{[]byte{0xff, 0xd8, 0xff, 0xe0}, FormatJPEG},
		{webpHeader, FormatWEBP},
		{[]byte("GIF89a"), ""},
		{nil, ""},
	}
	for _, c := range cases {
		if got := SniffFormat(c.data); got != c.want {
			t.Errorf("SniffFormat(% x) = %q, want %q", c.data, got, c.want)
		}
	}
}
