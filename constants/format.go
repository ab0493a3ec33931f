package constants

import (
	"fmt"
	"strings"
)

// OutputFormat names an encoder for generated files.
type OutputFormat string

const (
	FormatJPEG OutputFormat = "JPEG"
	FormatPNG  OutputFormat = "PNG"
	FormatWEBP OutputFormat = "WEBP"
	FormatBMP  OutputFormat = "BMP"
	FormatTIFF OutputFormat = "TIFF"
)

var allFormats = []OutputFormat{FormatJPEG, FormatPNG, FormatWEBP, FormatBMP, FormatTIFF}

// FormatNames returns the accepted format names in declaration order.
func FormatNames() []string {
	out := make([]string, len(allFormats))
	for i, f := range allFormats {
		out[i] = string(f)
	}
	return out
}

// ParseFormat accepts a format name case-insensitively; "JPG" is an alias of JPEG.
func ParseFormat(s string) (OutputFormat, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "JPG" {
		name = string(FormatJPEG)
	}
	for _, f := range allFormats {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported output format %q (want one of %s)", s, strings.Join(FormatNames(), ", "))
}

// Ext returns the output file extension including the dot.
func (f OutputFormat) Ext() string {
	if f == FormatJPEG {
		return ".jpg"
	}
	return "." + strings.ToLower(string(f))
}

// SupportsAlpha reports whether the encoder keeps a transparency channel.
func (f OutputFormat) SupportsAlpha() bool {
	switch f {
	case FormatPNG, FormatWEBP, FormatTIFF:
		return true
	}
	return false
}

// Lossy reports whether a quality setting is meaningful for the encoder.
func (f OutputFormat) Lossy() bool {
	return f == FormatJPEG || f == FormatWEBP
}
