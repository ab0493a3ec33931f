// Package imagecodec wraps the decode, composite and encode capabilities used on
// background-removed images.
package imagecodec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/webp"

	"github.com/joseph-ayodele/bg-batch/constants"
)

// ErrUnsupportedFormat is returned when no encoder exists for an output format.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Decode decodes any registered image format (jpeg, png, gif, bmp, tiff, webp).
func Decode(raw []byte) (image.Image, error) {
	if len(raw) == 0 {
		return nil, errors.New("decode: empty image data")
	}
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}

// Composite flattens img onto a solid canvas of the same bounds, using img's own
// alpha as the blend mask. The result is fully opaque.
func Composite(img image.Image, bg color.Color) *image.NRGBA {
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), bg)
	return imaging.Overlay(canvas, imaging.Clone(img), image.Pt(0, 0), 1.0)
}

// Encode writes img in the given format. quality (1-100) is only applied to lossy formats.
func Encode(w io.Writer, img image.Image, format constants.OutputFormat, quality int) error {
	switch format {
	case constants.FormatJPEG:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case constants.FormatPNG:
		return imaging.Encode(w, img, imaging.PNG)
	case constants.FormatBMP:
		return imaging.Encode(w, img, imaging.BMP)
	case constants.FormatTIFF:
		return imaging.Encode(w, img, imaging.TIFF)
	case constants.FormatWEBP:
		return webp.Encode(w, img, webp.Options{Quality: quality})
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// EncodeBytes is Encode into a fresh buffer.
func EncodeBytes(img image.Image, format constants.OutputFormat, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, format, quality); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// HasAlpha reports whether any pixel of img is not fully opaque.
func HasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}
