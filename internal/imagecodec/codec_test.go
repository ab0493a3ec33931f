package imagecodec

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bg-batch/constants"
)

// cutout is a 4x4 image: left half opaque red, right half fully transparent,
// with one half-transparent green pixel at (3,3).
func cutout() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 2; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	img.SetNRGBA(3, 3, color.NRGBA{G: 255, A: 128})
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func within(t *testing.T, want, got uint8, tol int, msg string) {
	t.Helper()
	d := int(want) - int(got)
	if d < 0 {
		d = -d
	}
	assert.LessOrEqual(t, d, tol, "%s: want %d got %d", msg, want, got)
}

func TestDecode(t *testing.T) {
	img, err := Decode(pngBytes(t, cutout()))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())
	assert.True(t, HasAlpha(img))

	_, err = Decode(nil)
	assert.Error(t, err)

	_, err = Decode([]byte("definitely not an image"))
	assert.Error(t, err)
}

func TestComposite_UsesAlphaAsMask(t *testing.T) {
	bg := color.NRGBA{R: 10, G: 20, B: 30, A: 255}
	out := Composite(cutout(), bg)

	assert.Equal(t, image.Rect(0, 0, 4, 4), out.Bounds())
	assert.False(t, HasAlpha(out))
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, out.NRGBAAt(0, 0), "opaque pixels keep their color")
	assert.Equal(t, bg, out.NRGBAAt(3, 0), "transparent pixels become the background")

	mid := out.NRGBAAt(3, 3)
	within(t, 5, mid.R, 1, "red")
	within(t, 138, mid.G, 1, "green")
	within(t, 15, mid.B, 1, "blue")
	assert.Equal(t, uint8(255), mid.A)
}

func TestEncode_JPEGHasNoAlpha(t *testing.T) {
	flat := Composite(cutout(), color.NRGBA{A: 255})
	raw, err := EncodeBytes(flat, constants.FormatJPEG, 95)
	require.NoError(t, err)

	img, err := Decode(raw)
	require.NoError(t, err)
	assert.False(t, HasAlpha(img))

	r, g, b, _ := img.At(3, 0).RGBA()
	within(t, 0, uint8(r>>8), 40, "background red")
	within(t, 0, uint8(g>>8), 40, "background green")
	within(t, 0, uint8(b>>8), 40, "background blue")
}

func TestEncode_PNGKeepsAlpha(t *testing.T) {
	raw, err := EncodeBytes(cutout(), constants.FormatPNG, 95)
	require.NoError(t, err)

	img, err := Decode(raw)
	require.NoError(t, err)
	assert.True(t, HasAlpha(img))
	_, _, _, a := img.At(3, 0).RGBA()
	assert.Equal(t, uint32(0), a)
}

func TestEncode_OtherFormats(t *testing.T) {
	for _, f := range []constants.OutputFormat{constants.FormatBMP, constants.FormatTIFF, constants.FormatWEBP} {
		t.Run(string(f), func(t *testing.T) {
			raw, err := EncodeBytes(cutout(), f, 90)
			require.NoError(t, err)
			img, err := Decode(raw)
			require.NoError(t, err)
			assert.Equal(t, 4, img.Bounds().Dx())
			assert.Equal(t, 4, img.Bounds().Dy())
		})
	}
}

func TestEncode_Unsupported(t *testing.T) {
	_, err := EncodeBytes(cutout(), constants.OutputFormat("GIF"), 90)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
