package ingest

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bg-batch/constants"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	return p
}

func basenames(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	sort.Strings(out)
	return out
}

func TestDiscoverInputs_FiltersExtensions(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.jpg")
	touch(t, dir, "b.JPEG")
	touch(t, dir, "c.png")
	touch(t, dir, "d.WebP")
	touch(t, dir, "e.bmp")
	touch(t, dir, "f.tiff")
	touch(t, dir, "notes.txt")
	touch(t, dir, "g.gif")
	touch(t, dir, "noext")
	touch(t, dir, ".hidden.jpg")

	files, err := DiscoverInputs(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.JPEG", "c.png", "d.WebP", "e.bmp", "f.tiff"}, basenames(files))
	for _, f := range files {
		assert.Equal(t, dir, filepath.Dir(f))
	}
}

func TestDiscoverInputs_NoRecursion(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "top.png")
	sub := filepath.Join(dir, "nested.jpg")
	require.NoError(t, os.Mkdir(sub, 0o755))
	touch(t, sub, "deep.png")

	files, err := DiscoverInputs(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"top.png"}, basenames(files))
}

func TestDiscoverInputs_CustomExtensions(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.jpg")
	touch(t, dir, "b.png")

	files, err := DiscoverInputs(dir, map[string]struct{}{"png": {}})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.png"}, basenames(files))
}

func TestDiscoverInputs_EmptyAndMissing(t *testing.T) {
	files, err := DiscoverInputs(t.TempDir(), nil)
	require.NoError(t, err)
	assert.Empty(t, files)

	_, err = DiscoverInputs(filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)

	_, err = DiscoverInputs("  ", nil)
	assert.Error(t, err)
}

func TestComputeStartNumber_Continuity(t *testing.T) {
	dir := t.TempDir()
	for i := 1; i <= 7; i++ {
		touch(t, dir, OutputName(i, constants.FormatJPEG))
	}
	assert.Equal(t, 8, ComputeStartNumber(dir))
}

func TestComputeStartNumber_EmptyOrMissing(t *testing.T) {
	assert.Equal(t, 1, ComputeStartNumber(t.TempDir()))
	assert.Equal(t, 1, ComputeStartNumber(filepath.Join(t.TempDir(), "nope")))
}

func TestComputeStartNumber_IgnoresMalformed(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "img_0003.png")
	touch(t, dir, "img_abcd.jpg")
	touch(t, dir, "img_.jpg")
	touch(t, dir, "img_0099.txt")
	touch(t, dir, "img_0042_old.jpg")
	touch(t, dir, "photo_0100.jpg")
	touch(t, dir, "img_99999999999999999999999.jpg")
	touch(t, dir, ".bgbatch.lock")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "img_0500.jpg"), 0o755))

	assert.Equal(t, 4, ComputeStartNumber(dir))
}

func TestComputeStartNumber_MixedFormats(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "img_0002.jpg")
	touch(t, dir, "img_0010.WEBP")
	touch(t, dir, "img_0005.tif")
	touch(t, dir, "img_12345.png")

	assert.Equal(t, 12346, ComputeStartNumber(dir))
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "img_0001.jpg", OutputName(1, constants.FormatJPEG))
	assert.Equal(t, "img_0042.png", OutputName(42, constants.FormatPNG))
	assert.Equal(t, "img_12345.webp", OutputName(12345, constants.FormatWEBP))
	assert.Equal(t, "img_0007.tiff", OutputName(7, constants.FormatTIFF))
}
