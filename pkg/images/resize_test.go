package images

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jubnl/RedditDownloader/pkg/logger"
)

func writeTestPNG(t *testing.T, dir string, width, height int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}

	path := filepath.Join(dir, "test.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestPresetByName(t *testing.T) {
	scale, ok := PresetByName("instagram-photo-square")
	require.True(t, ok)
	assert.Equal(t, Scale{1080, 1080}, scale)

	_, ok = PresetByName("no-such-preset")
	assert.False(t, ok)
}

func TestResizeReplacesOriginal(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, 64, 64)

	r := NewResizer(logger.NewTestLogger())
	out, err := r.Resize(path, Scale{Width: 32, Height: 32}, true)
	require.NoError(t, err)
	assert.Equal(t, path, out)

	img, err := imaging.Open(out)
	require.NoError(t, err)
	bounds := img.Bounds()
	assert.Equal(t, 32, bounds.Dx())
	assert.Equal(t, 32, bounds.Dy())
}

func TestResizeIntoSiblingDirectory(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, 64, 64)

	r := NewResizer(logger.NewTestLogger())
	out, err := r.Resize(path, Scale{Width: 16, Height: 16}, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "resized", "test.png"), out)

	// Original stays untouched.
	orig, err := imaging.Open(path)
	require.NoError(t, err)
	assert.Equal(t, 64, orig.Bounds().Dx())

	resized, err := imaging.Open(out)
	require.NoError(t, err)
	assert.Equal(t, 16, resized.Bounds().Dx())
}

func TestResizeMissingFile(t *testing.T) {
	r := NewResizer(logger.NewTestLogger())
	_, err := r.Resize(filepath.Join(t.TempDir(), "missing.png"), Scale{Width: 10, Height: 10}, true)
	require.Error(t, err)
}

func TestResizeNonImageFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "not-an-image.png")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0644))

	r := NewResizer(logger.NewTestLogger())
	_, err := r.Resize(path, Scale{Width: 10, Height: 10}, true)
	require.Error(t, err)
}
