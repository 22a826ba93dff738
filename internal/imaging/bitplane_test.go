package imaging

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestImage(t *testing.T, w, h int) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := img.PixOffset(x, y)
			img.Pix[off] = uint8(x * 37)
			img.Pix[off+1] = uint8(y * 53)
			img.Pix[off+2] = uint8((x + y) * 11)
			img.Pix[off+3] = 0xff
		}
	}

	path := filepath.Join(t.TempDir(), "in.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestLoadBits_Shape(t *testing.T) {
	path := writeTestImage(t, 5, 3)

	bits, shape, err := LoadBits(path)
	require.NoError(t, err)

	assert.Equal(t, Shape{Width: 5, Height: 3}, shape)
	assert.Len(t, bits, 5*3*3*8)
	assert.Zero(t, len(bits)%4, "bit count must be a multiple of 4")
	for _, b := range bits {
		assert.LessOrEqual(t, b, byte(1))
	}
}

func TestBits_RoundTrip(t *testing.T) {
	path := writeTestImage(t, 8, 4)

	bits, shape, err := LoadBits(path)
	require.NoError(t, err)

	img, err := BitsToImage(bits, shape)
	require.NoError(t, err)

	again, shape2, err := reloadBits(t, img, shape)
	require.NoError(t, err)
	assert.Equal(t, shape, shape2)
	assert.Equal(t, bits, again)
}

func reloadBits(t *testing.T, img image.Image, shape Shape) ([]byte, Shape, error) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "out.png")
	if err := SaveImage(img, path); err != nil {
		return nil, Shape{}, err
	}
	return LoadBits(path)
}

func TestBitsToImage_ShapeMismatch(t *testing.T) {
	_, err := BitsToImage(make([]byte, 10), Shape{Width: 2, Height: 2})
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestLoadBits_MissingFile(t *testing.T) {
	_, _, err := LoadBits(filepath.Join(t.TempDir(), "nope.png"))
	require.Error(t, err)
}
