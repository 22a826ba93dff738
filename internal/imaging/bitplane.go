// Package imaging converts images to and from flat bitstreams. It is
// the information source and sink of the simulated link: each RGB
// channel byte becomes 8 bits, MSB first.
package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
)

// ErrShapeMismatch reports a bitstream that does not fill the target
// image dimensions.
var ErrShapeMismatch = errors.New("bit count does not match image dimensions")

// Shape records the dimensions of the source image so the recovered
// bitstream can be reassembled.
type Shape struct {
	Width  int
	Height int
}

// Bits returns the number of bits an image of this shape produces
// (3 channels, 8 bits each).
func (s Shape) Bits() int {
	return s.Width * s.Height * 3 * 8
}

// LoadBits decodes an image file and flattens its RGB channels into a
// bitstream of 0/1 bytes, row-major, MSB first within each channel
// byte. The alpha channel is dropped.
func LoadBits(path string) ([]byte, Shape, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Shape{}, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, Shape{}, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	shape := Shape{Width: bounds.Dx(), Height: bounds.Dy()}
	bits := make([]byte, 0, shape.Bits())

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			for _, ch := range [3]uint8{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)} {
				bits = appendByteBits(bits, ch)
			}
		}
	}
	return bits, shape, nil
}

// BitsToImage reassembles a recovered bitstream into an image of the
// given shape.
func BitsToImage(bits []byte, shape Shape) (*image.NRGBA, error) {
	if len(bits) != shape.Bits() {
		return nil, fmt.Errorf("%w: %d bits for %dx%d", ErrShapeMismatch, len(bits), shape.Width, shape.Height)
	}

	img := image.NewNRGBA(image.Rect(0, 0, shape.Width, shape.Height))
	idx := 0
	for y := 0; y < shape.Height; y++ {
		for x := 0; x < shape.Width; x++ {
			off := img.PixOffset(x, y)
			for ch := 0; ch < 3; ch++ {
				img.Pix[off+ch] = packByte(bits[idx : idx+8])
				idx += 8
			}
			img.Pix[off+3] = 0xff
		}
	}
	return img, nil
}

// SaveImage writes an image as PNG or JPEG depending on the file
// extension (default PNG).
func SaveImage(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		return fmt.Errorf("encode image: %w", err)
	}
	return nil
}

func appendByteBits(bits []byte, b uint8) []byte {
	for j := 7; j >= 0; j-- {
		bits = append(bits, (b>>uint(j))&1)
	}
	return bits
}

func packByte(bits []byte) uint8 {
	var b uint8
	for _, bit := range bits {
		b = (b << 1) | (bit & 1)
	}
	return b
}
