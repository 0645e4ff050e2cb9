package film

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/df07/go-octree-pathtracer/pkg/core"
)

// Bitmap is a dense row-major image of linear radiance values
type Bitmap struct {
	Width, Height int
	Pixels        []core.Vec3
}

// NewBitmap allocates a black bitmap
func NewBitmap(width, height int) *Bitmap {
	return &Bitmap{Width: width, Height: height, Pixels: make([]core.Vec3, width*height)}
}

// At returns the radiance at (x, y)
func (b *Bitmap) At(x, y int) core.Vec3 {
	return b.Pixels[y*b.Width+x]
}

// Set stores the radiance at (x, y)
func (b *Bitmap) Set(x, y int, c core.Vec3) {
	b.Pixels[y*b.Width+x] = c
}

// Mean returns the average radiance over all pixels
func (b *Bitmap) Mean() core.Vec3 {
	var sum core.Vec3
	for _, p := range b.Pixels {
		sum = sum.Add(p)
	}
	if len(b.Pixels) == 0 {
		return sum
	}
	return sum.Divide(float64(len(b.Pixels)))
}

// ToImage scales by exposure, clamps to [0, 1] and encodes as 8-bit sRGB
func (b *Bitmap) ToImage(exposure float64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			c := b.At(x, y).Multiply(exposure).Clamp(0, 1).ToSRGB()
			img.SetRGBA(x, y, color.RGBA{
				R: toByte(c.X),
				G: toByte(c.Y),
				B: toByte(c.Z),
				A: 255,
			})
		}
	}
	return img
}

func toByte(v float64) uint8 {
	return uint8(math.Min(255, math.Max(0, v*255+0.5)))
}

// SavePNG writes the bitmap to path, creating parent directories as needed
func (b *Bitmap) SavePNG(path string, exposure float64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer file.Close()

	if err := png.Encode(file, b.ToImage(exposure)); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}
