package loaders

import (
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"os"

	"github.com/df07/go-octree-pathtracer/pkg/core"
	"github.com/df07/go-octree-pathtracer/pkg/material"
)

// LoadTexture loads a PNG or JPEG image as a texture. The 8-bit sRGB values
// are converted to linear RGB.
func LoadTexture(filename string) (*material.ImageTexture, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loading texture %s: %w", filename, err)
	}
	defer file.Close()

	// Decode image (auto-detects PNG/JPEG from file header)
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("loading texture %s: %w", filename, err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	pixels := make([]core.Vec3, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			// RGBA returns uint32 in [0, 65535]
			pixels[y*width+x] = core.NewVec3(
				float64(r)/65535.0,
				float64(g)/65535.0,
				float64(b)/65535.0,
			).ToLinear()
		}
	}

	return material.NewImageTexture(width, height, pixels), nil
}
