package loaders

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/df07/go-octree-pathtracer/pkg/core"
)

// writePNG encodes img into dir/name and returns the path
func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	return path
}

func TestLoadTexture(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	img.Set(1, 0, color.RGBA{R: 255, G: 0, B: 0, A: 255})
	img.Set(0, 1, color.RGBA{R: 0, G: 255, B: 0, A: 255})
	img.Set(1, 1, color.RGBA{R: 0, G: 0, B: 188, A: 255})
	path := writePNG(t, t.TempDir(), "test.png", img)

	tex, err := LoadTexture(path)
	if err != nil {
		t.Fatalf("LoadTexture failed: %v", err)
	}
	if tex.Width != 2 || tex.Height != 2 || len(tex.Pixels) != 4 {
		t.Fatalf("Expected a 2x2 texture, got %dx%d with %d pixels", tex.Width, tex.Height, len(tex.Pixels))
	}

	// sRGB 188/255 is roughly 0.5 in linear space
	half := core.NewVec3(0, 0, 188.0/255.0).ToLinear().Z
	if math.Abs(half-0.5) > 0.01 {
		t.Fatalf("Unexpected linear value %f", half)
	}

	testCases := []struct {
		name     string
		index    int
		expected core.Vec3
	}{
		{"Top-left (white)", 0, core.NewVec3(1, 1, 1)},
		{"Top-right (red)", 1, core.NewVec3(1, 0, 0)},
		{"Bottom-left (green)", 2, core.NewVec3(0, 1, 0)},
		{"Bottom-right (half blue)", 3, core.NewVec3(0, 0, half)},
	}
	for _, tc := range testCases {
		if got := tex.Pixels[tc.index]; got.Subtract(tc.expected).Length() > 1e-6 {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.expected, got)
		}
	}
}

func TestLoadTexture_NotFound(t *testing.T) {
	_, err := LoadTexture("nonexistent.png")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected a not-exist error, got %v", err)
	}
}
