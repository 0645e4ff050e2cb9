package material

import (
	"fmt"
	"math"

	"github.com/df07/go-octree-pathtracer/pkg/core"
)

// ImageTexture provides color from a 2D image of linear RGB values
type ImageTexture struct {
	Width  int
	Height int
	Pixels []core.Vec3 // Row-major: Pixels[y*Width + x]
}

// NewImageTexture creates a new image texture
func NewImageTexture(width, height int, pixels []core.Vec3) *ImageTexture {
	return &ImageTexture{
		Width:  width,
		Height: height,
		Pixels: pixels,
	}
}

// Evaluate samples the texture at given UV coordinates using nearest-neighbor
// lookup. UVs wrap around; v = 0 is the bottom row of the image.
func (t *ImageTexture) Evaluate(uv core.Vec2, point core.Vec3) core.Vec3 {
	u := uv.X - math.Floor(uv.X)
	v := uv.Y - math.Floor(uv.Y)

	x := min(int(u*float64(t.Width)), t.Width-1)
	y := min(int((1-v)*float64(t.Height)), t.Height-1)
	return t.Pixels[max(y, 0)*t.Width+max(x, 0)]
}

func (t *ImageTexture) String() string {
	return fmt.Sprintf("ImageTexture[%dx%d]", t.Width, t.Height)
}
