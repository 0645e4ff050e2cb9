package material

import (
	"github.com/df07/go-octree-pathtracer/pkg/core"
)

// newProceduralTexture rasterizes fn over a width x height texture. Row 0 is
// the top of the image, matching decoded image files.
func newProceduralTexture(width, height int, fn func(x, y int) core.Vec3) *ImageTexture {
	pixels := make([]core.Vec3, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pixels[y*width+x] = fn(x, y)
		}
	}
	return NewImageTexture(width, height, pixels)
}

// NewCheckerboardTexture creates a checkerboard of checkSize pixel squares
func NewCheckerboardTexture(width, height, checkSize int, color1, color2 core.Vec3) *ImageTexture {
	return newProceduralTexture(width, height, func(x, y int) core.Vec3 {
		if (x/checkSize+y/checkSize)%2 == 0 {
			return color1
		}
		return color2
	})
}

// NewUVDebugTexture maps u to the red channel and v to the green channel
func NewUVDebugTexture(width, height int) *ImageTexture {
	return newProceduralTexture(width, height, func(x, y int) core.Vec3 {
		u := float64(x) / float64(max(width-1, 1))
		v := 1 - float64(y)/float64(max(height-1, 1))
		return core.NewVec3(u, v, 0)
	})
}

// NewGradientTexture blends from top (v = 1) to bottom (v = 0)
func NewGradientTexture(width, height int, top, bottom core.Vec3) *ImageTexture {
	return newProceduralTexture(width, height, func(x, y int) core.Vec3 {
		t := float64(y) / float64(max(height-1, 1))
		return top.Multiply(1 - t).Add(bottom.Multiply(t))
	})
}
