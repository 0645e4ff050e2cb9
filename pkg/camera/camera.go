package camera

import (
	"github.com/df07/go-octree-pathtracer/pkg/core"
	"github.com/df07/go-octree-pathtracer/pkg/film"
)

// Camera turns image-plane samples into primary rays
type Camera interface {
	// SampleRay returns the ray through the image position pixel (in pixels)
	// and its importance weight
	SampleRay(pixel, aperture core.Vec2) (core.Ray, core.Vec3)
	// OutputSize returns the image resolution
	OutputSize() (int, int)
	// Filter returns the reconstruction filter used to splat samples
	Filter() film.Filter
	// SetFilter replaces the reconstruction filter
	SetFilter(f film.Filter)
}
