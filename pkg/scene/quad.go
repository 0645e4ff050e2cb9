package scene

import (
	"github.com/df07/go-octree-pathtracer/pkg/camera"
	"github.com/df07/go-octree-pathtracer/pkg/core"
	"github.com/df07/go-octree-pathtracer/pkg/geometry"
	"github.com/df07/go-octree-pathtracer/pkg/lights"
	"github.com/df07/go-octree-pathtracer/pkg/sampler"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// NewQuadScene creates a single emissive quad of unit radiance that fills the
// whole frame of a camera at the origin looking down +Z. Every pixel of a
// converged render is exactly 1. The integrator is left unset.
func NewQuadScene(logger *zap.Logger) (*Scene, error) {
	s := New(logger)

	if err := s.SetCamera(camera.NewPerspective(64, 64, 30, mgl64.Ident4())); err != nil {
		return nil, err
	}
	if err := s.SetSampler(sampler.NewIndependent(1)); err != nil {
		return nil, err
	}

	// u × v points back toward the camera
	quad := geometry.NewQuadMesh("emitter",
		core.NewVec3(-10, -10, 1),
		core.NewVec3(0, 20, 0),
		core.NewVec3(20, 0, 0),
	)
	if _, err := s.AddMesh(quad, lights.NewAreaLight(core.Splat(1))); err != nil {
		return nil, err
	}
	return s, nil
}
