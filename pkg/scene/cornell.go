package scene

import (
	"github.com/df07/go-octree-pathtracer/pkg/camera"
	"github.com/df07/go-octree-pathtracer/pkg/core"
	"github.com/df07/go-octree-pathtracer/pkg/geometry"
	"github.com/df07/go-octree-pathtracer/pkg/lights"
	"github.com/df07/go-octree-pathtracer/pkg/material"
	"github.com/df07/go-octree-pathtracer/pkg/sampler"
	"go.uber.org/zap"
)

// NewCornellScene creates a classic Cornell box scene with quad walls and area lighting.
// The integrator is left unset.
func NewCornellScene(logger *zap.Logger) (*Scene, error) {
	s := New(logger)

	// Camera outside the box looking in
	toWorld := core.LookAt(core.NewVec3(278, 278, -800), core.NewVec3(278, 278, 0), core.NewVec3(0, 1, 0))
	if err := s.SetCamera(camera.NewPerspective(400, 400, 40, toWorld)); err != nil {
		return nil, err
	}
	if err := s.SetSampler(sampler.NewIndependent(64)); err != nil {
		return nil, err
	}

	white := material.NewDiffuse(core.NewVec3(0.73, 0.73, 0.73))
	red := material.NewDiffuse(core.NewVec3(0.65, 0.05, 0.05))
	green := material.NewDiffuse(core.NewVec3(0.12, 0.45, 0.15))

	// Cornell box dimensions (standard 555x555x555 units), walls facing inward
	const boxSize = 555.0
	walls := []struct {
		name   string
		corner core.Vec3
		u, v   core.Vec3
		bsdf   material.BSDF
	}{
		{"floor", core.NewVec3(0, 0, 0), core.NewVec3(0, 0, boxSize), core.NewVec3(boxSize, 0, 0), white},
		{"ceiling", core.NewVec3(0, boxSize, 0), core.NewVec3(boxSize, 0, 0), core.NewVec3(0, 0, boxSize), white},
		{"back", core.NewVec3(0, 0, boxSize), core.NewVec3(0, boxSize, 0), core.NewVec3(boxSize, 0, 0), white},
		{"left", core.NewVec3(boxSize, 0, 0), core.NewVec3(0, 0, boxSize), core.NewVec3(0, boxSize, 0), red},
		{"right", core.NewVec3(0, 0, 0), core.NewVec3(0, boxSize, 0), core.NewVec3(0, 0, boxSize), green},
	}
	for _, wall := range walls {
		mesh := geometry.NewQuadMesh(wall.name, wall.corner, wall.u, wall.v)
		mesh.BSDF = wall.bsdf
		if _, err := s.AddMesh(mesh, nil); err != nil {
			return nil, err
		}
	}

	// Ceiling light, slightly below the ceiling and facing down
	lightSize := 130.0
	lightOffset := (boxSize - lightSize) / 2.0
	light := geometry.NewQuadMesh("light",
		core.NewVec3(lightOffset, boxSize-1, lightOffset),
		core.NewVec3(lightSize, 0, 0),
		core.NewVec3(0, 0, lightSize),
	)
	light.BSDF = material.NewDiffuse(core.Vec3{})
	if _, err := s.AddMesh(light, lights.NewAreaLight(core.NewVec3(15, 15, 15))); err != nil {
		return nil, err
	}

	// Mirror sphere on the left, glass sphere on the right
	mirror := geometry.NewSphereMesh("mirror-sphere", core.NewVec3(370, 90, 169), 90, 48, 24)
	mirror.BSDF = material.NewMirror()
	glass := geometry.NewSphereMesh("glass-sphere", core.NewVec3(185, 90, 351), 90, 48, 24)
	glass.BSDF = material.NewDielectric(1.5046, 1.000277)
	for _, mesh := range []*geometry.Mesh{mirror, glass} {
		if _, err := s.AddMesh(mesh, nil); err != nil {
			return nil, err
		}
	}

	return s, nil
}
