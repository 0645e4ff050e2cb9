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

// NewTexturesScene creates a row of textured meshes (sphere, box, quad and a
// single triangle) on a checkered ground, demonstrating UV mapping. The
// integrator is left unset.
func NewTexturesScene(logger *zap.Logger) (*Scene, error) {
	s := New(logger)

	toWorld := core.LookAt(core.NewVec3(0, 2, 10), core.NewVec3(0, 1, 0), core.NewVec3(0, 1, 0))
	if err := s.SetCamera(camera.NewPerspective(800, 450, 50, toWorld)); err != nil {
		return nil, err
	}
	if err := s.SetSampler(sampler.NewIndependent(32)); err != nil {
		return nil, err
	}

	checker := material.NewTexturedDiffuse(material.NewCheckerboardTexture(256, 256, 32,
		core.NewVec3(0.9, 0.9, 0.9),
		core.NewVec3(0.2, 0.2, 0.8),
	))
	gradient := material.NewTexturedDiffuse(material.NewGradientTexture(256, 256,
		core.NewVec3(1.0, 0.2, 0.2),
		core.NewVec3(0.2, 1.0, 0.2),
	))
	uvDebug := material.NewTexturedDiffuse(material.NewUVDebugTexture(256, 256))
	brick := material.NewTexturedDiffuse(material.NewCheckerboardTexture(512, 512, 16,
		core.NewVec3(0.7, 0.3, 0.1),
		core.NewVec3(0.5, 0.2, 0.05),
	))

	sphere := geometry.NewSphereMesh("checker-sphere", core.NewVec3(-4.5, 1, 0), 1, 48, 24)
	sphere.BSDF = checker

	box := geometry.NewBoxMesh("brick-box", core.NewVec3(-2.3, 0, -0.8), core.NewVec3(-0.7, 1.6, 0.8))
	box.BSDF = brick

	// Vertical quad, tilted toward the camera
	quad := geometry.NewQuadMesh("gradient-quad", core.NewVec3(0.5, 0, 0.2), core.NewVec3(1.5, 0, -0.3), core.NewVec3(0, 2, 0))
	quad.BSDF = gradient

	triangle := geometry.NewMesh("uv-triangle", []core.Vec3{
		core.NewVec3(3, 0, 0),
		core.NewVec3(4.5, 0, 0),
		core.NewVec3(3.75, 2, 0),
	}, []uint32{0, 1, 2})
	triangle.UVs = []core.Vec2{core.NewVec2(0, 0), core.NewVec2(1, 0), core.NewVec2(0.5, 1)}
	triangle.BSDF = uvDebug

	ground := geometry.NewQuadMesh("ground", core.NewVec3(-10, 0, -5), core.NewVec3(0, 0, 15), core.NewVec3(20, 0, 0))
	ground.BSDF = brick

	for _, mesh := range []*geometry.Mesh{sphere, box, quad, triangle, ground} {
		if _, err := s.AddMesh(mesh, nil); err != nil {
			return nil, err
		}
	}

	// Spherical area light above and in front of the row
	light := geometry.NewSphereMesh("light", core.NewVec3(0, 8, 5), 2, 32, 16)
	light.BSDF = material.NewDiffuse(core.Vec3{})
	if _, err := s.AddMesh(light, lights.NewAreaLight(core.NewVec3(20, 20, 20))); err != nil {
		return nil, err
	}
	return s, nil
}
