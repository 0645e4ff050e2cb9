package integrator

import (
	"math"

	"github.com/df07/go-octree-pathtracer/pkg/core"
	"github.com/df07/go-octree-pathtracer/pkg/geometry"
	"github.com/df07/go-octree-pathtracer/pkg/scene"
)

// Normals visualizes the absolute shading normal of the first hit
type Normals struct{}

// Li returns |n| of the nearest hit, or black on a miss
func (Normals) Li(s *scene.Scene, sampler core.Sampler, ray core.Ray) core.Vec3 {
	var its geometry.Intersection
	if !s.RayIntersect(ray, &its) {
		return core.Vec3{}
	}
	n := its.ShFrame.N
	return core.NewVec3(math.Abs(n.X), math.Abs(n.Y), math.Abs(n.Z))
}

func (Normals) String() string {
	return "NormalIntegrator[]"
}
