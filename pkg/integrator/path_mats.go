package integrator

import (
	"fmt"

	"github.com/df07/go-octree-pathtracer/pkg/core"
	"github.com/df07/go-octree-pathtracer/pkg/geometry"
	"github.com/df07/go-octree-pathtracer/pkg/material"
	"github.com/df07/go-octree-pathtracer/pkg/scene"
)

// PathMats is a path tracer that only samples the BSDF; light is collected
// when a path happens to hit an emitter
type PathMats struct {
	PathConfig
}

// NewPathMats creates a BSDF-sampling path tracer with the default limits
func NewPathMats() *PathMats {
	return &PathMats{PathConfig: PathConfig{MaxDepth: 8, RRMinBounces: 3}}
}

// Li estimates the radiance arriving along ray
func (p *PathMats) Li(s *scene.Scene, sampler core.Sampler, ray core.Ray) core.Vec3 {
	var its geometry.Intersection
	var radiance core.Vec3
	throughput := core.Splat(1)
	eta := 1.0
	ref := ray.Origin

	for depth := 0; depth < p.MaxDepth; depth++ {
		if !s.RayIntersect(ray, &its) {
			break
		}

		if le, _, index := emittedRadiance(s, &its, ref); index >= 0 {
			radiance = radiance.Add(throughput.MultiplyVec(le))
		}

		bq := material.NewSampleQuery(its.ToLocal(ray.Direction.Negate()), its.UV, its.P)
		f := its.Mesh.BSDF.Sample(&bq, sampler.Get2D())
		if f.IsZero() {
			break
		}

		throughput = throughput.MultiplyVec(f)
		eta *= bq.Eta
		if !russianRoulette(sampler, depth, p.RRMinBounces, &throughput, eta) {
			break
		}

		ref = its.P
		ray = core.NewRay(its.P, its.ToWorld(bq.Wo))
	}

	return radiance
}

func (p *PathMats) String() string {
	return fmt.Sprintf("PathMatsIntegrator[maxDepth=%d, rrMinBounces=%d]", p.MaxDepth, p.RRMinBounces)
}
