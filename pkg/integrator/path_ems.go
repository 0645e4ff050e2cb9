package integrator

import (
	"fmt"

	"github.com/df07/go-octree-pathtracer/pkg/core"
	"github.com/df07/go-octree-pathtracer/pkg/geometry"
	"github.com/df07/go-octree-pathtracer/pkg/material"
	"github.com/df07/go-octree-pathtracer/pkg/scene"
)

// PathEMS is a path tracer with emitter sampling (next-event estimation) at
// diffuse vertices. Emission found by BSDF sampling is only counted when no
// light sample could have found it: at the camera vertex and after discrete bounces.
type PathEMS struct {
	PathConfig
}

// NewPathEMS creates an emitter-sampling path tracer with the default limits
func NewPathEMS() *PathEMS {
	return &PathEMS{PathConfig: PathConfig{MaxDepth: 5, RRMinBounces: 3}}
}

// Li estimates the radiance arriving along ray
func (p *PathEMS) Li(s *scene.Scene, sampler core.Sampler, ray core.Ray) core.Vec3 {
	var its geometry.Intersection
	var radiance core.Vec3
	throughput := core.Splat(1)
	eta := 1.0
	countEmission := true
	ref := ray.Origin

	for depth := 0; depth < p.MaxDepth; depth++ {
		if !s.RayIntersect(ray, &its) {
			break
		}

		if countEmission {
			if le, _, index := emittedRadiance(s, &its, ref); index >= 0 {
				radiance = radiance.Add(throughput.MultiplyVec(le))
			}
		}

		bsdf := its.Mesh.BSDF
		wi := its.ToLocal(ray.Direction.Negate())

		if bsdf.IsDiffuse() {
			if ls, ok := sampleLight(s, sampler, &its, bsdf, wi); ok {
				radiance = radiance.Add(throughput.MultiplyVec(ls.contrib))
			}
		}

		bq := material.NewSampleQuery(wi, its.UV, its.P)
		f := bsdf.Sample(&bq, sampler.Get2D())
		if f.IsZero() {
			break
		}
		countEmission = bq.Measure == material.MeasureDiscrete

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

func (p *PathEMS) String() string {
	return fmt.Sprintf("PathEMSIntegrator[maxDepth=%d, rrMinBounces=%d]", p.MaxDepth, p.RRMinBounces)
}
