package integrator

import (
	"fmt"

	"github.com/df07/go-octree-pathtracer/pkg/core"
	"github.com/df07/go-octree-pathtracer/pkg/geometry"
	"github.com/df07/go-octree-pathtracer/pkg/material"
	"github.com/df07/go-octree-pathtracer/pkg/scene"
)

// PathMIS is a path tracer that combines light sampling and BSDF sampling at
// every diffuse vertex with multiple importance sampling
type PathMIS struct {
	PathConfig
	Heuristic string // HeuristicBalance or HeuristicPower
}

// NewPathMIS creates a MIS path tracer with the default limits
func NewPathMIS() *PathMIS {
	return &PathMIS{
		PathConfig: PathConfig{MaxDepth: 6, RRMinBounces: 3},
		Heuristic:  HeuristicBalance,
	}
}

// Li estimates the radiance arriving along ray
func (p *PathMIS) Li(s *scene.Scene, sampler core.Sampler, ray core.Ray) core.Vec3 {
	var its geometry.Intersection
	var radiance core.Vec3
	throughput := core.Splat(1)
	eta := 1.0

	// Emission seen by the camera or through a discrete bounce has no
	// competing light sample and is counted with full weight
	discrete := true
	bsdfPDF := 0.0
	ref := ray.Origin

	for depth := 0; depth < p.MaxDepth; depth++ {
		if !s.RayIntersect(ray, &its) {
			break
		}

		if le, q, index := emittedRadiance(s, &its, ref); index >= 0 && !le.IsZero() {
			weight := 1.0
			if !discrete {
				weight = misWeight(p.Heuristic, bsdfPDF, s.EmitterPDF(index, &q))
			}
			radiance = radiance.Add(throughput.MultiplyVec(le).Multiply(weight))
		}

		bsdf := its.Mesh.BSDF
		wi := its.ToLocal(ray.Direction.Negate())

		if bsdf.IsDiffuse() {
			if ls, ok := sampleLight(s, sampler, &its, bsdf, wi); ok {
				weight := misWeight(p.Heuristic, ls.lightPDF, ls.bsdfPDF)
				radiance = radiance.Add(throughput.MultiplyVec(ls.contrib).Multiply(weight))
			}
		}

		bq := material.NewSampleQuery(wi, its.UV, its.P)
		f := bsdf.Sample(&bq, sampler.Get2D())
		if f.IsZero() {
			break
		}
		discrete = bq.Measure == material.MeasureDiscrete
		bsdfPDF = 0
		if !discrete {
			bsdfPDF = bsdf.PDF(&bq)
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

func (p *PathMIS) String() string {
	return fmt.Sprintf("PathMISIntegrator[maxDepth=%d, rrMinBounces=%d, heuristic=%s]", p.MaxDepth, p.RRMinBounces, p.Heuristic)
}
