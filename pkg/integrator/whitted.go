package integrator

import (
	"fmt"

	"github.com/df07/go-octree-pathtracer/pkg/core"
	"github.com/df07/go-octree-pathtracer/pkg/geometry"
	"github.com/df07/go-octree-pathtracer/pkg/material"
	"github.com/df07/go-octree-pathtracer/pkg/scene"
)

// whittedContinuation is the probability of following a discrete bounce
const whittedContinuation = 0.95

// Whitted computes direct lighting at the first diffuse surface and follows
// mirror and glass bounces until it gets there
type Whitted struct {
	LightSampling string
}

// NewWhitted creates a Whitted-style integrator
func NewWhitted() *Whitted {
	return &Whitted{}
}

// Preprocess applies the configured light selection strategy
func (w *Whitted) Preprocess(s *scene.Scene) error {
	return applyLightSampling(s, w.LightSampling)
}

// Li estimates the radiance arriving along ray
func (w *Whitted) Li(s *scene.Scene, sampler core.Sampler, ray core.Ray) core.Vec3 {
	var its geometry.Intersection
	var radiance core.Vec3
	throughput := core.Splat(1)

	for {
		if !s.RayIntersect(ray, &its) {
			break
		}

		if le, _, index := emittedRadiance(s, &its, ray.Origin); index >= 0 {
			radiance = radiance.Add(throughput.MultiplyVec(le))
		}

		bsdf := its.Mesh.BSDF
		wi := its.ToLocal(ray.Direction.Negate())
		if bsdf.IsDiffuse() {
			if ls, ok := sampleLight(s, sampler, &its, bsdf, wi); ok {
				radiance = radiance.Add(throughput.MultiplyVec(ls.contrib))
			}
			break
		}

		if sampler.Get1D() >= whittedContinuation {
			break
		}
		bq := material.NewSampleQuery(wi, its.UV, its.P)
		f := bsdf.Sample(&bq, sampler.Get2D())
		if f.IsZero() {
			break
		}
		throughput = throughput.MultiplyVec(f).Multiply(1 / whittedContinuation)
		ray = core.NewRay(its.P, its.ToWorld(bq.Wo))
	}

	return radiance
}

func (w *Whitted) String() string {
	return fmt.Sprintf("WhittedIntegrator[lightSampling=%q]", w.LightSampling)
}
