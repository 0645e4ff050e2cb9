package integrator

import (
	"fmt"
	"math"

	"github.com/df07/go-octree-pathtracer/pkg/core"
	"github.com/df07/go-octree-pathtracer/pkg/geometry"
	"github.com/df07/go-octree-pathtracer/pkg/lights"
	"github.com/df07/go-octree-pathtracer/pkg/material"
	"github.com/df07/go-octree-pathtracer/pkg/scene"
)

// MIS heuristics accepted by path_mis
const (
	HeuristicBalance = "balance"
	HeuristicPower   = "power"
)

// PathConfig holds the limits shared by the path tracing integrators
type PathConfig struct {
	MaxDepth      int    // maximum number of surface interactions per path
	RRMinBounces  int    // bounces before Russian roulette starts
	LightSampling string // light selection strategy, see lights.SelectUniform
}

// Preprocess applies the configured light selection strategy
func (c *PathConfig) Preprocess(s *scene.Scene) error {
	return applyLightSampling(s, c.LightSampling)
}

func (c *PathConfig) validate() error {
	if c.MaxDepth <= 0 {
		return fmt.Errorf("maxDepth must be positive, got %d", c.MaxDepth)
	}
	if c.RRMinBounces < 0 {
		return fmt.Errorf("rrMinBounces must not be negative, got %d", c.RRMinBounces)
	}
	return validateLightSampling(c.LightSampling)
}

func applyLightSampling(s *scene.Scene, strategy string) error {
	if strategy == "" || strategy == lights.SelectUniform {
		return nil
	}
	return s.SetLightSelection(strategy)
}

func validateLightSampling(strategy string) error {
	switch strategy {
	case "", lights.SelectUniform, lights.SelectPower:
		return nil
	default:
		return fmt.Errorf("unknown light sampling strategy %q", strategy)
	}
}

// russianRoulette decides whether a path continues once bounce reaches
// minBounces. The path survives with probability min(0.99, max(throughput)*eta^2);
// a surviving path has its throughput divided by that probability.
func russianRoulette(sampler core.Sampler, bounce, minBounces int, throughput *core.Vec3, eta float64) bool {
	if bounce < minBounces {
		return true
	}
	q := math.Min(0.99, throughput.MaxComponent()*eta*eta)
	if q <= 0 || sampler.Get1D() >= q {
		return false
	}
	*throughput = throughput.Divide(q)
	return true
}

// misWeight returns the weight of strategy A against strategy B
func misWeight(heuristic string, pdfA, pdfB float64) float64 {
	if heuristic == HeuristicPower {
		return core.PowerHeuristic(1, pdfA, 1, pdfB)
	}
	return core.BalanceHeuristic(pdfA, pdfB)
}

// emittedRadiance returns the radiance leaving the hit point toward ref, the
// query describing the hit and the index of the emitter, or -1 when the hit
// mesh does not emit.
func emittedRadiance(s *scene.Scene, its *geometry.Intersection, ref core.Vec3) (core.Vec3, lights.EmitterQuery, int) {
	emitter, index := s.EmitterAt(its)
	if emitter == nil {
		return core.Vec3{}, lights.EmitterQuery{}, -1
	}
	q := lights.NewEmitterHitQuery(ref, its.P, its.GeoFrame.N)
	return emitter.Eval(&q), q, index
}

// lightSample is the result of next-event estimation at one vertex
type lightSample struct {
	contrib  core.Vec3 // f * Le * cos / pdf, unweighted
	lightPDF float64   // solid angle density of the light sample, selection included
	bsdfPDF  float64   // density of BSDF sampling producing the same direction
}

// sampleLight picks an emitter, samples it from the hit point and traces a
// shadow ray. wi is the local direction back along the incoming ray.
// Returns false when the sample contributes nothing.
func sampleLight(s *scene.Scene, sampler core.Sampler, its *geometry.Intersection, bsdf material.BSDF, wi core.Vec3) (lightSample, bool) {
	q := lights.NewEmitterQuery(its.P, its.ShFrame.N)
	emitter, le := s.SampleEmitter(&q, sampler.Get1D(), sampler.Get2D())
	if emitter == nil || le.IsZero() || q.PDF <= 0 {
		return lightSample{}, false
	}

	wo := its.ToLocal(q.Wi)
	bq := material.NewEvalQuery(wi, wo, its.UV, its.P)
	f := bsdf.Eval(&bq)
	if f.IsZero() {
		return lightSample{}, false
	}
	if s.Occluded(q.ShadowRay()) {
		return lightSample{}, false
	}

	sample := lightSample{
		contrib:  f.MultiplyVec(le).Multiply(math.Abs(core.CosTheta(wo)) / q.PDF),
		lightPDF: q.PDF,
	}
	if !emitter.IsDelta() {
		sample.bsdfPDF = bsdf.PDF(&bq)
	}
	return sample, true
}
