package material

import (
	"github.com/df07/go-octree-pathtracer/pkg/core"
)

// Measure identifies the measure a BSDF sample or query is expressed in
type Measure int

const (
	MeasureUnknown    Measure = iota
	MeasureSolidAngle         // continuous lobes (diffuse, glossy)
	MeasureDiscrete           // delta lobes (mirror, glass)
)

func (m Measure) String() string {
	switch m {
	case MeasureSolidAngle:
		return "solid-angle"
	case MeasureDiscrete:
		return "discrete"
	default:
		return "unknown"
	}
}

// BSDFQuery carries directions in the local shading frame (normal along +Z).
// Wi points back toward where the light path came from (the camera side),
// Wo is the scattered direction.
type BSDFQuery struct {
	Wi      core.Vec3
	Wo      core.Vec3
	UV      core.Vec2 // surface texture coordinates
	P       core.Vec3 // world-space hit point, for procedural color sources
	Eta     float64   // relative index of refraction of the sampled event
	Measure Measure
}

// NewSampleQuery creates a query for BSDF sampling given only the incident direction
func NewSampleQuery(wi core.Vec3, uv core.Vec2, p core.Vec3) BSDFQuery {
	return BSDFQuery{Wi: wi, UV: uv, P: p, Eta: 1, Measure: MeasureUnknown}
}

// NewEvalQuery creates a solid-angle query for evaluating a known direction pair
func NewEvalQuery(wi, wo core.Vec3, uv core.Vec2, p core.Vec3) BSDFQuery {
	return BSDFQuery{Wi: wi, Wo: wo, UV: uv, P: p, Eta: 1, Measure: MeasureSolidAngle}
}

// BSDF is the scattering capability consumed by integrators
type BSDF interface {
	// Sample fills q.Wo, q.Eta and q.Measure and returns eval*cos/pdf
	// (or the discrete weight). A zero color means the sample failed.
	Sample(q *BSDFQuery, sample core.Vec2) core.Vec3

	// Eval returns the BSDF value for q.Wi and q.Wo; zero for discrete lobes
	Eval(q *BSDFQuery) core.Vec3

	// PDF returns the solid-angle density of sampling q.Wo; zero for discrete lobes
	PDF(q *BSDFQuery) float64

	// IsDiffuse reports whether next-event estimation applies to this BSDF
	IsDiffuse() bool
}
