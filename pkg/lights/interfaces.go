package lights

import (
	"math"

	"github.com/df07/go-octree-pathtracer/pkg/core"
)

// EmitterQuery carries the data exchanged with an emitter. Sample fills in
// everything after RefNormal; PDF and Eval read P, N and Wi.
type EmitterQuery struct {
	Ref       core.Vec3 // shading point
	RefNormal core.Vec3 // shading normal at Ref (zero when unknown)
	P         core.Vec3 // point on the emitter
	N         core.Vec3 // emitter normal at P
	Wi        core.Vec3 // unit direction from Ref toward P
	Distance  float64   // distance from Ref to P, +Inf for directional lights
	PDF       float64   // solid angle density of the sample, 1 for delta lights
}

// NewEmitterQuery prepares a query for light sampling at a shading point
func NewEmitterQuery(ref, refNormal core.Vec3) EmitterQuery {
	return EmitterQuery{Ref: ref, RefNormal: refNormal}
}

// NewEmitterHitQuery describes a ray from ref that hit an emitter at p with normal n
func NewEmitterHitQuery(ref, p, n core.Vec3) EmitterQuery {
	d := p.Subtract(ref)
	dist := d.Length()
	return EmitterQuery{Ref: ref, P: p, N: n, Wi: d.Divide(dist), Distance: dist}
}

// ShadowRay returns the segment between the shading point and the emitter
// sample, shortened at both ends to avoid self-intersection.
func (q *EmitterQuery) ShadowRay() core.Ray {
	if math.IsInf(q.Distance, 1) {
		return core.NewRay(q.Ref, q.Wi)
	}
	return core.NewRaySegment(q.Ref, q.Wi, core.Epsilon, q.Distance*(1-core.Epsilon))
}

// Emitter is the capability surface of a light source
type Emitter interface {
	// Sample picks a point on the light as seen from q.Ref, fills in the
	// geometry and solid angle pdf of the query and returns the incident
	// radiance without dividing by the pdf. Returns zero when the sample is
	// unusable (back side, edge-on).
	Sample(q *EmitterQuery, sample core.Vec2) core.Vec3

	// PDF returns the solid angle density with which Sample would produce q.P
	// from q.Ref. Zero for delta lights, which BSDF sampling can never hit.
	PDF(q *EmitterQuery) float64

	// Eval returns the radiance leaving q.P toward q.Ref
	Eval(q *EmitterQuery) core.Vec3

	// IsDelta reports whether the light occupies zero area or solid angle
	IsDelta() bool

	// Power estimates the emitted flux, used to weight light selection.
	// sceneRadius bounds the scene for lights at infinity.
	Power(sceneRadius float64) float64
}
