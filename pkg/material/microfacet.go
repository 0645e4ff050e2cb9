package material

import (
	"math"

	"github.com/df07/go-octree-pathtracer/pkg/core"
)

// Microfacet is a Beckmann microfacet reflector layered over a diffuse base.
// The specular lobe is scaled by ks = 1 - max(kd) to keep the sum energy conserving.
type Microfacet struct {
	Alpha  float64   // RMS surface roughness
	IntIOR float64   // interior index of refraction
	ExtIOR float64   // exterior index of refraction
	Kd     core.Vec3 // diffuse albedo
	ks     float64
}

// NewMicrofacet creates a rough conductor-like BRDF with a diffuse base
func NewMicrofacet(alpha, intIOR, extIOR float64, kd core.Vec3) *Microfacet {
	return &Microfacet{
		Alpha:  alpha,
		IntIOR: intIOR,
		ExtIOR: extIOR,
		Kd:     kd,
		ks:     1 - kd.MaxComponent(),
	}
}

// Eval returns the diffuse term plus the Cook-Torrance specular term
func (m *Microfacet) Eval(q *BSDFQuery) core.Vec3 {
	cosI, cosO := core.CosTheta(q.Wi), core.CosTheta(q.Wo)
	if q.Measure != MeasureSolidAngle || cosI <= 0 || cosO <= 0 {
		return core.Vec3{}
	}

	wh := q.Wi.Add(q.Wo).Normalize()
	d := core.SquareToBeckmannPDF(wh, m.Alpha)
	f := Fresnel(wh.Dot(q.Wi), m.ExtIOR, m.IntIOR)
	g := m.shadowing(q.Wi, wh) * m.shadowing(q.Wo, wh)

	specular := m.ks * d * f * g / (4 * core.CosTheta(wh) * cosI * cosO)
	return m.Kd.Multiply(1 / math.Pi).Add(core.Splat(specular))
}

// PDF mixes the half-vector density of the specular lobe with the cosine density
func (m *Microfacet) PDF(q *BSDFQuery) float64 {
	if q.Measure != MeasureSolidAngle || core.CosTheta(q.Wi) <= 0 || core.CosTheta(q.Wo) <= 0 {
		return 0
	}

	wh := q.Wi.Add(q.Wo).Normalize()
	d := core.SquareToBeckmannPDF(wh, m.Alpha)
	jacobian := 1 / (4 * wh.Dot(q.Wo))

	return m.ks*d*jacobian + (1-m.ks)*core.SquareToCosineHemispherePDF(q.Wo)
}

// Sample picks the specular lobe with probability ks and reuses the sample for the direction
func (m *Microfacet) Sample(q *BSDFQuery, sample core.Vec2) core.Vec3 {
	if core.CosTheta(q.Wi) <= 0 {
		return core.Vec3{}
	}
	q.Measure = MeasureSolidAngle

	if sample.X < m.ks {
		reused := core.NewVec2(sample.X/m.ks, sample.Y)
		n := core.SquareToBeckmann(reused, m.Alpha)
		q.Wo = n.Multiply(2 * q.Wi.Dot(n)).Subtract(q.Wi).Normalize()
	} else {
		reused := core.NewVec2((sample.X-m.ks)/(1-m.ks), sample.Y)
		q.Wo = core.SquareToCosineHemisphere(reused)
	}
	q.Eta = m.ExtIOR / m.IntIOR

	if core.CosTheta(q.Wo) <= 0 {
		return core.Vec3{}
	}
	pdf := m.PDF(q)
	if pdf <= 0 {
		return core.Vec3{}
	}
	return m.Eval(q).Multiply(core.CosTheta(q.Wo) / pdf)
}

// IsDiffuse returns true: the glossy lobe is handled like a continuous BSDF
func (m *Microfacet) IsDiffuse() bool {
	return true
}

// shadowing is the Smith-Beckmann masking term (rational approximation)
func (m *Microfacet) shadowing(wv, wh core.Vec3) float64 {
	cosV := core.CosTheta(wv)
	if wv.Dot(wh)/cosV <= 0 {
		return 0
	}

	b := 1 / (m.Alpha * core.TanTheta(wv))
	if b >= 1.6 {
		return 1
	}
	b2 := b * b
	return (3.535*b + 2.181*b2) / (1 + 2.276*b + 2.577*b2)
}
