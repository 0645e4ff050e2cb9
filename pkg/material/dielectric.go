package material

import (
	"math"

	"github.com/df07/go-octree-pathtracer/pkg/core"
)

const (
	// DefaultIntIOR is BK7 borosilicate glass
	DefaultIntIOR = 1.5046
	// DefaultExtIOR is air
	DefaultExtIOR = 1.000277
)

// Dielectric represents a smooth transparent interface like glass that can
// both reflect and refract
type Dielectric struct {
	IntIOR float64 // interior index of refraction
	ExtIOR float64 // exterior index of refraction
}

// NewDielectric creates a new dielectric material
func NewDielectric(intIOR, extIOR float64) *Dielectric {
	return &Dielectric{IntIOR: intIOR, ExtIOR: extIOR}
}

// Sample chooses reflection with the Fresnel probability, refraction otherwise.
// The refracted weight is 1/eta² to account for radiance compression.
func (d *Dielectric) Sample(q *BSDFQuery, sample core.Vec2) core.Vec3 {
	cosTheta := core.CosTheta(q.Wi)
	reflectance := Fresnel(cosTheta, d.ExtIOR, d.IntIOR)
	q.Measure = MeasureDiscrete

	if sample.X <= reflectance {
		q.Wo = core.NewVec3(-q.Wi.X, -q.Wi.Y, q.Wi.Z)
		q.Eta = 1.0
		return core.NewVec3(1, 1, 1)
	}

	// Entering when the incident direction is on the normal's side
	eta := d.ExtIOR / d.IntIOR
	n := core.NewVec3(0, 0, 1)
	if cosTheta < 0 {
		eta = d.IntIOR / d.ExtIOR
		n = n.Negate()
	}

	sin2T := eta * eta * (1 - cosTheta*cosTheta)
	if sin2T >= 1 {
		// unreachable when Fresnel reports total internal reflection
		return core.Vec3{}
	}
	parallel := q.Wi.Subtract(n.Multiply(math.Abs(cosTheta))).Multiply(-eta)
	perpendicular := n.Multiply(-math.Sqrt(1 - sin2T))
	q.Wo = parallel.Add(perpendicular).Normalize()
	q.Eta = eta

	return core.Splat(1.0 / (eta * eta))
}

// Eval is zero: discrete lobes are never evaluated
func (d *Dielectric) Eval(q *BSDFQuery) core.Vec3 {
	return core.Vec3{}
}

// PDF is zero: discrete lobes have no density
func (d *Dielectric) PDF(q *BSDFQuery) float64 {
	return 0
}

// IsDiffuse returns false
func (d *Dielectric) IsDiffuse() bool {
	return false
}

// Fresnel returns the unpolarized Fresnel reflectance of a smooth dielectric
// interface. cosThetaI is measured against the exterior-facing normal.
func Fresnel(cosThetaI, extIOR, intIOR float64) float64 {
	etaI, etaT := extIOR, intIOR
	if extIOR == intIOR {
		return 0
	}

	// Swap the indices if the interaction starts inside the object
	if cosThetaI < 0 {
		etaI, etaT = etaT, etaI
		cosThetaI = -cosThetaI
	}

	eta := etaI / etaT
	sin2T := eta * eta * (1 - cosThetaI*cosThetaI)
	if sin2T > 1 {
		return 1 // Total internal reflection
	}

	cosThetaT := math.Sqrt(1 - sin2T)
	rs := (etaI*cosThetaI - etaT*cosThetaT) / (etaI*cosThetaI + etaT*cosThetaT)
	rp := (etaT*cosThetaI - etaI*cosThetaT) / (etaT*cosThetaI + etaI*cosThetaT)
	return (rs*rs + rp*rp) / 2
}
