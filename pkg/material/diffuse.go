package material

import (
	"math"

	"github.com/df07/go-octree-pathtracer/pkg/core"
)

// Diffuse represents a perfectly diffuse (Lambertian) material
type Diffuse struct {
	Albedo ColorSource // Base color/reflectance (can be solid or textured)
}

// NewDiffuse creates a diffuse material with a solid albedo
func NewDiffuse(albedo core.Vec3) *Diffuse {
	return &Diffuse{Albedo: NewSolidColor(albedo)}
}

// NewTexturedDiffuse creates a diffuse material with a spatially varying albedo
func NewTexturedDiffuse(albedo ColorSource) *Diffuse {
	return &Diffuse{Albedo: albedo}
}

// Sample draws a cosine-weighted direction; the weight reduces to the albedo
func (d *Diffuse) Sample(q *BSDFQuery, sample core.Vec2) core.Vec3 {
	if core.CosTheta(q.Wi) <= 0 {
		return core.Vec3{}
	}

	q.Measure = MeasureSolidAngle
	q.Wo = core.SquareToCosineHemisphere(sample)
	q.Eta = 1.0

	// eval * cos / pdf = (albedo/pi) * cos / (cos/pi)
	return d.Albedo.Evaluate(q.UV, q.P)
}

// Eval returns albedo/pi for directions on the same side as the normal
func (d *Diffuse) Eval(q *BSDFQuery) core.Vec3 {
	if q.Measure != MeasureSolidAngle || core.CosTheta(q.Wi) <= 0 || core.CosTheta(q.Wo) <= 0 {
		return core.Vec3{}
	}
	return d.Albedo.Evaluate(q.UV, q.P).Multiply(1.0 / math.Pi)
}

// PDF returns cos(theta_o)/pi
func (d *Diffuse) PDF(q *BSDFQuery) float64 {
	if q.Measure != MeasureSolidAngle || core.CosTheta(q.Wi) <= 0 || core.CosTheta(q.Wo) <= 0 {
		return 0
	}
	return core.SquareToCosineHemispherePDF(q.Wo)
}

// IsDiffuse returns true
func (d *Diffuse) IsDiffuse() bool {
	return true
}
