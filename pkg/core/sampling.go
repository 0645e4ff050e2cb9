package core

import "math"

// Sampler provides random sampling for rendering algorithms
// Can be swapped out for deterministic testing or different sampling patterns
type Sampler interface {
	Get1D() float64 // uniform value in [0, 1)
	Get2D() Vec2    // two uniform values in [0, 1)
}

// BlockSampler is a sampler prototype the renderer clones once per worker.
// Clones share no mutable state; Prepare re-seeds a clone for an image block
// so every block produces the same stream regardless of which worker runs it.
type BlockSampler interface {
	Sampler
	Clone() BlockSampler
	Prepare(offsetX, offsetY int)
	SampleCount() int
}

// SquareToUniformDisk maps a unit square sample to a point on the unit disk
// using the concentric mapping, which avoids rejection sampling.
func SquareToUniformDisk(sample Vec2) Vec2 {
	// Map sample to [-1,1]² and handle degeneracy at the origin
	offset := NewVec2(2*sample.X-1, 2*sample.Y-1)
	if offset.X == 0 && offset.Y == 0 {
		return Vec2{}
	}

	var theta, r float64
	if math.Abs(offset.X) > math.Abs(offset.Y) {
		r = offset.X
		theta = math.Pi / 4 * (offset.Y / offset.X)
	} else {
		r = offset.Y
		theta = math.Pi/2 - math.Pi/4*(offset.X/offset.Y)
	}

	return NewVec2(r*math.Cos(theta), r*math.Sin(theta))
}

// SquareToCosineHemisphere returns a local direction around +Z with density cos(theta)/pi
func SquareToCosineHemisphere(sample Vec2) Vec3 {
	r := math.Sqrt(sample.X)
	phi := 2.0 * math.Pi * sample.Y
	z := math.Sqrt(max(0, 1-sample.X))
	return NewVec3(r*math.Cos(phi), r*math.Sin(phi), z)
}

// SquareToCosineHemispherePDF is the density of SquareToCosineHemisphere
func SquareToCosineHemispherePDF(v Vec3) float64 {
	if v.Z <= 0 {
		return 0
	}
	return v.Z / math.Pi
}

// SquareToUniformSphere returns a uniformly distributed direction on the unit sphere
func SquareToUniformSphere(sample Vec2) Vec3 {
	z := 1 - 2*sample.X
	r := math.Sqrt(max(0, 1-z*z))
	phi := 2 * math.Pi * sample.Y
	return NewVec3(r*math.Cos(phi), r*math.Sin(phi), z)
}

// SquareToUniformTriangle returns barycentric coordinates (b1, b2) uniformly
// distributed over a triangle; the first coordinate is 1 - b1 - b2.
func SquareToUniformTriangle(sample Vec2) Vec2 {
	su := math.Sqrt(sample.X)
	return NewVec2(1-su, sample.Y*su)
}

// SquareToBeckmann samples a microfacet normal from the Beckmann distribution
// with roughness alpha, weighted by cos(theta_m).
func SquareToBeckmann(sample Vec2, alpha float64) Vec3 {
	phi := 2 * math.Pi * sample.X
	tan2Theta := -alpha * alpha * math.Log(1-sample.Y)
	cosTheta := 1 / math.Sqrt(1+tan2Theta)
	sinTheta := math.Sqrt(max(0, 1-cosTheta*cosTheta))
	return NewVec3(sinTheta*math.Cos(phi), sinTheta*math.Sin(phi), cosTheta)
}

// SquareToBeckmannPDF is the density of SquareToBeckmann (includes the cos(theta_m) factor)
func SquareToBeckmannPDF(m Vec3, alpha float64) float64 {
	if m.Z <= 0 {
		return 0
	}
	cosTheta2 := m.Z * m.Z
	tanTheta2 := (1 - cosTheta2) / cosTheta2
	azimuthal := 1 / math.Pi
	longitudinal := math.Exp(-tanTheta2/(alpha*alpha)) / (alpha * alpha * cosTheta2 * m.Z)
	return azimuthal * longitudinal
}
