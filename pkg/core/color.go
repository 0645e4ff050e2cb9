package core

import "math"

// Luminance returns the luminance of a linear RGB color (Rec. 709 primaries)
func (v Vec3) Luminance() float64 {
	return 0.212671*v.X + 0.715160*v.Y + 0.072169*v.Z
}

// IsValid reports whether a radiance value is finite and non-negative
// in every channel.
func (v Vec3) IsValid() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if c < 0 || math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// ToSRGB converts a linear RGB color to the sRGB transfer curve
func (v Vec3) ToSRGB() Vec3 {
	return Vec3{srgb(v.X), srgb(v.Y), srgb(v.Z)}
}

// ToLinear converts an sRGB encoded color back to linear RGB
func (v Vec3) ToLinear() Vec3 {
	return Vec3{linear(v.X), linear(v.Y), linear(v.Z)}
}

func srgb(value float64) float64 {
	if value <= 0.0031308 {
		return 12.92 * value
	}
	return 1.055*math.Pow(value, 1.0/2.4) - 0.055
}

func linear(value float64) float64 {
	if value <= 0.04045 {
		return value / 12.92
	}
	return math.Pow((value+0.055)/1.055, 2.4)
}
