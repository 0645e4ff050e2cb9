package material

import (
	"math"

	"github.com/df07/go-octree-pathtracer/pkg/core"
)

// ColorSource provides spatially-varying colors for materials
type ColorSource interface {
	// Evaluate returns color at given UV coordinates and 3D point
	Evaluate(uv core.Vec2, point core.Vec3) core.Vec3
}

// SolidColor provides uniform color
type SolidColor struct {
	Color core.Vec3
}

// NewSolidColor creates a new solid color source
func NewSolidColor(color core.Vec3) *SolidColor {
	return &SolidColor{Color: color}
}

// Evaluate returns the solid color regardless of UV or position
func (s *SolidColor) Evaluate(uv core.Vec2, point core.Vec3) core.Vec3 {
	return s.Color
}

// Checkerboard alternates two colors in UV space
type Checkerboard struct {
	Even, Odd core.Vec3
	Scale     float64 // checks per unit of UV
}

// NewCheckerboard creates a UV checkerboard with the given number of checks per UV unit
func NewCheckerboard(even, odd core.Vec3, scale float64) *Checkerboard {
	return &Checkerboard{Even: even, Odd: odd, Scale: scale}
}

// Evaluate returns the color of the check containing uv
func (c *Checkerboard) Evaluate(uv core.Vec2, point core.Vec3) core.Vec3 {
	x := int(math.Floor(uv.X * c.Scale))
	y := int(math.Floor(uv.Y * c.Scale))
	if (x+y)%2 == 0 {
		return c.Even
	}
	return c.Odd
}

// colorSourceFromProperties builds a solid color, or a checkerboard when the
// "checkerboard" flag is set (using "albedo" and "albedo2"). A property that
// already holds a ColorSource, such as a loaded image texture, is used as is.
func colorSourceFromProperties(props *core.Properties, name string, def core.Vec3) ColorSource {
	if value, ok := props.Value(name); ok {
		if source, ok := value.(ColorSource); ok {
			return source
		}
	}
	base := props.Color(name, def)
	if props.Bool("checkerboard", false) {
		return NewCheckerboard(base, props.Color(name+"2", base.Multiply(0.2)), props.Float("checkScale", 10))
	}
	return NewSolidColor(base)
}
