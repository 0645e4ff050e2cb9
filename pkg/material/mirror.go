package material

import (
	"github.com/df07/go-octree-pathtracer/pkg/core"
)

// Mirror is an ideal specular reflector
type Mirror struct{}

// NewMirror creates a new mirror material
func NewMirror() *Mirror {
	return &Mirror{}
}

// Sample reflects Wi about the normal
func (m *Mirror) Sample(q *BSDFQuery, sample core.Vec2) core.Vec3 {
	if core.CosTheta(q.Wi) <= 0 {
		return core.Vec3{}
	}

	q.Wo = core.NewVec3(-q.Wi.X, -q.Wi.Y, q.Wi.Z)
	q.Measure = MeasureDiscrete
	q.Eta = 1.0

	return core.NewVec3(1, 1, 1)
}

// Eval is zero: discrete lobes are never evaluated
func (m *Mirror) Eval(q *BSDFQuery) core.Vec3 {
	return core.Vec3{}
}

// PDF is zero: discrete lobes have no density
func (m *Mirror) PDF(q *BSDFQuery) float64 {
	return 0
}

// IsDiffuse returns false
func (m *Mirror) IsDiffuse() bool {
	return false
}
