package lights

import (
	"fmt"
	"math"

	"github.com/df07/go-octree-pathtracer/pkg/core"
)

// PointLight emits uniformly in all directions from a single point
type PointLight struct {
	Position  core.Vec3
	Intensity core.Vec3 // radiant intensity
}

// NewPointLight creates a point light
func NewPointLight(position, intensity core.Vec3) *PointLight {
	return &PointLight{Position: position, Intensity: intensity}
}

// Sample implements Emitter. The result is intensity over squared distance
// and the pdf is 1 since the light has a single sample point.
func (l *PointLight) Sample(q *EmitterQuery, sample core.Vec2) core.Vec3 {
	d := l.Position.Subtract(q.Ref)
	distSq := d.LengthSquared()
	if distSq < 1e-24 {
		q.PDF = 0
		return core.Vec3{}
	}
	q.Distance = math.Sqrt(distSq)
	q.P = l.Position
	q.Wi = d.Divide(q.Distance)
	q.N = q.Wi.Negate()
	q.PDF = 1
	return l.Intensity.Divide(distSq)
}

// PDF implements Emitter
func (l *PointLight) PDF(q *EmitterQuery) float64 {
	return 0
}

// Eval implements Emitter; a point can not be hit by a ray
func (l *PointLight) Eval(q *EmitterQuery) core.Vec3 {
	return core.Vec3{}
}

// IsDelta implements Emitter
func (l *PointLight) IsDelta() bool {
	return true
}

// Power implements Emitter
func (l *PointLight) Power(sceneRadius float64) float64 {
	return 4 * math.Pi * l.Intensity.Luminance()
}

func (l *PointLight) String() string {
	return fmt.Sprintf("PointLight[position=%v, intensity=%v]", l.Position, l.Intensity)
}
