package lights

import (
	"fmt"
	"math"

	"github.com/df07/go-octree-pathtracer/pkg/core"
)

// DirectionalLight illuminates the scene from infinitely far away along a
// single direction
type DirectionalLight struct {
	Direction  core.Vec3 // direction the light travels
	Irradiance core.Vec3
}

// NewDirectionalLight creates a directional light travelling along direction
func NewDirectionalLight(direction, irradiance core.Vec3) *DirectionalLight {
	return &DirectionalLight{Direction: direction.Normalize(), Irradiance: irradiance}
}

// Sample implements Emitter
func (l *DirectionalLight) Sample(q *EmitterQuery, sample core.Vec2) core.Vec3 {
	q.Wi = l.Direction.Negate()
	q.N = l.Direction
	q.Distance = math.Inf(1)
	q.P = q.Ref.Add(q.Wi.Multiply(1e10))
	q.PDF = 1
	return l.Irradiance
}

// PDF implements Emitter
func (l *DirectionalLight) PDF(q *EmitterQuery) float64 {
	return 0
}

// Eval implements Emitter
func (l *DirectionalLight) Eval(q *EmitterQuery) core.Vec3 {
	return core.Vec3{}
}

// IsDelta implements Emitter
func (l *DirectionalLight) IsDelta() bool {
	return true
}

// Power implements Emitter: the flux through a disc covering the scene
func (l *DirectionalLight) Power(sceneRadius float64) float64 {
	return math.Pi * sceneRadius * sceneRadius * l.Irradiance.Luminance()
}

func (l *DirectionalLight) String() string {
	return fmt.Sprintf("DirectionalLight[direction=%v, irradiance=%v]", l.Direction, l.Irradiance)
}
