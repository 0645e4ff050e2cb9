package lights

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-octree-pathtracer/pkg/core"
	"github.com/df07/go-octree-pathtracer/pkg/geometry"
)

// DefaultRadiance is the radiance of area lights that specify none
var DefaultRadiance = core.Splat(0.5)

// ErrNotAttached is returned when an area light is used without a mesh
var ErrNotAttached = errors.New("area light is not attached to a mesh")

// AreaLight is a one-sided diffuse emitter covering a mesh. The mesh is
// referenced by its index in the scene and resolved once by Attach.
type AreaLight struct {
	Radiance core.Vec3
	MeshID   int

	mesh *geometry.Mesh
}

// NewAreaLight creates an unattached area light with constant radiance
func NewAreaLight(radiance core.Vec3) *AreaLight {
	return &AreaLight{Radiance: radiance, MeshID: -1}
}

// Attach links the light to the mesh it covers. The mesh must be activated
// before the light is sampled.
func (l *AreaLight) Attach(meshID int, mesh *geometry.Mesh) {
	l.MeshID = meshID
	l.mesh = mesh
}

// Mesh returns the covered mesh, or nil before Attach
func (l *AreaLight) Mesh() *geometry.Mesh {
	return l.mesh
}

// Validate reports whether the light can be sampled
func (l *AreaLight) Validate() error {
	if l.mesh == nil {
		return ErrNotAttached
	}
	return nil
}

// solidAnglePDF converts the mesh area density to solid angle at the reference point
func (l *AreaLight) solidAnglePDF(q *EmitterQuery) float64 {
	cosTheta := math.Abs(q.N.Dot(q.Wi))
	if cosTheta < 1e-8 {
		return 0
	}
	return l.mesh.PDF() * q.Distance * q.Distance / cosTheta
}

// Sample implements Emitter by sampling the mesh uniformly by area
func (l *AreaLight) Sample(q *EmitterQuery, sample core.Vec2) core.Vec3 {
	q.P, q.N = l.mesh.SamplePosition(sample)

	d := q.P.Subtract(q.Ref)
	q.Distance = d.Length()
	if q.Distance < 1e-12 {
		q.PDF = 0
		return core.Vec3{}
	}
	q.Wi = d.Divide(q.Distance)

	q.PDF = l.solidAnglePDF(q)
	if q.PDF == 0 {
		return core.Vec3{}
	}
	return l.Eval(q)
}

// PDF implements Emitter
func (l *AreaLight) PDF(q *EmitterQuery) float64 {
	if q.Distance <= 0 {
		return 0
	}
	return l.solidAnglePDF(q)
}

// Eval implements Emitter. Only the side the normal points to emits.
func (l *AreaLight) Eval(q *EmitterQuery) core.Vec3 {
	if q.N.Dot(q.Wi) >= 0 {
		return core.Vec3{}
	}
	return l.Radiance
}

// IsDelta implements Emitter
func (l *AreaLight) IsDelta() bool {
	return false
}

// Power implements Emitter: radiance times area times pi for a Lambertian emitter
func (l *AreaLight) Power(sceneRadius float64) float64 {
	if l.mesh == nil {
		return 0
	}
	return l.Radiance.Luminance() * l.mesh.TotalArea() * math.Pi
}

func (l *AreaLight) String() string {
	return fmt.Sprintf("AreaLight[radiance=%v, mesh=%d]", l.Radiance, l.MeshID)
}
