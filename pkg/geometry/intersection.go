package geometry

import "github.com/df07/go-octree-pathtracer/pkg/core"

// Intersection is the shading record of a nearest-hit query. It is filled in
// place for one query and consumed immediately by the integrator.
type Intersection struct {
	P        core.Vec3  // hit point
	T        float64    // ray parameter
	UV       core.Vec2  // interpolated texture coordinates
	Bary     core.Vec3  // barycentric coordinates
	GeoFrame core.Frame // frame of the true triangle normal
	ShFrame  core.Frame // frame of the interpolated shading normal
	Mesh     *Mesh      // hit mesh
	MeshID   int        // index of the hit mesh in the scene
	Prim     int        // triangle index within the mesh
}

// ToLocal converts a world direction into the shading frame
func (its *Intersection) ToLocal(v core.Vec3) core.Vec3 {
	return its.ShFrame.ToLocal(v)
}

// ToWorld converts a shading-frame direction into world space
func (its *Intersection) ToWorld(v core.Vec3) core.Vec3 {
	return its.ShFrame.ToWorld(v)
}
