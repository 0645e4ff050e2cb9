package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-octree-pathtracer/pkg/core"
	"github.com/df07/go-octree-pathtracer/pkg/material"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrInvalidIndex is returned when a face references a vertex that does not exist
	ErrInvalidIndex = errors.New("face index out of range")
	// ErrEmptyMesh is returned for meshes without triangles
	ErrEmptyMesh = errors.New("mesh has no triangles")
)

// NoEmitter marks a mesh without an attached emitter
const NoEmitter = -1

// Mesh is an indexed triangle soup. It is immutable once activated and is
// shared read-only by all render workers.
type Mesh struct {
	Name      string
	Positions []core.Vec3
	Normals   []core.Vec3 // optional per-vertex shading normals
	UVs       []core.Vec2 // optional per-vertex texture coordinates
	Indices   []uint32    // three vertex indices per triangle

	BSDF      material.BSDF
	EmitterID int // index into the scene's emitters, or NoEmitter

	bbox      core.AABB
	areas     *core.DiscretePDF
	activated bool
}

// NewMesh creates a mesh from positions and a triangle index buffer
func NewMesh(name string, positions []core.Vec3, indices []uint32) *Mesh {
	return &Mesh{
		Name:      name,
		Positions: positions,
		Indices:   indices,
		EmitterID: NoEmitter,
	}
}

// PrimitiveCount returns the number of triangles
func (m *Mesh) PrimitiveCount() int {
	return len(m.Indices) / 3
}

// VertexCount returns the number of vertices
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// IsEmitter reports whether an emitter is attached to the mesh
func (m *Mesh) IsEmitter() bool {
	return m.EmitterID != NoEmitter
}

// Validate checks the index buffer and optional attribute arrays
func (m *Mesh) Validate() error {
	if len(m.Indices) == 0 {
		return fmt.Errorf("mesh %q: %w", m.Name, ErrEmptyMesh)
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("mesh %q: index buffer length %d is not a multiple of 3: %w", m.Name, len(m.Indices), ErrInvalidIndex)
	}
	for i, index := range m.Indices {
		if int(index) >= len(m.Positions) {
			return fmt.Errorf("mesh %q: face %d references vertex %d of %d: %w", m.Name, i/3, index, len(m.Positions), ErrInvalidIndex)
		}
	}
	if len(m.Normals) != 0 && len(m.Normals) != len(m.Positions) {
		return fmt.Errorf("mesh %q: %d normals for %d vertices: %w", m.Name, len(m.Normals), len(m.Positions), ErrInvalidIndex)
	}
	if len(m.UVs) != 0 && len(m.UVs) != len(m.Positions) {
		return fmt.Errorf("mesh %q: %d uvs for %d vertices: %w", m.Name, len(m.UVs), len(m.Positions), ErrInvalidIndex)
	}
	return nil
}

// Activate validates the mesh, assigns the default BSDF if none was given and
// precomputes the bounding box and the area distribution used for sampling.
func (m *Mesh) Activate() error {
	if m.activated {
		return nil
	}
	if err := m.Validate(); err != nil {
		return err
	}

	if m.BSDF == nil {
		m.BSDF = material.NewDiffuse(material.DefaultAlbedo)
	}

	m.bbox = core.EmptyAABB()
	for _, p := range m.Positions {
		m.bbox = m.bbox.Extend(p)
	}

	m.areas = core.NewDiscretePDF(m.PrimitiveCount())
	for i := 0; i < m.PrimitiveCount(); i++ {
		m.areas.Append(m.SurfaceArea(i))
	}
	m.areas.Normalize()

	m.activated = true
	return nil
}

func (m *Mesh) vertices(prim int) (core.Vec3, core.Vec3, core.Vec3) {
	i := 3 * prim
	return m.Positions[m.Indices[i]], m.Positions[m.Indices[i+1]], m.Positions[m.Indices[i+2]]
}

// SurfaceArea returns the area of one triangle
func (m *Mesh) SurfaceArea(prim int) float64 {
	p0, p1, p2 := m.vertices(prim)
	return 0.5 * p1.Subtract(p0).Cross(p2.Subtract(p0)).Length()
}

// TotalArea returns the mesh surface area (available after Activate)
func (m *Mesh) TotalArea() float64 {
	if m.areas == nil {
		return 0
	}
	return m.areas.Sum()
}

// PDF returns the area density of SamplePosition, 1 / TotalArea
func (m *Mesh) PDF() float64 {
	if m.areas == nil {
		return 0
	}
	return m.areas.Normalization()
}

// BoundingBox returns the bounding box of the whole mesh (available after Activate)
func (m *Mesh) BoundingBox() core.AABB {
	return m.bbox
}

// PrimitiveBounds returns the bounding box of one triangle
func (m *Mesh) PrimitiveBounds(prim int) core.AABB {
	p0, p1, p2 := m.vertices(prim)
	return core.NewAABBFromPoints(p0, p1, p2)
}

// Centroid returns the centroid of one triangle
func (m *Mesh) Centroid(prim int) core.Vec3 {
	p0, p1, p2 := m.vertices(prim)
	return p0.Add(p1).Add(p2).Multiply(1.0 / 3.0)
}

// Intersect tests the ray against one triangle using the Möller-Trumbore algorithm
func (m *Mesh) Intersect(prim int, ray core.Ray) (u, v, t float64, ok bool) {
	const epsilon = 1e-8
	p0, p1, p2 := m.vertices(prim)

	// Calculate two edge vectors
	edge1 := p1.Subtract(p0)
	edge2 := p2.Subtract(p0)

	// Calculate determinant
	h := ray.Direction.Cross(edge2)
	det := edge1.Dot(h)

	// Ray lies in the plane of the triangle, or the triangle is degenerate
	if det > -epsilon && det < epsilon {
		return 0, 0, 0, false
	}

	invDet := 1.0 / det
	s := ray.Origin.Subtract(p0)
	u = invDet * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return 0, 0, 0, false
	}

	q := s.Cross(edge1)
	v = invDet * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return 0, 0, 0, false
	}

	t = invDet * edge2.Dot(q)
	if t < ray.TMin || t > ray.TMax {
		return 0, 0, 0, false
	}

	return u, v, t, true
}

// FaceNormal returns the unit geometric normal of one triangle
func (m *Mesh) FaceNormal(prim int) core.Vec3 {
	p0, p1, p2 := m.vertices(prim)
	return p1.Subtract(p0).Cross(p2.Subtract(p0)).Normalize()
}

// FillIntersection computes the shading data for a hit on triangle prim with
// barycentric coordinates (u, v) at distance t along ray.
func (m *Mesh) FillIntersection(prim int, u, v, t float64, ray core.Ray, its *Intersection) {
	i0, i1, i2 := m.Indices[3*prim], m.Indices[3*prim+1], m.Indices[3*prim+2]
	bary := core.NewVec3(1-u-v, u, v)

	its.T = t
	its.Bary = bary
	its.Mesh = m
	its.Prim = prim
	its.P = m.Positions[i0].Multiply(bary.X).
		Add(m.Positions[i1].Multiply(bary.Y)).
		Add(m.Positions[i2].Multiply(bary.Z))

	if len(m.UVs) > 0 {
		its.UV = m.UVs[i0].Multiply(bary.X).Add(m.UVs[i1].Multiply(bary.Y)).Add(m.UVs[i2].Multiply(bary.Z))
	} else {
		its.UV = core.NewVec2(u, v)
	}

	its.GeoFrame = core.NewFrame(m.FaceNormal(prim))
	if len(m.Normals) > 0 {
		n := m.Normals[i0].Multiply(bary.X).
			Add(m.Normals[i1].Multiply(bary.Y)).
			Add(m.Normals[i2].Multiply(bary.Z)).
			Normalize()
		if n.IsZero() || math.IsNaN(n.X) {
			its.ShFrame = its.GeoFrame
		} else {
			its.ShFrame = core.NewFrame(n)
		}
	} else {
		its.ShFrame = its.GeoFrame
	}
}

// SamplePosition draws a point uniformly by area on the mesh surface and
// returns it with its normal. The density is PDF().
func (m *Mesh) SamplePosition(sample core.Vec2) (core.Vec3, core.Vec3) {
	prim, reused := m.areas.SampleReuse(sample.X)
	b := core.SquareToUniformTriangle(core.NewVec2(reused, sample.Y))
	bary := core.NewVec3(1-b.X-b.Y, b.X, b.Y)

	i0, i1, i2 := m.Indices[3*prim], m.Indices[3*prim+1], m.Indices[3*prim+2]
	p := m.Positions[i0].Multiply(bary.X).
		Add(m.Positions[i1].Multiply(bary.Y)).
		Add(m.Positions[i2].Multiply(bary.Z))

	if len(m.Normals) > 0 {
		n := m.Normals[i0].Multiply(bary.X).
			Add(m.Normals[i1].Multiply(bary.Y)).
			Add(m.Normals[i2].Multiply(bary.Z)).
			Normalize()
		if !n.IsZero() {
			return p, n
		}
	}
	return p, m.FaceNormal(prim)
}

// Transform applies a homogeneous transform to positions and normals in place.
// Must be called before Activate.
func (m *Mesh) Transform(toWorld mgl64.Mat4) {
	for i, p := range m.Positions {
		m.Positions[i] = core.TransformPoint(toWorld, p)
	}
	if len(m.Normals) == 0 {
		return
	}
	normalMatrix := toWorld.Inv().Transpose()
	for i, n := range m.Normals {
		m.Normals[i] = core.TransformVector(normalMatrix, n).Normalize()
	}
}

// String summarises the mesh for logs
func (m *Mesh) String() string {
	return fmt.Sprintf("Mesh[name=%q, vertices=%d, triangles=%d, emitter=%v]",
		m.Name, m.VertexCount(), m.PrimitiveCount(), m.IsEmitter())
}
