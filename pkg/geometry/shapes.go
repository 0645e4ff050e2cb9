package geometry

import (
	"math"

	"github.com/df07/go-octree-pathtracer/pkg/core"
)

// NewQuadMesh creates a two-triangle rectangle from a corner and two edge
// vectors. The normal is u × v.
func NewQuadMesh(name string, corner, u, v core.Vec3) *Mesh {
	positions := []core.Vec3{
		corner,
		corner.Add(u),
		corner.Add(u).Add(v),
		corner.Add(v),
	}
	mesh := NewMesh(name, positions, []uint32{0, 1, 2, 0, 2, 3})
	mesh.UVs = []core.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	return mesh
}

// NewBoxMesh creates an axis-aligned box with outward-facing triangles.
// Rotate it with Mesh.Transform.
func NewBoxMesh(name string, min, max core.Vec3) *Mesh {
	// Define the 8 corners
	corners := []core.Vec3{
		core.NewVec3(min.X, min.Y, min.Z), // 0: left-bottom-back
		core.NewVec3(max.X, min.Y, min.Z), // 1: right-bottom-back
		core.NewVec3(max.X, max.Y, min.Z), // 2: right-top-back
		core.NewVec3(min.X, max.Y, min.Z), // 3: left-top-back
		core.NewVec3(min.X, min.Y, max.Z), // 4: left-bottom-front
		core.NewVec3(max.X, min.Y, max.Z), // 5: right-bottom-front
		core.NewVec3(max.X, max.Y, max.Z), // 6: right-top-front
		core.NewVec3(min.X, max.Y, max.Z), // 7: left-top-front
	}

	// Each face is listed counter-clockwise when seen from outside
	faces := [6][4]uint32{
		{4, 5, 6, 7}, // Front face (Z+)
		{1, 0, 3, 2}, // Back face (Z-)
		{5, 1, 2, 6}, // Right face (X+)
		{0, 4, 7, 3}, // Left face (X-)
		{7, 6, 2, 3}, // Top face (Y+)
		{0, 1, 5, 4}, // Bottom face (Y-)
	}

	// Faces do not share vertices so each face keeps its own UVs
	positions := make([]core.Vec3, 0, 24)
	uvs := make([]core.Vec2, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, face := range faces {
		base := uint32(len(positions))
		for k, c := range face {
			positions = append(positions, corners[c])
			uvs = append(uvs, core.NewVec2(float64(k&1^k>>1), float64(k>>1)))
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}

	mesh := NewMesh(name, positions, indices)
	mesh.UVs = uvs
	return mesh
}

// NewSphereMesh tessellates a UV sphere with smooth vertex normals
func NewSphereMesh(name string, center core.Vec3, radius float64, segments, rings int) *Mesh {
	segments = max(segments, 3)
	rings = max(rings, 2)

	var positions, normals []core.Vec3
	var uvs []core.Vec2
	for r := 0; r <= rings; r++ {
		theta := math.Pi * float64(r) / float64(rings)
		for s := 0; s <= segments; s++ {
			phi := 2 * math.Pi * float64(s) / float64(segments)
			n := core.NewVec3(math.Sin(theta)*math.Cos(phi), math.Cos(theta), math.Sin(theta)*math.Sin(phi))
			positions = append(positions, center.Add(n.Multiply(radius)))
			normals = append(normals, n)
			uvs = append(uvs, core.NewVec2(float64(s)/float64(segments), float64(r)/float64(rings)))
		}
	}

	var indices []uint32
	stride := uint32(segments + 1)
	for r := uint32(0); r < uint32(rings); r++ {
		for s := uint32(0); s < uint32(segments); s++ {
			a := r*stride + s
			b := a + stride
			// skip the degenerate triangles at the poles
			if r != 0 {
				indices = append(indices, a, a+1, b)
			}
			if r != uint32(rings)-1 {
				indices = append(indices, a+1, b+1, b)
			}
		}
	}

	mesh := NewMesh(name, positions, indices)
	mesh.Normals = normals
	mesh.UVs = uvs
	return mesh
}
