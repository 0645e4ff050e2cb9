package loaders

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-octree-pathtracer/pkg/core"
	"github.com/df07/go-octree-pathtracer/pkg/geometry"
)

const cubeOBJ = `# unit cube
o cube
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v 0 0 1
v 1 0 1
v 1 1 1
v 0 1 1
usemtl white
f 1 4 3 2
f 5 6 7 8
f 1 2 6 5
f 2 3 7 6
f 3 4 8 7
f 4 1 5 8
`

func TestReadOBJ_Cube(t *testing.T) {
	mesh, err := ReadOBJ("cube", strings.NewReader(cubeOBJ))
	if err != nil {
		t.Fatalf("ReadOBJ failed: %v", err)
	}

	if mesh.VertexCount() != 8 || mesh.PrimitiveCount() != 12 {
		t.Fatalf("Expected 8 vertices and 12 triangles, got %d and %d", mesh.VertexCount(), mesh.PrimitiveCount())
	}
	if len(mesh.Normals) != 0 || len(mesh.UVs) != 0 {
		t.Error("Cube has no normals or texture coordinates")
	}
	if err := mesh.Activate(); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if area := mesh.TotalArea(); area < 6-1e-9 || area > 6+1e-9 {
		t.Errorf("Expected area 6, got %f", area)
	}
	bbox := mesh.BoundingBox()
	if bbox.Min != core.NewVec3(0, 0, 0) || bbox.Max != core.NewVec3(1, 1, 1) {
		t.Errorf("Unexpected bounds %v", bbox)
	}
}

func TestReadOBJ_VertexFormats(t *testing.T) {
	tests := []struct {
		name       string
		data       string
		vertices   int
		triangles  int
		hasUVs     bool
		hasNormals bool
	}{
		{
			name:      "positions only",
			data:      "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n",
			vertices:  3,
			triangles: 1,
		},
		{
			name:      "texture coordinates",
			data:      "v 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\nvt 1 0\nvt 0 1\nf 1/1 2/2 3/3\n",
			vertices:  3,
			triangles: 1,
			hasUVs:    true,
		},
		{
			name:       "normals without texture coordinates",
			data:       "v 0 0 0\nv 1 0 0\nv 0 1 0\nvn 0 0 1\nf 1//1 2//1 3//1\n",
			vertices:   3,
			triangles:  1,
			hasNormals: true,
		},
		{
			name:       "full triples",
			data:       "v 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\nvn 0 0 1\nf 1/1/1 2/1/1 3/1/1\n",
			vertices:   3,
			triangles:  1,
			hasUVs:     true,
			hasNormals: true,
		},
		{
			name:      "negative indices",
			data:      "v 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf -4 -3 -2 -1\n",
			vertices:  4,
			triangles: 2,
		},
		{
			name:       "shared position split by normals",
			data:       "v 0 0 0\nv 1 0 0\nv 0 1 0\nv 0 0 1\nvn 0 0 1\nvn 0 1 0\nf 1//1 2//1 3//1\nf 1//2 4//2 2//2\n",
			vertices:   6,
			triangles:  2,
			hasNormals: true,
		},
		{
			name:      "comments and unknown statements",
			data:      "mtllib scene.mtl\ng group\ns off\nv 0 0 0 # origin\nv 1 0 0\nv 0 1 0\nl 1 2\nf 1 2 3\n",
			vertices:  3,
			triangles: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mesh, err := ReadOBJ("test", strings.NewReader(tt.data))
			if err != nil {
				t.Fatalf("ReadOBJ failed: %v", err)
			}
			if mesh.VertexCount() != tt.vertices {
				t.Errorf("Expected %d vertices, got %d", tt.vertices, mesh.VertexCount())
			}
			if mesh.PrimitiveCount() != tt.triangles {
				t.Errorf("Expected %d triangles, got %d", tt.triangles, mesh.PrimitiveCount())
			}
			if (len(mesh.UVs) > 0) != tt.hasUVs {
				t.Errorf("Expected hasUVs=%v, got %d texture coordinates", tt.hasUVs, len(mesh.UVs))
			}
			if (len(mesh.Normals) > 0) != tt.hasNormals {
				t.Errorf("Expected hasNormals=%v, got %d normals", tt.hasNormals, len(mesh.Normals))
			}
			if err := mesh.Validate(); err != nil {
				t.Errorf("Loaded mesh should be valid: %v", err)
			}
		})
	}
}

func TestReadOBJ_Errors(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		expected error
	}{
		{"short vertex", "v 1 2\n", ErrOBJFormat},
		{"bad number", "v 1 x 3\n", ErrOBJFormat},
		{"short face", "v 0 0 0\nv 1 0 0\nf 1 2\n", ErrOBJFormat},
		{"bad index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 a\n", ErrOBJFormat},
		{"missing position", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 /1\n", ErrOBJFormat},
		{"too many slashes", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3/1/1/1\n", ErrOBJFormat},
		{"position out of range", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4\n", geometry.ErrInvalidIndex},
		{"zero index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n", geometry.ErrInvalidIndex},
		{"normal out of range", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1//1 2//1 3//1\n", geometry.ErrInvalidIndex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadOBJ("bad", strings.NewReader(tt.data))
			if !errors.Is(err, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, err)
			}
			if err != nil && !strings.Contains(err.Error(), "line ") {
				t.Errorf("Error should name the line: %v", err)
			}
		})
	}
}

func TestLoadOBJ(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cube.obj")
	if err := os.WriteFile(path, []byte(cubeOBJ), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	mesh, err := LoadOBJ(path)
	if err != nil {
		t.Fatalf("LoadOBJ failed: %v", err)
	}
	if mesh.Name != "cube" {
		t.Errorf("Expected mesh name cube, got %q", mesh.Name)
	}

	missing := filepath.Join(dir, "missing.obj")
	_, err = LoadOBJ(missing)
	if err == nil || !strings.HasPrefix(err.Error(), "loading OBJ file "+missing) {
		t.Errorf("Expected an error naming the file, got %v", err)
	}
}
