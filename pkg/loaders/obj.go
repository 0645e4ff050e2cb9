package loaders

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/df07/go-octree-pathtracer/pkg/core"
	"github.com/df07/go-octree-pathtracer/pkg/geometry"
)

// ErrOBJFormat is returned for malformed OBJ statements
var ErrOBJFormat = errors.New("invalid OBJ file")

// objVertex is a position/texcoord/normal reference triple from a face
// statement, zero-based, with -1 for a missing attribute
type objVertex struct {
	p, uv, n int
}

// LoadOBJ loads a Wavefront OBJ file as a single triangle mesh named after the
// file. Groups, objects and materials are ignored; polygons are triangulated
// as fans.
func LoadOBJ(filename string) (*geometry.Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loading OBJ file %s: %w", filename, err)
	}
	defer file.Close()

	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	mesh, err := ReadOBJ(name, file)
	if err != nil {
		return nil, fmt.Errorf("loading OBJ file %s: %w", filename, err)
	}
	return mesh, nil
}

// ReadOBJ parses OBJ data from r. Vertices sharing the same position, texture
// coordinate and normal references are merged.
func ReadOBJ(name string, r io.Reader) (*geometry.Mesh, error) {
	var (
		positions []core.Vec3
		uvs       []core.Vec2
		normals   []core.Vec3

		mesh    = geometry.NewMesh(name, nil, nil)
		lookup  = make(map[objVertex]uint32)
		polygon []uint32
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "v":
			v, err := parseOBJFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNumber, err)
			}
			positions = append(positions, core.NewVec3(v[0], v[1], v[2]))
		case "vt":
			v, err := parseOBJFloats(fields[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNumber, err)
			}
			uvs = append(uvs, core.NewVec2(v[0], v[1]))
		case "vn":
			v, err := parseOBJFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNumber, err)
			}
			normals = append(normals, core.NewVec3(v[0], v[1], v[2]))
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: %w: face needs at least 3 vertices", lineNumber, ErrOBJFormat)
			}
			polygon = polygon[:0]
			for _, field := range fields[1:] {
				ref, err := parseOBJVertex(field, len(positions), len(uvs), len(normals))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNumber, err)
				}
				index, ok := lookup[ref]
				if !ok {
					index = uint32(len(lookup))
					lookup[ref] = index
				}
				polygon = append(polygon, index)
			}

			// Triangle fan around the first vertex
			for k := 1; k+1 < len(polygon); k++ {
				mesh.Indices = append(mesh.Indices, polygon[0], polygon[k], polygon[k+1])
			}
		default:
			// o, g, s, usemtl, mtllib, l, p ...
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// Rebuild the vertex arrays in index order
	mesh.Positions = make([]core.Vec3, len(lookup))
	hasUVs, hasNormals := true, true
	for ref := range lookup {
		hasUVs = hasUVs && ref.uv >= 0
		hasNormals = hasNormals && ref.n >= 0
	}
	if hasUVs && len(lookup) > 0 {
		mesh.UVs = make([]core.Vec2, len(lookup))
	}
	if hasNormals && len(lookup) > 0 {
		mesh.Normals = make([]core.Vec3, len(lookup))
	}
	for ref, index := range lookup {
		mesh.Positions[index] = positions[ref.p]
		if mesh.UVs != nil {
			mesh.UVs[index] = uvs[ref.uv]
		}
		if mesh.Normals != nil {
			mesh.Normals[index] = normals[ref.n]
		}
	}
	return mesh, nil
}

func parseOBJFloats(fields []string, n int) ([]float64, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("%w: expected %d values, got %d", ErrOBJFormat, n, len(fields))
	}
	values := make([]float64, n)
	for i := range values {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid number %q", ErrOBJFormat, fields[i])
		}
		values[i] = v
	}
	return values, nil
}

// parseOBJVertex parses "p", "p/uv", "p//n" or "p/uv/n". Indices are
// one-based; negative indices count back from the latest element.
func parseOBJVertex(field string, numPositions, numUVs, numNormals int) (objVertex, error) {
	parts := strings.Split(field, "/")
	if len(parts) > 3 {
		return objVertex{}, fmt.Errorf("%w: invalid face vertex %q", ErrOBJFormat, field)
	}

	resolve := func(i int, count int) (int, error) {
		if i >= len(parts) || parts[i] == "" {
			if i == 0 {
				return 0, fmt.Errorf("%w: face vertex %q has no position", ErrOBJFormat, field)
			}
			return -1, nil
		}
		index, err := strconv.Atoi(parts[i])
		if err != nil {
			return 0, fmt.Errorf("%w: invalid index %q", ErrOBJFormat, parts[i])
		}
		if index < 0 {
			index += count
		} else {
			index--
		}
		if index < 0 || index >= count {
			return 0, fmt.Errorf("%w: %q references %d of %d", geometry.ErrInvalidIndex, field, index+1, count)
		}
		return index, nil
	}

	p, err := resolve(0, numPositions)
	if err != nil {
		return objVertex{}, err
	}
	uv, err := resolve(1, numUVs)
	if err != nil {
		return objVertex{}, err
	}
	n, err := resolve(2, numNormals)
	if err != nil {
		return objVertex{}, err
	}
	return objVertex{p: p, uv: uv, n: n}, nil
}
