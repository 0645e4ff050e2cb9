package loaders

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/df07/go-octree-pathtracer/pkg/core"
	"github.com/df07/go-octree-pathtracer/pkg/geometry"
)

// ErrPLYFormat is returned for malformed or unsupported PLY files
var ErrPLYFormat = errors.New("invalid PLY file")

// plyProperty represents a property definition in the PLY header
type plyProperty struct {
	Name      string
	Type      string // scalar type, or the item type of a list
	IsList    bool
	CountType string // type of the list length
}

// plyElement is an element block ("vertex", "face", ...) of the header
type plyElement struct {
	Name       string
	Count      int
	Properties []plyProperty
}

// plyHeader represents the parsed header information from a PLY file
type plyHeader struct {
	Format   string // "binary_little_endian", "binary_big_endian", or "ascii"
	Elements []plyElement
}

// LoadPLY loads a PLY file as a triangle mesh named after the file. Polygons
// are triangulated as fans; vertex normals and texture coordinates are kept
// when present.
func LoadPLY(filename string) (*geometry.Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loading PLY file %s: %w", filename, err)
	}
	defer file.Close()

	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	mesh, err := ReadPLY(name, file)
	if err != nil {
		return nil, fmt.Errorf("loading PLY file %s: %w", filename, err)
	}
	return mesh, nil
}

// ReadPLY parses PLY data from r
func ReadPLY(name string, r io.Reader) (*geometry.Mesh, error) {
	reader := bufio.NewReaderSize(r, 1<<20)

	header, err := parsePLYHeader(reader)
	if err != nil {
		return nil, err
	}

	var values plyValueReader
	switch header.Format {
	case "ascii":
		values = &plyASCIIReader{r: reader}
	case "binary_little_endian":
		values = &plyBinaryReader{r: reader, order: binary.LittleEndian}
	case "binary_big_endian":
		values = &plyBinaryReader{r: reader, order: binary.BigEndian}
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrPLYFormat, header.Format)
	}

	mesh := geometry.NewMesh(name, nil, nil)
	for _, element := range header.Elements {
		switch element.Name {
		case "vertex":
			err = readPLYVertices(values, element, mesh)
		case "face":
			err = readPLYFaces(values, element, mesh)
		default:
			err = skipPLYElement(values, element)
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s element: %w", element.Name, err)
		}
	}
	return mesh, nil
}

// parsePLYHeader parses the header up to and including "end_header"
func parsePLYHeader(r *bufio.Reader) (*plyHeader, error) {
	header := &plyHeader{}

	magic, err := r.ReadString('\n')
	if err != nil || strings.TrimSpace(magic) != "ply" {
		return nil, fmt.Errorf("%w: missing magic number", ErrPLYFormat)
	}

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("%w: header ends before end_header", ErrPLYFormat)
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "end_header":
			return header, nil
		case "format":
			if len(parts) < 3 {
				return nil, fmt.Errorf("%w: invalid format line %q", ErrPLYFormat, strings.TrimSpace(line))
			}
			header.Format = parts[1]
		case "comment", "obj_info":
			// Ignore comments
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("%w: invalid element line %q", ErrPLYFormat, strings.TrimSpace(line))
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("%w: invalid element count %q", ErrPLYFormat, parts[2])
			}
			header.Elements = append(header.Elements, plyElement{Name: parts[1], Count: count})
		case "property":
			if len(header.Elements) == 0 {
				return nil, fmt.Errorf("%w: property before any element", ErrPLYFormat)
			}
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, err
			}
			current := &header.Elements[len(header.Elements)-1]
			current.Properties = append(current.Properties, prop)
		default:
			return nil, fmt.Errorf("%w: unexpected header line %q", ErrPLYFormat, strings.TrimSpace(line))
		}
	}
}

// parsePLYProperty parses a property line from the PLY header
func parsePLYProperty(parts []string) (plyProperty, error) {
	if len(parts) >= 4 && parts[0] == "list" {
		return plyProperty{Name: parts[3], Type: parts[2], IsList: true, CountType: parts[1]}, nil
	}
	if len(parts) == 2 {
		return plyProperty{Name: parts[1], Type: parts[0]}, nil
	}
	return plyProperty{}, fmt.Errorf("%w: invalid property definition %v", ErrPLYFormat, parts)
}

func readPLYVertices(values plyValueReader, element plyElement, mesh *geometry.Mesh) error {
	index := func(names ...string) int {
		for i, prop := range element.Properties {
			for _, name := range names {
				if prop.Name == name && !prop.IsList {
					return i
				}
			}
		}
		return -1
	}
	x, y, z := index("x"), index("y"), index("z")
	if x < 0 || y < 0 || z < 0 {
		return fmt.Errorf("%w: vertices need x, y and z", ErrPLYFormat)
	}
	nx, ny, nz := index("nx"), index("ny"), index("nz")
	u, v := index("u", "s", "texture_u"), index("v", "t", "texture_v")
	hasNormals := nx >= 0 && ny >= 0 && nz >= 0
	hasUVs := u >= 0 && v >= 0

	mesh.Positions = make([]core.Vec3, 0, element.Count)
	if hasNormals {
		mesh.Normals = make([]core.Vec3, 0, element.Count)
	}
	if hasUVs {
		mesh.UVs = make([]core.Vec2, 0, element.Count)
	}

	row := make([]float64, len(element.Properties))
	for i := 0; i < element.Count; i++ {
		for j, prop := range element.Properties {
			if prop.IsList {
				if err := skipPLYList(values, prop); err != nil {
					return err
				}
				continue
			}
			value, err := values.read(prop.Type)
			if err != nil {
				return fmt.Errorf("vertex %d: %w", i, err)
			}
			row[j] = value
		}

		mesh.Positions = append(mesh.Positions, core.NewVec3(row[x], row[y], row[z]))
		if hasNormals {
			mesh.Normals = append(mesh.Normals, core.NewVec3(row[nx], row[ny], row[nz]))
		}
		if hasUVs {
			mesh.UVs = append(mesh.UVs, core.NewVec2(row[u], row[v]))
		}
	}
	return nil
}

func readPLYFaces(values plyValueReader, element plyElement, mesh *geometry.Mesh) error {
	mesh.Indices = make([]uint32, 0, element.Count*3)

	var polygon []uint32
	for i := 0; i < element.Count; i++ {
		for _, prop := range element.Properties {
			if !prop.IsList || (prop.Name != "vertex_indices" && prop.Name != "vertex_index") {
				if err := skipPLYProperty(values, prop); err != nil {
					return err
				}
				continue
			}

			count, err := values.read(prop.CountType)
			if err != nil {
				return fmt.Errorf("face %d: %w", i, err)
			}
			if count < 3 {
				return fmt.Errorf("%w: face %d has %d vertices", ErrPLYFormat, i, int(count))
			}

			polygon = polygon[:0]
			for k := 0; k < int(count); k++ {
				index, err := values.read(prop.Type)
				if err != nil {
					return fmt.Errorf("face %d: %w", i, err)
				}
				if index < 0 || index > math.MaxUint32 {
					return fmt.Errorf("face %d: %w: %d", i, geometry.ErrInvalidIndex, int64(index))
				}
				polygon = append(polygon, uint32(index))
			}

			// Triangle fan around the first vertex
			for k := 1; k+1 < len(polygon); k++ {
				mesh.Indices = append(mesh.Indices, polygon[0], polygon[k], polygon[k+1])
			}
		}
	}
	return nil
}

func skipPLYElement(values plyValueReader, element plyElement) error {
	for i := 0; i < element.Count; i++ {
		for _, prop := range element.Properties {
			if err := skipPLYProperty(values, prop); err != nil {
				return err
			}
		}
	}
	return nil
}

func skipPLYProperty(values plyValueReader, prop plyProperty) error {
	if prop.IsList {
		return skipPLYList(values, prop)
	}
	_, err := values.read(prop.Type)
	return err
}

func skipPLYList(values plyValueReader, prop plyProperty) error {
	count, err := values.read(prop.CountType)
	if err != nil {
		return err
	}
	for k := 0; k < int(count); k++ {
		if _, err := values.read(prop.Type); err != nil {
			return err
		}
	}
	return nil
}

// plyValueReader reads one scalar of a PLY type and widens it to float64
type plyValueReader interface {
	read(typ string) (float64, error)
}

type plyBinaryReader struct {
	r     io.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (b *plyBinaryReader) read(typ string) (float64, error) {
	size, err := plyTypeSize(typ)
	if err != nil {
		return 0, err
	}
	data := b.buf[:size]
	if _, err := io.ReadFull(b.r, data); err != nil {
		return 0, err
	}

	switch typ {
	case "char", "int8":
		return float64(int8(data[0])), nil
	case "uchar", "uint8":
		return float64(data[0]), nil
	case "short", "int16":
		return float64(int16(b.order.Uint16(data))), nil
	case "ushort", "uint16":
		return float64(b.order.Uint16(data)), nil
	case "int", "int32":
		return float64(int32(b.order.Uint32(data))), nil
	case "uint", "uint32":
		return float64(b.order.Uint32(data)), nil
	case "float", "float32":
		return float64(math.Float32frombits(b.order.Uint32(data))), nil
	default:
		return math.Float64frombits(b.order.Uint64(data)), nil
	}
}

func plyTypeSize(typ string) (int, error) {
	switch typ {
	case "char", "int8", "uchar", "uint8":
		return 1, nil
	case "short", "int16", "ushort", "uint16":
		return 2, nil
	case "int", "int32", "uint", "uint32", "float", "float32":
		return 4, nil
	case "double", "float64":
		return 8, nil
	}
	return 0, fmt.Errorf("%w: unknown property type %q", ErrPLYFormat, typ)
}

// plyASCIIReader reads whitespace separated values
type plyASCIIReader struct {
	r     *bufio.Reader
	token []byte
}

func (a *plyASCIIReader) read(typ string) (float64, error) {
	if _, err := plyTypeSize(typ); err != nil {
		return 0, err
	}

	a.token = a.token[:0]
	for {
		c, err := a.r.ReadByte()
		if err != nil {
			if err == io.EOF && len(a.token) > 0 {
				break
			}
			if err == io.EOF {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, err
		}
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			if len(a.token) > 0 {
				break
			}
			continue
		}
		a.token = append(a.token, c)
	}

	value, err := strconv.ParseFloat(string(a.token), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid value %q", ErrPLYFormat, a.token)
	}
	return value, nil
}
