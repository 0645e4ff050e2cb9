package loaders

import (
	"fmt"

	"github.com/df07/go-octree-pathtracer/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// transformStep is one entry of a transform list. Exactly one field is set.
type transformStep struct {
	Translate []float64   `yaml:"translate"`
	Scale     any         `yaml:"scale"`
	Rotate    *rotateStep `yaml:"rotate"`
	LookAt    *lookAtStep `yaml:"lookat"`
	Matrix    []float64   `yaml:"matrix"`
}

type rotateStep struct {
	Axis  []float64 `yaml:"axis"`
	Angle float64   `yaml:"angle"` // degrees
}

type lookAtStep struct {
	Origin []float64 `yaml:"origin"`
	Target []float64 `yaml:"target"`
	Up     []float64 `yaml:"up"`
}

// parseTransform composes a list of transform steps. Later steps are applied
// after earlier ones, so
//
//	- scale: 2
//	- translate: [0, 1, 0]
//
// scales first and then moves the result up.
func parseTransform(node *yaml.Node) (mgl64.Mat4, error) {
	m := mgl64.Ident4()
	for _, item := range node.Content {
		item = resolveAlias(item)
		if item.Kind != yaml.MappingNode || len(item.Content) != 2 {
			return m, fmt.Errorf("line %d: %w: transform steps have exactly one key", item.Line, ErrSceneFormat)
		}

		var step transformStep
		if err := item.Decode(&step); err != nil {
			return m, fmt.Errorf("line %d: %w: %v", item.Line, ErrSceneFormat, err)
		}
		t, err := step.matrix()
		if err != nil {
			return m, fmt.Errorf("line %d: %w: %s %v", item.Line, ErrSceneFormat, item.Content[0].Value, err)
		}
		m = t.Mul4(m)
	}
	return m, nil
}

func (s transformStep) matrix() (mgl64.Mat4, error) {
	switch {
	case s.Translate != nil:
		v, err := vec3(s.Translate)
		if err != nil {
			return mgl64.Mat4{}, err
		}
		return mgl64.Translate3D(v.X, v.Y, v.Z), nil

	case s.Scale != nil:
		switch scale := s.Scale.(type) {
		case int:
			return mgl64.Scale3D(float64(scale), float64(scale), float64(scale)), nil
		case float64:
			return mgl64.Scale3D(scale, scale, scale), nil
		case []any:
			values := make([]float64, len(scale))
			for i, item := range scale {
				switch f := item.(type) {
				case int:
					values[i] = float64(f)
				case float64:
					values[i] = f
				default:
					return mgl64.Mat4{}, fmt.Errorf("invalid scale component %v", item)
				}
			}
			v, err := vec3(values)
			if err != nil {
				return mgl64.Mat4{}, err
			}
			return mgl64.Scale3D(v.X, v.Y, v.Z), nil
		}
		return mgl64.Mat4{}, fmt.Errorf("invalid scale %v", s.Scale)

	case s.Rotate != nil:
		axis, err := vec3(s.Rotate.Axis)
		if err != nil {
			return mgl64.Mat4{}, err
		}
		if axis.IsZero() {
			return mgl64.Mat4{}, fmt.Errorf("rotation axis must not be zero")
		}
		return mgl64.HomogRotate3D(mgl64.DegToRad(s.Rotate.Angle), axis.Normalize().Vec()), nil

	case s.LookAt != nil:
		origin, err := vec3(s.LookAt.Origin)
		if err != nil {
			return mgl64.Mat4{}, err
		}
		target, err := vec3(s.LookAt.Target)
		if err != nil {
			return mgl64.Mat4{}, err
		}
		up := core.NewVec3(0, 1, 0)
		if s.LookAt.Up != nil {
			if up, err = vec3(s.LookAt.Up); err != nil {
				return mgl64.Mat4{}, err
			}
		}
		dir := target.Subtract(origin)
		if dir.IsZero() || up.Cross(dir).IsZero() {
			return mgl64.Mat4{}, fmt.Errorf("degenerate look-at frame")
		}
		return core.LookAt(origin, target, up), nil

	case s.Matrix != nil:
		if len(s.Matrix) != 16 {
			return mgl64.Mat4{}, fmt.Errorf("matrix needs 16 values, got %d", len(s.Matrix))
		}
		// Row-major in the file, column-major in mgl64
		var m mgl64.Mat4
		copy(m[:], s.Matrix)
		return m.Transpose(), nil
	}
	return mgl64.Mat4{}, fmt.Errorf("unknown transform step")
}

func vec3(values []float64) (core.Vec3, error) {
	if len(values) != 3 {
		return core.Vec3{}, fmt.Errorf("expected 3 values, got %d", len(values))
	}
	return core.NewVec3(values[0], values[1], values[2]), nil
}
