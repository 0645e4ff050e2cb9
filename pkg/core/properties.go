package core

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrPropertyType is returned when a property exists but holds the wrong kind of value
var ErrPropertyType = errors.New("property has wrong type")

// Properties is the bag of named parameters handed to registered constructors.
// Lookups never fail outright: a value of the wrong type yields the default and
// records an error that the constructor reports through Err.
type Properties struct {
	values map[string]any
	err    error
}

// NewProperties creates an empty property bag
func NewProperties() *Properties {
	return &Properties{values: make(map[string]any)}
}

// Set stores a value and returns the bag for chaining
func (p *Properties) Set(name string, value any) *Properties {
	p.values[name] = value
	return p
}

// Has reports whether a property was given
func (p *Properties) Has(name string) bool {
	_, ok := p.values[name]
	return ok
}

// Value returns the raw value of a property
func (p *Properties) Value(name string) (any, bool) {
	value, ok := p.values[name]
	return value, ok
}

// Keys returns the property names in sorted order
func (p *Properties) Keys() []string {
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Err returns the first type error encountered by a getter
func (p *Properties) Err() error {
	return p.err
}

func (p *Properties) fail(name string, value any, want string) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: %q is %T, want %s", ErrPropertyType, name, value, want)
	}
}

// Float returns a numeric property
func (p *Properties) Float(name string, def float64) float64 {
	value, ok := p.values[name]
	if !ok {
		return def
	}
	if f, ok := toFloat(value); ok {
		return f
	}
	p.fail(name, value, "number")
	return def
}

// Int returns an integer property
func (p *Properties) Int(name string, def int) int {
	value, ok := p.values[name]
	if !ok {
		return def
	}
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == float64(int(v)) {
			return int(v)
		}
	}
	p.fail(name, value, "integer")
	return def
}

// Bool returns a boolean property
func (p *Properties) Bool(name string, def bool) bool {
	value, ok := p.values[name]
	if !ok {
		return def
	}
	if b, ok := value.(bool); ok {
		return b
	}
	p.fail(name, value, "bool")
	return def
}

// String returns a string property
func (p *Properties) String(name string, def string) string {
	value, ok := p.values[name]
	if !ok {
		return def
	}
	if s, ok := value.(string); ok {
		return s
	}
	p.fail(name, value, "string")
	return def
}

// Vec3 returns a 3-vector property. A single number is splatted to all components.
func (p *Properties) Vec3(name string, def Vec3) Vec3 {
	value, ok := p.values[name]
	if !ok {
		return def
	}
	switch v := value.(type) {
	case Vec3:
		return v
	case []float64:
		if len(v) == 3 {
			return NewVec3(v[0], v[1], v[2])
		}
	case []any:
		if len(v) == 3 {
			x, okX := toFloat(v[0])
			y, okY := toFloat(v[1])
			z, okZ := toFloat(v[2])
			if okX && okY && okZ {
				return NewVec3(x, y, z)
			}
		}
	default:
		if f, ok := toFloat(value); ok {
			return Splat(f)
		}
	}
	p.fail(name, value, "3-vector")
	return def
}

// Color returns an RGB color property (same encoding as Vec3)
func (p *Properties) Color(name string, def Vec3) Vec3 {
	return p.Vec3(name, def)
}

// Transform returns a 4x4 transform property
func (p *Properties) Transform(name string, def mgl64.Mat4) mgl64.Mat4 {
	value, ok := p.values[name]
	if !ok {
		return def
	}
	if m, ok := value.(mgl64.Mat4); ok {
		return m
	}
	p.fail(name, value, "transform")
	return def
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
