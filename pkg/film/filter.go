package film

import (
	"fmt"
	"math"

	"github.com/df07/go-octree-pathtracer/pkg/core"
	"github.com/df07/go-octree-pathtracer/pkg/registry"
)

// FilterResolution is the number of entries in a rasterized filter table
const FilterResolution = 32

// Filter is a radially symmetric image reconstruction filter
type Filter interface {
	// Radius returns the half width of the filter support in pixels
	Radius() float64
	// Eval evaluates the filter at offset x from the sample position
	Eval(x float64) float64
}

// Gaussian is a windowed Gaussian, shifted so it reaches zero at the radius
type Gaussian struct {
	radius, stddev float64
}

// NewGaussian creates a Gaussian filter
func NewGaussian(radius, stddev float64) *Gaussian {
	return &Gaussian{radius: radius, stddev: stddev}
}

func (f *Gaussian) Radius() float64 { return f.radius }

func (f *Gaussian) Eval(x float64) float64 {
	alpha := -1.0 / (2.0 * f.stddev * f.stddev)
	return math.Max(0, math.Exp(alpha*x*x)-math.Exp(alpha*f.radius*f.radius))
}

func (f *Gaussian) String() string {
	return fmt.Sprintf("GaussianFilter[radius=%f, stddev=%f]", f.radius, f.stddev)
}

// Box weighs every sample inside its support equally
type Box struct {
	radius float64
}

// NewBox creates a box filter
func NewBox(radius float64) *Box {
	return &Box{radius: radius}
}

func (f *Box) Radius() float64 { return f.radius }

func (f *Box) Eval(x float64) float64 {
	return 1
}

func (f *Box) String() string {
	return fmt.Sprintf("BoxFilter[radius=%f]", f.radius)
}

// Tent falls off linearly to zero at its radius
type Tent struct {
	radius float64
}

// NewTent creates a tent filter
func NewTent(radius float64) *Tent {
	return &Tent{radius: radius}
}

func (f *Tent) Radius() float64 { return f.radius }

func (f *Tent) Eval(x float64) float64 {
	return math.Max(0, 1-math.Abs(x)/f.radius)
}

func (f *Tent) String() string {
	return fmt.Sprintf("TentFilter[radius=%f]", f.radius)
}

// Mitchell is the Mitchell-Netravali cubic with parameters B and C
type Mitchell struct {
	radius, b, c float64
}

// NewMitchell creates a Mitchell-Netravali filter
func NewMitchell(radius, b, c float64) *Mitchell {
	return &Mitchell{radius: radius, b: b, c: c}
}

func (f *Mitchell) Radius() float64 { return f.radius }

func (f *Mitchell) Eval(x float64) float64 {
	x = math.Abs(2 * x / f.radius)
	x2, x3 := x*x, x*x*x
	b, c := f.b, f.c

	if x < 1 {
		return 1.0 / 6.0 * ((12-9*b-6*c)*x3 + (-18+12*b+6*c)*x2 + (6-2*b))
	} else if x < 2 {
		return 1.0 / 6.0 * ((-b-6*c)*x3 + (6*b+30*c)*x2 + (-12*b-48*c)*x + (8*b+24*c))
	}
	return 0
}

func (f *Mitchell) String() string {
	return fmt.Sprintf("MitchellNetravaliFilter[radius=%f, B=%f, C=%f]", f.radius, f.b, f.c)
}

// rasterize tabulates f at FilterResolution points over [0, radius]. The
// extra last entry is zero so lookups at exactly the radius stay in bounds.
func rasterize(f Filter) [FilterResolution + 1]float64 {
	var table [FilterResolution + 1]float64
	for i := 0; i < FilterResolution; i++ {
		table[i] = f.Eval(f.Radius() * float64(i) / FilterResolution)
	}
	return table
}

// DefaultFilter returns the filter used when a scene names none
func DefaultFilter() Filter {
	return NewGaussian(2, 0.5)
}

// Register adds the built-in filters to r
func Register(r *registry.Registry[Filter]) {
	r.Register("gaussian", func(props *core.Properties) (Filter, error) {
		f := NewGaussian(props.Float("radius", 2), props.Float("stddev", 0.5))
		return f, validate(f, props)
	})
	r.Register("box", func(props *core.Properties) (Filter, error) {
		f := NewBox(props.Float("radius", 0.5))
		return f, validate(f, props)
	})
	r.Register("tent", func(props *core.Properties) (Filter, error) {
		f := NewTent(props.Float("radius", 1))
		return f, validate(f, props)
	})
	r.Register("mitchell", func(props *core.Properties) (Filter, error) {
		f := NewMitchell(props.Float("radius", 2), props.Float("B", 1.0/3.0), props.Float("C", 1.0/3.0))
		return f, validate(f, props)
	})
}

func validate(f Filter, props *core.Properties) error {
	if err := props.Err(); err != nil {
		return err
	}
	if f.Radius() <= 0 {
		return fmt.Errorf("filter radius must be positive, got %f", f.Radius())
	}
	return nil
}
