package camera

import (
	"fmt"
	"math"

	"github.com/df07/go-octree-pathtracer/pkg/core"
	"github.com/df07/go-octree-pathtracer/pkg/film"
	"github.com/df07/go-octree-pathtracer/pkg/registry"
	"github.com/go-gl/mathgl/mgl64"
)

// Perspective is a pinhole camera, or a thin-lens camera when LensRadius > 0.
// It looks down its local +Z axis; ToWorld places it in the scene.
type Perspective struct {
	Width, Height     int
	FOV               float64 // horizontal field of view in degrees
	NearClip, FarClip float64
	LensRadius        float64
	FocalDistance     float64
	ToWorld           mgl64.Mat4

	filter         film.Filter
	sampleToCamera mgl64.Mat4
	invWidth       float64
	invHeight      float64
}

// NewPerspective creates a camera with the given output size and field of view
func NewPerspective(width, height int, fov float64, toWorld mgl64.Mat4) *Perspective {
	c := &Perspective{
		Width:         width,
		Height:        height,
		FOV:           fov,
		NearClip:      1e-4,
		FarClip:       1e4,
		FocalDistance: 10,
		ToWorld:       toWorld,
	}
	c.Activate()
	return c
}

// Activate precomputes the sample-to-camera transform. It must be called again
// after changing any exported field.
func (c *Perspective) Activate() {
	aspect := float64(c.Width) / float64(c.Height)
	c.invWidth = 1 / float64(c.Width)
	c.invHeight = 1 / float64(c.Height)

	// Project camera-space points onto the z=1 plane; the cotangent maps the
	// field of view to [-1, 1]
	recip := 1 / (c.FarClip - c.NearClip)
	cot := 1 / math.Tan(mgl64.DegToRad(c.FOV/2))
	perspective := mgl64.Mat4FromRows(
		mgl64.Vec4{cot, 0, 0, 0},
		mgl64.Vec4{0, cot, 0, 0},
		mgl64.Vec4{0, 0, c.FarClip * recip, -c.NearClip * c.FarClip * recip},
		mgl64.Vec4{0, 0, 1, 0},
	)

	// Shift and scale clip coordinates to [0, 1] with y pointing down
	cameraToSample := mgl64.Scale3D(-0.5, -0.5*aspect, 1).
		Mul4(mgl64.Translate3D(-1, -1/aspect, 0)).
		Mul4(perspective)
	c.sampleToCamera = cameraToSample.Inv()

	if c.filter == nil {
		c.filter = film.DefaultFilter()
	}
}

// SetFilter assigns the reconstruction filter
func (c *Perspective) SetFilter(f film.Filter) {
	c.filter = f
}

// Filter returns the reconstruction filter
func (c *Perspective) Filter() film.Filter {
	return c.filter
}

// OutputSize returns the image resolution
func (c *Perspective) OutputSize() (int, int) {
	return c.Width, c.Height
}

// SampleRay turns an image-plane position (in pixels) and an aperture sample
// into a world-space ray. The importance weight is always 1.
func (c *Perspective) SampleRay(pixel, aperture core.Vec2) (core.Ray, core.Vec3) {
	nearP := core.TransformPoint(c.sampleToCamera, core.NewVec3(pixel.X*c.invWidth, pixel.Y*c.invHeight, 0))
	d := nearP.Normalize()
	origin := core.Vec3{}

	if c.LensRadius > 0 {
		lens := core.SquareToUniformDisk(aperture).Multiply(c.LensRadius)
		focus := d.Multiply(c.FocalDistance / d.Z)
		origin = core.NewVec3(lens.X, lens.Y, 0)
		d = focus.Subtract(origin).Normalize()
	}

	invZ := 1 / d.Z
	ray := core.NewRaySegment(
		core.TransformPoint(c.ToWorld, origin),
		core.TransformVector(c.ToWorld, d).Normalize(),
		c.NearClip*invZ,
		c.FarClip*invZ,
	)
	return ray, core.Splat(1)
}

func (c *Perspective) String() string {
	return fmt.Sprintf("PerspectiveCamera[size=%dx%d, fov=%f, clip=[%g, %g], lensRadius=%f, filter=%v]",
		c.Width, c.Height, c.FOV, c.NearClip, c.FarClip, c.LensRadius, c.filter)
}

// Register adds the built-in cameras to r
func Register(r *registry.Registry[Camera]) {
	r.Register("perspective", func(props *core.Properties) (Camera, error) {
		c := &Perspective{
			Width:         props.Int("width", 1280),
			Height:        props.Int("height", 720),
			FOV:           props.Float("fov", 30),
			NearClip:      props.Float("nearClip", 1e-4),
			FarClip:       props.Float("farClip", 1e4),
			LensRadius:    props.Float("lensRadius", 0),
			FocalDistance: props.Float("focalDistance", 10),
			ToWorld:       props.Transform("toWorld", mgl64.Ident4()),
		}
		if err := props.Err(); err != nil {
			return nil, err
		}
		if c.Width <= 0 || c.Height <= 0 {
			return nil, fmt.Errorf("invalid output size %dx%d", c.Width, c.Height)
		}
		if c.FOV <= 0 || c.FOV >= 180 {
			return nil, fmt.Errorf("field of view must be in (0, 180), got %f", c.FOV)
		}
		if c.NearClip <= 0 || c.FarClip <= c.NearClip {
			return nil, fmt.Errorf("invalid clip range [%g, %g]", c.NearClip, c.FarClip)
		}
		c.Activate()
		return c, nil
	})
}
