package scene

import (
	"fmt"
	"math"

	"github.com/df07/go-octree-pathtracer/pkg/camera"
	"github.com/df07/go-octree-pathtracer/pkg/core"
	"github.com/df07/go-octree-pathtracer/pkg/geometry"
	"github.com/df07/go-octree-pathtracer/pkg/lights"
	"github.com/df07/go-octree-pathtracer/pkg/material"
	"github.com/df07/go-octree-pathtracer/pkg/sampler"
	"go.uber.org/zap"
)

// SphereGridSize is the number of spheres along each side of the grid
const SphereGridSize = 10

// oklchToRGB converts OKLCH color values to linear RGB clamped to [0, 1].
// L: lightness (0-1), C: chroma (0-0.4+), H: hue (0-360 degrees)
func oklchToRGB(l, c, h float64) core.Vec3 {
	hRad := h * math.Pi / 180.0

	// OKLCH to OKLAB
	a := c * math.Cos(hRad)
	b := c * math.Sin(hRad)

	// OKLAB to cubed LMS
	lc := cube(l + 0.3963377774*a + 0.2158037573*b)
	mc := cube(l - 0.1055613458*a - 0.0638541728*b)
	sc := cube(l - 0.0894841775*a - 1.2914855480*b)

	// LMS to linear RGB
	return core.NewVec3(
		+4.0767416621*lc-3.3077115913*mc+0.2309699292*sc,
		-1.2684380046*lc+2.6097574011*mc-0.3413193965*sc,
		-0.0041960863*lc-0.7034186147*mc+1.7076147010*sc,
	).Clamp(0, 1)
}

func cube(x float64) float64 { return x * x * x }

// NewSphereGridScene creates a grid of tessellated spheres on a ground slab,
// lit by a large spherical area light. Hue varies along x and chroma along z.
// The many small meshes make it a stress test for the octree. The integrator
// is left unset.
func NewSphereGridScene(logger *zap.Logger) (*Scene, error) {
	s := New(logger)

	toWorld := core.LookAt(core.NewVec3(4.5, 6, 18), core.NewVec3(4.5, 0.8, 4.5), core.NewVec3(0, 1, 0))
	if err := s.SetCamera(camera.NewPerspective(800, 450, 40, toWorld)); err != nil {
		return nil, err
	}
	if err := s.SetSampler(sampler.NewIndependent(32)); err != nil {
		return nil, err
	}

	// Warm sun-like sphere light high and to the side
	sun := geometry.NewSphereMesh("sun", core.NewVec3(20, 25, 20), 8, 32, 16)
	sun.BSDF = material.NewDiffuse(core.Vec3{})
	if _, err := s.AddMesh(sun, lights.NewAreaLight(core.NewVec3(12.0, 11.5, 10.0))); err != nil {
		return nil, err
	}
	// Cool fill from the opposite side
	fill := lights.NewDirectionalLight(core.NewVec3(1, -1, 1), core.NewVec3(0.25, 0.3, 0.4))
	if err := s.AddEmitter(fill); err != nil {
		return nil, err
	}

	ground := geometry.NewBoxMesh("ground", core.NewVec3(-10, -1, -10), core.NewVec3(20, 0, 20))
	ground.BSDF = material.NewDiffuse(core.NewVec3(0.5, 0.5, 0.5))
	if _, err := s.AddMesh(ground, nil); err != nil {
		return nil, err
	}

	// Fit the grid into a 9x9 area centered on the look-at point
	const targetArea = 9.0
	spacing := targetArea / float64(SphereGridSize-1)
	radius := math.Max(0.02, math.Min(0.35, spacing*0.35))

	const (
		baseLightness = 0.65
		minChroma     = 0.05
		maxChroma     = 0.25
	)
	for i := 0; i < SphereGridSize; i++ {
		for j := 0; j < SphereGridSize; j++ {
			x := float64(i)*spacing - targetArea/2.0 + 4.5
			z := float64(j)*spacing - targetArea/2.0 + 4.5

			fi := float64(i) / float64(SphereGridSize-1)
			fj := float64(j) / float64(SphereGridSize-1)
			lightness := baseLightness + 0.1*math.Sin(float64(i+j)*0.5)
			color := oklchToRGB(lightness, minChroma+fj*(maxChroma-minChroma), fi*360.0)

			sphere := geometry.NewSphereMesh(fmt.Sprintf("sphere-%d-%d", i, j), core.NewVec3(x, radius, z), radius, 24, 12)
			sphere.BSDF = material.NewMicrofacet(0.05+0.05*float64((i+j)%3), 1.5046, 1.000277, color)
			if _, err := s.AddMesh(sphere, nil); err != nil {
				return nil, err
			}
		}
	}

	return s, nil
}
