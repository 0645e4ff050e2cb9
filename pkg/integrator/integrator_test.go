package integrator

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/df07/go-octree-pathtracer/pkg/camera"
	"github.com/df07/go-octree-pathtracer/pkg/core"
	"github.com/df07/go-octree-pathtracer/pkg/geometry"
	"github.com/df07/go-octree-pathtracer/pkg/lights"
	"github.com/df07/go-octree-pathtracer/pkg/material"
	"github.com/df07/go-octree-pathtracer/pkg/registry"
	"github.com/df07/go-octree-pathtracer/pkg/sampler"
	"github.com/df07/go-octree-pathtracer/pkg/scene"
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/stat"
)

type meshSpec struct {
	mesh     *geometry.Mesh
	radiance core.Vec3 // zero for non-emitters
}

// buildScene activates a scene with the given integrator and meshes
func buildScene(t *testing.T, integrator scene.Integrator, meshes ...meshSpec) *scene.Scene {
	t.Helper()
	s := scene.New(nil)
	if err := s.SetCamera(camera.NewPerspective(8, 8, 30, mgl64.Ident4())); err != nil {
		t.Fatal(err)
	}
	if err := s.SetIntegrator(integrator); err != nil {
		t.Fatal(err)
	}
	for _, m := range meshes {
		var emitter lights.Emitter
		if !m.radiance.IsZero() {
			emitter = lights.NewAreaLight(m.radiance)
		}
		if _, err := s.AddMesh(m.mesh, emitter); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Activate(context.Background(), scene.DefaultOptions()); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	return s
}

// ceilingLight is a 2x2 emitter at height 1 facing down, centered above the origin.
// Its surface absorbs everything so it does not reflect light back into the scene.
func ceilingLight(radiance float64) meshSpec {
	mesh := geometry.NewQuadMesh("light", core.NewVec3(-1, 1, -1), core.NewVec3(2, 0, 0), core.NewVec3(0, 0, 2))
	mesh.BSDF = material.NewDiffuse(core.Vec3{})
	return meshSpec{mesh: mesh, radiance: core.Splat(radiance)}
}

func floor(bsdf material.BSDF) meshSpec {
	mesh := geometry.NewQuadMesh("floor", core.NewVec3(-10, 0, -10), core.NewVec3(0, 0, 20), core.NewVec3(20, 0, 0))
	mesh.BSDF = bsdf
	return meshSpec{mesh: mesh}
}

func allIntegrators() map[string]scene.Integrator {
	return map[string]scene.Integrator{
		"normals":   Normals{},
		"whitted":   NewWhitted(),
		"path_mats": NewPathMats(),
		"path_ems":  NewPathEMS(),
		"path_mis":  NewPathMIS(),
	}
}

func TestRussianRoulette_Unbiased(t *testing.T) {
	s := sampler.NewIndependent(1)

	// Each bounce adds the current throughput and halves it: sum = 2
	const trials = 200000
	estimates := make([]float64, trials)
	for i := range estimates {
		throughput := core.Splat(1)
		total := 0.0
		for bounce := 0; bounce < 200; bounce++ {
			total += throughput.X
			throughput = throughput.Multiply(0.5)
			if !russianRoulette(s, bounce, 0, &throughput, 1) {
				break
			}
		}
		estimates[i] = total
	}

	mean, std := stat.MeanStdDev(estimates, nil)
	stderr := std / math.Sqrt(trials)
	if math.Abs(mean-2) > 4*stderr {
		t.Errorf("Russian roulette estimate %f +- %f, want 2", mean, stderr)
	}
}

func TestRussianRoulette_Policy(t *testing.T) {
	tests := []struct {
		name       string
		bounce     int
		throughput core.Vec3
		eta        float64
		want       core.Vec3 // throughput after surviving
	}{
		{"Before min bounces", 1, core.Splat(0.1), 1, core.Splat(0.1)},
		{"Clamped to 0.99", 3, core.Splat(2), 1, core.Splat(2 / 0.99)},
		{"Eta squared", 3, core.Splat(0.5), 1.2, core.Splat(0.5 / 0.72)},
		{"Max channel", 5, core.NewVec3(0.8, 0.1, 0.1), 1, core.NewVec3(1, 0.125, 0.125)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// A sampler that always returns 0 keeps every path alive
			throughput := tt.throughput
			if !russianRoulette(&fixedSampler{}, tt.bounce, 3, &throughput, tt.eta) {
				t.Fatal("Path should survive")
			}
			if throughput.Subtract(tt.want).Length() > 1e-12 {
				t.Errorf("Throughput %v, want %v", throughput, tt.want)
			}
		})
	}

	throughput := core.Vec3{}
	if russianRoulette(&fixedSampler{}, 5, 3, &throughput, 1) {
		t.Error("Zero throughput paths must terminate")
	}
}

// fixedSampler returns the same value for every dimension
type fixedSampler struct {
	value float64
}

func (f *fixedSampler) Get1D() float64 { return f.value }
func (f *fixedSampler) Get2D() core.Vec2 {
	return core.NewVec2(f.value, f.value)
}

func TestMISWeights_SumToOne(t *testing.T) {
	pdfs := [][2]float64{{1, 1}, {0.1, 10}, {3, 0.5}, {1e-6, 1e6}}
	for _, heuristic := range []string{HeuristicBalance, HeuristicPower} {
		for _, p := range pdfs {
			sum := misWeight(heuristic, p[0], p[1]) + misWeight(heuristic, p[1], p[0])
			if math.Abs(sum-1) > 1e-12 {
				t.Errorf("%s weights for %v sum to %f", heuristic, p, sum)
			}
		}
	}
	if w := misWeight(HeuristicBalance, 2, 0); w != 1 {
		t.Errorf("A strategy without competition has weight 1, got %f", w)
	}
}

func TestMIS_CombinedEstimatorUnbiased(t *testing.T) {
	// Estimate the integral of x^2 over [0, 1] with a uniform strategy and a
	// linear strategy (pdf 2x), one sample each per trial
	const trials = 100000
	for _, heuristic := range []string{HeuristicBalance, HeuristicPower} {
		t.Run(heuristic, func(t *testing.T) {
			s := sampler.NewIndependent(1)
			estimates := make([]float64, trials)
			for i := range estimates {
				xa := s.Get1D()
				wa := misWeight(heuristic, 1, 2*xa)

				xb := math.Sqrt(s.Get1D())
				var fb float64
				if xb > 0 {
					fb = misWeight(heuristic, 2*xb, 1) * xb * xb / (2 * xb)
				}
				estimates[i] = wa*xa*xa + fb
			}

			mean, std := stat.MeanStdDev(estimates, nil)
			stderr := std / math.Sqrt(trials)
			if math.Abs(mean-1.0/3) > 4*stderr {
				t.Errorf("MIS estimate %f +- %f, want 1/3", mean, stderr)
			}
		})
	}
}

func TestIntegrators_EmptyScene(t *testing.T) {
	for name, integrator := range allIntegrators() {
		t.Run(name, func(t *testing.T) {
			s := buildScene(t, integrator)
			smp := sampler.NewIndependent(1)
			for i := 0; i < 16; i++ {
				dir := core.SquareToUniformSphere(smp.Get2D())
				if l := integrator.Li(s, smp, core.NewRay(core.Vec3{}, dir)); !l.IsZero() {
					t.Fatalf("Empty scene returned %v", l)
				}
			}
		})
	}
}

func TestIntegrators_EmissiveQuadFillsFrame(t *testing.T) {
	for name, integrator := range allIntegrators() {
		if name == "normals" {
			continue
		}
		t.Run(name, func(t *testing.T) {
			s, err := scene.NewQuadScene(nil)
			if err != nil {
				t.Fatal(err)
			}
			s.SetIntegrator(integrator)
			if err := s.Activate(context.Background(), scene.DefaultOptions()); err != nil {
				t.Fatal(err)
			}

			smp := sampler.NewIndependent(1)
			w, h := s.Camera().OutputSize()
			for y := 0; y < h; y += 7 {
				for x := 0; x < w; x += 7 {
					ray, _ := s.Camera().SampleRay(core.NewVec2(float64(x)+0.5, float64(y)+0.5), smp.Get2D())
					l := integrator.Li(s, smp, ray)
					if l.Subtract(core.Splat(1)).Length() > 1e-6 {
						t.Fatalf("Pixel (%d, %d) = %v, want (1, 1, 1)", x, y, l)
					}
				}
			}
		})
	}
}

func TestIntegrators_OneBounceDiffuse(t *testing.T) {
	// Radiance leaving a diffuse floor below a square light:
	// albedo/pi * E = albedo * L * F, with F = 0.554132 the point-to-square form factor
	expected := 0.5 * 0.554132

	tests := []struct {
		integrator scene.Integrator
		samples    int
	}{
		{NewPathMIS(), 4096},
		{&PathMIS{PathConfig: PathConfig{MaxDepth: 6, RRMinBounces: 3}, Heuristic: HeuristicPower}, 4096},
		{NewPathEMS(), 4096},
		{NewWhitted(), 4096},
		{NewPathMats(), 16384},
	}

	for _, tt := range tests {
		t.Run(tt.integrator.(interface{ String() string }).String(), func(t *testing.T) {
			s := buildScene(t, tt.integrator, floor(material.NewDiffuse(core.Splat(0.5))), ceilingLight(1))
			smp := sampler.NewIndependent(1)
			ray := core.NewRay(core.NewVec3(0, 0.5, 0), core.NewVec3(0, -1, 0))

			estimates := make([]float64, tt.samples)
			for i := range estimates {
				estimates[i] = tt.integrator.Li(s, smp, ray).X
			}
			mean := stat.Mean(estimates, nil)
			if relErr := math.Abs(mean-expected) / expected; relErr > 0.05 {
				t.Errorf("Estimate %f, want %f (relative error %.3f)", mean, expected, relErr)
			}
		})
	}
}

func TestIntegrators_MirrorSeesEmitter(t *testing.T) {
	for _, integrator := range []scene.Integrator{NewPathMats(), NewPathEMS(), NewPathMIS()} {
		s := buildScene(t, integrator, floor(material.NewMirror()), ceilingLight(1))
		smp := sampler.NewIndependent(1)
		ray := core.NewRay(core.NewVec3(0, 0.5, 0), core.NewVec3(0, -1, 0))
		for i := 0; i < 32; i++ {
			if l := integrator.Li(s, smp, ray); l.Subtract(core.Splat(1)).Length() > 1e-9 {
				t.Fatalf("%v: reflection of the light should be exactly 1, got %v", integrator, l)
			}
		}
	}
}

func TestWhitted_FollowsMirror(t *testing.T) {
	integrator := NewWhitted()
	s := buildScene(t, integrator, floor(material.NewMirror()), ceilingLight(1))
	smp := sampler.NewIndependent(1)
	ray := core.NewRay(core.NewVec3(0, 0.5, 0), core.NewVec3(0, -1, 0))

	const n = 4000
	estimates := make([]float64, n)
	for i := range estimates {
		estimates[i] = integrator.Li(s, smp, ray).X
	}
	if mean := stat.Mean(estimates, nil); math.Abs(mean-1) > 0.03 {
		t.Errorf("Expected the mirrored light with mean 1, got %f", mean)
	}
}

func TestNormals(t *testing.T) {
	s := buildScene(t, Normals{}, floor(nil))
	l := Normals{}.Li(s, nil, core.NewRay(core.NewVec3(0, 1, 0), core.NewVec3(0.3, -1, 0).Normalize()))
	if l.Subtract(core.NewVec3(0, 1, 0)).Length() > 1e-9 {
		t.Errorf("Expected |n| = (0, 1, 0), got %v", l)
	}
}

func TestRegister(t *testing.T) {
	r := registry.New[scene.Integrator]("integrator")
	Register(r)

	t.Run("Defaults", func(t *testing.T) {
		tests := []struct {
			name     string
			maxDepth int
		}{
			{"path_mats", 8},
			{"path_ems", 5},
			{"path_mis", 6},
		}
		for _, tt := range tests {
			obj, err := r.Create(tt.name, nil)
			if err != nil {
				t.Fatalf("Create %s failed: %v", tt.name, err)
			}
			var cfg PathConfig
			switch p := obj.(type) {
			case *PathMats:
				cfg = p.PathConfig
			case *PathEMS:
				cfg = p.PathConfig
			case *PathMIS:
				cfg = p.PathConfig
				if p.Heuristic != HeuristicBalance {
					t.Errorf("Default heuristic %q", p.Heuristic)
				}
			}
			if cfg.MaxDepth != tt.maxDepth || cfg.RRMinBounces != 3 {
				t.Errorf("%s: maxDepth=%d rrMinBounces=%d", tt.name, cfg.MaxDepth, cfg.RRMinBounces)
			}
		}
	})

	t.Run("Errors", func(t *testing.T) {
		tests := []struct {
			name  string
			typ   string
			props *core.Properties
		}{
			{"Zero depth", "path_mis", core.NewProperties().Set("maxDepth", 0)},
			{"Negative rr", "path_ems", core.NewProperties().Set("rrMinBounces", -1)},
			{"Bad heuristic", "path_mis", core.NewProperties().Set("heuristic", "cubic")},
			{"Bad light sampling", "whitted", core.NewProperties().Set("lightSampling", "closest")},
			{"Wrong type", "path_mats", core.NewProperties().Set("maxDepth", "deep")},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if _, err := r.Create(tt.typ, tt.props); err == nil {
					t.Error("Expected an error")
				}
			})
		}
		if _, err := r.Create("bdpt", nil); !errors.Is(err, registry.ErrUnknown) {
			t.Errorf("Expected ErrUnknown, got %v", err)
		}
	})

	t.Run("Power light sampling", func(t *testing.T) {
		obj, err := r.Create("path_mis", core.NewProperties().Set("lightSampling", lights.SelectPower))
		if err != nil {
			t.Fatal(err)
		}
		dim := ceilingLight(1)
		bright := geometry.NewQuadMesh("bright", core.NewVec3(-1, 2, -1), core.NewVec3(4, 0, 0), core.NewVec3(0, 0, 2))
		s := buildScene(t, obj, dim, meshSpec{mesh: bright, radiance: core.Splat(1)})
		if p := s.LightSampler().Prob(1); math.Abs(p-2.0/3) > 1e-12 {
			t.Errorf("Larger light should be picked with probability 2/3, got %f", p)
		}
	})
}
