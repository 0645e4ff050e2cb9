package scene

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/df07/go-octree-pathtracer/pkg/camera"
	"github.com/df07/go-octree-pathtracer/pkg/core"
	"github.com/df07/go-octree-pathtracer/pkg/geometry"
	"github.com/df07/go-octree-pathtracer/pkg/lights"
	"github.com/df07/go-octree-pathtracer/pkg/sampler"
	"github.com/go-gl/mathgl/mgl64"
)

// mockIntegrator returns a constant and records preprocessing
type mockIntegrator struct {
	preprocessed int
	selection    string
	err          error
}

func (m *mockIntegrator) Li(s *Scene, sampler core.Sampler, ray core.Ray) core.Vec3 {
	return core.Splat(1)
}

func (m *mockIntegrator) Preprocess(s *Scene) error {
	m.preprocessed++
	if m.err != nil {
		return m.err
	}
	if m.selection != "" {
		return s.SetLightSelection(m.selection)
	}
	return nil
}

func newTestCamera() camera.Camera {
	return camera.NewPerspective(16, 16, 30, mgl64.Ident4())
}

func activeQuadScene(t *testing.T) *Scene {
	t.Helper()
	s, err := NewQuadScene(nil)
	if err != nil {
		t.Fatalf("NewQuadScene failed: %v", err)
	}
	if err := s.SetIntegrator(&mockIntegrator{}); err != nil {
		t.Fatal(err)
	}
	if err := s.Activate(context.Background(), DefaultOptions()); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	return s
}

func TestActivate_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(s *Scene)
		want  error
	}{
		{"No camera", func(s *Scene) { s.SetIntegrator(&mockIntegrator{}) }, ErrNoCamera},
		{"No integrator", func(s *Scene) { s.SetCamera(newTestCamera()) }, ErrNoIntegrator},
		{"Nothing", func(s *Scene) {}, ErrNoCamera},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(nil)
			tt.setup(s)
			if err := s.Activate(context.Background(), DefaultOptions()); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
			if s.Accel() != nil {
				t.Error("No octree should be built for an invalid scene")
			}
		})
	}
}

func TestSetters_RejectDuplicates(t *testing.T) {
	s := New(nil)
	if err := s.SetCamera(newTestCamera()); err != nil {
		t.Fatal(err)
	}
	if err := s.SetCamera(newTestCamera()); !errors.Is(err, ErrDuplicateCamera) {
		t.Errorf("Expected ErrDuplicateCamera, got %v", err)
	}
	if err := s.SetIntegrator(&mockIntegrator{}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetIntegrator(&mockIntegrator{}); !errors.Is(err, ErrDuplicateIntegrator) {
		t.Errorf("Expected ErrDuplicateIntegrator, got %v", err)
	}
	if err := s.SetSampler(sampler.NewIndependent(4)); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSampler(sampler.NewIndependent(4)); !errors.Is(err, ErrDuplicateSampler) {
		t.Errorf("Expected ErrDuplicateSampler, got %v", err)
	}
}

func TestActivate_Defaults(t *testing.T) {
	s := New(nil)
	s.SetCamera(newTestCamera())
	integrator := &mockIntegrator{}
	s.SetIntegrator(integrator)

	if err := s.Activate(context.Background(), DefaultOptions()); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if s.Sampler() == nil || s.Sampler().SampleCount() != 1 {
		t.Errorf("Expected a default sampler with one sample, got %v", s.Sampler())
	}
	if integrator.preprocessed != 1 {
		t.Errorf("Preprocess called %d times", integrator.preprocessed)
	}
	if !s.IsActivated() {
		t.Error("Scene should be activated")
	}
	if err := s.Activate(context.Background(), DefaultOptions()); !errors.Is(err, ErrAlreadyActivated) {
		t.Errorf("Expected ErrAlreadyActivated, got %v", err)
	}
	if _, err := s.AddMesh(geometry.NewBoxMesh("late", core.Vec3{}, core.Splat(1)), nil); !errors.Is(err, ErrAlreadyActivated) {
		t.Errorf("Meshes cannot be added after activation, got %v", err)
	}
}

func TestActivate_PropagatesFailures(t *testing.T) {
	t.Run("Preprocess", func(t *testing.T) {
		s := New(nil)
		s.SetCamera(newTestCamera())
		boom := errors.New("boom")
		s.SetIntegrator(&mockIntegrator{err: boom})
		if err := s.Activate(context.Background(), DefaultOptions()); !errors.Is(err, boom) {
			t.Errorf("Expected wrapped preprocess error, got %v", err)
		}
	})

	t.Run("Invalid mesh", func(t *testing.T) {
		s := New(nil)
		s.SetCamera(newTestCamera())
		s.SetIntegrator(&mockIntegrator{})
		bad := geometry.NewMesh("bad", []core.Vec3{{}, {X: 1}, {Y: 1}}, []uint32{0, 1, 5})
		s.AddMesh(bad, nil)
		if err := s.Activate(context.Background(), DefaultOptions()); !errors.Is(err, geometry.ErrInvalidIndex) {
			t.Errorf("Expected ErrInvalidIndex, got %v", err)
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		s, _ := NewCornellScene(nil)
		s.SetIntegrator(&mockIntegrator{})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := s.Activate(ctx, DefaultOptions()); !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	})
}

func TestAddMesh_Emitters(t *testing.T) {
	s := New(nil)
	quad := geometry.NewQuadMesh("q", core.Vec3{}, core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0))
	if _, err := s.AddMesh(quad, lights.NewPointLight(core.Vec3{}, core.Splat(1))); err == nil {
		t.Error("Point lights cannot be attached to a mesh")
	}
	if err := s.AddEmitter(lights.NewAreaLight(core.Splat(1))); !errors.Is(err, lights.ErrNotAttached) {
		t.Errorf("Expected ErrNotAttached, got %v", err)
	}

	area := lights.NewAreaLight(core.Splat(1))
	s2 := New(nil)
	s2.AddMesh(geometry.NewBoxMesh("box", core.Vec3{}, core.Splat(1)), nil)
	id, err := s2.AddMesh(quad, area)
	if err != nil {
		t.Fatalf("AddMesh failed: %v", err)
	}
	if id != 1 || area.MeshID != 1 || area.Mesh() != quad {
		t.Errorf("Area light attached to mesh %d (%v), want 1", area.MeshID, area.Mesh())
	}
	if quad.EmitterID != 0 || !quad.IsEmitter() {
		t.Errorf("Mesh should reference emitter 0, got %d", quad.EmitterID)
	}
}

func TestRayIntersect(t *testing.T) {
	s := activeQuadScene(t)

	var its geometry.Intersection
	if !s.RayIntersect(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, 1)), &its) {
		t.Fatal("Expected to hit the quad")
	}
	if math.Abs(its.T-1) > 1e-9 || its.MeshID != 0 {
		t.Errorf("Hit t=%f mesh=%d, want t=1 mesh=0", its.T, its.MeshID)
	}
	emitter, index := s.EmitterAt(&its)
	if emitter == nil || index != 0 {
		t.Errorf("Expected emitter 0 at the hit, got %v %d", emitter, index)
	}
	if s.RayIntersect(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, -1)), &its) {
		t.Error("Ray pointing away should miss")
	}

	if !s.Occluded(core.NewRaySegment(core.Vec3{}, core.NewVec3(0, 0, 1), core.Epsilon, 2)) {
		t.Error("Segment through the quad should be occluded")
	}
	if s.Occluded(core.NewRaySegment(core.Vec3{}, core.NewVec3(0, 0, 1), core.Epsilon, 0.5)) {
		t.Error("Segment ending before the quad should be clear")
	}
}

func TestSampleEmitter_IncludesSelectionProbability(t *testing.T) {
	s := New(nil)
	s.SetCamera(newTestCamera())
	integrator := &mockIntegrator{}
	s.SetIntegrator(integrator)

	bright := geometry.NewQuadMesh("bright", core.NewVec3(-1, 2, -1), core.NewVec3(2, 0, 0), core.NewVec3(0, 0, 2))
	dim := geometry.NewQuadMesh("dim", core.NewVec3(-1, 4, -1), core.NewVec3(2, 0, 0), core.NewVec3(0, 0, 2))
	s.AddMesh(bright, lights.NewAreaLight(core.Splat(3)))
	s.AddMesh(dim, lights.NewAreaLight(core.Splat(1)))
	if err := s.Activate(context.Background(), DefaultOptions()); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		selection string
		probs     []float64
	}{
		{"Uniform", lights.SelectUniform, []float64{0.5, 0.5}},
		{"Power", lights.SelectPower, []float64{0.75, 0.25}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.SetLightSelection(tt.selection); err != nil {
				t.Fatal(err)
			}
			for i, want := range tt.probs {
				if got := s.LightSampler().Prob(i); math.Abs(got-want) > 1e-12 {
					t.Errorf("Emitter %d selected with %f, want %f", i, got, want)
				}
			}

			q := lights.NewEmitterQuery(core.Vec3{}, core.NewVec3(0, 1, 0))
			emitter, le := s.SampleEmitter(&q, 0.1, core.NewVec2(0.5, 0.5))
			if emitter == nil || le.IsZero() {
				t.Fatal("Expected a valid light sample")
			}
			unselected := s.Emitter(0).PDF(&q)
			if math.Abs(q.PDF-unselected*tt.probs[0]) > 1e-9 {
				t.Errorf("Query pdf %f, want %f", q.PDF, unselected*tt.probs[0])
			}
			if got := s.EmitterPDF(0, &q); math.Abs(got-q.PDF) > 1e-9 {
				t.Errorf("EmitterPDF %f does not match sampled pdf %f", got, q.PDF)
			}
		})
	}
}

func TestSampleEmitter_NoEmitters(t *testing.T) {
	s := New(nil)
	s.SetCamera(newTestCamera())
	s.SetIntegrator(&mockIntegrator{selection: lights.SelectPower})
	if err := s.Activate(context.Background(), DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	q := lights.NewEmitterQuery(core.Vec3{}, core.NewVec3(0, 1, 0))
	if emitter, le := s.SampleEmitter(&q, 0.5, core.NewVec2(0.5, 0.5)); emitter != nil || !le.IsZero() {
		t.Errorf("Expected no light sample, got %v %v", emitter, le)
	}
	var its geometry.Intersection
	if s.RayIntersect(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, 1)), &its) {
		t.Error("Empty scene should never be hit")
	}
}

func TestCornellScene_Activates(t *testing.T) {
	s, err := NewCornellScene(nil)
	if err != nil {
		t.Fatal(err)
	}
	s.SetIntegrator(&mockIntegrator{})
	if err := s.Activate(context.Background(), DefaultOptions()); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if s.TriangleCount() < 1000 {
		t.Errorf("Expected tessellated spheres, got %d triangles", s.TriangleCount())
	}

	// Straight down from the light hits the floor
	var its geometry.Intersection
	ray := core.NewRay(core.NewVec3(278, 500, 278), core.NewVec3(0, -1, 0))
	if !s.RayIntersect(ray, &its) {
		t.Fatal("Expected a hit")
	}
	if its.Mesh.Name != "floor" {
		t.Errorf("Expected to hit the floor, hit %q", its.Mesh.Name)
	}
	if its.ShFrame.N.Y < 0.99 {
		t.Errorf("Floor should face up, got normal %v", its.ShFrame.N)
	}
}

func TestSphereGridScene_Activates(t *testing.T) {
	s, err := NewSphereGridScene(nil)
	if err != nil {
		t.Fatal(err)
	}
	s.SetIntegrator(&mockIntegrator{})
	if err := s.Activate(context.Background(), DefaultOptions()); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if got, want := len(s.Meshes()), SphereGridSize*SphereGridSize+2; got != want {
		t.Errorf("Expected %d meshes, got %d", want, got)
	}
	if len(s.Emitters()) != 2 {
		t.Errorf("Expected sun and fill emitters, got %d", len(s.Emitters()))
	}

	tests := []struct {
		name   string
		origin core.Vec3
		mesh   string
	}{
		{"corner sphere", core.NewVec3(0, 5, 0), "sphere-0-0"},
		{"last sphere", core.NewVec3(9, 5, 9), "sphere-9-9"},
		{"between spheres", core.NewVec3(0.5, 5, 0.5), "ground"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var its geometry.Intersection
			if !s.RayIntersect(core.NewRay(tt.origin, core.NewVec3(0, -1, 0)), &its) {
				t.Fatal("Expected a hit")
			}
			if its.Mesh.Name != tt.mesh {
				t.Errorf("Expected to hit %q, hit %q", tt.mesh, its.Mesh.Name)
			}
		})
	}
}

func TestOklchToRGB(t *testing.T) {
	if got := oklchToRGB(1, 0, 0); got.Subtract(core.Splat(1)).Length() > 1e-6 {
		t.Errorf("Expected white, got %v", got)
	}
	if got := oklchToRGB(0, 0, 0); got != (core.Vec3{}) {
		t.Errorf("Expected black, got %v", got)
	}
	for hue := 0.0; hue < 360; hue += 30 {
		c := oklchToRGB(0.65, 0.25, hue)
		if c.X < 0 || c.X > 1 || c.Y < 0 || c.Y > 1 || c.Z < 0 || c.Z > 1 {
			t.Errorf("Hue %v out of gamut after clamping: %v", hue, c)
		}
	}
}
