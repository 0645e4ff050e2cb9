package scene

import (
	"context"
	"fmt"
	"time"

	"github.com/df07/go-octree-pathtracer/pkg/accel"
	"github.com/df07/go-octree-pathtracer/pkg/camera"
	"github.com/df07/go-octree-pathtracer/pkg/core"
	"github.com/df07/go-octree-pathtracer/pkg/geometry"
	"github.com/df07/go-octree-pathtracer/pkg/lights"
	"github.com/df07/go-octree-pathtracer/pkg/sampler"
	"go.uber.org/zap"
)

// Integrator estimates the radiance arriving along a camera ray
type Integrator interface {
	Li(s *Scene, sampler core.Sampler, ray core.Ray) core.Vec3
}

// Preprocessor is implemented by integrators that need to inspect the scene
// once it is activated and before rendering starts
type Preprocessor interface {
	Preprocess(s *Scene) error
}

// Options control scene activation
type Options struct {
	Accel          accel.Options
	LightSelection string // lights.SelectUniform (default) or lights.SelectPower
}

// DefaultOptions returns the standard activation options
func DefaultOptions() Options {
	return Options{Accel: accel.DefaultOptions(), LightSelection: lights.SelectUniform}
}

// Scene owns the meshes, emitters, camera, sampler prototype and integrator,
// and the octree built over the meshes. A scene is assembled, activated once,
// and read-only afterwards, so workers share it without locking.
type Scene struct {
	meshes     []*geometry.Mesh
	emitters   []lights.Emitter
	camera     camera.Camera
	integrator Integrator
	sampler    core.BlockSampler

	accel        *accel.Octree
	lightSampler *lights.LightSampler
	bounds       core.AABB
	activated    bool

	logger *zap.Logger
}

// New creates an empty scene. A nil logger discards all output.
func New(logger *zap.Logger) *Scene {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scene{logger: logger, bounds: core.EmptyAABB()}
}

// AddMesh registers a mesh and, optionally, the emitter covering it. An area
// light is attached to the mesh; the mesh records the emitter index.
// Returns the mesh index.
func (s *Scene) AddMesh(mesh *geometry.Mesh, emitter lights.Emitter) (int, error) {
	if s.activated {
		return -1, ErrAlreadyActivated
	}
	if mesh == nil {
		return -1, fmt.Errorf("nil mesh")
	}

	id := len(s.meshes)
	s.meshes = append(s.meshes, mesh)
	if emitter == nil {
		return id, nil
	}

	area, ok := emitter.(*lights.AreaLight)
	if !ok {
		return -1, fmt.Errorf("mesh %q: only area lights can be attached to a mesh, got %T", mesh.Name, emitter)
	}
	area.Attach(id, mesh)
	mesh.EmitterID = len(s.emitters)
	s.emitters = append(s.emitters, emitter)
	return id, nil
}

// AddEmitter registers an emitter that is not attached to a mesh (point or
// directional light)
func (s *Scene) AddEmitter(emitter lights.Emitter) error {
	if s.activated {
		return ErrAlreadyActivated
	}
	if area, ok := emitter.(*lights.AreaLight); ok && area.Mesh() == nil {
		return fmt.Errorf("area light must be attached to a mesh: %w", lights.ErrNotAttached)
	}
	s.emitters = append(s.emitters, emitter)
	return nil
}

// SetCamera sets the scene camera; a scene has exactly one
func (s *Scene) SetCamera(c camera.Camera) error {
	if s.camera != nil {
		return ErrDuplicateCamera
	}
	s.camera = c
	return nil
}

// SetIntegrator sets the scene integrator; a scene has exactly one
func (s *Scene) SetIntegrator(integrator Integrator) error {
	if s.integrator != nil {
		return ErrDuplicateIntegrator
	}
	s.integrator = integrator
	return nil
}

// SetSampler sets the sampler prototype; a scene has at most one
func (s *Scene) SetSampler(prototype core.BlockSampler) error {
	if s.sampler != nil {
		return ErrDuplicateSampler
	}
	s.sampler = prototype
	return nil
}

func (s *Scene) Meshes() []*geometry.Mesh           { return s.meshes }
func (s *Scene) Emitters() []lights.Emitter         { return s.emitters }
func (s *Scene) Camera() camera.Camera              { return s.camera }
func (s *Scene) Integrator() Integrator             { return s.integrator }
func (s *Scene) Sampler() core.BlockSampler         { return s.sampler }
func (s *Scene) Accel() *accel.Octree               { return s.accel }
func (s *Scene) Bounds() core.AABB                  { return s.bounds }
func (s *Scene) IsActivated() bool                  { return s.activated }
func (s *Scene) LightSampler() *lights.LightSampler { return s.lightSampler }

// TriangleCount returns the number of triangles over all meshes
func (s *Scene) TriangleCount() int {
	count := 0
	for _, mesh := range s.meshes {
		count += mesh.PrimitiveCount()
	}
	return count
}

// Activate validates the scene and builds the octree. Configuration errors
// are reported before any expensive work starts.
func (s *Scene) Activate(ctx context.Context, opts Options) error {
	if s.activated {
		return ErrAlreadyActivated
	}
	if s.camera == nil {
		return ErrNoCamera
	}
	if s.integrator == nil {
		return ErrNoIntegrator
	}
	if s.sampler == nil {
		s.sampler = sampler.NewIndependent(1)
	}

	for _, mesh := range s.meshes {
		if err := mesh.Activate(); err != nil {
			return err
		}
	}
	for i, emitter := range s.emitters {
		if area, ok := emitter.(*lights.AreaLight); ok {
			if err := area.Validate(); err != nil {
				return fmt.Errorf("emitter %d: %w", i, err)
			}
		}
	}

	start := time.Now()
	providers := make([]accel.Provider, len(s.meshes))
	for i, mesh := range s.meshes {
		providers[i] = mesh
	}
	tree, err := accel.Build(ctx, providers, opts.Accel)
	if err != nil {
		return fmt.Errorf("building octree: %w", err)
	}
	s.accel = tree
	s.bounds = tree.Bounds()

	stats := tree.Stats()
	s.logger.Info("Octree built",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("nodes", stats.Nodes),
		zap.Int("leaves", stats.Leaves),
		zap.Int("max_depth", stats.MaxDepth),
		zap.Float64("avg_depth", stats.AvgDepth),
		zap.Float64("duplication", stats.Duplication),
		zap.Int("max_leaf_size", stats.MaxLeafSize),
	)

	sceneRadius := 0.0
	if s.bounds.IsValid() {
		sceneRadius = s.bounds.Size().Length() / 2
	}
	s.lightSampler, err = lights.NewLightSampler(s.emitters, opts.LightSelection, sceneRadius)
	if err != nil {
		return err
	}

	if p, ok := s.integrator.(Preprocessor); ok {
		if err := p.Preprocess(s); err != nil {
			return fmt.Errorf("preparing integrator: %w", err)
		}
	}

	s.activated = true
	s.logger.Info("Scene activated",
		zap.Int("meshes", len(s.meshes)),
		zap.Int("triangles", s.TriangleCount()),
		zap.Int("emitters", len(s.emitters)),
		zap.Stringer("bounds", s.bounds),
	)
	return nil
}

// SetLightSelection rebuilds the light selection distribution. Integrators
// call it from Preprocess.
func (s *Scene) SetLightSelection(strategy string) error {
	sceneRadius := 0.0
	if s.bounds.IsValid() {
		sceneRadius = s.bounds.Size().Length() / 2
	}
	lightSampler, err := lights.NewLightSampler(s.emitters, strategy, sceneRadius)
	if err != nil {
		return err
	}
	s.lightSampler = lightSampler
	return nil
}

// RayIntersect finds the nearest hit along ray and fills its
func (s *Scene) RayIntersect(ray core.Ray, its *geometry.Intersection) bool {
	hit, ok := s.accel.RayIntersect(ray, false)
	if !ok {
		return false
	}
	s.meshes[hit.Mesh].FillIntersection(hit.Prim, hit.U, hit.V, hit.T, ray, its)
	its.MeshID = hit.Mesh
	return true
}

// Occluded reports whether anything blocks ray within its interval
func (s *Scene) Occluded(ray core.Ray) bool {
	_, hit := s.accel.RayIntersect(ray, true)
	return hit
}

// Emitter returns the emitter at index
func (s *Scene) Emitter(index int) lights.Emitter {
	return s.emitters[index]
}

// EmitterAt returns the emitter covering the hit mesh, if any, and its index
func (s *Scene) EmitterAt(its *geometry.Intersection) (lights.Emitter, int) {
	if its.Mesh == nil || !its.Mesh.IsEmitter() {
		return nil, -1
	}
	return s.emitters[its.Mesh.EmitterID], its.Mesh.EmitterID
}

// SampleEmitter picks an emitter and samples it as seen from q.Ref. The
// query pdf includes the selection probability. Returns the incident
// radiance without dividing by the pdf, and nil without emitters.
func (s *Scene) SampleEmitter(q *lights.EmitterQuery, u float64, sample core.Vec2) (lights.Emitter, core.Vec3) {
	emitter, _, prob := s.lightSampler.Sample(u)
	if emitter == nil {
		return nil, core.Vec3{}
	}
	le := emitter.Sample(q, sample)
	q.PDF *= prob
	return emitter, le
}

// EmitterPDF returns the density with which SampleEmitter produces q for the
// emitter at index, selection probability included
func (s *Scene) EmitterPDF(index int, q *lights.EmitterQuery) float64 {
	return s.emitters[index].PDF(q) * s.lightSampler.Prob(index)
}

func (s *Scene) String() string {
	return fmt.Sprintf("Scene[meshes=%d, triangles=%d, emitters=%d, camera=%v, integrator=%T]",
		len(s.meshes), s.TriangleCount(), len(s.emitters), s.camera, s.integrator)
}
