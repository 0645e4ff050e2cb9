package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/df07/go-octree-pathtracer/pkg/core"
)

// ErrUnknown is returned when no constructor is registered under a name
var ErrUnknown = errors.New("unknown type")

// Factory constructs a T from its scene properties
type Factory[T any] func(props *core.Properties) (T, error)

// Registry maps type names (as written in scene files) to constructors.
// Registries are populated explicitly at startup; nothing registers itself
// from an init function.
type Registry[T any] struct {
	kind      string
	mu        sync.RWMutex
	factories map[string]Factory[T]
}

// New creates an empty registry for objects of the given kind ("bsdf", "integrator", ...)
func New[T any](kind string) *Registry[T] {
	return &Registry[T]{kind: kind, factories: make(map[string]Factory[T])}
}

// Kind returns the object kind this registry constructs
func (r *Registry[T]) Kind() string {
	return r.kind
}

// Register adds a constructor, replacing any earlier one with the same name
func (r *Registry[T]) Register(name string, factory Factory[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Create constructs the named type
func (r *Registry[T]) Create(name string, props *core.Properties) (T, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	var zero T
	if !ok {
		return zero, fmt.Errorf("%w: %s %q (known: %v)", ErrUnknown, r.kind, name, r.Names())
	}
	if props == nil {
		props = core.NewProperties()
	}
	obj, err := factory(props)
	if err != nil {
		return zero, fmt.Errorf("creating %s %q: %w", r.kind, name, err)
	}
	return obj, nil
}

// Names returns the registered names in sorted order
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
