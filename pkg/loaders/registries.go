package loaders

import (
	"github.com/df07/go-octree-pathtracer/pkg/camera"
	"github.com/df07/go-octree-pathtracer/pkg/core"
	"github.com/df07/go-octree-pathtracer/pkg/film"
	"github.com/df07/go-octree-pathtracer/pkg/integrator"
	"github.com/df07/go-octree-pathtracer/pkg/lights"
	"github.com/df07/go-octree-pathtracer/pkg/material"
	"github.com/df07/go-octree-pathtracer/pkg/registry"
	"github.com/df07/go-octree-pathtracer/pkg/sampler"
	"github.com/df07/go-octree-pathtracer/pkg/scene"
)

// Registries holds the constructors for every kind of scene object
type Registries struct {
	BSDFs       *registry.Registry[material.BSDF]
	Emitters    *registry.Registry[lights.Emitter]
	Cameras     *registry.Registry[camera.Camera]
	Filters     *registry.Registry[film.Filter]
	Samplers    *registry.Registry[core.BlockSampler]
	Integrators *registry.Registry[scene.Integrator]
}

// DefaultRegistries returns registries populated with all built-in types
func DefaultRegistries() *Registries {
	r := &Registries{
		BSDFs:       registry.New[material.BSDF]("bsdf"),
		Emitters:    registry.New[lights.Emitter]("emitter"),
		Cameras:     registry.New[camera.Camera]("camera"),
		Filters:     registry.New[film.Filter]("filter"),
		Samplers:    registry.New[core.BlockSampler]("sampler"),
		Integrators: registry.New[scene.Integrator]("integrator"),
	}
	material.Register(r.BSDFs)
	lights.Register(r.Emitters)
	camera.Register(r.Cameras)
	film.Register(r.Filters)
	sampler.Register(r.Samplers)
	integrator.Register(r.Integrators)
	return r
}
