package integrator

import (
	"fmt"

	"github.com/df07/go-octree-pathtracer/pkg/core"
	"github.com/df07/go-octree-pathtracer/pkg/registry"
	"github.com/df07/go-octree-pathtracer/pkg/scene"
)

// Register adds the built-in integrators to r
func Register(r *registry.Registry[scene.Integrator]) {
	r.Register("normals", func(props *core.Properties) (scene.Integrator, error) {
		return Normals{}, nil
	})

	r.Register("whitted", func(props *core.Properties) (scene.Integrator, error) {
		w := &Whitted{LightSampling: props.String("lightSampling", "")}
		if err := props.Err(); err != nil {
			return nil, err
		}
		if err := validateLightSampling(w.LightSampling); err != nil {
			return nil, err
		}
		return w, nil
	})

	r.Register("path_mats", func(props *core.Properties) (scene.Integrator, error) {
		p := NewPathMats()
		if err := readPathConfig(props, &p.PathConfig); err != nil {
			return nil, err
		}
		return p, nil
	})

	r.Register("path_ems", func(props *core.Properties) (scene.Integrator, error) {
		p := NewPathEMS()
		if err := readPathConfig(props, &p.PathConfig); err != nil {
			return nil, err
		}
		return p, nil
	})

	r.Register("path_mis", func(props *core.Properties) (scene.Integrator, error) {
		p := NewPathMIS()
		p.Heuristic = props.String("heuristic", p.Heuristic)
		if err := readPathConfig(props, &p.PathConfig); err != nil {
			return nil, err
		}
		if p.Heuristic != HeuristicBalance && p.Heuristic != HeuristicPower {
			return nil, fmt.Errorf("unknown MIS heuristic %q", p.Heuristic)
		}
		return p, nil
	})
}

// readPathConfig overrides the defaults in c with the scene properties
func readPathConfig(props *core.Properties, c *PathConfig) error {
	c.MaxDepth = props.Int("maxDepth", c.MaxDepth)
	c.RRMinBounces = props.Int("rrMinBounces", c.RRMinBounces)
	c.LightSampling = props.String("lightSampling", c.LightSampling)
	if err := props.Err(); err != nil {
		return err
	}
	return c.validate()
}
