package lights

import (
	"fmt"

	"github.com/df07/go-octree-pathtracer/pkg/core"
	"github.com/df07/go-octree-pathtracer/pkg/registry"
)

// Register adds the built-in emitters to r. Area lights are created unattached;
// the scene attaches them to their mesh.
func Register(r *registry.Registry[Emitter]) {
	r.Register("area", func(props *core.Properties) (Emitter, error) {
		light := NewAreaLight(props.Color("radiance", DefaultRadiance))
		return light, props.Err()
	})
	r.Register("point", func(props *core.Properties) (Emitter, error) {
		light := NewPointLight(
			props.Vec3("position", core.Vec3{}),
			props.Color("radiance", core.Splat(1)),
		)
		return light, props.Err()
	})
	r.Register("directional", func(props *core.Properties) (Emitter, error) {
		direction := props.Vec3("direction", core.NewVec3(0, -1, 0))
		if err := props.Err(); err != nil {
			return nil, err
		}
		if direction.IsZero() {
			return nil, fmt.Errorf("directional light needs a non-zero direction")
		}
		return NewDirectionalLight(direction, props.Color("radiance", core.Splat(1))), props.Err()
	})
}
