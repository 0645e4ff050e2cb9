package material

import (
	"github.com/df07/go-octree-pathtracer/pkg/core"
	"github.com/df07/go-octree-pathtracer/pkg/registry"
)

// DefaultAlbedo is the reflectance of meshes that specify no material
var DefaultAlbedo = core.Splat(0.5)

// Register adds the built-in BSDFs to r
func Register(r *registry.Registry[BSDF]) {
	r.Register("diffuse", func(props *core.Properties) (BSDF, error) {
		bsdf := NewTexturedDiffuse(colorSourceFromProperties(props, "albedo", DefaultAlbedo))
		return bsdf, props.Err()
	})
	r.Register("mirror", func(props *core.Properties) (BSDF, error) {
		return NewMirror(), nil
	})
	r.Register("dielectric", func(props *core.Properties) (BSDF, error) {
		bsdf := NewDielectric(props.Float("intIOR", DefaultIntIOR), props.Float("extIOR", DefaultExtIOR))
		return bsdf, props.Err()
	})
	r.Register("microfacet", func(props *core.Properties) (BSDF, error) {
		bsdf := NewMicrofacet(
			props.Float("alpha", 0.1),
			props.Float("intIOR", DefaultIntIOR),
			props.Float("extIOR", DefaultExtIOR),
			props.Color("kd", DefaultAlbedo),
		)
		return bsdf, props.Err()
	})
}
