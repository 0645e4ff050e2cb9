package loaders

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/df07/go-octree-pathtracer/pkg/core"
	"github.com/df07/go-octree-pathtracer/pkg/geometry"
	"github.com/df07/go-octree-pathtracer/pkg/lights"
	"github.com/df07/go-octree-pathtracer/pkg/scene"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DefaultIntegrator is used for scenes that do not name an integrator
const DefaultIntegrator = "path_mis"

// ErrSceneFormat is returned for scene descriptions with an invalid structure
var ErrSceneFormat = errors.New("invalid scene description")

// sceneFile is the top-level layout of a YAML scene description
type sceneFile struct {
	Integrator *yaml.Node  `yaml:"integrator"`
	Sampler    *yaml.Node  `yaml:"sampler"`
	Camera     *yaml.Node  `yaml:"camera"`
	Filter     *yaml.Node  `yaml:"filter"`
	Meshes     []yaml.Node `yaml:"meshes"`
	Emitters   []yaml.Node `yaml:"emitters"`
}

// object is a scene object before construction: its type name, its plain
// properties and the nested objects it owns
type object struct {
	typ      string
	props    *core.Properties
	children map[string]*yaml.Node
	line     int
}

// SceneLoader builds scenes from YAML descriptions
type SceneLoader struct {
	registries *Registries
	logger     *zap.Logger
}

// NewSceneLoader creates a loader using the given registries. A nil logger
// discards all output.
func NewSceneLoader(registries *Registries, logger *zap.Logger) *SceneLoader {
	if registries == nil {
		registries = DefaultRegistries()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SceneLoader{registries: registries, logger: logger}
}

// LoadScene loads a scene file with the built-in registries
func LoadScene(path string, logger *zap.Logger) (*scene.Scene, error) {
	return NewSceneLoader(nil, logger).Load(path)
}

// Load reads and assembles the scene at path. Mesh files are resolved
// relative to the scene file. The scene is returned unactivated.
func (l *SceneLoader) Load(path string) (*scene.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading scene %s: %w", path, err)
	}
	s, err := l.Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("loading scene %s: %w", path, err)
	}
	return s, nil
}

// Parse assembles a scene from a YAML description. Relative file names are
// resolved against baseDir.
func (l *SceneLoader) Parse(data []byte, baseDir string) (*scene.Scene, error) {
	var file sceneFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrSceneFormat, err)
	}

	s := scene.New(l.logger)

	if err := l.loadCamera(s, file.Camera, file.Filter, baseDir); err != nil {
		return nil, err
	}
	if err := l.loadIntegrator(s, file.Integrator, baseDir); err != nil {
		return nil, err
	}
	if file.Sampler != nil {
		obj, err := decodeObject(file.Sampler, baseDir)
		if err != nil {
			return nil, fmt.Errorf("sampler: %w", err)
		}
		smp, err := l.registries.Samplers.Create(obj.typ, obj.props)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", obj.line, err)
		}
		if err := s.SetSampler(smp); err != nil {
			return nil, err
		}
	}

	for i := range file.Meshes {
		mesh, emitter, err := l.loadMesh(&file.Meshes[i], baseDir, i)
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
		if _, err := s.AddMesh(mesh, emitter); err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
	}

	for i := range file.Emitters {
		obj, err := decodeObject(&file.Emitters[i], baseDir)
		if err != nil {
			return nil, fmt.Errorf("emitter %d: %w", i, err)
		}
		emitter, err := l.registries.Emitters.Create(obj.typ, obj.props)
		if err != nil {
			return nil, fmt.Errorf("emitter %d (line %d): %w", i, obj.line, err)
		}
		if err := s.AddEmitter(emitter); err != nil {
			return nil, fmt.Errorf("emitter %d (line %d): %w", i, obj.line, err)
		}
	}

	l.logger.Debug("Scene loaded",
		zap.Int("meshes", len(s.Meshes())),
		zap.Int("emitters", len(s.Emitters())),
		zap.Int("triangles", s.TriangleCount()),
	)
	return s, nil
}

// LoadBuiltin creates a built-in scene and gives it the default integrator
func (l *SceneLoader) LoadBuiltin(id string) (*scene.Scene, error) {
	s, err := scene.NewBuiltin(id, l.logger)
	if err != nil {
		return nil, err
	}
	if err := l.loadIntegrator(s, nil, ""); err != nil {
		return nil, err
	}
	return s, nil
}

func (l *SceneLoader) loadCamera(s *scene.Scene, node, filterNode *yaml.Node, baseDir string) error {
	if node == nil {
		// Activation reports the missing camera
		return nil
	}
	obj, err := decodeObject(node, baseDir, "filter")
	if err != nil {
		return fmt.Errorf("camera: %w", err)
	}
	cam, err := l.registries.Cameras.Create(obj.typ, obj.props)
	if err != nil {
		return fmt.Errorf("line %d: %w", obj.line, err)
	}

	if nested, ok := obj.children["filter"]; ok {
		if filterNode != nil {
			return fmt.Errorf("line %d: %w: filter given twice", nested.Line, ErrSceneFormat)
		}
		filterNode = nested
	}
	if filterNode != nil {
		fobj, err := decodeObject(filterNode, baseDir)
		if err != nil {
			return fmt.Errorf("filter: %w", err)
		}
		f, err := l.registries.Filters.Create(fobj.typ, fobj.props)
		if err != nil {
			return fmt.Errorf("line %d: %w", fobj.line, err)
		}
		cam.SetFilter(f)
	}
	return s.SetCamera(cam)
}

func (l *SceneLoader) loadIntegrator(s *scene.Scene, node *yaml.Node, baseDir string) error {
	typ, props := DefaultIntegrator, core.NewProperties()
	line := 0
	if node != nil {
		obj, err := decodeObject(node, baseDir)
		if err != nil {
			return fmt.Errorf("integrator: %w", err)
		}
		typ, props, line = obj.typ, obj.props, obj.line
	}
	integ, err := l.registries.Integrators.Create(typ, props)
	if err != nil {
		return fmt.Errorf("line %d: %w", line, err)
	}
	return s.SetIntegrator(integ)
}

func (l *SceneLoader) loadMesh(node *yaml.Node, baseDir string, index int) (*geometry.Mesh, lights.Emitter, error) {
	obj, err := decodeObject(node, baseDir, "bsdf", "emitter")
	if err != nil {
		return nil, nil, err
	}
	props := obj.props
	name := props.String("name", fmt.Sprintf("%s%d", obj.typ, index))

	var mesh *geometry.Mesh
	switch obj.typ {
	case "obj", "ply":
		filename := props.String("filename", "")
		if filename == "" {
			return nil, nil, fmt.Errorf("line %d: %w: %s mesh needs a filename", obj.line, ErrSceneFormat, obj.typ)
		}
		path := resolvePath(baseDir, filename)
		if obj.typ == "obj" {
			mesh, err = LoadOBJ(path)
		} else {
			mesh, err = LoadPLY(path)
		}
		if err != nil {
			return nil, nil, err
		}
		if props.Has("name") {
			mesh.Name = name
		}
	case "quad":
		mesh = geometry.NewQuadMesh(name,
			props.Vec3("corner", core.NewVec3(-1, -1, 0)),
			props.Vec3("u", core.NewVec3(2, 0, 0)),
			props.Vec3("v", core.NewVec3(0, 2, 0)),
		)
	case "box":
		mesh = geometry.NewBoxMesh(name,
			props.Vec3("min", core.Splat(-1)),
			props.Vec3("max", core.Splat(1)),
		)
	case "sphere":
		mesh = geometry.NewSphereMesh(name,
			props.Vec3("center", core.Vec3{}),
			props.Float("radius", 1),
			props.Int("segments", 48),
			props.Int("rings", 24),
		)
	default:
		return nil, nil, fmt.Errorf("line %d: %w: unknown mesh type %q", obj.line, ErrSceneFormat, obj.typ)
	}

	toWorld := props.Transform("toWorld", mgl64.Ident4())
	if err := props.Err(); err != nil {
		return nil, nil, fmt.Errorf("line %d: %w", obj.line, err)
	}
	if toWorld != mgl64.Ident4() {
		mesh.Transform(toWorld)
	}

	if child, ok := obj.children["bsdf"]; ok {
		bobj, err := decodeObject(child, baseDir)
		if err != nil {
			return nil, nil, fmt.Errorf("bsdf: %w", err)
		}
		if mesh.BSDF, err = l.registries.BSDFs.Create(bobj.typ, bobj.props); err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", bobj.line, err)
		}
	}

	var emitter lights.Emitter
	if child, ok := obj.children["emitter"]; ok {
		eobj, err := decodeObject(child, baseDir)
		if err != nil {
			return nil, nil, fmt.Errorf("emitter: %w", err)
		}
		if emitter, err = l.registries.Emitters.Create(eobj.typ, eobj.props); err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", eobj.line, err)
		}
	}
	return mesh, emitter, nil
}

// decodeObject splits a mapping node into its type, its properties and the
// nested objects named in children
func decodeObject(node *yaml.Node, baseDir string, children ...string) (*object, error) {
	node = resolveAlias(node)
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: %w: expected a mapping", node.Line, ErrSceneFormat)
	}

	obj := &object{
		props:    core.NewProperties(),
		children: make(map[string]*yaml.Node),
		line:     node.Line,
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		value := resolveAlias(node.Content[i+1])

		if key == "type" {
			obj.typ = value.Value
			continue
		}
		if slices.Contains(children, key) {
			obj.children[key] = value
			continue
		}
		if err := decodeProperty(obj.props, key, value, baseDir); err != nil {
			return nil, err
		}
	}

	if obj.typ == "" {
		return nil, fmt.Errorf("line %d: %w: missing type", node.Line, ErrSceneFormat)
	}
	return obj, nil
}

// decodeProperty stores one YAML value in props. Scalars keep their YAML type,
// sequences of numbers become vectors, sequences of mappings are transforms
// and {texture: file} mappings load an image texture.
func decodeProperty(props *core.Properties, key string, node *yaml.Node, baseDir string) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var value any
		var err error
		switch node.ShortTag() {
		case "!!int":
			var v int
			err = node.Decode(&v)
			value = v
		case "!!float":
			var v float64
			err = node.Decode(&v)
			value = v
		case "!!bool":
			var v bool
			err = node.Decode(&v)
			value = v
		case "!!null":
			return nil
		default:
			value = node.Value
		}
		if err != nil {
			return fmt.Errorf("line %d: %q: %w", node.Line, key, err)
		}
		props.Set(key, value)

	case yaml.SequenceNode:
		if len(node.Content) > 0 && resolveAlias(node.Content[0]).Kind == yaml.MappingNode {
			m, err := parseTransform(node)
			if err != nil {
				return fmt.Errorf("%q: %w", key, err)
			}
			props.Set(key, m)
			return nil
		}
		var values []any
		if err := node.Decode(&values); err != nil {
			return fmt.Errorf("line %d: %q: %w", node.Line, key, err)
		}
		props.Set(key, values)

	case yaml.MappingNode:
		var ref struct {
			Texture string `yaml:"texture"`
		}
		if err := node.Decode(&ref); err != nil || ref.Texture == "" {
			return fmt.Errorf("line %d: %w: unsupported nested value for %q", node.Line, ErrSceneFormat, key)
		}
		tex, err := LoadTexture(resolvePath(baseDir, ref.Texture))
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		props.Set(key, tex)

	default:
		return fmt.Errorf("line %d: %w: unsupported value for %q", node.Line, ErrSceneFormat, key)
	}
	return nil
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func resolvePath(baseDir, name string) string {
	if filepath.IsAbs(name) || baseDir == "" {
		return name
	}
	return filepath.Join(baseDir, name)
}
