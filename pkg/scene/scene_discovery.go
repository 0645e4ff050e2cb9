package scene

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// ErrUnknownBuiltin is returned for built-in scene names that do not exist
var ErrUnknownBuiltin = errors.New("unknown built-in scene")

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string // Unique identifier
	Name        string // Scene name
	Description string // Optional description
	Group       string // Grouping category
	Type        string // "builtin" or "file"
	FilePath    string // Path to the scene description (file type only)
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string
	Scenes []SceneInfo
}

const builtinGroup = "Built-in Scenes"

type builtin struct {
	info SceneInfo
	new  func(logger *zap.Logger) (*Scene, error)
}

var builtins = []builtin{
	{
		info: SceneInfo{
			ID:          "cornell",
			Name:        "Cornell Box",
			Description: "Cornell box with a mirror and a glass sphere",
			Group:       builtinGroup,
			Type:        "builtin",
		},
		new: NewCornellScene,
	},
	{
		info: SceneInfo{
			ID:          "quad",
			Name:        "Emissive Quad",
			Description: "Unit radiance quad filling the frame",
			Group:       builtinGroup,
			Type:        "builtin",
		},
		new: NewQuadScene,
	},
	{
		info: SceneInfo{
			ID:          "spheregrid",
			Name:        "Sphere Grid",
			Description: "Grid of glossy spheres in OKLCH colors under a sun light",
			Group:       builtinGroup,
			Type:        "builtin",
		},
		new: NewSphereGridScene,
	},
	{
		info: SceneInfo{
			ID:          "textures",
			Name:        "Texture Test",
			Description: "Procedural textures on a row of meshes",
			Group:       builtinGroup,
			Type:        "builtin",
		},
		new: NewTexturesScene,
	},
}

// ListBuiltins returns the built-in scenes
func ListBuiltins() []SceneInfo {
	infos := make([]SceneInfo, len(builtins))
	for i, b := range builtins {
		infos[i] = b.info
	}
	return infos
}

// NewBuiltin creates the built-in scene with the given id
func NewBuiltin(id string, logger *zap.Logger) (*Scene, error) {
	for _, b := range builtins {
		if b.info.ID == id {
			return b.new(logger)
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBuiltin, id)
}

// ListSceneFiles scans dir for .yaml scene descriptions. A missing directory
// yields an empty list.
func ListSceneFiles(dir string, logger *zap.Logger) ([]SceneInfo, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := os.Stat(dir); err != nil {
		return []SceneInfo{}, nil
	}

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("scanning scenes directory: %w", err)
		}
		files = append(files, matches...)
	}

	var scenes []SceneInfo
	for _, filePath := range files {
		info, err := ParseSceneMetadata(filePath)
		if err != nil {
			// Keep going with the other files
			logger.Warn("Failed to parse scene metadata", zap.String("path", filePath), zap.Error(err))
			continue
		}
		scenes = append(scenes, info)
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].Name < scenes[j].Name
	})
	return scenes, nil
}

// ParseSceneMetadata extracts metadata from the header comments of a scene file:
//
//	# Scene: Cornell Box
//	# Description: ...
//	# Group: ...
func ParseSceneMetadata(filePath string) (SceneInfo, error) {
	filename := filepath.Base(filePath)
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	info := SceneInfo{
		ID:       "file:" + nameWithoutExt,
		Name:     titleCase(nameWithoutExt),
		Group:    "Scene Files",
		Type:     "file",
		FilePath: filePath,
	}

	file, err := os.Open(filePath)
	if err != nil {
		return info, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		// Stop parsing at first non-comment line
		if !strings.HasPrefix(line, "#") {
			break
		}

		content := strings.TrimSpace(strings.TrimPrefix(line, "#"))
		key, value, ok := strings.Cut(content, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Scene":
			info.Name = value
		case "Description":
			info.Description = value
		case "Group":
			info.Group = value
		}
	}
	return info, scanner.Err()
}

// ListAllScenes returns the built-in scenes and the scene files in dir,
// grouped by category with the built-in group first
func ListAllScenes(dir string, logger *zap.Logger) ([]SceneGroup, error) {
	files, err := ListSceneFiles(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("listing scene files: %w", err)
	}
	allScenes := append(ListBuiltins(), files...)

	groupMap := make(map[string][]SceneInfo)
	var groupNames []string
	for _, s := range allScenes {
		if _, exists := groupMap[s.Group]; !exists && s.Group != builtinGroup {
			groupNames = append(groupNames, s.Group)
		}
		groupMap[s.Group] = append(groupMap[s.Group], s)
	}
	sort.Strings(groupNames)

	groups := []SceneGroup{{Name: builtinGroup, Scenes: groupMap[builtinGroup]}}
	for _, name := range groupNames {
		groups = append(groups, SceneGroup{Name: name, Scenes: groupMap[name]})
	}
	return groups, nil
}

// titleCase converts a filename-style string to title case
// e.g., "cornell-empty" -> "Cornell Empty"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}
