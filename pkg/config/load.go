package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file picked up from the working directory.
const DefaultFile = "render.yaml"

// Overrides holds command-line values, the highest priority layer. Zero
// values leave the setting unchanged.
type Overrides struct {
	Threads   int
	BlockSize int
	Samples   int
	NoPreview bool
	OutputDir string
	LogLevel  string
	LogFile   string
}

// Load loads configuration with priority: defaults < file < overrides.
// An empty path falls back to render.yaml in the working directory when it
// exists.
func Load(path string, overrides Overrides) (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Try to load from file (explicit path takes priority)
	configPath := path
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	// Apply CLI flags (highest priority)
	overrides.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile looks for config in the working directory.
func findConfigFile() string {
	if _, err := os.Stat(DefaultFile); err == nil {
		return DefaultFile
	}
	return ""
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func (o Overrides) apply(cfg *Config) {
	if o.Threads > 0 {
		cfg.Render.Threads = o.Threads
	}
	if o.BlockSize > 0 {
		cfg.Render.BlockSize = o.BlockSize
	}
	if o.Samples > 0 {
		cfg.Render.SamplesOverride = o.Samples
	}
	if o.NoPreview {
		cfg.Render.Preview = false
	}
	if o.OutputDir != "" {
		cfg.Output.Dir = o.OutputDir
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	if o.LogFile != "" {
		cfg.Logging.File = o.LogFile
	}
}
