// Package config handles render configuration loading and management.
package config

import (
	"fmt"
	"runtime"

	"github.com/df07/go-octree-pathtracer/pkg/accel"
	"github.com/df07/go-octree-pathtracer/pkg/renderer"
	"github.com/shirou/gopsutil/v3/cpu"
)

// Config holds all render settings.
type Config struct {
	Render  RenderConfig  `yaml:"render"`
	Accel   AccelConfig   `yaml:"accel"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// RenderConfig holds the tile scheduler settings.
type RenderConfig struct {
	Threads         int  `yaml:"threads"`          // 0 = number of logical CPUs
	BlockSize       int  `yaml:"block_size"`       // block edge length in pixels
	Preview         bool `yaml:"preview"`          // log progress while rendering
	SamplesOverride int  `yaml:"samples_override"` // 0 = the scene sampler's count
}

// AccelConfig holds the octree subdivision limits.
type AccelConfig struct {
	MaxDepth      int `yaml:"max_depth"`
	LeafSize      int `yaml:"leaf_size"`
	ParallelDepth int `yaml:"parallel_depth"`
}

// OutputConfig holds image output settings.
type OutputConfig struct {
	Dir      string  `yaml:"dir"`
	Name     string  `yaml:"name"` // empty = scene file name
	Exposure float64 `yaml:"exposure"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"` // empty = console only
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			Threads:   0,
			BlockSize: renderer.DefaultBlockSize,
			Preview:   true,
		},
		Accel: AccelConfig{
			MaxDepth:      12,
			LeafSize:      10,
			ParallelDepth: 2,
		},
		Output: OutputConfig{
			Dir:      "output",
			Exposure: 1.0,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	if c.Render.Threads < 0 {
		return fmt.Errorf("render.threads must not be negative, got %d", c.Render.Threads)
	}
	if c.Render.BlockSize <= 0 {
		return fmt.Errorf("render.block_size must be positive, got %d", c.Render.BlockSize)
	}
	if c.Render.SamplesOverride < 0 {
		return fmt.Errorf("render.samples_override must not be negative, got %d", c.Render.SamplesOverride)
	}
	if c.Accel.MaxDepth <= 0 || c.Accel.LeafSize <= 0 || c.Accel.ParallelDepth < 0 {
		return fmt.Errorf("invalid accel limits %+v", c.Accel)
	}
	if c.Output.Exposure <= 0 {
		return fmt.Errorf("output.exposure must be positive, got %f", c.Output.Exposure)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	return nil
}

// Workers returns the number of render workers, resolving 0 to the logical
// CPU count.
func (r RenderConfig) Workers() int {
	if r.Threads > 0 {
		return r.Threads
	}
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// AccelOptions converts the octree settings.
func (a AccelConfig) AccelOptions() accel.Options {
	return accel.Options{
		MaxDepth:      a.MaxDepth,
		LeafSize:      a.LeafSize,
		ParallelDepth: a.ParallelDepth,
	}
}

// RendererOptions converts the tile scheduler settings.
func (r RenderConfig) RendererOptions() renderer.Options {
	return renderer.Options{
		Workers:     r.Workers(),
		BlockSize:   r.BlockSize,
		SampleCount: r.SamplesOverride,
	}
}
