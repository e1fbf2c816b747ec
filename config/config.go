// Package config holds the settings of one blur run.
//
// Values come from three layers, later ones winning: Default, an optional YAML
// file, and the command line.
package config

import (
	"os"

	"gopkg.in/yaml.v2"

	"github.com/nvr-ai/go-blur/affinity"
	"github.com/nvr-ai/go-blur/common"
	"github.com/nvr-ai/go-blur/images/tiles"
)

// DefaultPreviewSize is the bounding box edge of preview thumbnails.
const DefaultPreviewSize = 128

// Config is the complete description of a run.
type Config struct {
	// Input is the BMP to blur.
	Input string `yaml:"input"`
	// Output is where the blurred BMP is written.
	Output string `yaml:"output"`
	// Threads is the number of blur workers.
	Threads int `yaml:"threads"`
	// TileSize is the tile edge in pixels.
	TileSize int `yaml:"tile_size"`
	// LogPath enables the per-pixel diagnostic log when set.
	LogPath string `yaml:"log"`
	// CPUs is a CPU list ("0-3,6") workers are pinned to. Empty disables pinning.
	CPUs string `yaml:"cpus"`
	// PreviewPath enables writing a downscaled BMP of the result when set.
	PreviewPath string `yaml:"preview"`
	// PreviewSize bounds the preview's width and height.
	PreviewSize int `yaml:"preview_size"`
	// ReportPath enables writing a JSON timing report when set.
	ReportPath string `yaml:"report"`
	// Quiet suppresses progress output.
	Quiet bool `yaml:"quiet"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		TileSize:    tiles.DefaultSize,
		PreviewSize: DefaultPreviewSize,
	}
}

// LoadFile overlays the YAML file at path onto base. Unknown keys are rejected.
func LoadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, common.IOError(err, "read config")
	}
	cfg := base
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return base, common.ArgumentErrorf("parse config %s: %v", path, err)
	}
	return cfg, nil
}

// Validate checks the settings without touching the filesystem.
func (c Config) Validate() error {
	if c.Threads <= 0 {
		return common.ArgumentErrorf("thread count must be positive, got %d", c.Threads)
	}
	if c.TileSize <= 0 {
		return common.ArgumentErrorf("tile size must be positive, got %d", c.TileSize)
	}
	if c.Input == "" {
		return common.ArgumentErrorf("input path is required")
	}
	if c.Output == "" {
		return common.ArgumentErrorf("output path is required")
	}
	if c.Input == c.Output {
		return common.ArgumentErrorf("input and output must differ, both are %q", c.Input)
	}
	if c.PreviewPath != "" && c.PreviewSize <= 0 {
		return common.ArgumentErrorf("preview size must be positive, got %d", c.PreviewSize)
	}
	if _, err := c.CPUList(); err != nil {
		return err
	}
	return nil
}

// CPUList parses CPUs.
func (c Config) CPUList() ([]int, error) {
	return affinity.ParseList(c.CPUs)
}
