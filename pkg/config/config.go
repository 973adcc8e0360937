// Package config provides configuration loading and management for scribblemask.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"scribblemask/pkg/view"
	"scribblemask/pkg/volumeio"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// View parameters applied whenever a volume is loaded
	View struct {
		// InitialScale is the zoom factor a new volume is shown at
		InitialScale int `yaml:"initialScale"`

		// MaxScale bounds zooming in; 0 disables the bound
		MaxScale int `yaml:"maxScale"`

		// ProjectFrame collapses the frame axis by default
		ProjectFrame bool `yaml:"projectFrame"`

		// ProjectSlice collapses the slice axis by default
		ProjectSlice bool `yaml:"projectSlice"`
	} `yaml:"view"`

	// Mask output parameters
	Mask struct {
		// Suffix replaces the image extension to form the default mask name
		Suffix string `yaml:"suffix"`
	} `yaml:"mask"`

	// Loader parameters
	Loader struct {
		// Workers is the number of image planes decoded in parallel
		Workers int `yaml:"workers"`
	} `yaml:"loader"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.View.InitialScale = 1
	cfg.View.MaxScale = 32
	cfg.View.ProjectFrame = false
	cfg.View.ProjectSlice = false

	cfg.Mask.Suffix = volumeio.DefaultMaskSuffix

	cfg.Loader.Workers = runtime.NumCPU()

	cfg.Output.Verbose = true

	return cfg
}

// Validate checks that the configuration values are usable
func (c *Config) Validate() error {
	s := c.View.InitialScale
	if s < 1 || s&(s-1) != 0 {
		return fmt.Errorf("view.initialScale must be a positive power of two, got %d", s)
	}
	if c.View.MaxScale != 0 && c.View.MaxScale < s {
		return fmt.Errorf("view.maxScale %d is below view.initialScale %d", c.View.MaxScale, s)
	}
	if c.Mask.Suffix == "" {
		return fmt.Errorf("mask.suffix must not be empty")
	}
	if c.Loader.Workers < 0 {
		return fmt.Errorf("loader.workers must not be negative, got %d", c.Loader.Workers)
	}
	return nil
}

// ViewDefaults returns the view settings applied on load
func (c *Config) ViewDefaults() view.Defaults {
	return view.Defaults{
		Scale:        c.View.InitialScale,
		MaxScale:     c.View.MaxScale,
		ProjectFrame: c.View.ProjectFrame,
		ProjectSlice: c.View.ProjectSlice,
	}
}

// LoaderOptions returns the volume loading options
func (c *Config) LoaderOptions() volumeio.Options {
	return volumeio.Options{Workers: c.Loader.Workers}
}

// LoadConfig loads configuration from a YAML file, layered over the
// defaults. A missing or empty file yields the defaults; unknown keys are
// rejected so a misspelt setting is not silently ignored.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error parsing config file %s: %w", configPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return cfg, nil
}

// SaveConfig writes a valid configuration to a YAML file, creating its
// directory when needed
func SaveConfig(cfg *Config, configPath string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// CreateDefaultConfigFile writes the defaults to configPath
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
