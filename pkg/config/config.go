// Package config provides configuration loading and management for morphoseg.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"morphoseg/pkg/predictive"
	"morphoseg/pkg/spectral"
	"morphoseg/pkg/structel"
	"morphoseg/pkg/tracking"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config represents the application configuration loaded from YAML
type Config struct {
	// Segmentation parameters
	Segmentation struct {
		// Connectivity is the neighbourhood used for flooding and
		// reconstruction, 4 or 8
		Connectivity int `yaml:"connectivity"`

		// GradientElement names the structuring element of the
		// morphological gradient: square, cross or disk
		GradientElement string `yaml:"gradientElement"`

		// GradientRadius is the radius of the gradient element
		GradientRadius int `yaml:"gradientRadius"`

		// SmoothSigma is the width in pixels of the Gaussian low-pass applied
		// to frames before the gradient; 0 disables smoothing
		SmoothSigma float64 `yaml:"smoothSigma"`
	} `yaml:"segmentation"`

	// Predictive flooding parameters
	Predictive struct {
		// BlockSize is the edge of the change detection blocks in pixels
		BlockSize int `yaml:"blockSize"`

		// BlockThreshold is the absolute difference sum that marks a block changed
		BlockThreshold float64 `yaml:"blockThreshold"`

		// CoverPartialBlocks also tests border blocks smaller than BlockSize
		CoverPartialBlocks bool `yaml:"coverPartialBlocks"`

		// TrackDistance is the largest centroid shift in pixels for a basin
		// to count as the same basin in the next frame
		TrackDistance float64 `yaml:"trackDistance"`
	} `yaml:"predictive"`

	// Output parameters
	Output struct {
		// Dir is the directory label images are written to
		Dir string `yaml:"dir"`

		// SaveBoundaries also writes the watershed line of every frame
		SaveBoundaries bool `yaml:"saveBoundaries"`

		// SaveChangeMasks also writes the change mask of every frame
		SaveChangeMasks bool `yaml:"saveChangeMasks"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Segmentation.Connectivity = int(structel.Eight)
	cfg.Segmentation.GradientElement = "square"
	cfg.Segmentation.GradientRadius = 1
	cfg.Segmentation.SmoothSigma = 0

	p := predictive.DefaultParams()
	cfg.Predictive.BlockSize = p.BlockSize
	cfg.Predictive.BlockThreshold = p.BlockThreshold
	cfg.Predictive.CoverPartialBlocks = p.CoverPartialBlocks
	cfg.Predictive.TrackDistance = 5

	cfg.Output.Dir = "output"
	cfg.Output.SaveBoundaries = false
	cfg.Output.SaveChangeMasks = false
	cfg.Output.Verbose = true

	return cfg
}

// Validate checks that every parameter is in range
func (c *Config) Validate() error {
	if err := structel.Connectivity(c.Segmentation.Connectivity).Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := c.GradientElement(); err != nil {
		return err
	}
	if _, err := c.PredictiveParams(); err != nil {
		return err
	}
	if _, err := c.Smoother(); err != nil {
		return err
	}
	if _, err := c.Tracker(); err != nil {
		return err
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("%w: empty output directory", ErrInvalidConfig)
	}
	return nil
}

// GradientElement builds the structuring element of the gradient
func (c *Config) GradientElement() (*structel.Element, error) {
	se, err := structel.ByName(c.Segmentation.GradientElement, c.Segmentation.GradientRadius)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return se, nil
}

// PredictiveParams builds the validated parameters of the predictive flooder
func (c *Config) PredictiveParams() (*predictive.Params, error) {
	se, err := c.GradientElement()
	if err != nil {
		return nil, err
	}
	p := &predictive.Params{
		BlockSize:          c.Predictive.BlockSize,
		BlockThreshold:     c.Predictive.BlockThreshold,
		Element:            se,
		Connectivity:       structel.Connectivity(c.Segmentation.Connectivity),
		CoverPartialBlocks: c.Predictive.CoverPartialBlocks,
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return p, nil
}

// Smoother builds the frame pre-smoothing filter
func (c *Config) Smoother() (*spectral.Lowpass, error) {
	l, err := spectral.NewLowpass(c.Segmentation.SmoothSigma)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return l, nil
}

// Tracker builds the basin tracker used between frames
func (c *Config) Tracker() (*tracking.Tracker, error) {
	t, err := tracking.NewTracker(c.Predictive.TrackDistance)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return t, nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
