package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Defaults for every tunable. They reproduce the fixed enhancement recipe.
const (
	DefaultDenoiseH              = 10.0
	DefaultDenoiseTemplateWindow = 7
	DefaultDenoiseSearchWindow   = 21
	DefaultCLAHEClipLimit        = 2.0
	DefaultCLAHETileGrid         = 8
	DefaultSharpenCenterWeight   = 9.0
	DefaultGamma                 = 1.2
	DefaultSharpenStrength       = 0.5
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// TuningConfig holds optional overrides. Nil fields fall back to the defaults
// above, so partial files are safe.
type TuningConfig struct {
	// Denoise params
	DenoiseH              *float64 `json:"denoise_h,omitempty" yaml:"denoise_h,omitempty" toml:"denoise_h,omitempty"`
	DenoiseTemplateWindow *int     `json:"denoise_template_window,omitempty" yaml:"denoise_template_window,omitempty" toml:"denoise_template_window,omitempty"`
	DenoiseSearchWindow   *int     `json:"denoise_search_window,omitempty" yaml:"denoise_search_window,omitempty" toml:"denoise_search_window,omitempty"`

	// Contrast params
	CLAHEClipLimit *float64 `json:"clahe_clip_limit,omitempty" yaml:"clahe_clip_limit,omitempty" toml:"clahe_clip_limit,omitempty"`
	CLAHETileGrid  *int     `json:"clahe_tile_grid,omitempty" yaml:"clahe_tile_grid,omitempty" toml:"clahe_tile_grid,omitempty"`

	// Sharpen params
	SharpenCenterWeight *float64 `json:"sharpen_center_weight,omitempty" yaml:"sharpen_center_weight,omitempty" toml:"sharpen_center_weight,omitempty"`

	// User-facing defaults
	Gamma           *float64 `json:"gamma,omitempty" yaml:"gamma,omitempty" toml:"gamma,omitempty"`
	SharpenStrength *float64 `json:"sharpen_strength,omitempty" yaml:"sharpen_strength,omitempty" toml:"sharpen_strength,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

// DefaultTuningConfig returns a config with every field populated.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		DenoiseH:              ptrFloat64(DefaultDenoiseH),
		DenoiseTemplateWindow: ptrInt(DefaultDenoiseTemplateWindow),
		DenoiseSearchWindow:   ptrInt(DefaultDenoiseSearchWindow),
		CLAHEClipLimit:        ptrFloat64(DefaultCLAHEClipLimit),
		CLAHETileGrid:         ptrInt(DefaultCLAHETileGrid),
		SharpenCenterWeight:   ptrFloat64(DefaultSharpenCenterWeight),
		Gamma:                 ptrFloat64(DefaultGamma),
		SharpenStrength:       ptrFloat64(DefaultSharpenStrength),
	}
}

// Load reads a tuning file. The format is chosen by extension:
// .yaml/.yml, .toml or .json.
func Load(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &TuningConfig{}
	switch ext := strings.ToLower(filepath.Ext(cleanPath)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".json":
		err = json.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("config file must be .yaml, .yml, .toml or .json, got %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", cleanPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate range-checks every field that is set.
func (c *TuningConfig) Validate() error {
	checks := []struct {
		name     string
		value    *float64
		min, max float64
	}{
		{"denoise_h", c.DenoiseH, 1, 50},
		{"clahe_clip_limit", c.CLAHEClipLimit, 0.1, 40},
		{"sharpen_center_weight", c.SharpenCenterWeight, 9, 17},
		{"gamma", c.Gamma, 0.5, 2.0},
		{"sharpen_strength", c.SharpenStrength, 0, 1},
	}
	for _, chk := range checks {
		if chk.value == nil {
			continue
		}
		v := *chk.value
		if math.IsNaN(v) || math.IsInf(v, 0) || v < chk.min || v > chk.max {
			return fmt.Errorf("%w: %s must be between %g and %g, got %g", ErrInvalidConfig, chk.name, chk.min, chk.max, v)
		}
	}

	if w := c.DenoiseTemplateWindow; w != nil && (*w < 3 || *w > 15 || *w%2 == 0) {
		return fmt.Errorf("%w: denoise_template_window must be odd and between 3 and 15, got %d", ErrInvalidConfig, *w)
	}
	if w := c.DenoiseSearchWindow; w != nil && (*w < 7 || *w > 35 || *w%2 == 0) {
		return fmt.Errorf("%w: denoise_search_window must be odd and between 7 and 35, got %d", ErrInvalidConfig, *w)
	}
	if g := c.CLAHETileGrid; g != nil && (*g < 1 || *g > 64) {
		return fmt.Errorf("%w: clahe_tile_grid must be between 1 and 64, got %d", ErrInvalidConfig, *g)
	}

	return nil
}

func (c *TuningConfig) GetDenoiseH() float64 {
	if c.DenoiseH == nil {
		return DefaultDenoiseH
	}
	return *c.DenoiseH
}

func (c *TuningConfig) GetDenoiseTemplateWindow() int {
	if c.DenoiseTemplateWindow == nil {
		return DefaultDenoiseTemplateWindow
	}
	return *c.DenoiseTemplateWindow
}

func (c *TuningConfig) GetDenoiseSearchWindow() int {
	if c.DenoiseSearchWindow == nil {
		return DefaultDenoiseSearchWindow
	}
	return *c.DenoiseSearchWindow
}

func (c *TuningConfig) GetCLAHEClipLimit() float64 {
	if c.CLAHEClipLimit == nil {
		return DefaultCLAHEClipLimit
	}
	return *c.CLAHEClipLimit
}

func (c *TuningConfig) GetCLAHETileGrid() int {
	if c.CLAHETileGrid == nil {
		return DefaultCLAHETileGrid
	}
	return *c.CLAHETileGrid
}

func (c *TuningConfig) GetSharpenCenterWeight() float64 {
	if c.SharpenCenterWeight == nil {
		return DefaultSharpenCenterWeight
	}
	return *c.SharpenCenterWeight
}

func (c *TuningConfig) GetGamma() float64 {
	if c.Gamma == nil {
		return DefaultGamma
	}
	return *c.Gamma
}

func (c *TuningConfig) GetSharpenStrength() float64 {
	if c.SharpenStrength == nil {
		return DefaultSharpenStrength
	}
	return *c.SharpenStrength
}
