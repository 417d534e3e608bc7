package core

import (
	"errors"
	"fmt"
	"math"

	"psr-image-enhancer/internal/algorithms"
)

// ErrInvalidParams is wrapped by every parameter validation failure.
var ErrInvalidParams = errors.New("invalid enhancement parameters")

// Parameter ranges exposed to callers.
const (
	MinGamma           = algorithms.MinGamma
	MaxGamma           = algorithms.MaxGamma
	MinSharpenStrength = 0.0
	MaxSharpenStrength = 1.0

	DefaultGamma           = 1.2
	DefaultSharpenStrength = 0.5
)

// Params are the two user-tunable enhancement parameters.
type Params struct {
	Gamma           float64 `json:"gamma"`
	SharpenStrength float64 `json:"sharpen_strength"`
}

func DefaultParams() Params {
	return Params{Gamma: DefaultGamma, SharpenStrength: DefaultSharpenStrength}
}

// Validate rejects non-finite or out-of-range values.
func (p Params) Validate() error {
	if math.IsNaN(p.Gamma) || math.IsInf(p.Gamma, 0) || p.Gamma < MinGamma || p.Gamma > MaxGamma {
		return fmt.Errorf("%w: gamma must be between %.2f and %.2f, got %v", ErrInvalidParams, MinGamma, MaxGamma, p.Gamma)
	}
	if math.IsNaN(p.SharpenStrength) || p.SharpenStrength < MinSharpenStrength || p.SharpenStrength > MaxSharpenStrength {
		return fmt.Errorf("%w: sharpen strength must be between %.2f and %.2f, got %v",
			ErrInvalidParams, MinSharpenStrength, MaxSharpenStrength, p.SharpenStrength)
	}
	return nil
}

// Clamp returns a copy forced into range. NaN falls back to the default.
func (p Params) Clamp() Params {
	return Params{
		Gamma:           clamp(p.Gamma, MinGamma, MaxGamma, DefaultGamma),
		SharpenStrength: clamp(p.SharpenStrength, MinSharpenStrength, MaxSharpenStrength, DefaultSharpenStrength),
	}
}

func clamp(v, lo, hi, def float64) float64 {
	if math.IsNaN(v) {
		return def
	}
	return math.Max(lo, math.Min(hi, v))
}

// Tuning holds the fixed stage constants. DefaultTuning is the standard recipe.
type Tuning struct {
	DenoiseH              float64
	DenoiseTemplateWindow int
	DenoiseSearchWindow   int
	CLAHEClipLimit        float64
	CLAHETileGrid         int
	SharpenCenterWeight   float64
}

func DefaultTuning() Tuning {
	return Tuning{
		DenoiseH:              10,
		DenoiseTemplateWindow: 7,
		DenoiseSearchWindow:   21,
		CLAHEClipLimit:        2.0,
		CLAHETileGrid:         8,
		SharpenCenterWeight:   9,
	}
}
