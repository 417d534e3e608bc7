package config

import "psr-image-enhancer/internal/core"

// ToTuning resolves the stage constants used by core.Enhancer.
func (c *TuningConfig) ToTuning() core.Tuning {
	return core.Tuning{
		DenoiseH:              c.GetDenoiseH(),
		DenoiseTemplateWindow: c.GetDenoiseTemplateWindow(),
		DenoiseSearchWindow:   c.GetDenoiseSearchWindow(),
		CLAHEClipLimit:        c.GetCLAHEClipLimit(),
		CLAHETileGrid:         c.GetCLAHETileGrid(),
		SharpenCenterWeight:   c.GetSharpenCenterWeight(),
	}
}

// DefaultParams returns the user-facing parameters the config starts from.
func (c *TuningConfig) DefaultParams() core.Params {
	return core.Params{
		Gamma:           c.GetGamma(),
		SharpenStrength: c.GetSharpenStrength(),
	}
}
