// Gamma correction through a lookup table
package algorithms

import (
	"fmt"
	"math"

	"gocv.io/x/gocv"
)

// Gamma range accepted by the gamma stage.
const (
	MinGamma = 0.5
	MaxGamma = 2.0
)

// GammaTable builds the 256-entry power-law table out = 255 * (in/255)^(1/gamma).
// Entries are rounded to the nearest integer, so gamma 1.0 maps every value to itself.
func GammaTable(gamma float64) [256]uint8 {
	var table [256]uint8
	invGamma := 1.0 / gamma
	for i := range table {
		v := math.Round(math.Pow(float64(i)/255.0, invGamma) * 255.0)
		table[i] = uint8(math.Max(0, math.Min(255, v)))
	}
	return table
}

// Gamma applies a power-law intensity remap
type Gamma struct{}

// NewGamma creates a new gamma stage
func NewGamma() *Gamma {
	return &Gamma{}
}

func (g *Gamma) Apply(input gocv.Mat, params map[string]interface{}) (gocv.Mat, error) {
	if err := requireGray(input); err != nil {
		return gocv.NewMat(), err
	}
	if err := g.Validate(params); err != nil {
		return gocv.NewMat(), err
	}

	table := GammaTable(floatParam(params, "gamma", 1.2))
	lut, err := gocv.NewMatFromBytes(1, len(table), gocv.MatTypeCV8U, table[:])
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to build gamma lookup table: %w", err)
	}
	defer lut.Close()

	output := gocv.NewMat()
	if err := gocv.LUT(input, lut, &output); err != nil {
		output.Close()
		return gocv.NewMat(), fmt.Errorf("gamma lookup failed: %w", err)
	}
	if output.Empty() {
		output.Close()
		return gocv.NewMat(), fmt.Errorf("gamma lookup produced an empty result")
	}

	return output, nil
}

func (g *Gamma) GetDefaultParams() map[string]interface{} {
	return map[string]interface{}{
		"gamma": 1.2,
	}
}

func (g *Gamma) GetName() string {
	return "Gamma Correction"
}

func (g *Gamma) GetDescription() string {
	return "Per-pixel power-law remap; values above 1 brighten mid-tones"
}

func (g *Gamma) Validate(params map[string]interface{}) error {
	return checkRange(params, "gamma", MinGamma, MaxGamma)
}

func (g *Gamma) GetParameterInfo() []ParameterInfo {
	return []ParameterInfo{
		{
			Name:        "gamma",
			Type:        "float",
			Min:         MinGamma,
			Max:         MaxGamma,
			Default:     1.2,
			Description: "Gamma exponent; output = 255 * (input/255)^(1/gamma)",
		},
	}
}
