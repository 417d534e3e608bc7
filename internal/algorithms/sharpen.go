// High-pass sharpening blended with its input
package algorithms

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// SharpenKernel returns the 3x3 kernel with every neighbour at -1 and the
// given centre weight. A centre of 9 keeps flat regions unchanged.
func SharpenKernel(center float32) [3][3]float32 {
	k := [3][3]float32{
		{-1, -1, -1},
		{-1, 0, -1},
		{-1, -1, -1},
	}
	k[1][1] = center
	return k
}

// SharpenBlend convolves with SharpenKernel and mixes the result with the input
// as (1-s)*input + s*sharpened.
type SharpenBlend struct{}

// NewSharpenBlend creates a new sharpen-and-blend stage
func NewSharpenBlend() *SharpenBlend {
	return &SharpenBlend{}
}

func (s *SharpenBlend) Apply(input gocv.Mat, params map[string]interface{}) (gocv.Mat, error) {
	if err := requireGray(input); err != nil {
		return gocv.NewMat(), err
	}
	if err := s.Validate(params); err != nil {
		return gocv.NewMat(), err
	}

	strength := floatParam(params, "sharpen_strength", 0.5)
	center := floatParam(params, "center_weight", 9.0)

	sharpened, err := s.sharpen(input, float32(center))
	if err != nil {
		return gocv.NewMat(), err
	}
	defer sharpened.Close()

	output := gocv.NewMat()
	if err := gocv.AddWeighted(input, 1.0-strength, sharpened, strength, 0, &output); err != nil {
		output.Close()
		return gocv.NewMat(), fmt.Errorf("sharpen blend failed: %w", err)
	}
	if output.Empty() {
		output.Close()
		return gocv.NewMat(), fmt.Errorf("sharpen blend produced an empty result")
	}

	return output, nil
}

// sharpen runs the 3x3 convolution, saturating to 8 bits.
func (s *SharpenBlend) sharpen(input gocv.Mat, center float32) (gocv.Mat, error) {
	k := SharpenKernel(center)
	kernel := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	defer kernel.Close()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			kernel.SetFloatAt(r, c, k[r][c])
		}
	}

	sharpened := gocv.NewMat()
	if err := gocv.Filter2D(input, &sharpened, -1, kernel, image.Point{X: -1, Y: -1}, 0, gocv.BorderDefault); err != nil {
		sharpened.Close()
		return gocv.NewMat(), fmt.Errorf("sharpen convolution failed: %w", err)
	}
	return sharpened, nil
}

func (s *SharpenBlend) GetDefaultParams() map[string]interface{} {
	return map[string]interface{}{
		"sharpen_strength": 0.5,
		"center_weight":    9.0,
	}
}

func (s *SharpenBlend) GetName() string {
	return "Sharpen Blend"
}

func (s *SharpenBlend) GetDescription() string {
	return "3x3 high-pass sharpening mixed with the input by sharpen_strength"
}

func (s *SharpenBlend) Validate(params map[string]interface{}) error {
	if err := checkRange(params, "sharpen_strength", 0, 1); err != nil {
		return err
	}
	return checkRange(params, "center_weight", 9, 17)
}

func (s *SharpenBlend) GetParameterInfo() []ParameterInfo {
	return []ParameterInfo{
		{
			Name:        "sharpen_strength",
			Type:        "float",
			Min:         0.0,
			Max:         1.0,
			Default:     0.5,
			Description: "Weight of the sharpened image in the blend; 0 bypasses sharpening",
		},
		{
			Name:        "center_weight",
			Type:        "float",
			Min:         9.0,
			Max:         17.0,
			Default:     9.0,
			Description: "Centre weight of the 3x3 kernel (neighbours are -1)",
		},
	}
}
