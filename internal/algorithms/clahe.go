// Contrast limited adaptive histogram equalization
package algorithms

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// CLAHE equalizes contrast per tile with a clip limit
type CLAHE struct{}

// NewCLAHE creates a new CLAHE stage
func NewCLAHE() *CLAHE {
	return &CLAHE{}
}

func (c *CLAHE) Apply(input gocv.Mat, params map[string]interface{}) (gocv.Mat, error) {
	if err := requireGray(input); err != nil {
		return gocv.NewMat(), err
	}
	if err := c.Validate(params); err != nil {
		return gocv.NewMat(), err
	}

	clipLimit := floatParam(params, "clip_limit", 2.0)
	tileGrid := intParam(params, "tile_grid", 8)

	clahe := gocv.NewCLAHEWithParams(clipLimit, image.Point{X: tileGrid, Y: tileGrid})
	defer clahe.Close()

	output := gocv.NewMat()
	if err := clahe.Apply(input, &output); err != nil {
		output.Close()
		return gocv.NewMat(), fmt.Errorf("clahe failed: %w", err)
	}
	if output.Empty() {
		output.Close()
		return gocv.NewMat(), fmt.Errorf("clahe produced an empty result")
	}

	return output, nil
}

func (c *CLAHE) GetDefaultParams() map[string]interface{} {
	return map[string]interface{}{
		"clip_limit": 2.0,
		"tile_grid":  8.0,
	}
}

func (c *CLAHE) GetName() string {
	return "CLAHE"
}

func (c *CLAHE) GetDescription() string {
	return "Tile-based histogram equalization with a clip limit"
}

func (c *CLAHE) Validate(params map[string]interface{}) error {
	if err := checkRange(params, "clip_limit", 0.1, 40.0); err != nil {
		return err
	}
	return checkRange(params, "tile_grid", 1, 64)
}

func (c *CLAHE) GetParameterInfo() []ParameterInfo {
	return []ParameterInfo{
		{
			Name:        "clip_limit",
			Type:        "float",
			Min:         0.1,
			Max:         40.0,
			Default:     2.0,
			Description: "Histogram clip limit relative to a uniform distribution",
		},
		{
			Name:        "tile_grid",
			Type:        "int",
			Min:         1.0,
			Max:         64.0,
			Default:     8.0,
			Description: "Number of tiles per side",
		},
	}
}
