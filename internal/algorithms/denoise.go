// Non-local means noise reduction
package algorithms

import (
	"fmt"

	"gocv.io/x/gocv"
)

// NLMeansDenoise implements non-local means denoising for grayscale rasters
type NLMeansDenoise struct{}

// NewNLMeansDenoise creates a new non-local means stage
func NewNLMeansDenoise() *NLMeansDenoise {
	return &NLMeansDenoise{}
}

func (n *NLMeansDenoise) Apply(input gocv.Mat, params map[string]interface{}) (gocv.Mat, error) {
	if err := requireGray(input); err != nil {
		return gocv.NewMat(), err
	}
	if err := n.Validate(params); err != nil {
		return gocv.NewMat(), err
	}

	h := floatParam(params, "h", 10.0)
	templateWindow := intParam(params, "template_window", 7)
	searchWindow := intParam(params, "search_window", 21)

	output := gocv.NewMat()
	if err := gocv.FastNlMeansDenoisingWithParams(input, &output, float32(h), templateWindow, searchWindow); err != nil {
		output.Close()
		return gocv.NewMat(), fmt.Errorf("non-local means failed: %w", err)
	}
	if output.Empty() {
		output.Close()
		return gocv.NewMat(), fmt.Errorf("non-local means produced an empty result")
	}

	return output, nil
}

func (n *NLMeansDenoise) GetDefaultParams() map[string]interface{} {
	return map[string]interface{}{
		"h":               10.0,
		"template_window": 7.0,
		"search_window":   21.0,
	}
}

func (n *NLMeansDenoise) GetName() string {
	return "Non-Local Means Denoise"
}

func (n *NLMeansDenoise) GetDescription() string {
	return "Averages similar patches across a search window to reduce sensor noise while keeping edges"
}

func (n *NLMeansDenoise) Validate(params map[string]interface{}) error {
	if err := checkRange(params, "h", 1, 50); err != nil {
		return err
	}
	if err := checkRange(params, "template_window", 3, 15); err != nil {
		return err
	}
	if err := checkOdd(params, "template_window"); err != nil {
		return err
	}
	if err := checkRange(params, "search_window", 7, 35); err != nil {
		return err
	}
	return checkOdd(params, "search_window")
}

func (n *NLMeansDenoise) GetParameterInfo() []ParameterInfo {
	return []ParameterInfo{
		{
			Name:        "h",
			Type:        "float",
			Min:         1.0,
			Max:         50.0,
			Default:     10.0,
			Description: "Filter strength; higher removes more noise and more detail",
		},
		{
			Name:        "template_window",
			Type:        "int",
			Min:         3.0,
			Max:         15.0,
			Default:     7.0,
			Description: "Patch size used to compare neighbourhoods (odd)",
		},
		{
			Name:        "search_window",
			Type:        "int",
			Min:         7.0,
			Max:         35.0,
			Default:     21.0,
			Description: "Window searched for similar patches (odd)",
		},
	}
}
