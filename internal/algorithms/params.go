package algorithms

import (
	"fmt"
	"math"

	"gocv.io/x/gocv"
)

// floatParam reads a numeric parameter, falling back to def when absent.
func floatParam(params map[string]interface{}, key string, def float64) float64 {
	val, ok := params[key]
	if !ok {
		return def
	}
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	}
	return def
}

func intParam(params map[string]interface{}, key string, def int) int {
	return int(math.Round(floatParam(params, key, float64(def))))
}

// checkRange validates an optional numeric parameter against [min, max].
func checkRange(params map[string]interface{}, key string, min, max float64) error {
	if _, ok := params[key]; !ok {
		return nil
	}
	v := floatParam(params, key, math.NaN())
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be a finite number", key)
	}
	if v < min || v > max {
		return fmt.Errorf("%s must be between %g and %g", key, min, max)
	}
	return nil
}

func checkOdd(params map[string]interface{}, key string) error {
	if _, ok := params[key]; !ok {
		return nil
	}
	if intParam(params, key, 1)%2 == 0 {
		return fmt.Errorf("%s must be odd", key)
	}
	return nil
}

// requireGray rejects inputs the stages cannot operate on.
func requireGray(input gocv.Mat) error {
	if input.Empty() {
		return fmt.Errorf("input image is empty")
	}
	if input.Channels() != 1 || input.Type() != gocv.MatTypeCV8U {
		return fmt.Errorf("input must be 8-bit single channel, got %d channels (type %v)", input.Channels(), input.Type())
	}
	return nil
}
