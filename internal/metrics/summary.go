package metrics

import (
	"fmt"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the intensity distribution of a grayscale raster.
type Summary struct {
	Width     int         `json:"width"`
	Height    int         `json:"height"`
	Mean      float64     `json:"mean"`
	StdDev    float64     `json:"stddev"`
	Min       uint8       `json:"min"`
	Max       uint8       `json:"max"`
	Histogram [256]uint64 `json:"-"`
}

// Summarize computes intensity statistics for an 8-bit single channel Mat.
func Summarize(mat gocv.Mat) (Summary, error) {
	if mat.Empty() {
		return Summary{}, fmt.Errorf("empty image")
	}
	if mat.Channels() != 1 || mat.Type() != gocv.MatTypeCV8U {
		return Summary{}, fmt.Errorf("summary requires an 8-bit single channel image")
	}

	return SummarizeBytes(mat.ToBytes(), mat.Cols(), mat.Rows())
}

// SummarizeBytes computes the same statistics over raw row-major samples.
func SummarizeBytes(pixels []byte, width, height int) (Summary, error) {
	if len(pixels) != width*height || len(pixels) == 0 {
		return Summary{}, fmt.Errorf("pixel count %d does not match %dx%d", len(pixels), width, height)
	}

	s := Summary{Width: width, Height: height, Min: 255}
	values := make([]float64, len(pixels))
	for i, p := range pixels {
		values[i] = float64(p)
		s.Histogram[p]++
		if p < s.Min {
			s.Min = p
		}
		if p > s.Max {
			s.Max = p
		}
	}

	if len(values) == 1 {
		s.Mean = values[0]
		return s, nil
	}
	s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	return s, nil
}

// IsFlat reports whether every sample has the same value.
func (s Summary) IsFlat() bool {
	return s.Min == s.Max
}
