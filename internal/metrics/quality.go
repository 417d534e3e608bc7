package metrics

import (
	"fmt"
	"math"

	"gocv.io/x/gocv"
)

// maxPSNR caps the value reported for identical images.
const maxPSNR = 100.0

// toFloat converts both images to 32-bit float for arithmetic. The caller
// closes the returned Mats even on error.
func toFloat(original, processed gocv.Mat) (gocv.Mat, gocv.Mat, error) {
	f1, f2 := gocv.NewMat(), gocv.NewMat()
	if err := original.ConvertTo(&f1, gocv.MatTypeCV32F); err != nil {
		return f1, f2, fmt.Errorf("failed to convert original: %w", err)
	}
	if err := processed.ConvertTo(&f2, gocv.MatTypeCV32F); err != nil {
		return f1, f2, fmt.Errorf("failed to convert processed: %w", err)
	}
	return f1, f2, nil
}

// squaredError returns the mean squared difference between two grayscale images.
func squaredError(original, processed gocv.Mat) (float64, error) {
	f1, f2, err := toFloat(original, processed)
	defer f1.Close()
	defer f2.Close()
	if err != nil {
		return 0, err
	}

	diff := gocv.NewMat()
	defer diff.Close()
	if err := gocv.Subtract(f1, f2, &diff); err != nil {
		return 0, fmt.Errorf("failed to subtract images: %w", err)
	}

	diffSq := gocv.NewMat()
	defer diffSq.Close()
	if err := gocv.Multiply(diff, diff, &diffSq); err != nil {
		return 0, fmt.Errorf("failed to square difference: %w", err)
	}

	return diffSq.Mean().Val1, nil
}

// PSNR implements Peak Signal-to-Noise Ratio
type PSNR struct{}

func NewPSNR() *PSNR { return &PSNR{} }

func (p *PSNR) Calculate(original, processed gocv.Mat) (float64, error) {
	if err := checkPair(original, processed); err != nil {
		return 0, err
	}

	mse, err := squaredError(original, processed)
	if err != nil {
		return 0, err
	}
	if mse == 0 {
		return maxPSNR, nil
	}
	return math.Min(maxPSNR, 10*math.Log10(255*255/mse)), nil
}

func (p *PSNR) GetName() string              { return "PSNR" }
func (p *PSNR) GetDescription() string       { return "Peak Signal-to-Noise Ratio" }
func (p *PSNR) GetRange() (float64, float64) { return 0, maxPSNR }
func (p *PSNR) IsHigherBetter() bool         { return true }

// SSIM computes a single-window structural similarity over the whole image
type SSIM struct{}

func NewSSIM() *SSIM { return &SSIM{} }

func (s *SSIM) Calculate(original, processed gocv.Mat) (float64, error) {
	if err := checkPair(original, processed); err != nil {
		return 0, err
	}

	f1, f2, err := toFloat(original, processed)
	defer f1.Close()
	defer f2.Close()
	if err != nil {
		return 0, err
	}

	// (0.01*255)^2, (0.03*255)^2
	const C1, C2 = 6.5025, 58.5225

	mu1 := f1.Mean().Val1
	mu2 := f2.Mean().Val1

	f1Sq, f2Sq, f1f2 := gocv.NewMat(), gocv.NewMat(), gocv.NewMat()
	defer f1Sq.Close()
	defer f2Sq.Close()
	defer f1f2.Close()

	products := []struct {
		a, b gocv.Mat
		dst  *gocv.Mat
	}{
		{f1, f1, &f1Sq},
		{f2, f2, &f2Sq},
		{f1, f2, &f1f2},
	}
	for _, p := range products {
		if err := gocv.Multiply(p.a, p.b, p.dst); err != nil {
			return 0, fmt.Errorf("failed to compute ssim moments: %w", err)
		}
	}

	sigma1Sq := f1Sq.Mean().Val1 - mu1*mu1
	sigma2Sq := f2Sq.Mean().Val1 - mu2*mu2
	sigma12 := f1f2.Mean().Val1 - mu1*mu2

	num := (2*mu1*mu2 + C1) * (2*sigma12 + C2)
	den := (mu1*mu1 + mu2*mu2 + C1) * (sigma1Sq + sigma2Sq + C2)
	if den == 0 {
		return 1.0, nil
	}
	return num / den, nil
}

func (s *SSIM) GetName() string              { return "SSIM" }
func (s *SSIM) GetDescription() string       { return "Structural Similarity Index" }
func (s *SSIM) GetRange() (float64, float64) { return 0, 1 }
func (s *SSIM) IsHigherBetter() bool         { return true }

// MSE implements Mean Squared Error
type MSE struct{}

func NewMSE() *MSE { return &MSE{} }

func (m *MSE) Calculate(original, processed gocv.Mat) (float64, error) {
	if err := checkPair(original, processed); err != nil {
		return 0, err
	}
	return squaredError(original, processed)
}

func (m *MSE) GetName() string              { return "MSE" }
func (m *MSE) GetDescription() string       { return "Mean Squared Error" }
func (m *MSE) GetRange() (float64, float64) { return 0, 255 * 255 }
func (m *MSE) IsHigherBetter() bool         { return false }
