// Fixed five-stage enhancement pipeline
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"psr-image-enhancer/internal/algorithms"
)

// Stage names in execution order.
const (
	StageDenoise       = "denoise"
	StageContrast      = "contrast"
	StageGamma         = "gamma"
	StageSharpen       = "sharpen"
	StageFinalContrast = "final_contrast"
)

// ProcessingStep represents a sequential processing step
type ProcessingStep struct {
	Name       string
	Algorithm  string
	Parameters map[string]interface{}
}

// GrayscaleLoader reads an image file as single-channel 8-bit.
type GrayscaleLoader interface {
	LoadGrayscale(path string) (gocv.Mat, error)
}

// Result is the output of one enhancement run. The caller owns Image and
// must Close it.
type Result struct {
	RunID    string
	Image    gocv.Mat
	Params   Params
	Stages   []StageRecord
	Duration time.Duration
}

func (r *Result) Close() {
	if r == nil {
		return
	}
	r.Image.Close()
}

// Enhancer runs the denoise, contrast, gamma, sharpen, contrast sequence.
// It holds no per-run state and is safe for concurrent use.
type Enhancer struct {
	logger *logrus.Logger
	tuning Tuning
}

func NewEnhancer(logger *logrus.Logger, tuning Tuning) *Enhancer {
	return &Enhancer{
		logger: logger,
		tuning: tuning,
	}
}

// Steps expands params into the concrete stage list.
func (e *Enhancer) Steps(p Params) []ProcessingStep {
	t := e.tuning
	contrast := func() map[string]interface{} {
		return map[string]interface{}{
			"clip_limit": t.CLAHEClipLimit,
			"tile_grid":  float64(t.CLAHETileGrid),
		}
	}

	return []ProcessingStep{
		{
			Name:      StageDenoise,
			Algorithm: algorithms.NLMeansDenoiseName,
			Parameters: map[string]interface{}{
				"h":               t.DenoiseH,
				"template_window": float64(t.DenoiseTemplateWindow),
				"search_window":   float64(t.DenoiseSearchWindow),
			},
		},
		{Name: StageContrast, Algorithm: algorithms.CLAHEName, Parameters: contrast()},
		{
			Name:       StageGamma,
			Algorithm:  algorithms.GammaName,
			Parameters: map[string]interface{}{"gamma": p.Gamma},
		},
		{
			Name:      StageSharpen,
			Algorithm: algorithms.SharpenBlendName,
			Parameters: map[string]interface{}{
				"sharpen_strength": p.SharpenStrength,
				"center_weight":    t.SharpenCenterWeight,
			},
		},
		{Name: StageFinalContrast, Algorithm: algorithms.CLAHEName, Parameters: contrast()},
	}
}

// Validate checks params and the resulting stage parameters before any work
// is done.
func (e *Enhancer) Validate(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	for _, step := range e.Steps(p) {
		if err := algorithms.ValidateParameters(step.Algorithm, step.Parameters); err != nil {
			return fmt.Errorf("%w: stage %s: %v", ErrInvalidParams, step.Name, err)
		}
	}
	return nil
}

// Enhance runs every stage over src. src is not modified. The context is
// checked between stages.
func (e *Enhancer) Enhance(ctx context.Context, src gocv.Mat, p Params) (*Result, error) {
	if err := ValidateImage(src); err != nil {
		return nil, err
	}
	if err := e.Validate(p); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	width, height := src.Cols(), src.Rows()
	tracer := newStageTracer(e.logger, runID, p, width, height)

	current := src.Clone()
	for i, step := range e.Steps(p) {
		select {
		case <-ctx.Done():
			current.Close()
			tracer.cancelled(i, ctx.Err())
			return nil, ctx.Err()
		default:
		}

		start := time.Now()
		output, err := algorithms.Apply(step.Algorithm, current, step.Parameters)
		if err != nil {
			current.Close()
			tracer.failed(step, err)
			return nil, fmt.Errorf("stage %s failed: %w", step.Name, err)
		}
		current.Close()

		if output.Cols() != width || output.Rows() != height || output.Channels() != 1 {
			err := fmt.Errorf("stage %s changed geometry to %dx%d with %d channels",
				step.Name, output.Cols(), output.Rows(), output.Channels())
			output.Close()
			tracer.failed(step, err)
			return nil, err
		}

		tracer.stage(step, output, time.Since(start))
		current = output
	}

	return &Result{
		RunID:    runID,
		Image:    current,
		Params:   p,
		Stages:   tracer.records,
		Duration: tracer.finish(),
	}, nil
}

// EnhanceFile loads path as grayscale and enhances it.
func (e *Enhancer) EnhanceFile(ctx context.Context, loader GrayscaleLoader, path string, p Params) (*Result, error) {
	src, err := loader.LoadGrayscale(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return e.Enhance(ctx, src, p)
}
