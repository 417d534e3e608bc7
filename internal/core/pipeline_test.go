package core

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"psr-image-enhancer/internal/algorithms"
)

func newGray(width, height int, fill func(x, y int) uint8) gocv.Mat {
	m := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8U)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			m.SetUCharAt(y, x, fill(x, y))
		}
	}
	return m
}

func gradient(width, height int) gocv.Mat {
	return newGray(width, height, func(x, y int) uint8 {
		v := (x*255)/width/2 + (y*255)/height/2
		if (x/4+y/4)%2 == 0 {
			v += 20
		}
		if v > 255 {
			v = 255
		}
		return uint8(v)
	})
}

func newTestEnhancer() (*Enhancer, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewEnhancer(logger, DefaultTuning()), hook
}

func TestStepsOrder(t *testing.T) {
	enhancer, _ := newTestEnhancer()
	steps := enhancer.Steps(Params{Gamma: 1.5, SharpenStrength: 0.25})
	require.Len(t, steps, 5)

	names := make([]string, 0, len(steps))
	for _, s := range steps {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{StageDenoise, StageContrast, StageGamma, StageSharpen, StageFinalContrast}, names)

	assert.Equal(t, 1.5, steps[2].Parameters["gamma"])
	assert.Equal(t, 0.25, steps[3].Parameters["sharpen_strength"])
	assert.Equal(t, steps[1].Parameters, steps[4].Parameters)

	steps[1].Parameters["clip_limit"] = 99.0
	assert.Equal(t, 2.0, steps[4].Parameters["clip_limit"], "contrast stages must not share a map")
}

func TestEnhanceFlatImage(t *testing.T) {
	enhancer, _ := newTestEnhancer()

	src := newGray(100, 100, func(x, y int) uint8 { return 128 })
	defer src.Close()

	result, err := enhancer.Enhance(context.Background(), src, Params{Gamma: 1.2, SharpenStrength: 0.5})
	require.NoError(t, err)
	defer result.Close()

	assert.Equal(t, 100, result.Image.Cols())
	assert.Equal(t, 100, result.Image.Rows())
	assert.Equal(t, 1, result.Image.Channels())

	minVal, maxVal, _, _ := gocv.MinMaxLoc(result.Image)
	assert.Equal(t, minVal, maxVal, "flat input must stay flat")

	// Denoise and sharpen leave a flat field alone, so the output is
	// CLAHE, then the gamma table, then CLAHE again.
	contrast := enhancer.Steps(DefaultParams())[1].Parameters
	first := flatThroughCLAHE(t, 128, contrast)
	assert.NotEqual(t, uint8(128), first, "CLAHE redistributes a flat tile")
	second := algorithms.GammaTable(1.2)[first]
	want := flatThroughCLAHE(t, second, contrast)

	assert.Equal(t, want, result.Image.GetUCharAt(0, 0))
	assert.Equal(t, want, result.Image.GetUCharAt(99, 99))
}

func flatThroughCLAHE(t *testing.T, value uint8, params map[string]interface{}) uint8 {
	t.Helper()
	src := newGray(100, 100, func(x, y int) uint8 { return value })
	defer src.Close()
	out, err := algorithms.Apply(algorithms.CLAHEName, src, params)
	require.NoError(t, err)
	defer out.Close()
	return out.GetUCharAt(50, 50)
}

func TestEnhanceGradient(t *testing.T) {
	enhancer, hook := newTestEnhancer()

	src := gradient(64, 48)
	defer src.Close()
	before := src.ToBytes()

	result, err := enhancer.Enhance(context.Background(), src, DefaultParams())
	require.NoError(t, err)
	defer result.Close()

	assert.Equal(t, 64, result.Image.Cols())
	assert.Equal(t, 48, result.Image.Rows())
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, DefaultParams(), result.Params)
	assert.True(t, result.Duration > 0)

	require.Len(t, result.Stages, 5)
	for _, rec := range result.Stages {
		assert.Equal(t, 64, rec.Output.Width, rec.Name)
		assert.Equal(t, 48, rec.Output.Height, rec.Name)
	}
	assert.Equal(t, StageFinalContrast, result.Stages[4].Name)

	after := src.ToBytes()
	assert.True(t, bytes.Equal(before, after), "source must not be modified")

	var completed *logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Message == "Enhancement completed" {
			completed = e
		}
	}
	require.NotNil(t, completed)
	assert.Equal(t, result.RunID, completed.Data["run_id"])
	assert.Equal(t, 5, completed.Data["stages"])
}

func TestEnhanceDeterministic(t *testing.T) {
	enhancer, _ := newTestEnhancer()
	src := gradient(40, 40)
	defer src.Close()

	p := Params{Gamma: 0.8, SharpenStrength: 1}
	first, err := enhancer.Enhance(context.Background(), src, p)
	require.NoError(t, err)
	defer first.Close()
	second, err := enhancer.Enhance(context.Background(), src, p)
	require.NoError(t, err)
	defer second.Close()

	assert.Equal(t, first.Image.ToBytes(), second.Image.ToBytes())
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestEnhanceRejectsBadInput(t *testing.T) {
	enhancer, _ := newTestEnhancer()

	empty := gocv.NewMat()
	defer empty.Close()
	_, err := enhancer.Enhance(context.Background(), empty, DefaultParams())
	assert.ErrorIs(t, err, ErrInvalidImage)

	color := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC3)
	defer color.Close()
	_, err = enhancer.Enhance(context.Background(), color, DefaultParams())
	assert.ErrorIs(t, err, ErrInvalidImage)

	src := gradient(16, 16)
	defer src.Close()
	_, err = enhancer.Enhance(context.Background(), src, Params{Gamma: 3, SharpenStrength: 0.5})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestEnhanceRejectsBadTuning(t *testing.T) {
	logger, _ := test.NewNullLogger()
	tuning := DefaultTuning()
	tuning.DenoiseTemplateWindow = 8
	enhancer := NewEnhancer(logger, tuning)

	src := gradient(16, 16)
	defer src.Close()
	_, err := enhancer.Enhance(context.Background(), src, DefaultParams())
	require.ErrorIs(t, err, ErrInvalidParams)
	assert.Contains(t, err.Error(), StageDenoise)
}

func TestEnhanceCancelled(t *testing.T) {
	enhancer, hook := newTestEnhancer()
	src := gradient(16, 16)
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := enhancer.Enhance(ctx, src, DefaultParams())
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "Enhancement cancelled", hook.LastEntry().Message)
}

type fakeLoader struct {
	mat gocv.Mat
	err error
}

func (f fakeLoader) LoadGrayscale(string) (gocv.Mat, error) {
	if f.err != nil {
		return gocv.NewMat(), f.err
	}
	return f.mat.Clone(), nil
}

func TestEnhanceFile(t *testing.T) {
	enhancer, _ := newTestEnhancer()
	src := gradient(24, 24)
	defer src.Close()

	result, err := enhancer.EnhanceFile(context.Background(), fakeLoader{mat: src}, "scan.png", DefaultParams())
	require.NoError(t, err)
	defer result.Close()
	assert.Equal(t, 24, result.Image.Cols())

	notFound := errors.New("not found")
	_, err = enhancer.EnhanceFile(context.Background(), fakeLoader{err: notFound}, "missing.png", DefaultParams())
	assert.ErrorIs(t, err, notFound)
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{"defaults", DefaultParams(), false},
		{"lower bounds", Params{Gamma: 0.5, SharpenStrength: 0}, false},
		{"upper bounds", Params{Gamma: 2.0, SharpenStrength: 1}, false},
		{"gamma low", Params{Gamma: 0.49, SharpenStrength: 0.5}, true},
		{"gamma high", Params{Gamma: 2.01, SharpenStrength: 0.5}, true},
		{"gamma nan", Params{Gamma: math.NaN(), SharpenStrength: 0.5}, true},
		{"gamma inf", Params{Gamma: math.Inf(1), SharpenStrength: 0.5}, true},
		{"strength negative", Params{Gamma: 1, SharpenStrength: -0.1}, true},
		{"strength high", Params{Gamma: 1, SharpenStrength: 1.5}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.params.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParams)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParamsClamp(t *testing.T) {
	assert.Equal(t, Params{Gamma: 2, SharpenStrength: 0}, Params{Gamma: 5, SharpenStrength: -1}.Clamp())
	assert.Equal(t, Params{Gamma: 0.5, SharpenStrength: 1}, Params{Gamma: 0.1, SharpenStrength: 7}.Clamp())
	assert.Equal(t, DefaultParams(), Params{Gamma: math.NaN(), SharpenStrength: math.NaN()}.Clamp())
	assert.NoError(t, Params{Gamma: math.Inf(1), SharpenStrength: math.Inf(-1)}.Clamp().Validate())
}
