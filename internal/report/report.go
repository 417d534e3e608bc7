// Package report writes run reports and histogram charts for enhancement runs.
package report

import (
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"gocv.io/x/gocv"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"psr-image-enhancer/internal/core"
	"psr-image-enhancer/internal/metrics"
)

// Report is the JSON document describing one enhancement run.
type Report struct {
	RunID      string             `json:"run_id"`
	CreatedAt  time.Time          `json:"created_at"`
	Input      string             `json:"input,omitempty"`
	Output     string             `json:"output,omitempty"`
	Params     core.Params        `json:"params"`
	Width      int                `json:"width"`
	Height     int                `json:"height"`
	DurationMS float64            `json:"duration_ms"`
	Stages     []core.StageRecord `json:"stages"`
	Quality    map[string]float64 `json:"quality"`
	Before     metrics.Summary    `json:"before"`
	After      metrics.Summary    `json:"after"`
}

// Build assembles a report for result, comparing before against the
// enhanced raster.
func Build(input, output string, result *core.Result, before gocv.Mat, eval *metrics.Evaluator) (*Report, error) {
	if result == nil || result.Image.Empty() {
		return nil, fmt.Errorf("report requires a completed result")
	}

	beforeSummary, err := metrics.Summarize(before)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize input: %w", err)
	}
	afterSummary, err := metrics.Summarize(result.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize output: %w", err)
	}

	return &Report{
		RunID:      result.RunID,
		CreatedAt:  time.Now().UTC(),
		Input:      input,
		Output:     output,
		Params:     result.Params,
		Width:      result.Image.Cols(),
		Height:     result.Image.Rows(),
		DurationMS: float64(result.Duration.Microseconds()) / 1000,
		Stages:     result.Stages,
		Quality:    eval.CalculateAll(before, result.Image),
		Before:     beforeSummary,
		After:      afterSummary,
	}, nil
}

// WriteJSON writes r as indented JSON, creating parent directories.
func WriteJSON(path string, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// WriteHistogram renders the before and after intensity distributions as
// overlaid line plots and saves them as an image. The format follows the
// file extension (png, svg, pdf...).
func WriteHistogram(path string, before, after metrics.Summary) error {
	p := plot.New()
	p.Title.Text = "Intensity histogram"
	p.X.Label.Text = "Intensity"
	p.Y.Label.Text = "Pixels (%)"
	p.X.Min = 0
	p.X.Max = 255

	series := []struct {
		label   string
		summary metrics.Summary
		color   color.Color
	}{
		{"before", before, color.RGBA{R: 120, G: 120, B: 120, A: 255}},
		{"after", after, color.RGBA{R: 30, G: 90, B: 200, A: 255}},
	}

	for _, s := range series {
		line, err := plotter.NewLine(histogramPoints(s.summary))
		if err != nil {
			return fmt.Errorf("failed to build %s line: %w", s.label, err)
		}
		line.Color = s.color
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.label, line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create histogram directory: %w", err)
	}
	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save histogram: %w", err)
	}
	return nil
}

// histogramPoints normalises bin counts to percentages so differently sized
// rasters share an axis.
func histogramPoints(s metrics.Summary) plotter.XYs {
	total := float64(s.Width * s.Height)
	pts := make(plotter.XYs, len(s.Histogram))
	for i, count := range s.Histogram {
		pts[i].X = float64(i)
		if total > 0 {
			pts[i].Y = float64(count) * 100 / total
		}
	}
	return pts
}
