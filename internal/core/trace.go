// Per-run stage tracing and timing
package core

import (
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"psr-image-enhancer/internal/metrics"
)

// StageRecord describes one executed stage.
type StageRecord struct {
	Name      string          `json:"name"`
	Algorithm string          `json:"algorithm"`
	Duration  time.Duration   `json:"duration_ns"`
	Output    metrics.Summary `json:"output"`
}

// stageTracer collects stage records for a single run and mirrors them to the log
type stageTracer struct {
	logger  *logrus.Entry
	started time.Time
	records []StageRecord
}

func newStageTracer(logger *logrus.Logger, runID string, p Params, width, height int) *stageTracer {
	entry := logger.WithField("run_id", runID)
	entry.WithFields(logrus.Fields{
		"gamma":            p.Gamma,
		"sharpen_strength": p.SharpenStrength,
		"width":            width,
		"height":           height,
	}).Info("Enhancement started")

	return &stageTracer{
		logger:  entry,
		started: time.Now(),
		records: make([]StageRecord, 0, 5),
	}
}

func (st *stageTracer) stage(step ProcessingStep, output gocv.Mat, duration time.Duration) {
	rec := StageRecord{
		Name:      step.Name,
		Algorithm: step.Algorithm,
		Duration:  duration,
	}

	if summary, err := metrics.Summarize(output); err == nil {
		rec.Output = summary
	} else {
		st.logger.WithError(err).WithField("stage", step.Name).Warn("Failed to summarize stage output")
	}

	st.records = append(st.records, rec)

	st.logger.WithFields(logrus.Fields{
		"stage":       step.Name,
		"algorithm":   step.Algorithm,
		"duration_ms": duration.Milliseconds(),
		"mean":        rec.Output.Mean,
		"stddev":      rec.Output.StdDev,
	}).Debug("Stage completed")
}

func (st *stageTracer) failed(step ProcessingStep, err error) {
	st.logger.WithError(err).WithFields(logrus.Fields{
		"stage":     step.Name,
		"algorithm": step.Algorithm,
	}).Error("Stage failed")
}

func (st *stageTracer) cancelled(completed int, err error) {
	st.logger.WithError(err).WithField("completed_stages", completed).Warn("Enhancement cancelled")
}

func (st *stageTracer) finish() time.Duration {
	total := time.Since(st.started)
	st.logger.WithFields(logrus.Fields{
		"stages":      len(st.records),
		"duration_ms": total.Milliseconds(),
	}).Info("Enhancement completed")

	if st.logger.Logger.IsLevelEnabled(logrus.DebugLevel) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		st.logger.WithFields(logrus.Fields{
			"heap_alloc_mb": m.HeapAlloc / 1024 / 1024,
			"sys_mb":        m.Sys / 1024 / 1024,
			"num_gc":        m.NumGC,
			"goroutines":    runtime.NumGoroutine(),
		}).Debug("Memory usage")
	}

	return total
}
