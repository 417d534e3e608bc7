// PSR Image Enhancer - command line driver
// Author: Ervins Strauhmanis
// License: MIT

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"psr-image-enhancer/internal/config"
	"psr-image-enhancer/internal/core"
	imageio "psr-image-enhancer/internal/io"
	"psr-image-enhancer/internal/metrics"
	"psr-image-enhancer/internal/report"
)

const defaultOutput = "enhanced_psr_image.png"

type options struct {
	in            string
	out           string
	gamma         float64
	sharpen       float64
	configPath    string
	reportPath    string
	histogramPath string
	debug         bool

	// flags given explicitly on the command line
	set map[string]bool
}

func parseFlags(args []string, output io.Writer) (*options, error) {
	fs := flag.NewFlagSet("enhance", flag.ContinueOnError)
	fs.SetOutput(output)

	opts := &options{set: make(map[string]bool)}
	fs.StringVar(&opts.in, "in", "", "Input image (png, jpg, jpeg, bmp, tif)")
	fs.StringVar(&opts.out, "out", defaultOutput, "Output PNG path")
	fs.Float64Var(&opts.gamma, "gamma", core.DefaultGamma, "Gamma in [0.5, 2.0]; values above 1 brighten mid-tones")
	fs.Float64Var(&opts.sharpen, "sharpen", core.DefaultSharpenStrength, "Sharpen strength in [0, 1]")
	fs.StringVar(&opts.configPath, "config", "", "Optional tuning file (.yaml, .toml or .json)")
	fs.StringVar(&opts.reportPath, "report", "", "Write a JSON run report to this path")
	fs.StringVar(&opts.histogramPath, "histogram", "", "Write a before/after histogram chart to this path")
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug mode with verbose logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	if opts.in == "" {
		return nil, errors.New("-in is required")
	}
	if !strings.EqualFold(filepath.Ext(opts.out), ".png") {
		return nil, fmt.Errorf("-out must be a .png path, got %q", opts.out)
	}
	return opts, nil
}

// resolveParams starts from the config defaults and applies explicit flags.
func resolveParams(opts *options, cfg *config.TuningConfig) core.Params {
	p := cfg.DefaultParams()
	if opts.set["gamma"] {
		p.Gamma = opts.gamma
	}
	if opts.set["sharpen"] {
		p.SharpenStrength = opts.sharpen
	}
	return p
}

func run(ctx context.Context, opts *options, logger *logrus.Logger) error {
	cfg := config.DefaultTuningConfig()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	params := resolveParams(opts, cfg)
	if err := params.Validate(); err != nil {
		return err
	}

	loader := imageio.NewImageLoader(logger)
	src, err := loader.LoadGrayscale(opts.in)
	if err != nil {
		return err
	}
	defer src.Close()

	enhancer := core.NewEnhancer(logger, cfg.ToTuning())
	result, err := enhancer.Enhance(ctx, src, params)
	if err != nil {
		return err
	}
	defer result.Close()

	if err := loader.SavePNG(result.Image, opts.out); err != nil {
		return err
	}

	if opts.reportPath == "" && opts.histogramPath == "" {
		return nil
	}

	r, err := report.Build(opts.in, opts.out, result, src, metrics.NewEvaluator())
	if err != nil {
		return err
	}
	if opts.reportPath != "" {
		if err := report.WriteJSON(opts.reportPath, r); err != nil {
			return err
		}
		logger.WithField("report", opts.reportPath).Info("Report written")
	}
	if opts.histogramPath != "" {
		if err := report.WriteHistogram(opts.histogramPath, r.Before, r.After); err != nil {
			return err
		}
		logger.WithField("histogram", opts.histogramPath).Info("Histogram written")
	}

	return nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := initLogger(opts.debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, logger); err != nil {
		logger.WithError(err).WithField("input", opts.in).Error("Enhancement failed")
		stop()
		os.Exit(1)
	}

	logger.WithFields(logrus.Fields{
		"input":  opts.in,
		"output": opts.out,
	}).Info("Enhanced image saved")
}

// initLogger initializes the logger with appropriate level
func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}
