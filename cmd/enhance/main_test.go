package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"psr-image-enhancer/internal/config"
	"psr-image-enhancer/internal/core"
	imageio "psr-image-enhancer/internal/io"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-in", "scan.png", "-gamma", "1.5"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "scan.png", opts.in)
	assert.Equal(t, defaultOutput, opts.out)
	assert.True(t, opts.set["gamma"])
	assert.False(t, opts.set["sharpen"])

	_, err = parseFlags([]string{"-gamma", "1.5"}, io.Discard)
	assert.Error(t, err, "-in is required")

	_, err = parseFlags([]string{"-in", "a.png", "-gamma", "abc"}, io.Discard)
	assert.Error(t, err)
}

func TestParseFlagsRejectsNonPNGOutput(t *testing.T) {
	for _, out := range []string{"enhanced.jpg", "enhanced", "dir.png/enhanced.tif"} {
		_, err := parseFlags([]string{"-in", "a.png", "-out", out}, io.Discard)
		require.Error(t, err, out)
		assert.Contains(t, err.Error(), "-out must be a .png path", out)
	}

	opts, err := parseFlags([]string{"-in", "a.png", "-out", "Enhanced.PNG"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "Enhanced.PNG", opts.out)
}

func TestResolveParams(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "gamma: 0.9\nsharpen_strength: 0.3\n"))
	require.NoError(t, err)

	opts, err := parseFlags([]string{"-in", "a.png", "-sharpen", "0.8"}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, core.Params{Gamma: 0.9, SharpenStrength: 0.8}, resolveParams(opts, cfg))
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func writeInput(t *testing.T, dir string) string {
	t.Helper()
	src := gocv.NewMatWithSize(40, 60, gocv.MatTypeCV8U)
	defer src.Close()
	for y := 0; y < 40; y++ {
		for x := 0; x < 60; x++ {
			src.SetUCharAt(y, x, uint8(30+x*2+y))
		}
	}
	path := filepath.Join(dir, "psr.png")
	require.True(t, gocv.IMWrite(path, src))
	return path
}

func TestRunWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir)
	out := filepath.Join(dir, "out", "enhanced.png")
	reportPath := filepath.Join(dir, "report.json")
	histPath := filepath.Join(dir, "hist.png")

	opts, err := parseFlags([]string{"-in", in, "-out", out, "-report", reportPath, "-histogram", histPath}, io.Discard)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(out), 0755))

	logger, _ := test.NewNullLogger()
	require.NoError(t, run(context.Background(), opts, logger))

	enhanced := gocv.IMRead(out, gocv.IMReadUnchanged)
	defer enhanced.Close()
	require.False(t, enhanced.Empty())
	assert.Equal(t, 60, enhanced.Cols())
	assert.Equal(t, 40, enhanced.Rows())
	assert.Equal(t, 1, enhanced.Channels())

	assert.FileExists(t, reportPath)
	assert.FileExists(t, histPath)
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	logger, _ := test.NewNullLogger()

	opts, err := parseFlags([]string{"-in", filepath.Join(dir, "missing.png")}, io.Discard)
	require.NoError(t, err)
	assert.ErrorIs(t, run(context.Background(), opts, logger), imageio.ErrImageNotFound)

	in := writeInput(t, dir)
	opts, err = parseFlags([]string{"-in", in, "-gamma", "4"}, io.Discard)
	require.NoError(t, err)
	assert.ErrorIs(t, run(context.Background(), opts, logger), core.ErrInvalidParams)

	opts, err = parseFlags([]string{"-in", in, "-config", writeConfig(t, "clahe_tile_grid: 0\n")}, io.Discard)
	require.NoError(t, err)
	assert.ErrorIs(t, run(context.Background(), opts, logger), config.ErrInvalidConfig)
}
