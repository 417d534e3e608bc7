package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestDefaultTuningConfig(t *testing.T) {
	cfg := DefaultTuningConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}

	empty := &TuningConfig{}
	if diff := cmp.Diff(cfg.ToTuning(), empty.ToTuning()); diff != "" {
		t.Errorf("defaults and getter fallbacks disagree (-full +empty):\n%s", diff)
	}
	if empty.GetGamma() != 1.2 {
		t.Errorf("GetGamma() = %f, want 1.2", empty.GetGamma())
	}
	if empty.GetSharpenStrength() != 0.5 {
		t.Errorf("GetSharpenStrength() = %f, want 0.5", empty.GetSharpenStrength())
	}
}

func TestLoadFormats(t *testing.T) {
	want := &TuningConfig{
		DenoiseH:       ptrFloat64(12),
		CLAHETileGrid:  ptrInt(4),
		Gamma:          ptrFloat64(1.5),
		CLAHEClipLimit: ptrFloat64(3),
	}

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "tuning.yaml", "denoise_h: 12\nclahe_tile_grid: 4\ngamma: 1.5\nclahe_clip_limit: 3\n"},
		{"yml", "tuning.yml", "denoise_h: 12\nclahe_tile_grid: 4\ngamma: 1.5\nclahe_clip_limit: 3.0\n"},
		{"toml", "tuning.toml", "denoise_h = 12.0\nclahe_tile_grid = 4\ngamma = 1.5\nclahe_clip_limit = 3.0\n"},
		{"json", "tuning.json", `{"denoise_h": 12, "clahe_tile_grid": 4, "gamma": 1.5, "clahe_clip_limit": 3}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tc.file, tc.content))
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if diff := cmp.Diff(want, cfg); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
			if cfg.GetSharpenStrength() != DefaultSharpenStrength {
				t.Errorf("unset field should fall back to default, got %f", cfg.GetSharpenStrength())
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		content     string
		wantInvalid bool
		wantSubstr  string
	}{
		{"bad extension", "tuning.ini", "gamma=1", false, "must be .yaml"},
		{"malformed yaml", "tuning.yaml", "gamma: [1,", false, "failed to parse"},
		{"malformed json", "tuning.json", "{", false, "failed to parse"},
		{"gamma out of range", "tuning.yaml", "gamma: 3.0\n", true, "gamma"},
		{"strength out of range", "tuning.json", `{"sharpen_strength": -0.5}`, true, "sharpen_strength"},
		{"even template window", "tuning.toml", "denoise_template_window = 8\n", true, "denoise_template_window"},
		{"search window too big", "tuning.toml", "denoise_search_window = 99\n", true, "denoise_search_window"},
		{"tile grid zero", "tuning.yaml", "clahe_tile_grid: 0\n", true, "clahe_tile_grid"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tc.file, tc.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, ErrInvalidConfig); got != tc.wantInvalid {
				t.Errorf("errors.Is(ErrInvalidConfig) = %v, want %v (err: %v)", got, tc.wantInvalid, err)
			}
			if !strings.Contains(err.Error(), tc.wantSubstr) {
				t.Errorf("error %q does not mention %q", err, tc.wantSubstr)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadRejectsLargeFile(t *testing.T) {
	content := "# " + strings.Repeat("x", maxFileSize) + "\n"
	if _, err := Load(writeFile(t, "big.yaml", content)); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("expected size error, got %v", err)
	}
}

func TestToTuningAndParams(t *testing.T) {
	cfg := &TuningConfig{
		DenoiseSearchWindow: ptrInt(15),
		SharpenCenterWeight: ptrFloat64(10),
		SharpenStrength:     ptrFloat64(0.25),
	}

	tuning := cfg.ToTuning()
	if tuning.DenoiseSearchWindow != 15 || tuning.SharpenCenterWeight != 10 {
		t.Errorf("ToTuning() did not carry overrides: %+v", tuning)
	}
	if tuning.DenoiseTemplateWindow != DefaultDenoiseTemplateWindow {
		t.Errorf("ToTuning() template window = %d, want default", tuning.DenoiseTemplateWindow)
	}

	params := cfg.DefaultParams()
	if params.Gamma != DefaultGamma || params.SharpenStrength != 0.25 {
		t.Errorf("DefaultParams() = %+v", params)
	}
}
