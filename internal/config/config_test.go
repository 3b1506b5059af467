package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Engine != "dymola" {
		t.Errorf("expected engine dymola, got %s", cfg.Engine)
	}
	if cfg.Settings.StopTime <= 0 {
		t.Error("stop time should be positive")
	}
	if cfg.Settings.Tolerance <= 0 {
		t.Error("tolerance should be positive")
	}
}

func TestLoadMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := `model: MyLib.Examples.Pump
package: ./MyLib
settings:
  stop_time: 3600
parameters:
  PID.k: 2.0
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Model != "MyLib.Examples.Pump" {
		t.Errorf("unexpected model %s", cfg.Model)
	}
	if cfg.Engine != "dymola" {
		t.Errorf("engine default not applied, got %s", cfg.Engine)
	}
	if cfg.Settings.StopTime != 3600 {
		t.Errorf("expected stop time 3600, got %f", cfg.Settings.StopTime)
	}
	if cfg.Settings.Tolerance != 1e-6 {
		t.Errorf("tolerance default not applied, got %g", cfg.Settings.Tolerance)
	}
}

func TestLoadIntoKeepsBaseSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := `model: MyLib.Examples.Pump
settings:
  intervals: 240
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	base := DefaultConfig()
	base.Settings = GetPreset("dymola", "daily").Settings

	cfg, err := LoadInto(path, base)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Settings.Intervals != 240 {
		t.Errorf("file override lost, got %d intervals", cfg.Settings.Intervals)
	}
	// Settings the file does not mention keep the base (preset) values.
	if cfg.Settings.StopTime != 86400 {
		t.Errorf("expected preset stop time 86400, got %f", cfg.Settings.StopTime)
	}
	if cfg.Settings.Solver != "radau" {
		t.Errorf("expected preset solver radau, got %s", cfg.Settings.Solver)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	cfg := DefaultConfig()
	cfg.Model = "MyLib.Pump"
	cfg.Settings.Solver = "dassl"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Model != cfg.Model || loaded.Settings.Solver != cfg.Settings.Solver {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestJobConversion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Model = "MyLib.Examples.Pump"
	cfg.Settings.StopTime = 3600
	cfg.Settings.TimeoutSec = 90
	cfg.Parameters = map[string]any{
		"b.k": 2.0,
		"a.k": 1.0,
	}

	job := cfg.Job()

	if job.Settings.StopTime != 3600 {
		t.Errorf("expected stop time 3600, got %f", job.Settings.StopTime)
	}
	if job.Settings.Timeout != 90*time.Second {
		t.Errorf("expected 90s timeout, got %v", job.Settings.Timeout)
	}
	if job.Settings.ResultFile != "Pump" {
		t.Errorf("expected result file Pump, got %s", job.Settings.ResultFile)
	}
	if len(job.Parameters) != 2 {
		t.Fatalf("expected 2 parameters, got %d", len(job.Parameters))
	}
	// Sorted by name for stable script output.
	if job.Parameters[0].Name != "a.k" || job.Parameters[1].Name != "b.k" {
		t.Errorf("parameters not sorted: %+v", job.Parameters)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("dymola", "annual")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Settings.StopTime != 31536000 {
		t.Errorf("expected one year stop time, got %f", cfg.Settings.StopTime)
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("dymola", "nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if cfg := GetPreset("nonexistent", "quick"); cfg != nil {
		t.Error("expected nil for nonexistent engine")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("dymola")
	if len(presets) == 0 {
		t.Error("expected presets for dymola")
	}

	if presets := ListPresets("nonexistent"); presets != nil {
		t.Error("expected nil for nonexistent engine")
	}
}
