package reporter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReporterWritesLogFile(t *testing.T) {
	dir := t.TempDir()
	r, err := New(dir)
	if err != nil {
		t.Fatalf("new reporter: %v", err)
	}

	r.Output("simulation started")
	r.Warning("unconnected port")
	r.Error("translation failed")
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	for _, want := range []string{"simulation started", "unconnected port", "translation failed"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("log missing %q", want)
		}
	}
}

func TestReporterCounts(t *testing.T) {
	r := NewNop()
	r.Output("info")
	r.Error("e1")
	r.Error("e2")
	r.Warning("w1")

	errs, warns := r.Counts()
	if errs != 2 {
		t.Errorf("expected 2 errors, got %d", errs)
	}
	if warns != 1 {
		t.Errorf("expected 1 warning, got %d", warns)
	}
}

func TestReporterCreatesOutputDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	r, err := New(dir)
	if err != nil {
		t.Fatalf("new reporter: %v", err)
	}
	defer r.Close()

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("output directory not created: %v", err)
	}
}
