package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/san-kum/mosim/internal/engine"
)

// Store is the on-disk catalog of past runs. Each run gets a directory
// under the base dir holding metadata.json; the simulation outputs
// themselves live wherever the job's output directory pointed.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

type RunMetadata struct {
	ID         string    `json:"id"`
	Engine     string    `json:"engine"`
	Model      string    `json:"model"`
	Timestamp  time.Time `json:"timestamp"`
	StartTime  float64   `json:"start_time"`
	StopTime   float64   `json:"stop_time"`
	Tolerance  float64   `json:"tolerance"`
	Solver     string    `json:"solver"`
	Status     string    `json:"status"`
	ElapsedSec float64   `json:"elapsed_sec"`
	Errors     []string  `json:"errors,omitempty"`
	Warnings   int       `json:"warnings"`
	OutputDir  string    `json:"output_dir"`
	WorkDir    string    `json:"work_dir,omitempty"`
}

// Save records one finished (or failed) run.
func (s *Store) Save(run *engine.Run, settings engine.Settings, status, outputDir string) (string, error) {
	runDir := filepath.Join(s.baseDir, run.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         run.ID,
		Engine:     run.Engine,
		Model:      run.Model,
		Timestamp:  run.StartedAt,
		StartTime:  settings.StartTime,
		StopTime:   settings.StopTime,
		Tolerance:  settings.Tolerance,
		Solver:     settings.Solver,
		Status:     status,
		ElapsedSec: run.Elapsed.Seconds(),
		Errors:     run.Errors,
		Warnings:   len(run.Warnings),
		OutputDir:  outputDir,
		WorkDir:    run.WorkDir,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	return run.ID, nil
}

// List returns all recorded runs, oldest first. Entries with unreadable
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})

	return runs, nil
}

// ListModel returns the recorded runs of one model, oldest first.
func (s *Store) ListModel(model string) ([]RunMetadata, error) {
	runs, err := s.List()
	if err != nil {
		return nil, err
	}
	filtered := runs[:0]
	for _, run := range runs {
		if run.Model == model {
			filtered = append(filtered, run)
		}
	}
	return filtered, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}
