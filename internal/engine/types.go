package engine

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Settings holds the solver settings handed to the external tool.
// A zero Timeout (or any non-positive value) means the tool is never killed.
type Settings struct {
	StartTime  float64
	StopTime   float64
	Tolerance  float64
	Solver     string
	Intervals  int
	ResultFile string
	Timeout    time.Duration
}

// DefaultSettings returns the settings every driver starts from. Engines
// override Solver with their own default.
func DefaultSettings() Settings {
	return Settings{
		StartTime: 0,
		StopTime:  1,
		Tolerance: 1e-6,
		Timeout:   0,
	}
}

// Job describes one translation or simulation of a Modelica model.
type Job struct {
	Model       string
	PackagePath string
	OutputDir   string
	Settings    Settings

	Parameters []Parameter
	Modifiers  []string

	// Statements inserted into the generated script before and after the
	// simulate/translate call (Dymola only).
	PreScript  []string
	PostScript []string

	// KeepWorkDir leaves the temporary working directory in place after a
	// successful run.
	KeepWorkDir bool

	// ShowGUI starts the tool with its window visible instead of headless.
	ShowGUI bool

	// ExitAfter closes the tool when the script finishes. Disable to keep
	// the tool open for inspection.
	ExitAfter bool
}

// NewJob returns a job with default settings. The result file defaults to
// the last segment of the model name, so "MyLib.Examples.Pump" writes
// results named "Pump".
func NewJob(model, packagePath string) *Job {
	j := &Job{
		Model:       model,
		PackagePath: packagePath,
		OutputDir:   ".",
		Settings:    DefaultSettings(),
		ExitAfter:   true,
	}
	j.Settings.ResultFile = ShortModelName(model)
	return j
}

// AddParameter appends a parameter assignment to the model instance.
func (j *Job) AddParameter(name string, value any) {
	j.Parameters = append(j.Parameters, Parameter{Name: name, Value: value})
}

// AddModifier appends a model modifier such as a package redeclaration.
func (j *Job) AddModifier(modifier string) {
	j.Modifiers = append(j.Modifiers, modifier)
}

// Clone returns a deep copy so workers can adjust parameters independently.
func (j *Job) Clone() *Job {
	c := *j
	c.Parameters = append([]Parameter(nil), j.Parameters...)
	c.Modifiers = append([]string(nil), j.Modifiers...)
	c.PreScript = append([]string(nil), j.PreScript...)
	c.PostScript = append([]string(nil), j.PostScript...)
	return &c
}

// ShortModelName returns the last dot-separated segment of a model name.
func ShortModelName(model string) string {
	parts := strings.Split(model, ".")
	return parts[len(parts)-1]
}

// NewRun stamps a run record for one engine invocation. IDs follow the
// <short model name>_<unix seconds> scheme used by the run catalog.
func NewRun(engineName, model string) *Run {
	now := time.Now()
	return &Run{
		ID:        fmt.Sprintf("%s_%d", ShortModelName(model), now.Unix()),
		Engine:    engineName,
		Model:     model,
		StartedAt: now,
	}
}

// Run records the outcome of one external tool invocation.
type Run struct {
	ID        string
	Engine    string
	Model     string
	StartedAt time.Time
	Elapsed   time.Duration
	WorkDir   string
	LogFile   string
	Errors    []string
	Warnings  []string
	Outputs   []string
}

// Engine is implemented by each external tool driver.
type Engine interface {
	Name() string

	// Executable reports the binary the driver invokes.
	Executable() string

	// Simulate translates and simulates the model in an isolated working
	// directory, then copies the outputs back to the job's output directory.
	Simulate(ctx context.Context, job *Job) (*Run, error)

	// Translate only translates the model. Translation outputs stay in the
	// working directory, which is kept.
	Translate(ctx context.Context, job *Job) (*Run, error)

	// Script returns the command file that Simulate would hand to the tool,
	// without running anything.
	Script(job *Job) (string, error)
}
