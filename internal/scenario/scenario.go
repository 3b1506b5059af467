// Package scenario runs scripted sequences of simulations from YAML files,
// plus parameter sweeps that fan runs out over a bounded set of workers.
package scenario

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/mosim/internal/config"
	"github.com/san-kum/mosim/internal/engine"
	"github.com/san-kum/mosim/internal/reporter"
)

// Scenario defines a scripted simulation sequence.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is one simulation in a scenario. It carries a full run
// configuration plus scenario-level controls.
type Step struct {
	config.Config `yaml:",inline"`

	// SaveAs overrides the result file name.
	SaveAs string `yaml:"save_as"`

	// ContinueOnError lets the scenario proceed past a failed step.
	ContinueOnError bool `yaml:"continue_on_error"`

	// Translate runs translation only instead of a full simulation.
	Translate bool `yaml:"translate"`
}

// Load reads a scenario from a YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}

	return &scenario, nil
}

// EngineProvider resolves engine names; the registry package satisfies it.
type EngineProvider interface {
	Get(name string, rep *reporter.Reporter) (engine.Engine, error)
}

// StepResult pairs one executed step with its outcome. Step indexes into
// Scenario.Steps; Run is nil when the step failed before the engine ran,
// and Err carries the failure whether or not a run exists. A run with an
// empty Errors slice can still have failed (timeout, missing log), so
// callers must judge success by Err, not by the scraped log lines.
type StepResult struct {
	Step int
	Job  *engine.Job
	Run  *engine.Run
	Err  error
}

// Run executes all steps in order and returns one result per attempted
// step. The first failing step aborts the scenario unless it is marked
// continue_on_error; results for already attempted steps are always
// returned.
func Run(ctx context.Context, scenario *Scenario, engines EngineProvider, rep *reporter.Reporter) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		step.normalize()
		fmt.Printf("running step %d/%d: %s (%s)\n", i+1, len(scenario.Steps), step.Model, step.Engine)

		eng, err := engines.Get(step.Engine, rep)
		if err != nil {
			err = fmt.Errorf("step %d: %w", i+1, err)
			results = append(results, StepResult{Step: i, Err: err})
			if step.ContinueOnError {
				fmt.Printf("step %d failed, continuing: %v\n", i+1, err)
				continue
			}
			return results, err
		}

		job := step.Job()
		if step.SaveAs != "" {
			job.Settings.ResultFile = step.SaveAs
		}

		var run *engine.Run
		if step.Translate {
			run, err = eng.Translate(ctx, job)
		} else {
			run, err = eng.Simulate(ctx, job)
		}
		results = append(results, StepResult{Step: i, Job: job, Run: run, Err: err})
		if err != nil {
			if step.ContinueOnError {
				fmt.Printf("step %d failed, continuing: %v\n", i+1, err)
				continue
			}
			return results, fmt.Errorf("step %d (%s): %w", i+1, step.Model, err)
		}
	}

	return results, nil
}

// normalize fills the defaults a hand-written YAML step usually omits.
func (s *Step) normalize() {
	if s.Engine == "" {
		s.Engine = config.DefaultEngine
	}
	if s.Package == "" {
		s.Package = config.DefaultPackage
	}
	if s.Output == "" {
		s.Output = config.DefaultOutput
	}
	if s.Settings.StopTime == 0 {
		s.Settings.StopTime = config.DefaultStopTime
	}
	if s.Settings.Tolerance == 0 {
		s.Settings.Tolerance = config.DefaultTolerance
	}
}
