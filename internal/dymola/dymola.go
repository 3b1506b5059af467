// Package dymola drives the Dymola simulation environment. Dymola is
// invoked headless on a generated .mos script inside an isolated copy of
// the model package; the script writes simulator.log, which is scraped for
// errors because the process exit code does not reflect model failures.
package dymola

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/san-kum/mosim/internal/engine"
	"github.com/san-kum/mosim/internal/logscan"
	"github.com/san-kum/mosim/internal/reporter"
	"github.com/san-kum/mosim/internal/runner"
	"github.com/san-kum/mosim/internal/workdir"
)

// DefaultSolver is Dymola's integration method unless the job overrides it.
const DefaultSolver = "radau"

// Executable is the binary expected on PATH.
const Executable = "dymola"

// Files a previous run may have left in the output directory.
var staleOutputs = []string{
	simulateScript, translateScript,
	"dsfinal.txt", "dsin.txt", "dslog.txt",
	"dsmodel*", "dymosim", "dymosim.exe",
	SimulatorLog, TranslatorLog,
}

type Engine struct {
	rep *reporter.Reporter
}

func New(rep *reporter.Reporter) *Engine {
	if rep == nil {
		rep = reporter.NewNop()
	}
	return &Engine{rep: rep}
}

func (e *Engine) Name() string       { return "dymola" }
func (e *Engine) Executable() string { return Executable }

// Script returns the .mos file Simulate would run, without running it.
func (e *Engine) Script(job *engine.Job) (string, error) {
	j := withDefaults(job)
	return BuildScript(j, SimulatorLog, false)
}

// Simulate translates and simulates the model. On success the files the
// tool produced are copied into the job's output directory and the working
// directory is removed; on failure the working directory is kept so the
// logs can be inspected.
func (e *Engine) Simulate(ctx context.Context, job *engine.Job) (*engine.Run, error) {
	return e.execute(ctx, job, false)
}

// Translate only translates the model. The working directory, holding the
// translated dymosim binary and dsin.txt, is always kept.
func (e *Engine) Translate(ctx context.Context, job *engine.Job) (*engine.Run, error) {
	return e.execute(ctx, job, true)
}

func (e *Engine) execute(ctx context.Context, job *engine.Job, translateOnly bool) (*engine.Run, error) {
	job = withDefaults(job)

	if !runner.Installed(Executable) {
		return nil, fmt.Errorf("%w: %s", engine.ErrExecutableNotFound, Executable)
	}

	resultFiles := []string{job.Settings.ResultFile + "_result.mat"}
	if err := workdir.DeleteFiles(job.OutputDir, append(resultFiles, staleOutputs...)); err != nil {
		return nil, err
	}

	wd, err := workdir.Create(job.PackagePath)
	if err != nil {
		if errors.Is(err, workdir.ErrBadPackage) {
			return nil, fmt.Errorf("%w: %s", engine.ErrBadPackagePath, job.PackagePath)
		}
		return nil, err
	}
	if err := wd.Populate(); err != nil {
		wd.Remove()
		return nil, err
	}

	scriptName, logName := simulateScript, SimulatorLog
	failure := engine.ErrSimulationFailed
	if translateOnly {
		scriptName, logName = translateScript, TranslatorLog
		failure = engine.ErrTranslationFailed
	}

	script, err := BuildScript(job, logName, translateOnly)
	if err != nil {
		wd.Remove()
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(wd.Path, scriptName), []byte(script), 0o644); err != nil {
		wd.Remove()
		return nil, err
	}

	run := engine.NewRun(e.Name(), job.Model)
	run.WorkDir = wd.Path
	run.LogFile = filepath.Join(wd.Path, logName)

	// Script path is relative so the same script works when dymola runs in
	// a container with a different filesystem layout.
	args := []string{"./" + scriptName}
	if !job.ShowGUI {
		args = append(args, "/nowindow")
	}

	e.rep.Output("starting dymola",
		zap.String("model", job.Model),
		zap.String("script", scriptName),
		zap.String("workdir", wd.Path))

	res, runErr := runner.Run(ctx, runner.Command{
		Binary:  Executable,
		Args:    args,
		Dir:     wd.Path,
		Timeout: job.Settings.Timeout,
	})
	run.Elapsed = res.Elapsed

	if runErr != nil {
		wrapped := runErr
		if errors.Is(runErr, runner.ErrTimeout) {
			wrapped = fmt.Errorf("%w (after %s)", engine.ErrTimeout, job.Settings.Timeout)
		}
		e.rep.Error("dymola did not finish",
			zap.String("model", job.Model),
			zap.Error(runErr))
		return run, &engine.RunError{Engine: e.Name(), Model: job.Model, WorkDir: wd.Path, Wrapped: wrapped}
	}

	report, err := logscan.Scan(run.LogFile, logscan.Dymola)
	if err != nil {
		// No log at all means the tool never got as far as the script.
		e.rep.Error("dymola wrote no log", zap.String("model", job.Model), zap.Error(err))
		return run, &engine.RunError{Engine: e.Name(), Model: job.Model, WorkDir: wd.Path, Wrapped: err}
	}
	run.Errors = report.Errors
	run.Warnings = report.Warnings
	for _, w := range report.Warnings {
		e.rep.Warning(w, zap.String("model", job.Model))
	}
	if report.Failed() {
		for _, line := range report.Errors {
			e.rep.Error(line, zap.String("model", job.Model))
		}
		return run, &engine.RunError{Engine: e.Name(), Model: job.Model, WorkDir: wd.Path, Wrapped: failure}
	}

	if translateOnly {
		// Translation outputs stay put; callers read them from WorkDir.
		e.rep.Output("translation finished", zap.String("model", job.Model), zap.Duration("elapsed", run.Elapsed))
		return run, nil
	}

	outputs, err := wd.CollectNewFiles(run.StartedAt, job.OutputDir)
	if err != nil {
		return run, &engine.RunError{Engine: e.Name(), Model: job.Model, WorkDir: wd.Path, Wrapped: err}
	}
	run.Outputs = outputs

	if !job.KeepWorkDir {
		if err := wd.Remove(); err != nil {
			e.rep.Error("failed to delete working directory",
				zap.String("workdir", wd.Root),
				zap.Error(err))
		} else {
			run.WorkDir = ""
		}
	}

	e.rep.Output("simulation finished",
		zap.String("model", job.Model),
		zap.Duration("elapsed", run.Elapsed),
		zap.Int("warnings", len(run.Warnings)))
	return run, nil
}

// withDefaults fills engine-specific defaults without mutating the caller's
// job.
func withDefaults(job *engine.Job) *engine.Job {
	j := job.Clone()
	if j.Settings.Solver == "" {
		j.Settings.Solver = DefaultSolver
	}
	if j.Settings.ResultFile == "" {
		j.Settings.ResultFile = engine.ShortModelName(j.Model)
	}
	if j.OutputDir == "" {
		j.OutputDir = "."
	}
	return j
}
