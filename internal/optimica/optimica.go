// Package optimica drives the OPTIMICA / JModelica toolchain through its
// jm_ipython.sh wrapper. Unlike the dymola driver, the model package is not
// copied into the working directory; the compiler resolves it through
// MODELICAPATH, so the working directory only receives the generated Python
// driver and the tool's outputs.
package optimica

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

// DefaultSolver is the CVode integrator unless the job overrides it.
const DefaultSolver = "CVode"

// DefaultIntervals is the number of output points per run.
const DefaultIntervals = 500

// Executable is the JModelica IPython wrapper expected on PATH.
const Executable = "jm_ipython.sh"

type Engine struct {
	rep *reporter.Reporter
}

func New(rep *reporter.Reporter) *Engine {
	if rep == nil {
		rep = reporter.NewNop()
	}
	return &Engine{rep: rep}
}

func (e *Engine) Name() string       { return "optimica" }
func (e *Engine) Executable() string { return Executable }

// Script returns the Python driver Simulate would run.
func (e *Engine) Script(job *engine.Job) (string, error) {
	return BuildScript(withDefaults(job), false)
}

func (e *Engine) Simulate(ctx context.Context, job *engine.Job) (*engine.Run, error) {
	return e.execute(ctx, job, false)
}

func (e *Engine) Translate(ctx context.Context, job *engine.Job) (*engine.Run, error) {
	return e.execute(ctx, job, true)
}

func (e *Engine) execute(ctx context.Context, job *engine.Job, compileOnly bool) (*engine.Run, error) {
	job = withDefaults(job)

	if !runner.Installed(Executable) {
		return nil, fmt.Errorf("%w: %s", engine.ErrExecutableNotFound, Executable)
	}

	stale := []string{job.Settings.ResultFile + ".mat", "*.fmu", "*_log.txt"}
	if err := workdir.DeleteFiles(job.OutputDir, stale); err != nil {
		return nil, err
	}

	wd, err := workdir.Create(job.PackagePath)
	if err != nil {
		if errors.Is(err, workdir.ErrBadPackage) {
			return nil, fmt.Errorf("%w: %s", engine.ErrBadPackagePath, job.PackagePath)
		}
		return nil, err
	}
	if err := wd.Mkdir(); err != nil {
		wd.Remove()
		return nil, err
	}

	script, err := BuildScript(job, compileOnly)
	if err != nil {
		wd.Remove()
		return nil, err
	}
	scriptName := ScriptName(job.Model)
	if err := os.WriteFile(filepath.Join(wd.Path, scriptName), []byte(script), 0o644); err != nil {
		wd.Remove()
		return nil, err
	}

	run := engine.NewRun(e.Name(), job.Model)
	run.WorkDir = wd.Path
	run.LogFile = filepath.Join(wd.Path, CompileLogName(job.Model))

	pkgAbs, err := filepath.Abs(job.PackagePath)
	if err != nil {
		wd.Remove()
		return nil, err
	}
	// The package itself sits one level up from the package.mo directory;
	// MODELICAPATH entries point at the directory holding the package dir.
	env := append(os.Environ(), "MODELICAPATH="+modelicaPath(filepath.Dir(pkgAbs)))

	e.rep.Output("starting optimica",
		zap.String("model", job.Model),
		zap.String("script", scriptName),
		zap.String("workdir", wd.Path))

	res, runErr := runner.Run(ctx, runner.Command{
		Binary:  Executable,
		Args:    []string{scriptName},
		Dir:     wd.Path,
		Env:     env,
		Timeout: job.Settings.Timeout,
	})
	run.Elapsed = res.Elapsed

	if runErr != nil {
		wrapped := runErr
		if errors.Is(runErr, runner.ErrTimeout) {
			wrapped = fmt.Errorf("%w (after %s)", engine.ErrTimeout, job.Settings.Timeout)
		}
		e.rep.Error("optimica did not finish",
			zap.String("model", job.Model),
			zap.Error(runErr))
		return run, &engine.RunError{Engine: e.Name(), Model: job.Model, WorkDir: wd.Path, Wrapped: wrapped}
	}

	report := e.scanLogs(wd.Path, job.Model, res.Output)
	run.Errors = report.Errors
	run.Warnings = report.Warnings
	for _, w := range report.Warnings {
		e.rep.Warning(w, zap.String("model", job.Model))
	}
	if report.Failed() {
		failure := engine.ErrSimulationFailed
		if compileOnly {
			failure = engine.ErrTranslationFailed
		}
		for _, line := range report.Errors {
			e.rep.Error(line, zap.String("model", job.Model))
		}
		return run, &engine.RunError{Engine: e.Name(), Model: job.Model, WorkDir: wd.Path, Wrapped: failure}
	}

	if compileOnly {
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

// scanLogs prefers the compiler's log file and falls back to the captured
// process output, which is where PyFMI runtime errors land.
func (e *Engine) scanLogs(dir, model, processOutput string) *logscan.Report {
	logPath := filepath.Join(dir, CompileLogName(model))
	if _, err := os.Stat(logPath); err == nil {
		if report, err := logscan.Scan(logPath, logscan.Optimica); err == nil {
			if report.Failed() {
				return report
			}
			fromOutput := logscan.ScanText(processOutput, logscan.Optimica)
			report.Errors = append(report.Errors, fromOutput.Errors...)
			report.Warnings = append(report.Warnings, fromOutput.Warnings...)
			return report
		}
	}
	return logscan.ScanText(processOutput, logscan.Optimica)
}

func modelicaPath(entry string) string {
	if existing := os.Getenv("MODELICAPATH"); existing != "" {
		return entry + string(os.PathListSeparator) + existing
	}
	return entry
}

func withDefaults(job *engine.Job) *engine.Job {
	j := job.Clone()
	if j.Settings.Solver == "" {
		j.Settings.Solver = DefaultSolver
	}
	if j.Settings.Intervals <= 0 {
		j.Settings.Intervals = DefaultIntervals
	}
	if j.Settings.ResultFile == "" {
		j.Settings.ResultFile = engine.ShortModelName(j.Model)
	}
	if j.OutputDir == "" {
		j.OutputDir = "."
	}
	return j
}
