package dymola

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/mosim/internal/engine"
	"github.com/san-kum/mosim/internal/reporter"
)

// fakeDymola installs a shell script named dymola on PATH that writes the
// given simulator.log content and a result file into its working directory.
func fakeDymola(t *testing.T, logContent string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell test")
	}

	bin := t.TempDir()
	script := "#!/bin/sh\nprintf '%s' \"$FAKE_DYMOLA_LOG\" > simulator.log\ntouch Pump_result.mat\n"
	require.NoError(t, os.WriteFile(filepath.Join(bin, "dymola"), []byte(script), 0o755))
	t.Setenv("FAKE_DYMOLA_LOG", logContent)
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func makePackage(t *testing.T) string {
	t.Helper()
	pkg := filepath.Join(t.TempDir(), "MyLib")
	require.NoError(t, os.MkdirAll(pkg, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pkg, "package.mo"), []byte("package MyLib\nend MyLib;\n"), 0o644))
	return pkg
}

func TestSimulateSuccess(t *testing.T) {
	fakeDymola(t, "Warning: minor issue\nIntegration terminated successfully\n")
	pkg := makePackage(t)
	out := t.TempDir()

	job := engine.NewJob("MyLib.Examples.Pump", pkg)
	job.OutputDir = out

	eng := New(reporter.NewNop())
	run, err := eng.Simulate(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, "dymola", run.Engine)
	assert.Empty(t, run.Errors)
	require.Len(t, run.Warnings, 1)
	assert.Empty(t, run.WorkDir, "working directory should be removed on success")
	assert.FileExists(t, filepath.Join(out, "Pump_result.mat"))
}

func TestSimulateLogErrorsFailRun(t *testing.T) {
	fakeDymola(t, "Error: Failed to compute initial values.\n")
	pkg := makePackage(t)

	job := engine.NewJob("MyLib.Examples.Pump", pkg)
	job.OutputDir = t.TempDir()

	rep := reporter.NewNop()
	eng := New(rep)
	run, err := eng.Simulate(context.Background(), job)
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrSimulationFailed))

	var runErr *engine.RunError
	require.True(t, errors.As(err, &runErr))
	assert.DirExists(t, runErr.WorkDir, "working directory must survive a failed run")
	require.Len(t, run.Errors, 1)

	nErr, _ := rep.Counts()
	assert.Equal(t, 1, nErr)

	// Cleanup the preserved directory ourselves, like a user would.
	require.NoError(t, os.RemoveAll(filepath.Dir(runErr.WorkDir)))
}

func TestSimulateKeepWorkDir(t *testing.T) {
	fakeDymola(t, "fine\n")
	pkg := makePackage(t)

	job := engine.NewJob("MyLib.Examples.Pump", pkg)
	job.OutputDir = t.TempDir()
	job.KeepWorkDir = true

	eng := New(nil)
	run, err := eng.Simulate(context.Background(), job)
	require.NoError(t, err)
	assert.DirExists(t, run.WorkDir)
	require.NoError(t, os.RemoveAll(filepath.Dir(run.WorkDir)))
}

func TestSimulateBadPackagePath(t *testing.T) {
	fakeDymola(t, "")
	job := engine.NewJob("MyLib.Pump", filepath.Join(t.TempDir(), "missing"))

	eng := New(nil)
	_, err := eng.Simulate(context.Background(), job)
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrBadPackagePath))
}

func TestSimulateMissingExecutable(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	eng := New(nil)
	_, err := eng.Simulate(context.Background(), engine.NewJob("M", "."))
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrExecutableNotFound))
}

func TestTranslateKeepsWorkDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell test")
	}
	bin := t.TempDir()
	script := "#!/bin/sh\nprintf 'translated ok\\n' > translator.log\n"
	require.NoError(t, os.WriteFile(filepath.Join(bin, "dymola"), []byte(script), 0o755))
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))

	pkg := makePackage(t)
	job := engine.NewJob("MyLib.Examples.Pump", pkg)
	job.OutputDir = t.TempDir()

	eng := New(nil)
	run, err := eng.Translate(context.Background(), job)
	require.NoError(t, err)
	assert.DirExists(t, run.WorkDir)
	assert.FileExists(t, filepath.Join(run.WorkDir, "run_translate.mos"))
	require.NoError(t, os.RemoveAll(filepath.Dir(run.WorkDir)))
}

func TestScriptDoesNotRunAnything(t *testing.T) {
	job := engine.NewJob("MyLib.Examples.Pump", ".")
	eng := New(nil)

	script, err := eng.Script(job)
	require.NoError(t, err)
	assert.Contains(t, script, `method="radau"`, "default solver should be applied")
	assert.Equal(t, "radau", DefaultSolver)
}
