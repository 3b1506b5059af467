// Package runner executes external simulation tools as subprocesses with an
// optional timeout and captures their combined output.
package runner

import (
	"context"
	"errors"
	"os/exec"
	"time"
)

// Command describes one external tool invocation.
type Command struct {
	Binary  string
	Args    []string
	Dir     string
	Env     []string
	Timeout time.Duration
}

// Result holds the observable outcome of a finished subprocess.
type Result struct {
	Output   string
	ExitCode int
	Elapsed  time.Duration
	TimedOut bool
}

// ErrTimeout is returned when the subprocess ran past Command.Timeout and
// was killed.
var ErrTimeout = errors.New("runner: command killed after timeout")

// Installed reports whether the binary can be found on PATH. exec.LookPath
// handles the platform specifics (e.g. .exe resolution on Windows).
func Installed(binary string) bool {
	_, err := exec.LookPath(binary)
	return err == nil
}

// Run starts the command and blocks until it exits or the timeout elapses.
// A non-positive timeout means the process is never killed. The returned
// Result is non-nil even on failure so the captured output can be logged.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...)
	c.Dir = cmd.Dir
	if cmd.Env != nil {
		c.Env = cmd.Env
	}

	start := time.Now()
	output, err := c.CombinedOutput()
	elapsed := time.Since(start)

	result := &Result{
		Output:  string(output),
		Elapsed: elapsed,
	}

	if ctx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		result.ExitCode = -1
		return result, ErrTimeout
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
		return result, err
	}

	return result, nil
}
