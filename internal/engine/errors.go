package engine

import "errors"

// Domain errors for external tool invocations.
var (
	// ErrExecutableNotFound indicates the external tool is not on PATH.
	ErrExecutableNotFound = errors.New("engine: simulation executable not found on PATH")

	// ErrSimulationFailed indicates the scraped tool log contains errors.
	ErrSimulationFailed = errors.New("engine: simulation failed (errors in tool log)")

	// ErrTranslationFailed indicates model translation reported errors.
	ErrTranslationFailed = errors.New("engine: translation failed (errors in tool log)")

	// ErrTimeout indicates the external tool exceeded the configured timeout.
	ErrTimeout = errors.New("engine: simulation killed after timeout")

	// ErrBadPackagePath indicates the model package path is missing or not a directory.
	ErrBadPackagePath = errors.New("engine: package path does not exist or is not a directory")

	// ErrBadParameter indicates a parameter value that cannot be expressed
	// as a Modelica literal.
	ErrBadParameter = errors.New("engine: parameter value has unsupported type")
)

// RunError wraps an error with the context of a failed run. The working
// directory is preserved when a RunError is returned, so WorkDir points at
// the evidence.
type RunError struct {
	Engine  string
	Model   string
	WorkDir string
	Wrapped error
}

func (e *RunError) Error() string {
	return e.Engine + ": " + e.Model + ": " + e.Wrapped.Error() + " (working directory kept at " + e.WorkDir + ")"
}

func (e *RunError) Unwrap() error {
	return e.Wrapped
}
