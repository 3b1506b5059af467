// Package reporter writes the driver's own log, separate from the logs the
// external tools produce. One reporter per output directory; every run
// appends to <output>/mosim.log and error/warning counts stay queryable
// after the run.
package reporter

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogFileName is the driver log written into the output directory.
const LogFileName = "mosim.log"

type Reporter struct {
	log  *zap.Logger
	path string
	file *os.File

	mu       sync.Mutex
	errors   int
	warnings int
}

// New creates the output directory if needed and opens the driver log in
// append mode.
func New(outputDir string) (*Reporter, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}

	path := filepath.Join(outputDir, LogFileName)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(f), zapcore.InfoLevel)

	return &Reporter{
		log:  zap.New(core),
		path: path,
		file: f,
	}, nil
}

// NewNop returns a reporter that records counts but writes nowhere. Used in
// tests and by callers that only need the counters.
func NewNop() *Reporter {
	return &Reporter{log: zap.NewNop()}
}

// Path returns the log file location, or "" for a nop reporter.
func (r *Reporter) Path() string { return r.path }

func (r *Reporter) Output(msg string, fields ...zap.Field) {
	r.log.Info(msg, fields...)
}

func (r *Reporter) Warning(msg string, fields ...zap.Field) {
	r.mu.Lock()
	r.warnings++
	r.mu.Unlock()
	r.log.Warn(msg, fields...)
}

func (r *Reporter) Error(msg string, fields ...zap.Field) {
	r.mu.Lock()
	r.errors++
	r.mu.Unlock()
	r.log.Error(msg, fields...)
}

// Counts returns how many errors and warnings were reported so far.
func (r *Reporter) Counts() (errors, warnings int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errors, r.warnings
}

// Close flushes and closes the underlying log file.
func (r *Reporter) Close() error {
	_ = r.log.Sync()
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}
