// Package logscan extracts error and warning lines from the text logs the
// external simulation tools write. The tools exit zero even when a model
// fails to translate, so the log is the only reliable failure signal.
package logscan

import (
	"bufio"
	"os"
	"strings"
)

// Dialect selects the marker conventions of one tool family.
type Dialect int

const (
	// Dymola logs "Error: ..." and "Warning: ..." lines.
	Dymola Dialect = iota
	// Optimica (JModelica) logs upper-case "ERROR" / "WARNING" markers.
	Optimica
)

// Report holds the scraped diagnostics of one log file.
type Report struct {
	Errors   []string
	Warnings []string
}

// Failed reports whether the log contained any error.
func (r *Report) Failed() bool {
	return len(r.Errors) > 0
}

// Scan reads the log file and classifies its lines.
func Scan(path string, dialect Dialect) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	report := &Report{}
	scanner := bufio.NewScanner(f)
	// Dymola can emit very long single-line equation dumps.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		classify(strings.TrimSpace(scanner.Text()), dialect, report)
	}
	if err := scanner.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// ScanText classifies an in-memory log, e.g. captured subprocess output.
func ScanText(text string, dialect Dialect) *Report {
	report := &Report{}
	for _, line := range strings.Split(text, "\n") {
		classify(strings.TrimSpace(line), dialect, report)
	}
	return report
}

// Severity is the classification of a single log line.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

// ClassifyLine maps one log line to a severity under the given dialect.
func ClassifyLine(line string, dialect Dialect) Severity {
	line = strings.TrimSpace(line)
	if line == "" {
		return Info
	}
	switch dialect {
	case Dymola:
		if strings.HasPrefix(line, "Error") {
			return Error
		}
		if strings.HasPrefix(line, "Warning") {
			return Warning
		}
	case Optimica:
		if strings.Contains(line, "ERROR") || strings.Contains(line, "Exception") {
			return Error
		}
		if strings.Contains(line, "WARNING") {
			return Warning
		}
	}
	return Info
}

func classify(line string, dialect Dialect, report *Report) {
	switch ClassifyLine(line, dialect) {
	case Error:
		report.Errors = append(report.Errors, line)
	case Warning:
		report.Warnings = append(report.Warnings, line)
	}
}
