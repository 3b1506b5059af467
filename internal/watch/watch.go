// Package watch provides a terminal view that follows a simulator log as
// the external tool writes it, highlighting error and warning lines.
package watch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"

	"github.com/san-kum/mosim/internal/logscan"
)

const maxLines = 500

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	lineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	countStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type logLine struct {
	text string
	sev  logscan.Severity
}

type fileChangedMsg struct{}

type tickMsg time.Time

// Model follows one log file and renders its tail.
type Model struct {
	path    string
	dialect logscan.Dialect
	watcher *fsnotify.Watcher

	offset  int64
	partial string
	lines   []logLine

	errors   int
	warnings int
	height   int
	paused   bool
	err      error
}

// New builds a watch model for the given log file. The file does not have
// to exist yet; the watcher follows its directory so creation is seen too.
func New(path string, dialect logscan.Dialect) (Model, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return Model{}, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return Model{}, err
	}
	return Model{
		path:    path,
		dialect: dialect,
		watcher: watcher,
		height:  24,
	}, nil
}

// Close releases the filesystem watcher.
func (m *Model) Close() {
	if m.watcher != nil {
		m.watcher.Close()
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForChange(m.watcher), tick())
}

func waitForChange(w *fsnotify.Watcher) tea.Cmd {
	return func() tea.Msg {
		select {
		case _, ok := <-w.Events:
			if !ok {
				return nil
			}
			return fileChangedMsg{}
		case _, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fileChangedMsg{}
		}
	}
}

// tick is a fallback poll for filesystems where change events are unreliable.
func tick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.Close()
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "c":
			m.lines = nil
			m.errors = 0
			m.warnings = 0
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height
	case fileChangedMsg:
		if !m.paused {
			m.ingest()
		}
		return m, waitForChange(m.watcher)
	case tickMsg:
		if !m.paused {
			m.ingest()
		}
		return m, tick()
	}
	return m, nil
}

// ingest reads everything appended to the log since the last read.
func (m *Model) ingest() {
	f, err := os.Open(m.path)
	if err != nil {
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return
	}
	if info.Size() < m.offset {
		// Log was truncated and restarted.
		m.offset = 0
		m.partial = ""
	}
	if _, err := f.Seek(m.offset, io.SeekStart); err != nil {
		m.err = err
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		m.err = err
		return
	}
	m.offset += int64(len(data))

	text := m.partial + string(data)
	parts := strings.Split(text, "\n")
	// The last part is an unterminated line still being written.
	m.partial = parts[len(parts)-1]
	for _, raw := range parts[:len(parts)-1] {
		sev := logscan.ClassifyLine(raw, m.dialect)
		switch sev {
		case logscan.Error:
			m.errors++
		case logscan.Warning:
			m.warnings++
		}
		m.lines = append(m.lines, logLine{text: raw, sev: sev})
	}
	if len(m.lines) > maxLines {
		m.lines = m.lines[len(m.lines)-maxLines:]
	}
}

func (m Model) View() string {
	var s strings.Builder

	status := ""
	if m.paused {
		status = "  [paused]"
	}
	s.WriteString(headerStyle.Render("watching "+m.path) + status + "\n")
	s.WriteString(countStyle.Render(fmt.Sprintf("%d errors, %d warnings", m.errors, m.warnings)) + "\n\n")

	visible := m.height - 6
	if visible < 1 {
		visible = 1
	}
	start := 0
	if len(m.lines) > visible {
		start = len(m.lines) - visible
	}
	for _, l := range m.lines[start:] {
		switch l.sev {
		case logscan.Error:
			s.WriteString(errorStyle.Render(l.text))
		case logscan.Warning:
			s.WriteString(warnStyle.Render(l.text))
		default:
			s.WriteString(lineStyle.Render(l.text))
		}
		s.WriteString("\n")
	}

	s.WriteString(helpStyle.Render("SP:Pause C:Clear Q:Quit"))
	return s.String()
}

// Run blocks following the log file until the user quits.
func Run(path string, dialect logscan.Dialect) error {
	m, err := New(path, dialect)
	if err != nil {
		return err
	}
	defer m.Close()

	p := tea.NewProgram(m)
	_, err = p.Run()
	return err
}
