package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	RunDirectoryPrefix = "testrun-" // Standardized prefix for run directories
	IterationsDirName  = "iterations"
)

// IterationOutput is the captured output of one execution of a command example
type IterationOutput struct {
	ExampleID   string
	Description string
	Command     string
	Output      []byte
	Truncated   bool
	Duration    time.Duration
	Err         error
}

// FileLogger writes the output of every iteration to one log file per example
type FileLogger struct {
	baseDir string // Base directory for logs
	logDir  string // Directory of the current run
	runID   string

	mu     sync.Mutex
	counts map[string]int // iterations logged per example
}

// NewFileLogger creates the run directory for runID under baseDir
func NewFileLogger(baseDir string, runID string) (*FileLogger, error) {
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}
	if baseDir == "" {
		return nil, fmt.Errorf("baseDir cannot be empty")
	}

	logDir := filepath.Join(baseDir, RunDirectoryPrefix+runID)
	if err := os.MkdirAll(filepath.Join(logDir, IterationsDirName), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
	}

	return &FileLogger{
		baseDir: baseDir,
		logDir:  logDir,
		runID:   runID,
		counts:  make(map[string]int),
	}, nil
}

// GetRunID returns the run ID of the logger
func (l *FileLogger) GetRunID() string {
	return l.runID
}

// GetBaseDir returns the base directory of all runs
func (l *FileLogger) GetBaseDir() string {
	return l.baseDir
}

// GetRunDir returns the directory of the current run
func (l *FileLogger) GetRunDir() string {
	return l.logDir
}

// PathFor returns the log file of an example
func (l *FileLogger) PathFor(exampleID, description string) string {
	name := safeFilename(description)
	if name == "" {
		name = "example"
	}
	return filepath.Join(l.logDir, IterationsDirName, fmt.Sprintf("%s-%s.log", name, safeFilename(exampleID)))
}

// LogIteration appends one iteration to the example's log file and returns
// the iteration number it was logged as.
func (l *FileLogger) LogIteration(out IterationOutput) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.counts[out.ExampleID]++
	n := l.counts[out.ExampleID]

	path := l.PathFor(out.ExampleID, out.Description)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return n, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	status := "PASS"
	if out.Err != nil {
		status = "FAIL: " + out.Err.Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== ITERATION %d: %s\n", n, out.Command)
	if out.Truncated {
		b.WriteString("... (output truncated)\n")
	}
	b.Write(out.Output)
	if len(out.Output) > 0 && out.Output[len(out.Output)-1] != '\n' {
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "--- %s (%s)\n\n", status, formatDuration(out.Duration))

	if _, err := f.WriteString(b.String()); err != nil {
		return n, fmt.Errorf("failed to write log file %s: %w", path, err)
	}
	return n, nil
}

// Iterations returns how many iterations were logged for an example
func (l *FileLogger) Iterations(exampleID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[exampleID]
}

func safeFilename(s string) string {
	s = strings.TrimSpace(s)
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", " ", "_",
		"...", "",
	)
	return replacer.Replace(s)
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.3fs", d.Seconds())
}
