package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// TimeFormat matches the timestamp prefix of install.log lines
const TimeFormat = "2006-01-02 15:04:05"

// Log is the installer's logger bound to an append-only log file.
// Every line goes to the file and to the console writer.
type Log struct {
	hclog.Logger
	file  *os.File
	raw   io.Writer
	RunID string
}

// Open creates the logger. The log file is opened once for appending and
// must be released with Close.
func Open(path string, console io.Writer) (*Log, error) {
	if console == nil {
		console = os.Stdout
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	raw := io.MultiWriter(console, file)
	runID := uuid.NewString()
	logger := New(raw, Level()).With("run", runID[:8])

	return &Log{Logger: logger, file: file, raw: raw, RunID: runID}, nil
}

// New builds an hclog logger writing to output
func New(output io.Writer, level string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       "installer",
		Level:      hclog.LevelFromString(level),
		Output:     output,
		TimeFormat: TimeFormat,
		TimeFn:     func() time.Time { return time.Now().UTC() },
	})
}

// Discard returns a logger that drops everything, for tests
func Discard() hclog.Logger {
	return hclog.NewNullLogger()
}

// Level returns the configured log level from environment
func Level() string {
	level := strings.TrimSpace(os.Getenv("INSTALLER_LOG_LEVEL"))
	if level == "" {
		level = "info"
	}
	return level
}

// Spacer writes n blank lines without timestamps
func (l *Log) Spacer(n int) {
	if n <= 0 || l.raw == nil {
		return
	}
	_, _ = io.WriteString(l.raw, strings.Repeat("\n", n))
}

// Close flushes and closes the log file
func (l *Log) Close() error {
	if l.file == nil {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		l.file.Close()
		return fmt.Errorf("failed to flush log file: %w", err)
	}
	err := l.file.Close()
	l.file = nil
	return err
}
