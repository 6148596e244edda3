package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Logger provides levelled logging with redaction support.
// Terminal sinks get coloured markers; file sinks get timestamps.
type Logger struct {
	debug   bool
	noColor bool

	mu         sync.Mutex
	out        io.Writer
	timestamps bool
	closer     io.Closer
}

// New creates a new logger instance writing to stderr
func New(debug, noColor bool) *Logger {
	return &Logger{
		debug:   debug,
		noColor: noColor,
	}
}

// NewWithWriter creates a logger that writes plain, timestamped lines to w
func NewWithWriter(w io.Writer, debug bool) *Logger {
	return &Logger{
		debug:      debug,
		noColor:    true,
		out:        w,
		timestamps: true,
	}
}

// OpenFile redirects the logger to the file at path, appending to it.
// The file is closed by Close.
func (l *Logger) OpenFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closer != nil {
		_ = l.closer.Close()
	}
	l.out = f
	l.closer = f
	l.noColor = true
	l.timestamps = true
	return nil
}

// Close releases the log file, if any
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	l.out = nil
	l.timestamps = false
	return err
}

// DebugEnabled reports whether Debug messages are written
func (l *Logger) DebugEnabled() bool {
	return l.debug
}

func (l *Logger) write(color, marker, level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := l.out
	if out == nil {
		out = os.Stderr
	}
	if l.timestamps {
		fmt.Fprintf(out, "%s %-5s %s\n", time.Now().Format(time.RFC3339), level, msg)
		return
	}
	if !l.noColor {
		fmt.Fprintf(out, "\033[%sm%s\033[0m %s\n", color, marker, msg)
	} else {
		fmt.Fprintf(out, "%s %s\n", marker, msg)
	}
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.write("32", "✓", "INFO", fmt.Sprintf(format, args...))
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.write("33", "⚠", "WARN", fmt.Sprintf(format, args...))
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.write("31", "✗", "ERROR", fmt.Sprintf(format, args...))
}

// Debug logs a debug message if debug mode is enabled
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.write("36", "[DEBUG]", "DEBUG", fmt.Sprintf(format, args...))
}

// Secret represents a value that should be redacted in logs
type Secret string

// String implements the Stringer interface, always returning a redacted value
func (s Secret) String() string {
	return "[REDACTED]"
}

// GoString implements the GoStringer interface for %#v formatting
func (s Secret) GoString() string {
	return "[REDACTED]"
}

// Redact replaces every non-empty secret in s with [REDACTED].
// Longer secrets are replaced first so one secret containing another is
// still hidden completely.
func Redact(s string, secrets []string) string {
	ordered := make([]string, len(secrets))
	copy(ordered, secrets)
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i]) > len(ordered[j])
	})

	result := s
	for _, secret := range ordered {
		if secret == "" {
			continue
		}
		result = strings.ReplaceAll(result, secret, "[REDACTED]")
	}
	return result
}
