// Package logger provides the verbose log for rockybot.
// Nothing is printed unless verbose mode is on (the --verbose flag). Lines
// go to stderr so stdout stays clean for piping answers and JSON output.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// level is the tag printed in front of each line.
type level string

const (
	levelDebug level = "DEBUG"
	levelInfo  level = "INFO"
	levelWarn  level = "WARN"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	now               = time.Now
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the writer for verbose logs. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug logs pipeline detail such as stage changes and batch progress.
func Debug(format string, args ...any) {
	logf(levelDebug, format, args...)
}

// Info logs the outcome of a pipeline run.
func Info(format string, args ...any) {
	logf(levelInfo, format, args...)
}

// Warn logs a recoverable problem, like a skipped URL or a fallback prompt.
func Warn(format string, args ...any) {
	logf(levelWarn, format, args...)
}

// Section prints a header for one pipeline run.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Timed returns a func that logs how long name took at debug level.
// Use it as defer logger.Timed("Ingest")().
func Timed(name string) func() {
	start := now()
	return func() {
		Debug("%s took %s", name, now().Sub(start).Round(time.Millisecond))
	}
}

func logf(l level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose {
		return
	}
	fmt.Fprintf(output, "[%s] %s\n", l, fmt.Sprintf(format, args...))
}
