// Package logger writes leveled, line-oriented logs for sercha-rag.
//
// Debug, Info, Warn and Section are verbose-only (the --verbose flag) and
// trace the ingestion and answering pipelines. Notice and Error are always
// written: run summaries and failures the operator needs to see.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelNotice
	levelError
)

var prefixes = [...]string{
	levelDebug:  "[DEBUG] ",
	levelInfo:   "[INFO] ",
	levelWarn:   "[WARN] ",
	levelNotice: "[INFO] ",
	levelError:  "[ERROR] ",
}

// quiet reports whether the level is suppressed outside verbose mode.
func (l level) quiet() bool {
	return l < levelNotice
}

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
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

// SetOutput redirects all log output and returns the previous writer.
// Defaults to os.Stderr.
func SetOutput(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := output
	output = w
	return prev
}

// logf holds the write lock so concurrent lines never interleave.
func logf(l level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if l.quiet() && !verbose {
		return
	}
	fmt.Fprintf(output, prefixes[l]+format+"\n", args...)
}

// Debug logs per-file and per-batch detail.
func Debug(format string, args ...any) { logf(levelDebug, format, args...) }

// Info logs pipeline progress.
func Info(format string, args ...any) { logf(levelInfo, format, args...) }

// Warn logs recoverable failures such as a skipped file or a retried batch.
func Warn(format string, args ...any) { logf(levelWarn, format, args...) }

// Notice logs regardless of verbose mode.
func Notice(format string, args ...any) { logf(levelNotice, format, args...) }

// Error logs regardless of verbose mode.
func Error(format string, args ...any) { logf(levelError, format, args...) }

// Section prints a header separating phases of a run, such as one root
// directory of an ingestion run. Verbose only.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}
