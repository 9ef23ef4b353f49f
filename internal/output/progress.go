// Package output renders Results to the CLI's stdout (§6.2 --format) and
// reports elapsed-time progress to stderr during query execution.
package output

import (
	"fmt"
	"os"
	"time"
)

// Progress reports query-execution status to stderr; --debug toggles it
// on (spec.md §6.2).
type Progress struct {
	enabled bool
	verbose bool
	start   time.Time
}

// NewProgress creates a Progress reporter. Set enabled=false to suppress
// all output.
func NewProgress(enabled bool) *Progress {
	return &Progress{enabled: enabled, start: time.Now()}
}

// NewVerboseProgress creates a Progress reporter with debug-level lines
// enabled; verbose=true implies enabled regardless of the enabled arg.
func NewVerboseProgress(enabled, verbose bool) *Progress {
	return &Progress{enabled: enabled || verbose, verbose: verbose, start: time.Now()}
}

// Log prints a progress message to stderr if enabled.
func (p *Progress) Log(format string, args ...interface{}) {
	if !p.enabled {
		return
	}
	elapsed := time.Since(p.start).Round(time.Millisecond)
	fmt.Fprintf(os.Stderr, "[%s] %s\n", elapsed, fmt.Sprintf(format, args...))
}

// Debug prints a debug-level progress message to stderr when verbose.
func (p *Progress) Debug(format string, args ...interface{}) {
	if !p.verbose {
		return
	}
	elapsed := time.Since(p.start).Round(time.Millisecond)
	fmt.Fprintf(os.Stderr, "[%s] DEBUG: %s\n", elapsed, fmt.Sprintf(format, args...))
}
