// Package xlog wraps zerolog with the two output modes the CLI needs:
// a console writer for interactive use and JSON written to a
// --debuglog file. This is new relative to the teacher (whose own
// "logging" is internal/output.Progress, a plain fmt-based elapsed-time
// stderr narrator kept separately for interactive progress lines), and
// is grounded on alexandrem-coral's zerolog usage against the same
// DuckDB runtime this engine drives.
package xlog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New builds a logger. debug raises the level to Debug (needed for
// ParseError-class recovery messages, spec.md §7); debugLogPath, when
// non-empty, additionally tees JSON-formatted records to that file.
func New(debug bool, debugLogPath string) (zerolog.Logger, error) {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	var w io.Writer = console

	if debugLogPath != "" {
		f, err := os.OpenFile(debugLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Logger{}, err
		}
		w = zerolog.MultiLevelWriter(console, f)
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}
