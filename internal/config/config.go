// Package config defines the engine's explicit configuration struct
// (spec.md §9 design notes item 5: "Enumerate the recognised options as
// an explicit configuration struct"), replacing any dynamic
// kwargs/optional-everywhere approach. Grounded on cmd/melisai/main.go's
// flag-to-struct population pattern, including its plain os.Getenv +
// flag-default idiom for environment overrides.
package config

import (
	"os"

	"github.com/tanelpoder/xtop-engine/internal/model"
)

// Config is the full set of recognised engine options.
type Config struct {
	// Datadir is the directory containing hourly source shards and the
	// partitions file (spec.md §6.1). Falls back to XCAPTURE_DATADIR.
	Datadir string

	UseMaterialized    bool
	DuckDBThreads      int
	DefaultLimit       int
	MaxHistory         int
	DefaultGranularity model.Granularity

	Debug        bool
	DebugLogPath string
}

// DatadirEnvVar is the environment variable consulted when --datadir is
// not given (spec.md §6.2).
const DatadirEnvVar = "XCAPTURE_DATADIR"

// Default returns sane defaults for every option not explicitly set by
// the caller.
func Default() Config {
	return Config{
		Datadir:            os.Getenv(DatadirEnvVar),
		UseMaterialized:    false,
		DuckDBThreads:      0, // 0 means "let DuckDB choose"
		DefaultLimit:       50,
		MaxHistory:         100,
		DefaultGranularity: model.GranularityMinute,
	}
}
