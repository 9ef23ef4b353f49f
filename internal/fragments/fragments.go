// Package fragments implements the Fragment Loader (spec.md §4.3): a
// fixed, on-disk catalogue of parameterised SQL fragments, loaded once
// and cached for the process lifetime. Grounded on the teacher's
// internal/executor/registry.go fixed-catalogue-map pattern
// (Registry map[string]*ToolSpec), adapted here from a tool registry to
// a SQL text registry backed by embed.FS instead of a Go literal map so
// the fragments ship as the actual .sql files a DBA could read and edit.
package fragments

import (
	"embed"
	"fmt"
	"strings"
	"sync"
)

//go:embed sql/*.sql
var catalogueFS embed.FS

// Name identifies a fragment in the fixed catalogue.
type Name string

const (
	ComputedColumns  Name = "computed_columns"
	HistogramBuckets Name = "histogram_buckets"
	BasePartitions   Name = "base_partitions"
)

// ErrFragmentNotFound is returned when Load is asked for a
// name outside the fixed catalogue -- a ConfigurationError per spec.md
// §7, since it can only happen from a programming mistake, never from
// user input.
type ErrFragmentNotFound struct {
	Name Name
}

func (e *ErrFragmentNotFound) Error() string {
	return fmt.Sprintf("fragment not found: %s", e.Name)
}

// Loader loads and caches named SQL fragments for the process lifetime.
type Loader struct {
	mu    sync.RWMutex
	cache map[Name]string
}

// NewLoader returns a Loader with an empty cache.
func NewLoader() *Loader {
	return &Loader{cache: map[Name]string{}}
}

// Load returns the fragment text for name, reading and caching it from
// the embedded catalogue on first use.
func (l *Loader) Load(name Name) (string, error) {
	l.mu.RLock()
	if text, ok := l.cache[name]; ok {
		l.mu.RUnlock()
		return text, nil
	}
	l.mu.RUnlock()

	data, err := catalogueFS.ReadFile("sql/" + string(name) + ".sql")
	if err != nil {
		return "", &ErrFragmentNotFound{Name: name}
	}
	text := string(data)

	l.mu.Lock()
	l.cache[name] = text
	l.mu.Unlock()
	return text, nil
}

// Substitute performs the single textual placeholder convention used by
// every fragment: #PLACEHOLDER# tokens are replaced verbatim with the
// caller-supplied value. The caller is responsible for escaping.
func Substitute(text string, params map[string]string) string {
	for k, v := range params {
		text = strings.ReplaceAll(text, "#"+k+"#", v)
	}
	return text
}
