// Package schema implements the Schema Registry (spec.md §4.2): at
// startup it runs a zero-row DESCRIBE against each stream's source
// expression and records the columns actually present, so the rest of
// the engine can degrade gracefully instead of failing when a source
// has evolved (new kernel adds a column, partitions file is missing a
// field, etc).
//
// Grounded on alexandrem-coral's internal/colony/database/schema.go for
// the database/sql-over-DuckDB idiom and its zerolog warning style
// around schema issues.
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tanelpoder/xtop-engine/internal/model"
)

// Registry caches, per stream, the columns discovered by DESCRIBE.
// Registry is read-only after Discover except for the explicit Reset.
type Registry struct {
	log     zerolog.Logger
	columns map[model.Stream][]model.Column
	// lower maps stream -> lower(name) -> actual spelling, for
	// case-insensitive lookup without re-scanning on every call.
	lower map[model.Stream]map[string]string
}

// New returns an empty Registry. Call Discover before use.
func New(log zerolog.Logger) *Registry {
	return &Registry{
		log:     log,
		columns: map[model.Stream][]model.Column{},
		lower:   map[model.Stream]map[string]string{},
	}
}

// SourceExprFunc produces the glob/union source expression for a stream,
// the same function signature internal/timefilter.FilesFor collapses
// to when called with unbounded low/high.
type SourceExprFunc func(stream model.Stream) string

// Discover runs `DESCRIBE SELECT * FROM <expr> LIMIT 0` for every known
// stream and records the result. A stream whose source expression
// errors (no matching files, unreadable partitions file) is recorded as
// present-but-empty rather than failing discovery for every other
// stream: partial degradation is the whole point of this component.
func (r *Registry) Discover(ctx context.Context, db *sql.DB, exprOf SourceExprFunc) error {
	for _, stream := range model.AllStreams {
		expr := exprOf(stream)
		cols, err := describeStream(ctx, db, expr)
		if err != nil {
			r.log.Warn().Err(err).Str("stream", string(stream)).Msg("schema discovery failed for stream; treating as empty")
			r.columns[stream] = nil
			r.lower[stream] = map[string]string{}
			continue
		}
		r.columns[stream] = cols
		lookup := make(map[string]string, len(cols))
		for _, c := range cols {
			lookup[strings.ToLower(c.Name)] = c.Name
		}
		r.lower[stream] = lookup
	}
	return nil
}

func describeStream(ctx context.Context, db *sql.DB, expr string) ([]model.Column, error) {
	query := fmt.Sprintf("DESCRIBE SELECT * FROM %s LIMIT 0", expr)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("describe: %w", err)
	}
	defer rows.Close()

	colNames, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("describe columns: %w", err)
	}

	var out []model.Column
	for rows.Next() {
		scanDest := make([]any, len(colNames))
		for i := range scanDest {
			scanDest[i] = new(sql.NullString)
		}
		if err := rows.Scan(scanDest...); err != nil {
			return nil, fmt.Errorf("describe scan: %w", err)
		}
		// DuckDB's DESCRIBE returns column_name, column_type, ... in that
		// order; the first two fields are what this registry needs.
		name := scanDest[0].(*sql.NullString).String
		typ := ""
		if len(scanDest) > 1 {
			typ = scanDest[1].(*sql.NullString).String
		}
		out = append(out, model.Column{Name: name, Type: typ})
	}
	return out, rows.Err()
}

// Has reports whether stream declares col, case-insensitively.
func (r *Registry) Has(stream model.Stream, col string) bool {
	lookup, ok := r.lower[stream]
	if !ok {
		return false
	}
	_, ok = lookup[strings.ToLower(col)]
	return ok
}

// Actual returns the stream's own spelling of col, or "" if absent.
// Composing SQL against Actual avoids case mismatches with the
// underlying file's header.
func (r *Registry) Actual(stream model.Stream, col string) (string, bool) {
	lookup, ok := r.lower[stream]
	if !ok {
		return "", false
	}
	actual, ok := lookup[strings.ToLower(col)]
	return actual, ok
}

// Columns returns the ordered column list discovered for stream.
func (r *Registry) Columns(stream model.Stream) []model.Column {
	return r.columns[stream]
}

// Reset clears all cached schema, forcing the next Discover to re-run.
func (r *Registry) Reset() {
	r.columns = map[model.Stream][]model.Column{}
	r.lower = map[model.Stream]map[string]string{}
}
