// Package engine implements the Query Engine Facade (spec.md §4.8): it
// owns the single long-lived DuckDB connection, performs Schema
// Registry discovery at startup, composes queries via
// internal/querybuilder, executes them, and exposes typed Results.
//
// Grounded on go-duckdb usage in alexandrem-coral's
// internal/colony/database package and on the teacher's single owned
// long-lived resource pattern (executor.BCCExecutor owning one
// SecurityChecker).
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/rs/zerolog"

	"github.com/tanelpoder/xtop-engine/internal/config"
	"github.com/tanelpoder/xtop-engine/internal/fragments"
	"github.com/tanelpoder/xtop-engine/internal/model"
	"github.com/tanelpoder/xtop-engine/internal/querybuilder"
	"github.com/tanelpoder/xtop-engine/internal/schema"
	"github.com/tanelpoder/xtop-engine/internal/timefilter"
)

// Engine owns exactly one runtime connection (spec.md §4.8, §5): the
// *sql.DB is configured for a single open connection so the engine's
// single-threaded-cooperative scheduling model (spec.md §5) is enforced
// by the driver, not just by convention.
type Engine struct {
	cfg     config.Config
	db      *sql.DB
	schema  *schema.Registry
	frags   *fragments.Loader
	builder *querybuilder.Builder
	log     zerolog.Logger

	discovered         bool
	materializedRange  model.TimeRange
	materializedActive bool
}

// Open establishes the one DuckDB connection and prepares (without yet
// running) schema discovery. Discovery itself happens lazily on the
// first Execute/RunHistogramDrillDown/AvailableColumns/LookupStack call.
func Open(cfg config.Config, log zerolog.Logger) (*Engine, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	db.SetMaxOpenConns(1)

	if cfg.DuckDBThreads > 0 {
		if _, err := db.Exec(fmt.Sprintf("SET threads TO %d", cfg.DuckDBThreads)); err != nil {
			db.Close()
			return nil, fmt.Errorf("set threads: %w", err)
		}
	}

	frags := fragments.NewLoader()
	reg := schema.New(log)
	b := querybuilder.New(cfg.Datadir, frags, reg, log)

	return &Engine{cfg: cfg, db: db, schema: reg, frags: frags, builder: b, log: log}, nil
}

// Close releases the runtime connection.
func (e *Engine) Close() error {
	return e.db.Close()
}

// Reset clears the schema cache, forcing the next operation to
// rediscover it (spec.md §4.8, §5's "explicit reset()/clear_cache()
// APIs").
func (e *Engine) Reset() {
	e.schema.Reset()
	e.discovered = false
	e.materializedActive = false
	e.builder.MaterializedEnrichedTable = ""
}

func (e *Engine) ensureDiscovered(ctx context.Context) error {
	if e.discovered {
		return nil
	}
	exprOf := func(stream model.Stream) string {
		return timefilter.FilesFor(stream, nil, nil, timefilter.Option{DataDir: e.cfg.Datadir})
	}
	if err := e.schema.Discover(ctx, e.db, exprOf); err != nil {
		return err
	}
	e.discovered = true
	return nil
}

// Execute composes and runs the main query (spec.md §4.8 execute).
func (e *Engine) Execute(ctx context.Context, params model.QueryParams) (*model.Result, error) {
	if err := e.ensureDiscovered(ctx); err != nil {
		return nil, err
	}
	if err := e.ensureMaterialized(ctx, params.TimeRange); err != nil {
		return nil, err
	}
	sqlText, err := e.builder.Build(params)
	if err != nil {
		return nil, fmt.Errorf("compose query: %w", err)
	}
	return e.run(ctx, sqlText)
}

// ensureMaterialized creates (or reuses) a temp table holding
// enriched_samples for tr when Config.UseMaterialized is set (spec.md
// §6.2 --materialize), so repeated queries and peeks over the same
// frame skip re-globbing and re-computing columns every time. A no-op
// when materialization is disabled or tr already matches the last
// materialized range.
func (e *Engine) ensureMaterialized(ctx context.Context, tr model.TimeRange) error {
	if !e.cfg.UseMaterialized {
		return nil
	}
	if e.materializedActive && sameRange(e.materializedRange, tr) {
		return nil
	}

	e.builder.MaterializedEnrichedTable = ""
	body, err := e.builder.EnrichedSamplesSQL(tr)
	if err != nil {
		return fmt.Errorf("compose materialized enriched_samples: %w", err)
	}

	const table = "xtop_materialized_enriched_samples"
	createSQL := fmt.Sprintf("CREATE OR REPLACE TEMP TABLE %s AS\n%s", table, body)
	if _, err := e.db.ExecContext(ctx, createSQL); err != nil {
		return &RuntimeExecutionError{SQL: createSQL, Err: err}
	}

	e.builder.MaterializedEnrichedTable = table
	e.materializedRange = tr
	e.materializedActive = true
	return nil
}

func sameRange(a, b model.TimeRange) bool {
	return sameInt64Ptr(a.Low, b.Low) && sameInt64Ptr(a.High, b.High)
}

func sameInt64Ptr(a, b *int64) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

// RunHistogramDrillDown composes and runs a histogram drill-down query
// (spec.md §4.5.6), the builder internal/peek's providers call for the
// histogram and time-series heatmap peeks.
func (e *Engine) RunHistogramDrillDown(ctx context.Context, kind querybuilder.HistogramKind, where string, tr model.TimeRange, gran model.Granularity) (*model.Result, error) {
	if err := e.ensureDiscovered(ctx); err != nil {
		return nil, err
	}
	if err := e.ensureMaterialized(ctx, tr); err != nil {
		return nil, err
	}
	sqlText, err := e.builder.BuildHistogramDrillDown(kind, where, tr, gran)
	if err != nil {
		return nil, fmt.Errorf("compose drill-down query: %w", err)
	}
	return e.run(ctx, sqlText)
}

// AvailableColumns runs the composed query wrapped in DESCRIBE with an
// implicit LIMIT 0 to return the exact result schema without
// materialising rows (spec.md §4.8 available_columns).
func (e *Engine) AvailableColumns(ctx context.Context, params model.QueryParams) ([]string, error) {
	if err := e.ensureDiscovered(ctx); err != nil {
		return nil, err
	}
	params.Limit = 0
	sqlText, err := e.builder.Build(params)
	if err != nil {
		return nil, fmt.Errorf("compose query: %w", err)
	}
	describeQuery := fmt.Sprintf("DESCRIBE %s LIMIT 0", sqlText)
	rows, err := e.db.QueryContext(ctx, describeQuery)
	if err != nil {
		return nil, &RuntimeExecutionError{SQL: describeQuery, Err: err}
	}
	defer rows.Close()

	describeCols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("describe columns: %w", err)
	}

	var cols []string
	for rows.Next() {
		dest := make([]any, len(describeCols))
		for i := range dest {
			dest[i] = new(any)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("describe scan: %w", err)
		}
		// DuckDB's DESCRIBE returns column_name first.
		if name, ok := (*(dest[0].(*any))).(string); ok {
			cols = append(cols, name)
		}
	}
	return cols, rows.Err()
}

// LookupStack runs a single-row query against the appropriate stack
// stream (spec.md §4.8 lookup_stack).
func (e *Engine) LookupStack(ctx context.Context, hash string, isKernel bool) (string, bool, error) {
	if err := e.ensureDiscovered(ctx); err != nil {
		return "", false, err
	}
	stream := model.StreamUstacks
	col := "ustack_hash"
	symCol := "ustack_syms"
	if isKernel {
		stream = model.StreamKstacks
		col = "kstack_hash"
		symCol = "kstack_syms"
	}
	expr := timefilter.FilesFor(stream, nil, nil, timefilter.Option{DataDir: e.cfg.Datadir})
	query := fmt.Sprintf("SELECT %s FROM read_csv('%s', union_by_name=true) WHERE %s = '%s' LIMIT 1",
		symCol, expr, col, sqlQuote(hash))

	row := e.db.QueryRowContext(ctx, query)
	var syms sql.NullString
	if err := row.Scan(&syms); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, &RuntimeExecutionError{SQL: query, Err: err}
	}
	if !syms.Valid {
		return "", false, nil
	}
	return syms.String, true, nil
}

func sqlQuote(v string) string {
	out := ""
	for _, r := range v {
		if r == '\'' {
			out += "''"
			continue
		}
		out += string(r)
	}
	return out
}

// run executes sqlText and assembles a typed Result (spec.md §6.3).
func (e *Engine) run(ctx context.Context, sqlText string) (*model.Result, error) {
	start := time.Now()
	rows, err := e.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, &RuntimeExecutionError{SQL: sqlText, Err: err}
	}
	defer rows.Close()

	colNames, err := rows.Columns()
	if err != nil {
		return nil, &RuntimeExecutionError{SQL: sqlText, Err: err}
	}

	var resultRows []*model.Row
	for rows.Next() {
		scanDest := make([]any, len(colNames))
		for i := range scanDest {
			scanDest[i] = new(any)
		}
		if err := rows.Scan(scanDest...); err != nil {
			return nil, &RuntimeExecutionError{SQL: sqlText, Err: err}
		}
		row := model.NewRow()
		for i, name := range colNames {
			row.Set(name, *(scanDest[i].(*any)))
		}
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &RuntimeExecutionError{SQL: sqlText, Err: err}
	}

	return &model.Result{
		Columns:  colNames,
		Rows:     resultRows,
		ElapsedS: time.Since(start).Seconds(),
		SQL:      sqlText,
	}, nil
}

// RuntimeExecutionError wraps a runtime SQL rejection with its
// originating SQL text attached for logging (spec.md §7 kind 3: not
// recovered, surfaced to the caller).
type RuntimeExecutionError struct {
	SQL string
	Err error
}

func (e *RuntimeExecutionError) Error() string {
	return fmt.Sprintf("runtime execution error: %v", e.Err)
}

func (e *RuntimeExecutionError) Unwrap() error { return e.Err }
