// Package peek implements the Peek Providers (spec.md §4.10): given a
// focused (row, column), derive a specialised sub-query or lookup and
// return a read-only data model. Peek providers never mutate navigation
// state (spec.md §4.10, §9 design notes item 7: "Peek providers are
// plain functions taking (engine, row, column, frame) and returning
// data models. The UI layer owns no SQL.").
//
// Grounded on xtop/core/peek_providers.py (original_source/) for the
// four peek kinds and on the teacher's internal/executor/parsers.go
// ParseFoldedStacks (";"-split stack frames) for the stack-trace peek.
package peek

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/buger/jsonparser"

	"github.com/tanelpoder/xtop-engine/internal/bucket"
	"github.com/tanelpoder/xtop-engine/internal/histogram"
	"github.com/tanelpoder/xtop-engine/internal/model"
	"github.com/tanelpoder/xtop-engine/internal/navigation"
	"github.com/tanelpoder/xtop-engine/internal/querybuilder"
)

// Engine is the narrow slice of internal/engine.Engine a peek provider
// needs; defined here so this package never imports the engine facade
// directly (keeping peek providers genuinely "plain functions").
type Engine interface {
	RunHistogramDrillDown(ctx context.Context, kind querybuilder.HistogramKind, where string, tr model.TimeRange, gran model.Granularity) (*model.Result, error)
	LookupStack(ctx context.Context, hash string, isKernel bool) (string, bool, error)
}

// rowWhere derives a WHERE predicate scoping a peek to the exact group-
// column values of one result row, ANDed with the current frame's
// filters (spec.md §4.10 "Histogram peek").
func rowWhere(row *model.Row, groupCols []string, frame model.Frame) string {
	var clauses []string
	for _, col := range groupCols {
		val, ok := row.Get(col)
		if !ok {
			continue
		}
		clauses = append(clauses, fmt.Sprintf("%s = %s", col, quoteValue(val)))
	}
	frameWhere := navigation.Where(frame)
	if frameWhere != "1=1" {
		clauses = append(clauses, frameWhere)
	}
	if len(clauses) == 0 {
		return "1=1"
	}
	return strings.Join(clauses, " AND ")
}

func quoteValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(t, "'", "''") + "'"
	default:
		return fmt.Sprintf("%v", t)
	}
}

// HistogramTableData is the result of a histogram peek: a flat,
// row-scoped breakdown via internal/histogram.Table.
type HistogramTableData struct {
	Rows []histogram.TableRow
}

// Histogram builds a drill-down query scoped by the row's group-column
// values and the current frame's filters, then aggregates via C7
// (spec.md §4.10 "Histogram peek").
func Histogram(ctx context.Context, eng Engine, row *model.Row, groupCols []string, frame model.Frame, kind querybuilder.HistogramKind) (*HistogramTableData, error) {
	where := rowWhere(row, groupCols, frame)
	result, err := eng.RunHistogramDrillDown(ctx, kind, where, model.TimeRange{}, model.GranularityNone)
	if err != nil {
		return nil, err
	}
	rows := rowsToBucketRows(result)
	return &HistogramTableData{Rows: histogram.Table(rows)}, nil
}

// Heatmap builds the same drill-down with a granularity argument; the
// caller may re-invoke this with a different granularity to cycle
// through hour/minute/ten-second resolutions (spec.md §4.10 "Time-series
// heatmap peek").
func Heatmap(ctx context.Context, eng Engine, row *model.Row, groupCols []string, frame model.Frame, kind querybuilder.HistogramKind, gran model.Granularity) (*histogram.Heatmap, error) {
	where := rowWhere(row, groupCols, frame)
	result, err := eng.RunHistogramDrillDown(ctx, kind, where, model.TimeRange{}, gran)
	if err != nil {
		return nil, err
	}
	points := rowsToPoints(result, gran)
	return histogram.Build(points, gran), nil
}

// StackFrames is the frame list of a stack trace peek, in the order the
// stack stream stores the ";"-separated symbols.
type StackFrames struct {
	Frames []string
}

// StackTrace calls engine.LookupStack and splits the result on ";" to
// yield ordered frames (spec.md §4.10 "Stack trace peek").
func StackTrace(ctx context.Context, eng Engine, hash string, isKernel bool) (*StackFrames, error) {
	syms, found, err := eng.LookupStack(ctx, hash, isKernel)
	if err != nil {
		return nil, err
	}
	if !found || syms == "" {
		return &StackFrames{}, nil
	}
	return &StackFrames{Frames: strings.Split(syms, ";")}, nil
}

// JSONPeek is the result of a JSON peek: either pretty-printed text, or
// the raw text plus an error location when parsing failed.
type JSONPeek struct {
	Pretty   string
	RawText  string
	ParseErr string
}

// JSON parses the cell's string as JSON and pretty-prints it with
// 2-space indent; on parse error it returns the raw text and the error
// (spec.md §4.10 "JSON peek", §7 ParseError: recovered locally).
func JSON(raw string) *JSONPeek {
	// Cheap structural validation with jsonparser before paying for a
	// full encoding/json unmarshal + re-encode below.
	if _, _, _, err := jsonparser.Get([]byte(raw)); err != nil {
		return &JSONPeek{RawText: raw, ParseErr: err.Error()}
	}
	var buf strings.Builder
	var generic any
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return &JSONPeek{RawText: raw, ParseErr: err.Error()}
	}
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(generic); err != nil {
		return &JSONPeek{RawText: raw, ParseErr: err.Error()}
	}
	return &JSONPeek{Pretty: strings.TrimRight(buf.String(), "\n")}
}

func rowsToBucketRows(result *model.Result) []bucket.Row {
	var out []bucket.Row
	for _, r := range result.Rows {
		b, _ := r.Get("bucket_us")
		c, _ := r.Get("count")
		e, _ := r.Get("est_time_s")
		out = append(out, bucket.Row{
			BucketUs: toInt64(b),
			Count:    toInt64(c),
			EstTimeS: toFloat64(e),
		})
	}
	return out
}

func rowsToPoints(result *model.Result, gran model.Granularity) []histogram.Point {
	var out []histogram.Point
	for _, r := range result.Rows {
		b, _ := r.Get("bucket_us")
		c, _ := r.Get("count")
		ts := timeKeyOf(r, gran)
		out = append(out, histogram.Point{TimestampUnix: ts, BucketUs: toInt64(b), Count: toInt64(c)})
	}
	return out
}

// timeKeyOf reconstructs a synthetic unix-seconds key from the hh/mi/s10
// projection columns a drill-down emits, sufficient for relative
// ordering and gap-filling within a single day.
func timeKeyOf(r *model.Row, gran model.Granularity) int64 {
	hh, _ := r.Get("hh")
	mi, _ := r.Get("mi")
	s10, _ := r.Get("s10")
	var seconds int64
	seconds += toInt64(hh) * 3600
	if gran == model.GranularityMinute || gran == model.GranularityTenSecond {
		seconds += toInt64(mi) * 60
	}
	if gran == model.GranularityTenSecond {
		seconds += toInt64(s10)
	}
	return seconds
}

func toInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int32:
		return int64(t)
	case int:
		return int64(t)
	case float64:
		return int64(t)
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int64:
		return float64(t)
	default:
		return 0
	}
}
