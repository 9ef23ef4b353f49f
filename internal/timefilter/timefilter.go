// Package timefilter implements the Time-Filter (spec.md §4.1): a pure
// function from a stream name and an optional instant range to a
// runtime-readable glob/union expression naming the minimum set of
// hourly shards overlapping that range. It never touches the
// filesystem or the runtime; it only computes a string.
package timefilter

import (
	"fmt"
	"time"

	"github.com/tanelpoder/xtop-engine/internal/model"
)

// Option configures FilesFor's behaviour around which extensions a
// caller's datadir actually contains. ParquetHours, when non-nil, is
// consulted to decide whether a given hour is covered by a parquet
// shard (and therefore its CSV counterpart must be excluded from the
// UNION ALL to avoid double-counting, per spec.md §4.1).
type Option struct {
	DataDir      string
	ParquetHours func(stream model.Stream, day string, hour int) bool
}

// FilesFor returns the glob/union source expression naming the hourly
// shards of stream overlapping [low, high). Both bounds nil means
// "every hour ever captured" (spec.md §4.1 rule 1).
func FilesFor(stream model.Stream, low, high *time.Time, opt Option) string {
	if low == nil || high == nil {
		return unconstrainedGlob(opt.DataDir, stream)
	}

	l := low.UTC()
	h := high.UTC()
	if !sameCalendarDay(l, h) {
		// Different days / large ranges: fall back to the unconstrained
		// glob and let the engine's timestamp predicate do the precise
		// filtering (spec.md §4.1 rule 3; multi-day widening is
		// deliberately not attempted, see SPEC_FULL.md/DESIGN.md Open
		// Question 3).
		return unconstrainedGlob(opt.DataDir, stream)
	}

	day := l.Format("2006-01-02")
	loHour := l.Hour()
	hiHour := h.Hour()
	if h.Hour() == 0 && h.Minute() == 0 && h.Second() == 0 && !h.Equal(l) {
		// high is exactly midnight of the next day: the half-open range
		// [low, high) still covers hour 23 of `day` fully.
		hiHour = 23
	}
	hourGlob := hourRangeGlob(loHour, hiHour)

	return dayExpression(opt, stream, day, hourGlob, loHour, hiHour)
}

func sameCalendarDay(l, h time.Time) bool {
	ly, lm, ld := l.Date()
	hy, hm, hd := h.Date()
	if ly == hy && lm == hm && ld == hd {
		return true
	}
	// A half-open range ending exactly at next-day midnight still
	// belongs to a single day of shards.
	if h.Hour() == 0 && h.Minute() == 0 && h.Second() == 0 {
		prev := h.AddDate(0, 0, -1)
		py, pm, pd := prev.Date()
		return py == ly && pm == lm && pd == ld
	}
	return false
}

// hourRangeGlob renders an hour range as a character-class glob where
// possible (".0[3-5]."), falling back to ".??." when the range straddles
// a tens boundary (spec.md §4.1 rule 2).
func hourRangeGlob(lo, hi int) string {
	if lo == hi {
		return fmt.Sprintf(".%02d.", lo)
	}
	loTens, loOnes := lo/10, lo%10
	hiTens, hiOnes := hi/10, hi%10
	if loTens == hiTens {
		return fmt.Sprintf(".%d[%d-%d].", loTens, loOnes, hiOnes)
	}
	return ".??."
}

func unconstrainedGlob(datadir string, stream model.Stream) string {
	return fmt.Sprintf("%s/xcapture_%s_*.csv", datadir, stream)
}

// dayExpression builds the per-day source expression, preferring parquet
// shards over CSV and UNION ALL-ing the two while excluding CSV hours
// already covered by parquet (spec.md §4.1 rule 4).
func dayExpression(opt Option, stream model.Stream, day, hourGlob string, loHour, hiHour int) string {
	parquetGlob := fmt.Sprintf("%s/xcapture_%s_%s%sparquet", opt.DataDir, stream, day, hourGlob)
	csvGlob := fmt.Sprintf("%s/xcapture_%s_%s%scsv", opt.DataDir, stream, day, hourGlob)

	if opt.ParquetHours == nil {
		// No authoritative knowledge of which hours have parquet: union
		// both globs. DuckDB's read_csv/read_parquet simply return zero
		// rows for a glob that matches nothing.
		return unionAll(
			selectFrom("read_parquet", parquetGlob),
			selectFrom("read_csv", csvGlob),
		)
	}

	var parquetHours, csvHours []int
	for hr := loHour; hr <= hiHour; hr++ {
		if opt.ParquetHours(stream, day, hr) {
			parquetHours = append(parquetHours, hr)
		} else {
			csvHours = append(csvHours, hr)
		}
	}

	var parts []string
	if len(parquetHours) > 0 {
		parts = append(parts, selectFrom("read_parquet", globForHours(opt.DataDir, stream, day, parquetHours, "parquet")))
	}
	if len(csvHours) > 0 {
		parts = append(parts, selectFrom("read_csv", globForHours(opt.DataDir, stream, day, csvHours, "csv")))
	}
	if len(parts) == 0 {
		return selectFrom("read_csv", csvGlob)
	}
	return unionAll(parts...)
}

func globForHours(datadir string, stream model.Stream, day string, hours []int, ext string) string {
	if len(hours) == 1 {
		return fmt.Sprintf("%s/xcapture_%s_%s.%02d.%s", datadir, stream, day, hours[0], ext)
	}
	// Multiple non-contiguous hours: DuckDB accepts a list literal glob
	// via an explicit file list instead of a single pattern.
	paths := make([]string, len(hours))
	for i, hr := range hours {
		paths[i] = fmt.Sprintf("'%s/xcapture_%s_%s.%02d.%s'", datadir, stream, day, hr, ext)
	}
	return "[" + joinComma(paths) + "]"
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

func selectFrom(readerFn, expr string) string {
	if len(expr) > 0 && expr[0] == '[' {
		return fmt.Sprintf("%s(%s)", readerFn, expr)
	}
	return fmt.Sprintf("%s('%s')", readerFn, expr)
}

func unionAll(parts ...string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " UNION ALL "
		}
		out += p
	}
	return out
}
