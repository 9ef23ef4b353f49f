// Package histogram implements the Histogram & Heatmap Aggregator
// (spec.md §4.7): it consumes the compact histogram string form
// "b:c:t:m,b:c:t:m,..." emitted by the Query Builder and produces a
// flat table model, a gap-filled heatmap model, and a sparkline string.
//
// Grounded on the teacher's internal/executor/parsers.go ParseHistogram
// / ErrNoHistogramData recovery idiom (ParseError-class recovery renders
// "-"/0 instead of propagating, spec.md §7) and on xtop/core/heatmap.py
// (original_source/) for the gap-fill/normalisation semantics.
package histogram

import (
	"strconv"
	"strings"

	"github.com/tanelpoder/xtop-engine/internal/bucket"
)

// ErrEmptyHistogram is the sentinel a caller can test for with errors.Is
// to distinguish "no data" from a structurally broken string.
type ErrEmptyHistogram struct{}

func (ErrEmptyHistogram) Error() string { return "histogram string is empty" }

// Parse decodes the compact "b:c:t:m,..." form into ordered bucket.Row
// values. A malformed entry is skipped with the row dropped rather than
// the whole parse failing -- ParseError-class recovery (spec.md §7):
// callers render the remaining rows and a 0/"-" is the caller's
// responsibility for any derived aggregate that becomes undefined.
func Parse(s string) ([]bucket.Row, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptyHistogram{}
	}
	entries := strings.Split(s, ",")
	rows := make([]bucket.Row, 0, len(entries))
	for _, e := range entries {
		row, ok := parseEntry(e)
		if !ok {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseEntry(e string) (bucket.Row, bool) {
	fields := strings.Split(e, ":")
	if len(fields) != 4 {
		return bucket.Row{}, false
	}
	b, err1 := strconv.ParseInt(fields[0], 10, 64)
	c, err2 := strconv.ParseInt(fields[1], 10, 64)
	t, err3 := strconv.ParseFloat(fields[2], 64)
	m, err4 := strconv.ParseFloat(fields[3], 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return bucket.Row{}, false
	}
	return bucket.Row{BucketUs: b, Count: c, EstTimeS: t, GroupMax: m}, true
}

// Serialize re-renders rows in the same "b:c:t:m,..." form, ordered by
// bucket_us ascending (the order the Query Builder's STRING_AGG ... ORDER
// BY bucket_us already guarantees; Serialize re-sorts defensively so the
// round trip in spec.md §8.1 holds regardless of input order).
func Serialize(rows []bucket.Row) string {
	sorted := append([]bucket.Row(nil), rows...)
	sortRowsByBucket(sorted)

	parts := make([]string, len(sorted))
	for i, r := range sorted {
		parts[i] = strconv.FormatInt(r.BucketUs, 10) + ":" +
			strconv.FormatInt(r.Count, 10) + ":" +
			strconv.FormatFloat(r.EstTimeS, 'g', -1, 64) + ":" +
			strconv.FormatFloat(r.GroupMax, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func sortRowsByBucket(rows []bucket.Row) {
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && rows[j-1].BucketUs > rows[j].BucketUs; j-- {
			rows[j-1], rows[j] = rows[j], rows[j-1]
		}
	}
}
