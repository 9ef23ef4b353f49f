package querybuilder

import (
	"fmt"
	"strings"

	"github.com/tanelpoder/xtop-engine/internal/model"
)

// HistogramKind selects which side's duration the drill-down aggregates.
type HistogramKind string

const (
	KindSclat HistogramKind = "sclat"
	KindIolat HistogramKind = "iolat"
)

// BuildHistogramDrillDown reuses the enriched/base CTE construction but
// projects raw bucket rows instead of the aggregate table (spec.md
// §4.5.6): bucket_us, COUNT(*), COUNT(*)*bucket_us/1e6 when granularity
// is None, or time-bucket columns prepended and grouped/ordered first
// when a granularity is given.
func (b *Builder) BuildHistogramDrillDown(kind HistogramKind, where string, tr model.TimeRange, gran model.Granularity) (string, error) {
	prefix := "sc"
	needed := map[model.Stream]bool{model.StreamSyscend: true}
	if kind == KindIolat {
		prefix = "io"
		needed = map[model.Stream]bool{model.StreamIorqend: true}
	}
	bucketCol := prefix + "_bucket_us"

	enriched, err := b.buildEnrichedSamples(tr)
	if err != nil {
		return "", err
	}
	base := b.buildBaseSamples(needed, kind == KindSclat, kind == KindIolat, where, tr)
	ctes := []Cte{enriched, base}

	timeCols := timeBucketCols(gran)

	selectList := append(append([]string{}, timeCols...), bucketCol, "COUNT(*) AS count",
		fmt.Sprintf("COUNT(*) * %s / 1000000.0 AS est_time_s", bucketCol))
	groupOrder := append(append([]string{}, timeCols...), bucketCol)

	final := fmt.Sprintf(
		"SELECT %s\nFROM base_samples\nWHERE %s IS NOT NULL\nGROUP BY %s\nORDER BY %s",
		strings.Join(selectList, ",\n  "), bucketCol, strings.Join(groupOrder, ", "), strings.Join(groupOrder, ", "))

	return render(ctes, final), nil
}

// timeBucketCols returns the HH / HH,MI / HH,MI,S10 projection list
// demanded by a drill-down granularity (spec.md §4.5.6).
func timeBucketCols(gran model.Granularity) []string {
	switch gran {
	case model.GranularityHour:
		return []string{"hh"}
	case model.GranularityMinute:
		return []string{"hh", "mi"}
	case model.GranularityTenSecond:
		return []string{"hh", "mi", "s10"}
	default:
		return nil
	}
}
