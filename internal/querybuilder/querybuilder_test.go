package querybuilder

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tanelpoder/xtop-engine/internal/fragments"
	"github.com/tanelpoder/xtop-engine/internal/model"
)

func newTestBuilder() *Builder {
	return New("/data", fragments.NewLoader(), nil, zerolog.Nop())
}

func TestBuildSimplestQuery(t *testing.T) {
	b := newTestBuilder()
	sql, err := b.Build(model.QueryParams{GroupCols: []string{"state"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(sql, "enriched_samples") {
		t.Error("missing enriched_samples CTE")
	}
	if !strings.Contains(sql, "base_samples") {
		t.Error("missing base_samples CTE")
	}
	if !strings.Contains(sql, "GROUP BY state") {
		t.Error("missing GROUP BY state")
	}
	if !strings.Contains(sql, "ORDER BY samples DESC") {
		t.Error("missing deterministic top-n ORDER BY")
	}
}

func TestBuildRemovesAggregatePseudoColsFromGroupBy(t *testing.T) {
	b := newTestBuilder()
	sql, err := b.Build(model.QueryParams{GroupCols: []string{"state", "samples", "avg_threads"}})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(sql, "GROUP BY state, samples") {
		t.Error("aggregate pseudo-columns should be removed from GROUP BY")
	}
}

func TestBuildHistogramAddsCtes(t *testing.T) {
	b := newTestBuilder()
	sql, err := b.Build(model.QueryParams{
		GroupCols:   []string{"state", "syscall"},
		LatencyCols: []string{"sclat_histogram"},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"sc_bucket_counts", "sc_bucket_with_max", "sample_counts", "sclat_histogram"} {
		if !strings.Contains(sql, want) {
			t.Errorf("expected %q in composed SQL", want)
		}
	}
}

func TestBuildHistogramTakesSamplesFromSampleCounts(t *testing.T) {
	b := newTestBuilder()
	sql, err := b.Build(model.QueryParams{
		GroupCols:   []string{"state"},
		LatencyCols: []string{"sclat_histogram"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sql, "MAX(sample_counts.samples) AS samples") {
		t.Error("samples must come from sample_counts, not COUNT(*), to avoid histogram row fan-out")
	}
	// sample_counts itself counts with COUNT(*) AS samples; any second
	// occurrence would be an outer re-count over the histogram bucket rows.
	if n := strings.Count(sql, "COUNT(*) AS samples"); n != 1 {
		t.Errorf("COUNT(*) AS samples should appear only in the sample_counts CTE, found %d occurrences; an outer COUNT(*) would double-count across joined histogram bucket rows", n)
	}
}

func TestBuildHistogramColumnIsAggregated(t *testing.T) {
	b := newTestBuilder()
	sql, err := b.Build(model.QueryParams{
		GroupCols:   []string{"state"},
		LatencyCols: []string{"sclat_histogram", "iolat_histogram"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sql, "ANY_VALUE(sc_bucket_with_max.sc_histogram) AS sclat_histogram") {
		t.Error("sclat_histogram must be wrapped in an aggregate to satisfy GROUP BY")
	}
	if !strings.Contains(sql, "ANY_VALUE(io_bucket_with_max.io_histogram) AS iolat_histogram") {
		t.Error("iolat_histogram must be wrapped in an aggregate to satisfy GROUP BY")
	}
}

func TestRenderMetricArbitraryPercentile(t *testing.T) {
	b := newTestBuilder()
	got := b.renderMetric("sc.p999_us")
	if !strings.Contains(got, "PERCENTILE_CONT(0.999)") {
		t.Errorf("renderMetric(sc.p999_us) = %q, want PERCENTILE_CONT(0.999)", got)
	}
}

func TestBuildAvgThreadsFallsBackWithoutRange(t *testing.T) {
	b := newTestBuilder()
	sql, err := b.Build(model.QueryParams{GroupCols: []string{"state"}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sql, "COUNT(*) AS avg_threads") {
		t.Error("avg_threads should degrade to COUNT(*) without a time range")
	}
}

func TestBuildAvgThreadsWithRange(t *testing.T) {
	b := newTestBuilder()
	low, high := int64(1000), int64(4600) // 3600s elapsed
	sql, err := b.Build(model.QueryParams{
		GroupCols: []string{"state"},
		TimeRange: model.TimeRange{Low: &low, High: &high},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sql, "avg_threads") || strings.Contains(sql, "COUNT(*) AS avg_threads") {
		t.Error("avg_threads should divide by elapsed seconds when range is bounded")
	}
}

func TestBuildWhereClauseWrappedInParens(t *testing.T) {
	b := newTestBuilder()
	sql, err := b.Build(model.QueryParams{GroupCols: []string{"state"}, Where: "state = 'RUN'"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sql, "(state = 'RUN')") {
		t.Error("WHERE clause should be wrapped in parentheses")
	}
}

func TestBuildHistogramDrillDownNoGranularity(t *testing.T) {
	b := newTestBuilder()
	sql, err := b.BuildHistogramDrillDown(KindSclat, "", model.TimeRange{}, model.GranularityNone)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sql, "sc_bucket_us IS NOT NULL") {
		t.Error("drill-down must exclude NULL buckets")
	}
	// enriched_samples always carries the hh computed column, so look at
	// the final drill-down SELECT list only.
	if strings.Contains(sql, "SELECT hh") {
		t.Error("no granularity should not prepend time-bucket columns")
	}
}

func TestBuildHistogramDrillDownWithGranularity(t *testing.T) {
	b := newTestBuilder()
	sql, err := b.BuildHistogramDrillDown(KindIolat, "", model.TimeRange{}, model.GranularityMinute)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sql, "hh, mi") {
		t.Error("minute granularity should group/order by hh, mi first")
	}
}

func TestBuildEnrichedSamplesSourcesFromMaterializedTable(t *testing.T) {
	b := newTestBuilder()
	b.MaterializedEnrichedTable = "xtop_materialized_enriched_samples"

	sql, err := b.Build(model.QueryParams{GroupCols: []string{"state"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(sql, "SELECT * FROM xtop_materialized_enriched_samples") {
		t.Error("enriched_samples CTE should source from the materialized table when set")
	}
	if strings.Contains(sql, "read_csv") {
		t.Error("materialized branch should not re-glob source files")
	}
}

func TestEnrichedSamplesSQLIgnoresMaterializedTable(t *testing.T) {
	b := newTestBuilder()
	b.MaterializedEnrichedTable = "some_temp_table"

	sql, err := b.EnrichedSamplesSQL(model.TimeRange{})
	if err != nil {
		t.Fatalf("EnrichedSamplesSQL: %v", err)
	}
	if strings.Contains(sql, "some_temp_table") {
		t.Error("EnrichedSamplesSQL must compose the real SELECT, not the materialized passthrough, so callers can build the temp table from it")
	}
}
