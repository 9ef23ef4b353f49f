// Package querybuilder implements the Query Builder (spec.md §4.5), the
// heart of the engine: it composes a single layered CTE statement from
// (group columns, WHERE clause, time range, latency columns, limit)
// using the Time-Filter, Schema Registry, Fragment Loader and Column
// Router (C1-C4).
//
// Grounded on xtop/core/query_builder.py (original_source/) for the
// layered-CTE shape and on spec.md §9 design notes item 1: replace
// textual f-string composition with a structural Cte value type plus a
// single render step (see cte.go).
package querybuilder

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tanelpoder/xtop-engine/internal/fragments"
	"github.com/tanelpoder/xtop-engine/internal/model"
	"github.com/tanelpoder/xtop-engine/internal/router"
	"github.com/tanelpoder/xtop-engine/internal/schema"
	"github.com/tanelpoder/xtop-engine/internal/timefilter"
)

// aggregatePseudoCols are removed from the effective GROUP BY list
// (spec.md §4.5.3).
var aggregatePseudoCols = map[string]bool{
	"samples":          true,
	"avg_threads":      true,
	"sclat_histogram":  true,
	"iolat_histogram":  true,
}

// Builder composes SQL text. It holds no runtime connection; Registry
// and Loader are read-only collaborators supplied by the Engine Facade.
type Builder struct {
	Datadir string
	Frags   *fragments.Loader
	Schema  *schema.Registry
	Log     zerolog.Logger

	// MaterializedEnrichedTable, when non-empty, names a temp table the
	// Engine Facade has already materialized enriched_samples into
	// (spec.md §6.2 --materialize); buildEnrichedSamples then sources
	// enriched_samples from that table instead of re-globbing and
	// re-computing columns over the raw CSV/Parquet shards.
	MaterializedEnrichedTable string
}

// New returns a Builder ready to compose queries.
func New(datadir string, frags *fragments.Loader, reg *schema.Registry, log zerolog.Logger) *Builder {
	return &Builder{Datadir: datadir, Frags: frags, Schema: reg, Log: log}
}

// Build composes the main query (spec.md §4.5.1-§4.5.5).
func (b *Builder) Build(p model.QueryParams) (string, error) {
	groupCols := model.LowerAll(p.GroupCols)
	effectiveGroup := filterAggregatePseudoCols(groupCols)

	latCols := model.LowerAll(p.LatencyCols)
	wantSclatHist := containsStr(latCols, string(model.LatSclatHistogram))
	wantIolatHist := containsStr(latCols, string(model.LatIolatHistogram))
	metricCols := filterHistogramCols(latCols)

	allRequested := append(append([]string{}, effectiveGroup...), metricCols...)
	needed := router.SourcesFor(allRequested)
	if wantSclatHist {
		needed[model.StreamSyscend] = true
	}
	if wantIolatHist {
		needed[model.StreamIorqend] = true
	}

	enriched, err := b.buildEnrichedSamples(p.TimeRange)
	if err != nil {
		return "", err
	}
	base := b.buildBaseSamples(needed, wantSclatHist, wantIolatHist, p.Where, p.TimeRange)

	ctes := []Cte{enriched, base}

	var sampleCountsName = "base_samples"
	anyHistogram := wantSclatHist || wantIolatHist

	var scBucketWithMax, ioBucketWithMax string
	if wantSclatHist {
		scCounts, scMax := b.buildHistogramCtes("sc", effectiveGroup)
		ctes = append(ctes, scCounts, scMax)
		scBucketWithMax = scMax.Name
	}
	if wantIolatHist {
		ioCounts, ioMax := b.buildHistogramCtes("io", effectiveGroup)
		ctes = append(ctes, ioCounts, ioMax)
		ioBucketWithMax = ioMax.Name
	}
	if anyHistogram {
		sc := Cte{
			Name: "sample_counts",
			Body: fmt.Sprintf(
				"SELECT %s, COUNT(*) AS samples\nFROM base_samples\nGROUP BY %s",
				projectionList(effectiveGroup), groupByList(effectiveGroup),
			),
		}
		ctes = append(ctes, sc)
		sampleCountsName = "sample_counts"
	}

	projection := b.buildProjection(effectiveGroup, metricCols, wantSclatHist, wantIolatHist, anyHistogram, p.TimeRange)

	var from strings.Builder
	from.WriteString(fmt.Sprintf("SELECT %s\nFROM %s", projection, sampleCountsName))
	if wantSclatHist {
		from.WriteString(fmt.Sprintf("\nLEFT JOIN %s ON %s", scBucketWithMax, joinOnGroupCols(sampleCountsName, scBucketWithMax, effectiveGroup)))
	}
	if wantIolatHist {
		from.WriteString(fmt.Sprintf("\nLEFT JOIN %s ON %s", ioBucketWithMax, joinOnGroupCols(sampleCountsName, ioBucketWithMax, effectiveGroup)))
	}
	if len(effectiveGroup) > 0 {
		from.WriteString(fmt.Sprintf("\nGROUP BY %s", groupByList(effectiveGroup)))
	}
	from.WriteString("\nORDER BY samples DESC")
	if p.Limit > 0 {
		from.WriteString(fmt.Sprintf("\nLIMIT %d", p.Limit))
	}

	return render(ctes, from.String()), nil
}

func filterAggregatePseudoCols(cols []string) []string {
	var out []string
	for _, c := range cols {
		if !aggregatePseudoCols[c] {
			out = append(out, c)
		}
	}
	return out
}

func filterHistogramCols(cols []string) []string {
	var out []string
	for _, c := range cols {
		if c == string(model.LatSclatHistogram) || c == string(model.LatIolatHistogram) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// buildEnrichedSamples renders the enriched_samples CTE: the samples
// source expression aliased `s`, plus the computed_columns fragment,
// time-clipped when a range is given (spec.md §4.5.1, §4.5.4). When
// MaterializedEnrichedTable is set, it sources from that temp table
// instead, skipping the glob/computed-columns work entirely.
func (b *Builder) buildEnrichedSamples(tr model.TimeRange) (Cte, error) {
	if b.MaterializedEnrichedTable != "" {
		return Cte{Name: "enriched_samples", Body: "SELECT * FROM " + b.MaterializedEnrichedTable}, nil
	}
	body, err := b.enrichedSamplesSQL(tr)
	if err != nil {
		return Cte{}, err
	}
	return Cte{Name: "enriched_samples", Body: body}, nil
}

// EnrichedSamplesSQL renders the full enriched_samples SELECT as a
// standalone statement (not wrapped in a CTE), for the Engine Facade to
// materialize into a temp table ahead of repeated queries/peeks over the
// same frame (spec.md §6.2 --materialize).
func (b *Builder) EnrichedSamplesSQL(tr model.TimeRange) (string, error) {
	return b.enrichedSamplesSQL(tr)
}

func (b *Builder) enrichedSamplesSQL(tr model.TimeRange) (string, error) {
	computed, err := b.Frags.Load(fragments.ComputedColumns)
	if err != nil {
		return "", err
	}

	var low, high *time.Time
	if tr.Low != nil {
		t := time.Unix(*tr.Low, 0).UTC()
		low = &t
	}
	if tr.High != nil {
		t := time.Unix(*tr.High, 0).UTC()
		high = &t
	}
	expr := timefilter.FilesFor(model.StreamSamples, low, high, timefilter.Option{DataDir: b.Datadir})

	if !strings.Contains(expr, "read_csv") && !strings.Contains(expr, "read_parquet") {
		return fmt.Sprintf("SELECT s.*,\n%s\nFROM %s s", indentFragment(computed), expr), nil
	}
	return fmt.Sprintf("SELECT s.*,\n%s\nFROM read_csv('%s', union_by_name=true) s",
		indentFragment(computed), expr), nil
}

func indentFragment(frag string) string {
	lines := strings.Split(strings.TrimRight(frag, "\n"), "\n")
	var out []string
	for _, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "--") {
			continue
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}

// buildBaseSamples LEFT JOINs each required, schema-confirmed stream
// onto enriched_samples, applies the time predicate and caller WHERE,
// and projects NULL AS <col> for any column whose source stream is
// missing a join key (spec.md §4.5.5 resilience).
func (b *Builder) buildBaseSamples(needed map[model.Stream]bool, wantSclat, wantIolat bool, where string, tr model.TimeRange) Cte {
	var sel strings.Builder
	sel.WriteString("SELECT es.*")

	var joins strings.Builder

	if needed[model.StreamSyscend] && b.joinable(model.StreamSyscend, "tid", "sysc_seq_num") {
		sel.WriteString(",\n  sc.duration_ns AS sc_duration_ns,\n  sc.type AS sc_type")
		joins.WriteString("\nLEFT JOIN syscend sc ON es.tid = sc.tid AND es.sysc_seq_num = sc.sysc_seq_num")
	} else if needed[model.StreamSyscend] {
		sel.WriteString(",\n  NULL AS sc_duration_ns,\n  NULL AS sc_type")
		b.Log.Warn().Str("stream", "syscend").Msg("required join key missing; skipping join and projecting NULL")
	}

	if needed[model.StreamIorqend] && b.joinable(model.StreamIorqend, "insert_tid", "iorq_seq_num") {
		sel.WriteString(",\n  io.duration_ns AS io_duration_ns,\n  io.bytes AS io_bytes,\n  io.dev_maj AS io_dev_maj,\n  io.dev_min AS io_dev_min")
		joins.WriteString("\nLEFT JOIN iorqend io ON es.tid = io.insert_tid AND es.iorq_seq_num = io.iorq_seq_num")
	} else if needed[model.StreamIorqend] {
		sel.WriteString(",\n  NULL AS io_duration_ns,\n  NULL AS io_bytes,\n  NULL AS io_dev_maj,\n  NULL AS io_dev_min")
		b.Log.Warn().Str("stream", "iorqend").Msg("required join key missing; skipping join and projecting NULL")
	}

	if needed[model.StreamKstacks] && b.joinable(model.StreamKstacks, "kstack_hash") {
		sel.WriteString(",\n  ks.kstack_syms AS kstack_syms")
		joins.WriteString("\nLEFT JOIN kstacks ks ON es.kstack_hash = ks.kstack_hash")
	} else if needed[model.StreamKstacks] {
		sel.WriteString(",\n  NULL AS kstack_syms")
	}

	if needed[model.StreamUstacks] && b.joinable(model.StreamUstacks, "ustack_hash") {
		sel.WriteString(",\n  us.ustack_syms AS ustack_syms")
		joins.WriteString("\nLEFT JOIN ustacks us ON es.ustack_hash = us.ustack_hash")
	} else if needed[model.StreamUstacks] {
		sel.WriteString(",\n  NULL AS ustack_syms")
	}

	if needed[model.StreamPartitions] && needed[model.StreamIorqend] && b.joinable(model.StreamPartitions, "dev_maj", "dev_min") {
		sel.WriteString(",\n  p.devname AS devname")
		joins.WriteString("\nLEFT JOIN partitions p ON io.dev_maj = p.dev_maj AND io.dev_min = p.dev_min")
	} else if needed[model.StreamPartitions] {
		sel.WriteString(",\n  NULL AS devname")
	}

	if wantSclat {
		sel.WriteString(",\n  CASE WHEN sc_duration_ns IS NOT NULL AND sc_duration_ns > 0\n" +
			"    THEN CAST(POW(2, CEIL(LOG2(CEIL(sc_duration_ns / 1000.0)))) AS BIGINT) ELSE NULL END AS sc_bucket_us")
	}
	if wantIolat {
		sel.WriteString(",\n  CASE WHEN io_duration_ns IS NOT NULL AND io_duration_ns > 0\n" +
			"    THEN CAST(POW(2, CEIL(LOG2(CEIL(io_duration_ns / 1000.0)))) AS BIGINT) ELSE NULL END AS io_bucket_us")
	}

	var whereParts []string
	if tr.Low != nil {
		whereParts = append(whereParts, fmt.Sprintf("es.timestamp >= TIMESTAMP '%s'", time.Unix(*tr.Low, 0).UTC().Format("2006-01-02 15:04:05")))
	}
	if tr.High != nil {
		whereParts = append(whereParts, fmt.Sprintf("es.timestamp < TIMESTAMP '%s'", time.Unix(*tr.High, 0).UTC().Format("2006-01-02 15:04:05")))
	}
	if strings.TrimSpace(where) != "" {
		whereParts = append(whereParts, "("+where+")")
	}

	body := sel.String() + "\nFROM enriched_samples es" + joins.String()
	if len(whereParts) > 0 {
		body += "\nWHERE " + strings.Join(whereParts, " AND ")
	}
	return Cte{Name: "base_samples", Body: body}
}

// joinable reports whether every key column required for a join is
// present in the source stream's discovered schema (spec.md §4.5.5).
func (b *Builder) joinable(stream model.Stream, keys ...string) bool {
	if b.Schema == nil {
		return true // no registry wired (e.g. unit test): optimistic
	}
	for _, k := range keys {
		if !b.Schema.Has(stream, k) {
			return false
		}
	}
	return true
}

// buildHistogramCtes renders the `<prefix>_bucket_counts` and
// `<prefix>_bucket_with_max` CTE pair for one of sc/io (spec.md §4.5.1,
// §4.5.2).
func (b *Builder) buildHistogramCtes(prefix string, groupCols []string) (counts, withMax Cte) {
	bucketCol := prefix + "_bucket_us"
	durCol := prefix + "_duration_ns"

	proj := projectionList(groupCols)
	if proj != "" {
		proj += ", "
	}
	countsBody := fmt.Sprintf(
		"SELECT %s%s,\n  COUNT(*) AS count,\n  COUNT(*) * %s / 1000000.0 AS est_time_s\n"+
			"FROM base_samples\nWHERE %s IS NOT NULL AND %s > 0 AND %s IS NOT NULL\nGROUP BY %s%s",
		proj, bucketCol, bucketCol, durCol, durCol, bucketCol, groupByList(groupCols), suffixIfNonEmpty(groupCols, bucketCol))
	counts = Cte{Name: prefix + "_bucket_counts", Body: countsBody}

	withMaxBody := fmt.Sprintf(
		"SELECT *,\n  MAX(est_time_s) OVER (%s) AS group_max,\n"+
			"  STRING_AGG(%s || ':' || count || ':' || est_time_s || ':' || CAST(MAX(est_time_s) OVER (%s) AS VARCHAR), ',' ORDER BY %s) OVER (%s) AS %s_histogram\n"+
			"FROM %s",
		partitionByClause(groupCols), bucketCol, partitionByClause(groupCols), bucketCol, partitionByClause(groupCols), prefix, counts.Name)
	withMax = Cte{Name: prefix + "_bucket_with_max", Body: withMaxBody}
	return counts, withMax
}

func partitionByClause(groupCols []string) string {
	if len(groupCols) == 0 {
		return ""
	}
	return "PARTITION BY " + groupByList(groupCols)
}

func suffixIfNonEmpty(groupCols []string, col string) string {
	if len(groupCols) == 0 {
		return ""
	}
	return ", " + col
}

func projectionList(cols []string) string {
	return strings.Join(cols, ", ")
}

func groupByList(cols []string) string {
	return strings.Join(cols, ", ")
}

func joinOnGroupCols(left, right string, groupCols []string) string {
	if len(groupCols) == 0 {
		return "1=1"
	}
	parts := make([]string, len(groupCols))
	for i, c := range groupCols {
		parts[i] = fmt.Sprintf("%s.%s = %s.%s", left, c, right, c)
	}
	return strings.Join(parts, " AND ")
}

// buildProjection renders the final SELECT list (spec.md §4.5.2):
// samples, avg_threads (degrading to COUNT(*) without a bounded time
// range, see DESIGN.md Open Question 1), rounded percentile/min/avg/max
// metrics for each sc./io. request, and aggregated histogram columns.
// When anyHistogram is set, the outer FROM joins sample_counts against a
// per-bucket histogram CTE (one row per group per bucket), so
// samples/avg_threads are taken from sample_counts itself rather than
// re-counted with COUNT(*), or the histogram row fan-out would multiply
// them.
func (b *Builder) buildProjection(groupCols, metricCols []string, wantSclat, wantIolat, anyHistogram bool, tr model.TimeRange) string {
	parts := append([]string{}, groupCols...)

	samplesExpr := "COUNT(*)"
	if anyHistogram {
		samplesExpr = "MAX(sample_counts.samples)"
	}
	parts = append(parts, fmt.Sprintf("%s AS samples", samplesExpr))

	if tr.Bounded() {
		parts = append(parts, fmt.Sprintf("ROUND(%s / %f, 2) AS avg_threads", samplesExpr, tr.ElapsedSeconds()))
	} else {
		parts = append(parts, fmt.Sprintf("%s AS avg_threads", samplesExpr))
	}

	for _, m := range metricCols {
		parts = append(parts, b.renderMetric(m))
	}

	if wantSclat {
		parts = append(parts, "ANY_VALUE(sc_bucket_with_max.sc_histogram) AS sclat_histogram")
	}
	if wantIolat {
		parts = append(parts, "ANY_VALUE(io_bucket_with_max.io_histogram) AS iolat_histogram")
	}
	return strings.Join(parts, ",\n  ")
}

// renderMetric turns a "sc.p95_us" / "io.avg_us" style requested metric
// into its aggregate SQL expression (spec.md §4.5.2).
func (b *Builder) renderMetric(col string) string {
	var prefix, durCol string
	switch {
	case strings.HasPrefix(col, "sc."):
		prefix, durCol = "sc", "sc_duration_ns"
	case strings.HasPrefix(col, "io."):
		prefix, durCol = "io", "io_duration_ns"
	default:
		return fmt.Sprintf("NULL AS %s", sanitizeAlias(col))
	}
	metric := strings.TrimPrefix(col, prefix+".")
	alias := prefix + "_" + metric

	switch {
	case strings.HasPrefix(metric, "p") && isPercentileSuffix(metric):
		pct := percentileFraction(metric)
		return fmt.Sprintf("ROUND(PERCENTILE_CONT(%s) WITHIN GROUP (ORDER BY %s) / 1000.0, 2) AS %s", pct, durCol, alias)
	case metric == "min_us":
		return fmt.Sprintf("ROUND(MIN(%s) / 1000.0, 2) AS %s", durCol, alias)
	case metric == "avg_us":
		return fmt.Sprintf("ROUND(AVG(%s) / 1000.0, 2) AS %s", durCol, alias)
	case metric == "max_us":
		return fmt.Sprintf("ROUND(MAX(%s) / 1000.0, 2) AS %s", durCol, alias)
	default:
		return fmt.Sprintf("NULL AS %s", sanitizeAlias(col))
	}
}

func isPercentileSuffix(metric string) bool {
	return strings.HasSuffix(metric, "_us") && len(metric) > 3
}

// percentileFraction turns "p95_us" into "0.95", "p999_us" into "0.999".
func percentileFraction(metric string) string {
	digits := strings.TrimSuffix(strings.TrimPrefix(metric, "p"), "_us")
	return "0." + digits
}

func sanitizeAlias(col string) string {
	return strings.NewReplacer(".", "_").Replace(col)
}
