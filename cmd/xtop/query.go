package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tanelpoder/xtop-engine/internal/config"
	"github.com/tanelpoder/xtop-engine/internal/engine"
	"github.com/tanelpoder/xtop-engine/internal/histogram"
	"github.com/tanelpoder/xtop-engine/internal/model"
	"github.com/tanelpoder/xtop-engine/internal/output"
	"github.com/tanelpoder/xtop-engine/internal/peek"
	"github.com/tanelpoder/xtop-engine/internal/querybuilder"
	"github.com/tanelpoder/xtop-engine/internal/timeparse"
	"github.com/tanelpoder/xtop-engine/internal/xlog"
)

// queryFlags mirrors spec.md §6.2's testing-façade flag surface.
type queryFlags struct {
	datadir       string
	groupCols     string
	latencyCols   string
	where         string
	from          string
	to            string
	limit         int
	peek          string
	format        string
	materialize   bool
	duckdbThreads int
	debug         bool
	debugLog      string
}

func newQueryCmd() *cobra.Command {
	f := &queryFlags{}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a single query against sampled thread-state snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.datadir, "datadir", "d", os.Getenv(config.DatadirEnvVar), "data directory (or env XCAPTURE_DATADIR)")
	flags.StringVarP(&f.groupCols, "group", "g", "", "group-by columns, comma-separated")
	flags.StringVarP(&f.latencyCols, "latency", "l", "", "latency/histogram columns, comma-separated")
	flags.StringVarP(&f.where, "where", "w", "", "raw WHERE predicate")
	flags.StringVar(&f.from, "from", "", "range start: ISO timestamp or relative -Nh/-Nmin")
	flags.StringVar(&f.to, "to", "", "range end: ISO timestamp or 'now'")
	flags.IntVar(&f.limit, "limit", 50, "row limit")
	flags.StringVar(&f.peek, "peek", "", "peek spec 'column:kind' (kind = histogram|heatmap|stack|json), applied to the first row")
	flags.StringVar(&f.format, "format", "grid", "output format: grid|simple|plain")
	flags.BoolVar(&f.materialize, "materialize", false, "materialize enriched samples into a temp table reused by the query and peeks")
	flags.IntVar(&f.duckdbThreads, "duckdb-threads", 0, "DuckDB worker thread count (0 = let DuckDB choose)")
	flags.BoolVar(&f.debug, "debug", false, "enable debug logging")
	flags.StringVar(&f.debugLog, "debuglog", "", "write JSON debug logs to this file")

	return cmd
}

func runQuery(cmd *cobra.Command, f *queryFlags) error {
	cfg := config.Default()
	if f.datadir != "" {
		cfg.Datadir = f.datadir
	}
	cfg.UseMaterialized = f.materialize
	cfg.DuckDBThreads = f.duckdbThreads
	cfg.Debug = f.debug
	cfg.DebugLogPath = f.debugLog

	log, err := xlog.New(cfg.Debug, cfg.DebugLogPath)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	progress := output.NewVerboseProgress(cfg.Debug, cfg.Debug)

	eng, err := engine.Open(cfg, log)
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}
	defer eng.Close()

	params, err := buildParams(f)
	if err != nil {
		return err
	}

	ctx := context.Background()
	progress.Log("executing query")
	result, err := eng.Execute(ctx, params)
	if err != nil {
		return fmt.Errorf("execute query: %w", err)
	}
	progress.Log("query returned %d rows in %.3fs", len(result.Rows), result.ElapsedS)

	if err := output.WriteResult(cmd.OutOrStdout(), result, output.Format(f.format)); err != nil {
		return fmt.Errorf("render result: %w", err)
	}

	if f.peek != "" {
		if err := runPeek(ctx, eng, f.peek, params, result); err != nil {
			return fmt.Errorf("peek: %w", err)
		}
	}
	return nil
}

func buildParams(f *queryFlags) (model.QueryParams, error) {
	clock := timeparse.SystemClock{}
	var tr model.TimeRange

	from, ok, err := timeparse.Parse(f.from, clock)
	if err != nil {
		return model.QueryParams{}, fmt.Errorf("--from: %w", err)
	}
	if ok {
		low := from.Unix()
		tr.Low = &low
	}
	to, ok, err := timeparse.Parse(f.to, clock)
	if err != nil {
		return model.QueryParams{}, fmt.Errorf("--to: %w", err)
	}
	if ok {
		high := to.Unix()
		tr.High = &high
	}

	return model.QueryParams{
		GroupCols:   splitFlag(f.groupCols),
		LatencyCols: splitFlag(f.latencyCols),
		Where:       f.where,
		TimeRange:   tr,
		Limit:       f.limit,
	}, nil
}

func splitFlag(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// runPeek applies a "column:kind" peek spec to the first row of result,
// printing the derived data model to stdout (spec.md §4.10).
func runPeek(ctx context.Context, eng *engine.Engine, spec string, params model.QueryParams, result *model.Result) error {
	if len(result.Rows) == 0 {
		return fmt.Errorf("no rows to peek into")
	}
	column, kind, ok := strings.Cut(spec, ":")
	if !ok {
		return fmt.Errorf("invalid --peek spec %q, want column:kind", spec)
	}
	row := result.Rows[0]
	frame := model.NewFrame(nil)

	switch kind {
	case "histogram":
		data, err := peek.Histogram(ctx, eng, row, params.GroupCols, frame, histogramKindOf(column))
		if err != nil {
			return err
		}
		for _, r := range data.Rows {
			fmt.Printf("%d %d %.3f %.4f %.1f%%\n", r.BucketUs, r.Count, r.EstTimeS, r.EstEventsPerS, r.TimePct)
		}
	case "heatmap":
		hm, err := peek.Heatmap(ctx, eng, row, params.GroupCols, frame, histogramKindOf(column), model.GranularityMinute)
		if err != nil {
			return err
		}
		printHeatmap(hm)
	case "stack":
		val, _ := row.Get(column)
		hash := fmt.Sprintf("%v", val)
		frames, err := peek.StackTrace(ctx, eng, hash, strings.HasPrefix(column, "k"))
		if err != nil {
			return err
		}
		for _, fr := range frames.Frames {
			fmt.Println(fr)
		}
	case "json":
		val, _ := row.Get(column)
		p := peek.JSON(fmt.Sprintf("%v", val))
		if p.ParseErr != "" {
			fmt.Fprintln(os.Stderr, "parse error:", p.ParseErr)
			fmt.Println(p.RawText)
			return nil
		}
		fmt.Println(p.Pretty)
	default:
		return fmt.Errorf("unknown peek kind %q", kind)
	}
	return nil
}

func histogramKindOf(column string) querybuilder.HistogramKind {
	if strings.HasPrefix(column, "io") {
		return querybuilder.KindIolat
	}
	return querybuilder.KindSclat
}

// heatmapRamp is the seven-step intensity ramp printHeatmap renders each
// cell with, indexed by histogram.PaletteIndex.
var heatmapRamp = []rune(" .:-=+#")

// printHeatmap renders one line per gap-filled time bucket, one
// character per latency bucket, intensity-mapped via the heatmap's
// 7-step palette (spec.md §4.7).
func printHeatmap(hm *histogram.Heatmap) {
	for _, t := range hm.Times {
		var line strings.Builder
		for _, bu := range hm.Buckets {
			idx := histogram.PaletteIndex(hm.Intensity(t, bu))
			line.WriteRune(heatmapRamp[idx])
		}
		fmt.Println(line.String())
	}
}
