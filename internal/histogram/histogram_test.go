package histogram

import (
	"testing"

	"github.com/tanelpoder/xtop-engine/internal/bucket"
	"github.com/tanelpoder/xtop-engine/internal/model"
)

func TestParseRoundTrip(t *testing.T) {
	src := "1024:5:0.00512:0.02,2048:10:0.02048:0.02"
	rows, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	out := Serialize(rows)
	rows2, err := Parse(out)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if len(rows2) != len(rows) {
		t.Fatalf("round trip row count mismatch")
	}
	for i := range rows {
		if rows[i] != rows2[i] {
			t.Errorf("round trip mismatch at %d: %+v != %+v", i, rows[i], rows2[i])
		}
	}
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse("")
	if err == nil {
		t.Fatal("expected ErrEmptyHistogram")
	}
}

func TestParseSkipsMalformedEntries(t *testing.T) {
	rows, err := Parse("1024:5:0.01:0.01,garbage,2048:10:0.02:0.02")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("expected malformed entry to be skipped, got %d rows", len(rows))
	}
}

func TestTableCollapsesOverflow(t *testing.T) {
	rows := []bucket.Row{
		{BucketUs: 1024, Count: 10, EstTimeS: 0.01},
		{BucketUs: OverflowBucketUs, Count: 5, EstTimeS: 100},
		{BucketUs: OverflowBucketUs * 4, Count: 3, EstTimeS: 50},
	}
	table := Table(rows)
	var overflowRows int
	for _, r := range table {
		if r.Label == OverflowLabel {
			overflowRows++
			if r.Count != 8 {
				t.Errorf("overflow count = %d, want 8", r.Count)
			}
		}
	}
	if overflowRows != 1 {
		t.Errorf("expected exactly one collapsed overflow row, got %d", overflowRows)
	}
}

func TestTableRelativeAndTimePct(t *testing.T) {
	rows := []bucket.Row{
		{BucketUs: 1024, Count: 10, EstTimeS: 1.0},
		{BucketUs: 2048, Count: 5, EstTimeS: 3.0},
	}
	table := Table(rows)
	var total float64
	for _, r := range table {
		total += r.TimePct
	}
	if total < 0.999 || total > 1.001 {
		t.Errorf("time_pct should sum to ~1.0, got %v", total)
	}
	for _, r := range table {
		if r.Relative > 1.0 {
			t.Errorf("relative should never exceed 1.0, got %v", r.Relative)
		}
	}
}

func TestHeatmapGapFilling(t *testing.T) {
	points := []Point{
		{TimestampUnix: 0, BucketUs: 1024, Count: 5},
		{TimestampUnix: 180, BucketUs: 1024, Count: 3}, // 3 minutes later, gap at 60/120
	}
	h := Build(points, model.GranularityMinute)
	if len(h.Times) != 4 {
		t.Fatalf("expected 4 time buckets (0,60,120,180), got %d", len(h.Times))
	}
	if h.Cells[60][1024] != 0 || h.Cells[120][1024] != 0 {
		t.Error("gap minutes should have zero count for the observed bucket")
	}
}

func TestPaletteIndexBounds(t *testing.T) {
	if PaletteIndex(-1) != PaletteIndex(0) {
		t.Error("negative ratio should clamp to 0")
	}
	if PaletteIndex(2) != PaletteIndex(1) {
		t.Error("ratio > 1 should clamp to 1")
	}
}

func TestSparklineLengthMatchesTable(t *testing.T) {
	rows := []bucket.Row{
		{BucketUs: 1024, Count: 1, EstTimeS: 0.001},
		{BucketUs: 2048, Count: 2, EstTimeS: 0.004},
	}
	s := Sparkline(rows)
	if len([]rune(s)) != len(Table(rows)) {
		t.Errorf("sparkline length %d != table rows %d", len([]rune(s)), len(Table(rows)))
	}
}
