package histogram

import "github.com/tanelpoder/xtop-engine/internal/bucket"

// OverflowBucketUs is the last-bucket collapse threshold: any bucket at
// or beyond this value is coalesced into one terminal overflow row
// (DESIGN.md Open Question 2). 2^24 microseconds is ~16.7s.
const OverflowBucketUs int64 = 1 << 24

// OverflowLabel is the display label for the collapsed terminal bucket.
const OverflowLabel = ">=16.8s"

// TableRow is one row of the flat histogram table model (spec.md §4.7).
type TableRow struct {
	BucketUs      int64
	Label         string
	Count         int64
	EstTimeS      float64
	EstEventsPerS float64
	TimePct       float64
	Relative      float64
}

// Table builds the ordered table model from parsed bucket rows,
// collapsing every bucket >= OverflowBucketUs into one terminal row.
func Table(rows []bucket.Row) []TableRow {
	collapsed := collapseOverflow(rows)
	sortRowsByBucket(collapsed)

	var totalEstTime float64
	var maxEstTime float64
	for _, r := range collapsed {
		totalEstTime += r.EstTimeS
		if r.EstTimeS > maxEstTime {
			maxEstTime = r.EstTimeS
		}
	}

	out := make([]TableRow, 0, len(collapsed))
	for _, r := range collapsed {
		tr := TableRow{
			BucketUs: r.BucketUs,
			Label:    bucket.Label(r.BucketUs),
			Count:    r.Count,
			EstTimeS: r.EstTimeS,
		}
		if r.BucketUs >= OverflowBucketUs {
			tr.Label = OverflowLabel
		}
		if r.EstTimeS > 0 {
			tr.EstEventsPerS = float64(r.Count) / r.EstTimeS
		}
		if totalEstTime > 0 {
			tr.TimePct = r.EstTimeS / totalEstTime
		}
		if maxEstTime > 0 {
			tr.Relative = r.EstTimeS / maxEstTime
		}
		out = append(out, tr)
	}
	return out
}

// collapseOverflow merges every row with BucketUs >= OverflowBucketUs
// into a single synthetic row at OverflowBucketUs.
func collapseOverflow(rows []bucket.Row) []bucket.Row {
	var out []bucket.Row
	var overflow *bucket.Row
	for _, r := range rows {
		if r.BucketUs >= OverflowBucketUs {
			if overflow == nil {
				merged := bucket.Row{BucketUs: OverflowBucketUs, GroupMax: r.GroupMax}
				overflow = &merged
			}
			overflow.Count += r.Count
			overflow.EstTimeS += r.EstTimeS
			if r.GroupMax > overflow.GroupMax {
				overflow.GroupMax = r.GroupMax
			}
			continue
		}
		out = append(out, r)
	}
	if overflow != nil {
		out = append(out, *overflow)
	}
	return out
}
