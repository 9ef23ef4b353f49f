package model

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// --- Query results ---

// Row is one output row with columns preserved in builder order.
type Row = orderedmap.OrderedMap[string, any]

// NewRow returns an empty Row ready for Set calls in projection order.
func NewRow() *Row {
	return orderedmap.New[string, any]()
}

// Result is the typed tabular output of a composed query (spec.md §6.3).
// Columns appear in builder order; each Row carries the same columns in
// the same order. Value types are int64, float64, string, or nil.
type Result struct {
	Columns  []string
	Rows     []*Row
	ElapsedS float64
	SQL      string
}

// TimeRange is an optional half-open instant pair [Low, High). A nil
// pointer on either bound means "unbounded in that direction".
type TimeRange struct {
	Low  *int64 // unix seconds
	High *int64 // unix seconds
}

// Bounded reports whether both ends of the range are set.
func (r TimeRange) Bounded() bool {
	return r.Low != nil && r.High != nil
}

// ElapsedSeconds returns High-Low when bounded, else 0.
func (r TimeRange) ElapsedSeconds() float64 {
	if !r.Bounded() {
		return 0
	}
	return float64(*r.High - *r.Low)
}

// Granularity controls the time-bucket resolution of a histogram
// drill-down or heatmap peek.
type Granularity int

const (
	GranularityNone Granularity = iota
	GranularityHour
	GranularityMinute
	GranularityTenSecond
)

func (g Granularity) String() string {
	switch g {
	case GranularityHour:
		return "hour"
	case GranularityMinute:
		return "minute"
	case GranularityTenSecond:
		return "ten_second"
	default:
		return "none"
	}
}

// LatencyCol names an aggregate pseudo-column the Query Builder knows how
// to project: either a percentile/min/avg/max metric over sc./io. or one
// of the two compact histogram columns.
type LatencyCol string

const (
	LatSclatHistogram LatencyCol = "sclat_histogram"
	LatIolatHistogram LatencyCol = "iolat_histogram"
)

// QueryParams is the full input to the Query Builder / Engine Facade,
// corresponding to spec.md §4.5's public contract.
type QueryParams struct {
	GroupCols   []string
	Where       string
	TimeRange   TimeRange
	LatencyCols []string
	Limit       int
}
