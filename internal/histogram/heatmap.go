package histogram

import "github.com/tanelpoder/xtop-engine/internal/model"

// Point is one (time, latency-bucket) -> count observation as returned
// by a histogram drill-down query (spec.md §4.5.6).
type Point struct {
	TimestampUnix int64
	BucketUs      int64
	Count         int64
}

// Cell is one gap-filled heatmap cell.
type Cell struct {
	TimestampUnix int64
	BucketUs      int64
	Count         int64
}

// Heatmap is the time x latency-bucket grid produced by Build.
type Heatmap struct {
	Times    []int64 // ascending, gap-filled
	Buckets  []int64 // ascending, every latency bucket observed anywhere
	Cells    map[int64]map[int64]int64
	MaxCount int64
}

func granularityStepSeconds(g model.Granularity) int64 {
	switch g {
	case model.GranularityHour:
		return 3600
	case model.GranularityTenSecond:
		return 10
	default:
		return 60
	}
}

// Build constructs a gap-filled heatmap: time buckets are filled in
// between the observed min and max at the given granularity, with
// missing intervals emitted as zero rows for every latency bucket
// observed elsewhere in the window (spec.md §4.7, scenario 6 in §8.2).
// Buckets >= OverflowBucketUs are merged into one OverflowBucketUs column.
func Build(points []Point, gran model.Granularity) *Heatmap {
	if len(points) == 0 {
		return &Heatmap{Cells: map[int64]map[int64]int64{}}
	}

	step := granularityStepSeconds(gran)
	minT, maxT := points[0].TimestampUnix, points[0].TimestampUnix
	bucketSet := map[int64]bool{}
	cells := map[int64]map[int64]int64{}

	for _, p := range points {
		truncated := truncate(p.TimestampUnix, step)
		if truncated < minT {
			minT = truncated
		}
		if truncated > maxT {
			maxT = truncated
		}
		bu := p.BucketUs
		if bu >= OverflowBucketUs {
			bu = OverflowBucketUs // same last-bucket collapse as Table
		}
		bucketSet[bu] = true
		if cells[truncated] == nil {
			cells[truncated] = map[int64]int64{}
		}
		cells[truncated][bu] += p.Count
	}

	buckets := sortedKeys(bucketSet)

	var times []int64
	var maxCount int64
	for t := minT; t <= maxT; t += step {
		times = append(times, t)
		if cells[t] == nil {
			cells[t] = map[int64]int64{}
		}
		for _, bu := range buckets {
			if _, ok := cells[t][bu]; !ok {
				cells[t][bu] = 0
			}
			if c := cells[t][bu]; c > maxCount {
				maxCount = c
			}
		}
	}

	return &Heatmap{Times: times, Buckets: buckets, Cells: cells, MaxCount: maxCount}
}

func truncate(unixSeconds, step int64) int64 {
	return (unixSeconds / step) * step
}

func sortedKeys(set map[int64]bool) []int64 {
	out := make([]int64, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// Intensity returns the normalised [0,1] ratio of a cell's count to the
// heatmap's max cell value (spec.md §4.7 normalisation).
func (h *Heatmap) Intensity(timeKey, bucketUs int64) float64 {
	if h.MaxCount == 0 {
		return 0
	}
	row, ok := h.Cells[timeKey]
	if !ok {
		return 0
	}
	return float64(row[bucketUs]) / float64(h.MaxCount)
}

// palette is the seven-step colour index ramp (spec.md §4.7). Index 0 is
// coldest/empty. It is a single ramp: frequency and time-weighted
// heatmaps map to the same indices.
var palette = [7]int{0, 1, 2, 3, 4, 5, 6}

// PaletteIndex maps a normalised [0,1] ratio to one of the seven palette
// steps.
func PaletteIndex(ratio float64) int {
	if ratio <= 0 {
		return palette[0]
	}
	if ratio >= 1 {
		return palette[len(palette)-1]
	}
	idx := int(ratio * float64(len(palette)-1))
	if idx >= len(palette) {
		idx = len(palette) - 1
	}
	return palette[idx]
}
