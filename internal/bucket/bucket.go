// Package bucket implements the latency bucketing rule shared by the
// SQL histogram fragments (internal/fragments) and the in-process
// histogram/heatmap aggregator (internal/histogram). It is grounded on
// the power-of-two bucket math in the teacher's BCC histogram parser
// (internal/executor/parsers.go: computeHistStats/computePercentile),
// adapted from a post-hoc text-histogram parser to a pre-emptive bucket
// function applied to a single duration.
package bucket

import (
	"math"
	"strconv"
)

// MaxBucketUs bounds the representable bucket so overflow/NaN durations
// never propagate: 2^30 microseconds (~17.9 minutes) comfortably covers
// any observed syscall or I/O completion latency.
const MaxBucketUs int64 = 1 << 30

// FromNanos maps a duration in nanoseconds to its power-of-two
// microsecond upper bound (spec.md §3.3). Zero, negative, or implausibly
// large durations return (0, false): the caller excludes them from
// histograms rather than emitting a bogus bucket.
func FromNanos(durationNs int64) (bucketUs int64, ok bool) {
	if durationNs <= 0 {
		return 0, false
	}
	us := float64(durationNs) / 1000.0
	us = math.Ceil(us)
	if us < 1 {
		us = 1
	}
	pow := math.Ceil(math.Log2(us))
	b := int64(math.Pow(2, pow))
	if b < 1 {
		b = 1
	}
	if b > MaxBucketUs {
		return 0, false
	}
	return b, true
}

// Label renders a bucket's closed upper bound as the user-visible
// latency range "[bucket_us/2, bucket_us]" (spec.md §3.3).
func Label(bucketUs int64) string {
	lo := bucketUs / 2
	if bucketUs <= 1 {
		lo = 0
	}
	return formatRange(lo, bucketUs)
}

func formatRange(lo, hi int64) string {
	return "[" + strconv.FormatInt(lo, 10) + ", " + strconv.FormatInt(hi, 10) + "]"
}

// EstTimeS computes the estimated time spent in a bucket: count *
// bucket_us / 1e6 (spec.md §3.4). This is a time-weighted extrapolation,
// not a measured duration, so summing it across buckets need not equal
// wall-clock elapsed time.
func EstTimeS(count int64, bucketUs int64) float64 {
	return float64(count) * float64(bucketUs) / 1_000_000.0
}

// Row is one per-bucket aggregate as produced by the SQL histogram CTEs
// and consumed by internal/histogram.
type Row struct {
	BucketUs int64
	Count    int64
	EstTimeS float64
	// GroupMax is MAX(est_time_s) OVER () within the row's group, shared
	// across every bucket of that group so a renderer can normalise bar
	// heights without a second query (spec.md §4.5.2).
	GroupMax float64
}

// GroupMaxOf returns the largest EstTimeS across rows, or 0 for an empty
// slice: the in-process counterpart of the SQL window function
// MAX(est_time_s) OVER () that fills Row.GroupMax.
func GroupMaxOf(rows []Row) float64 {
	var max float64
	for _, r := range rows {
		if r.EstTimeS > max {
			max = r.EstTimeS
		}
	}
	return max
}

// Monotonic reports whether FromNanos(a) <= FromNanos(b) for a <= b, the
// ordering half of spec.md §8.1 "Bucket monotonicity". It returns true
// when a > b or when either duration is excluded; the power-of-two half
// is checked separately with IsPowerOfTwo. Exposed for tests; not used
// at runtime.
func Monotonic(a, b int64) bool {
	ba, oka := FromNanos(a)
	bb, okb := FromNanos(b)
	if !oka || !okb {
		return true
	}
	if a > b {
		return true
	}
	return ba <= bb
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int64) bool {
	return n > 0 && n&(n-1) == 0
}
