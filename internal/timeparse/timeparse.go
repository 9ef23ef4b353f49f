// Package timeparse parses the CLI/MCP --from/--to time specs (spec.md
// §6.2): an ISO-8601 instant, the literal "now", or a relative offset
// like "-2h"/"-30min" subtracted from the Clock's current time.
//
// Grounded on cmd/melisai/main.go's parseDuration helper for the
// relative-suffix parsing idiom.
package timeparse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock provides the current wall-clock time for relative specs
// (spec.md §1's "Clock" external collaborator).
type Clock interface {
	Now() time.Time
}

// SystemClock is the real wall-clock Clock implementation.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Parse resolves a time spec string against clock. Empty string returns
// the zero time and ok=false (an unbounded endpoint).
func Parse(spec string, clock Clock) (time.Time, bool, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return time.Time{}, false, nil
	}
	if strings.EqualFold(spec, "now") {
		return clock.Now(), true, nil
	}
	if strings.HasPrefix(spec, "-") {
		d, err := parseRelative(spec)
		if err != nil {
			return time.Time{}, false, err
		}
		return clock.Now().Add(-d), true, nil
	}
	t, err := time.Parse(time.RFC3339, spec)
	if err != nil {
		// Also accept a bare "YYYY-MM-DD HH:MM:SS" form, the shape the
		// sampler's own timestamps use.
		t, err = time.Parse("2006-01-02 15:04:05", spec)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("invalid time spec %q: %w", spec, err)
		}
	}
	return t, true, nil
}

// parseRelative parses "-Nh" / "-Nmin" / "-Nm" / "-Ns" into a duration.
func parseRelative(spec string) (time.Duration, error) {
	body := strings.TrimPrefix(spec, "-")
	for _, suffix := range []string{"min", "h", "m", "s"} {
		if strings.HasSuffix(body, suffix) {
			numStr := strings.TrimSuffix(body, suffix)
			n, err := strconv.ParseFloat(numStr, 64)
			if err != nil {
				return 0, fmt.Errorf("invalid relative time %q: %w", spec, err)
			}
			unit := time.Hour
			switch suffix {
			case "min", "m":
				unit = time.Minute
			case "s":
				unit = time.Second
			}
			return time.Duration(n * float64(unit)), nil
		}
	}
	return 0, fmt.Errorf("invalid relative time %q: unrecognised suffix", spec)
}
