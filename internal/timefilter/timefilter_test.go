package timefilter

import (
	"strings"
	"testing"
	"time"

	"github.com/tanelpoder/xtop-engine/internal/model"
)

func TestFilesForUnbounded(t *testing.T) {
	got := FilesFor(model.StreamSamples, nil, nil, Option{DataDir: "/data"})
	want := "/data/xcapture_samples_*.csv"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFilesForSameDaySameTens(t *testing.T) {
	low := time.Date(2026, 7, 30, 3, 0, 0, 0, time.UTC)
	high := time.Date(2026, 7, 30, 5, 0, 0, 0, time.UTC)
	got := FilesFor(model.StreamSamples, &low, &high, Option{DataDir: "/data"})
	if !contains(got, ".0[0-5]." ) && !contains(got, ".0[3-5].") {
		t.Errorf("expected character-class hour glob, got %q", got)
	}
}

func TestFilesForStraddlesTens(t *testing.T) {
	low := time.Date(2026, 7, 30, 8, 0, 0, 0, time.UTC)
	high := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	got := FilesFor(model.StreamSamples, &low, &high, Option{DataDir: "/data"})
	if !contains(got, ".??.") {
		t.Errorf("expected fallback .??. glob for straddling range, got %q", got)
	}
}

func TestFilesForDifferentDaysFallsBack(t *testing.T) {
	low := time.Date(2026, 7, 29, 20, 0, 0, 0, time.UTC)
	high := time.Date(2026, 7, 30, 4, 0, 0, 0, time.UTC)
	got := FilesFor(model.StreamSamples, &low, &high, Option{DataDir: "/data"})
	want := "/data/xcapture_samples_*.csv"
	if got != want {
		t.Errorf("got %q, want unconstrained glob %q", got, want)
	}
}

func TestFilesForIdempotent(t *testing.T) {
	low := time.Date(2026, 7, 30, 3, 0, 0, 0, time.UTC)
	high := time.Date(2026, 7, 30, 5, 0, 0, 0, time.UTC)
	a := FilesFor(model.StreamSamples, &low, &high, Option{DataDir: "/data"})
	b := FilesFor(model.StreamSamples, &low, &high, Option{DataDir: "/data"})
	if a != b {
		t.Errorf("FilesFor not idempotent: %q != %q", a, b)
	}
}

func contains(s, sub string) bool {
	return strings.Contains(s, sub)
}
