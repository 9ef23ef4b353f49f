package schema

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/tanelpoder/xtop-engine/internal/model"
)

func TestHasCaseInsensitive(t *testing.T) {
	r := New(zerolog.Nop())
	r.columns[model.StreamSamples] = []model.Column{{Name: "Timestamp", Type: "TIMESTAMP"}}
	r.lower[model.StreamSamples] = map[string]string{"timestamp": "Timestamp"}

	for _, variant := range []string{"timestamp", "TIMESTAMP", "TimeStamp"} {
		if !r.Has(model.StreamSamples, variant) {
			t.Errorf("Has(%q) = false, want true", variant)
		}
	}
	if r.Has(model.StreamSamples, "nonexistent") {
		t.Error("Has(nonexistent) = true, want false")
	}
}

func TestActualReturnsSourceSpelling(t *testing.T) {
	r := New(zerolog.Nop())
	r.columns[model.StreamSyscend] = []model.Column{{Name: "Duration_NS", Type: "BIGINT"}}
	r.lower[model.StreamSyscend] = map[string]string{"duration_ns": "Duration_NS"}

	actual, ok := r.Actual(model.StreamSyscend, "DURATION_NS")
	if !ok || actual != "Duration_NS" {
		t.Errorf("Actual = (%q, %v), want (Duration_NS, true)", actual, ok)
	}
}

func TestMissingStreamIsEmptyNotPanic(t *testing.T) {
	r := New(zerolog.Nop())
	if r.Has(model.StreamPartitions, "devname") {
		t.Error("expected false for undiscovered stream")
	}
	if _, ok := r.Actual(model.StreamPartitions, "devname"); ok {
		t.Error("expected not-ok for undiscovered stream")
	}
}

func TestResetClears(t *testing.T) {
	r := New(zerolog.Nop())
	r.columns[model.StreamSamples] = []model.Column{{Name: "tid"}}
	r.lower[model.StreamSamples] = map[string]string{"tid": "tid"}
	r.Reset()
	if r.Has(model.StreamSamples, "tid") {
		t.Error("Reset did not clear schema")
	}
}
