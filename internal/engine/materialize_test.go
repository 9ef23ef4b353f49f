package engine

import (
	"testing"

	"github.com/tanelpoder/xtop-engine/internal/model"
)

func int64p(v int64) *int64 { return &v }

func TestSameRangeBothUnbounded(t *testing.T) {
	if !sameRange(model.TimeRange{}, model.TimeRange{}) {
		t.Error("two unbounded ranges should be equal")
	}
}

func TestSameRangeEqualBounds(t *testing.T) {
	a := model.TimeRange{Low: int64p(100), High: int64p(200)}
	b := model.TimeRange{Low: int64p(100), High: int64p(200)}
	if !sameRange(a, b) {
		t.Error("ranges with equal bounds should be equal")
	}
}

func TestSameRangeDifferentBounds(t *testing.T) {
	a := model.TimeRange{Low: int64p(100), High: int64p(200)}
	b := model.TimeRange{Low: int64p(100), High: int64p(300)}
	if sameRange(a, b) {
		t.Error("ranges with different High should not be equal")
	}
}

func TestSameRangeOneSideNilMismatch(t *testing.T) {
	a := model.TimeRange{Low: int64p(100)}
	b := model.TimeRange{}
	if sameRange(a, b) {
		t.Error("a bounded Low vs an unbounded Low should not be equal")
	}
}
