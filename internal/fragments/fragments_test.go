package fragments

import (
	"strings"
	"testing"
)

func TestLoadKnownFragments(t *testing.T) {
	l := NewLoader()
	for _, name := range []Name{ComputedColumns, HistogramBuckets, BasePartitions} {
		text, err := l.Load(name)
		if err != nil {
			t.Fatalf("Load(%s): %v", name, err)
		}
		if text == "" {
			t.Fatalf("Load(%s) returned empty text", name)
		}
	}
}

func TestLoadCaches(t *testing.T) {
	l := NewLoader()
	a, err := l.Load(ComputedColumns)
	if err != nil {
		t.Fatal(err)
	}
	b, err := l.Load(ComputedColumns)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("cached fragment text changed between loads")
	}
}

func TestLoadMissingFragment(t *testing.T) {
	l := NewLoader()
	_, err := l.Load(Name("nonexistent"))
	if err == nil {
		t.Fatal("expected error for missing fragment")
	}
	var notFound *ErrFragmentNotFound
	if !asErrFragmentNotFound(err, &notFound) {
		t.Errorf("expected ErrFragmentNotFound, got %T: %v", err, err)
	}
}

func asErrFragmentNotFound(err error, target **ErrFragmentNotFound) bool {
	e, ok := err.(*ErrFragmentNotFound)
	if ok {
		*target = e
	}
	return ok
}

func TestSubstitute(t *testing.T) {
	got := Substitute("SELECT #COL# FROM #TABLE#", map[string]string{
		"COL":   "duration_ns",
		"TABLE": "syscend",
	})
	if !strings.Contains(got, "duration_ns") || !strings.Contains(got, "syscend") {
		t.Errorf("Substitute did not replace placeholders: %q", got)
	}
	if strings.Contains(got, "#") {
		t.Errorf("Substitute left a placeholder unreplaced: %q", got)
	}
}
