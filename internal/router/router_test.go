package router

import (
	"testing"

	"github.com/tanelpoder/xtop-engine/internal/model"
)

func TestSourcesForAlwaysIncludesSamples(t *testing.T) {
	set := SourcesFor(nil)
	if !set[model.StreamSamples] {
		t.Error("samples must always be included")
	}
}

func TestSourcesForPrefixRouting(t *testing.T) {
	set := SourcesFor([]string{"sc.p95_us", "io.avg_us"})
	if !set[model.StreamSyscend] {
		t.Error("sc. prefix should route to syscend")
	}
	if !set[model.StreamIorqend] {
		t.Error("io. prefix should route to iorqend")
	}
}

func TestSourcesForDevnameTransitiveDeps(t *testing.T) {
	set := SourcesFor([]string{"devname"})
	if !set[model.StreamPartitions] {
		t.Error("devname should route to partitions")
	}
	if !set[model.StreamIorqend] {
		t.Error("devname should transitively require iorqend")
	}
}

func TestSourcesForHistogramRequirement(t *testing.T) {
	set := SourcesFor([]string{"sclat_histogram"})
	if !set[model.StreamSyscend] {
		t.Error("sclat_histogram should require syscend")
	}
	set2 := SourcesFor([]string{"iolat_histogram"})
	if !set2[model.StreamIorqend] {
		t.Error("iolat_histogram should require iorqend")
	}
}

func TestSourcesForComputedColumnsOnlySamples(t *testing.T) {
	set := SourcesFor([]string{"filenamesum", "comm2", "s10"})
	for stream := range set {
		if stream != model.StreamSamples {
			t.Errorf("computed columns pulled in unexpected stream %s", stream)
		}
	}
}

func TestSourcesForCaseInsensitive(t *testing.T) {
	a := SourcesFor([]string{"SC.P95_US"})
	b := SourcesFor([]string{"sc.p95_us"})
	if len(a) != len(b) || !a[model.StreamSyscend] || !b[model.StreamSyscend] {
		t.Error("column routing should be case-insensitive")
	}
}
