package bucket

import "testing"

func TestFromNanosPowerOfTwo(t *testing.T) {
	cases := []struct {
		ns   int64
		want int64
	}{
		{1000, 1},       // 1us -> bucket 1
		{1500, 2},       // 1.5us -> ceil(1.5)=2 -> pow2 ceil(log2(2))=2
		{999000, 1024},  // ~999us -> next pow2 >= 999 is 1024
		{1000000, 1024}, // 1000us -> ceil(log2(1000))=10 -> 1024
	}
	for _, c := range cases {
		got, ok := FromNanos(c.ns)
		if !ok {
			t.Fatalf("FromNanos(%d): not ok", c.ns)
		}
		if got != c.want {
			t.Errorf("FromNanos(%d) = %d, want %d", c.ns, got, c.want)
		}
		if !IsPowerOfTwo(got) {
			t.Errorf("FromNanos(%d) = %d is not a power of two", c.ns, got)
		}
	}
}

func TestFromNanosExcludesNonPositive(t *testing.T) {
	for _, ns := range []int64{0, -1, -1000} {
		if _, ok := FromNanos(ns); ok {
			t.Errorf("FromNanos(%d) should be excluded", ns)
		}
	}
}

func TestMonotonic(t *testing.T) {
	prev := int64(1000)
	for _, ns := range []int64{2000, 5000, 50000, 500000, 5000000} {
		if !Monotonic(prev, ns) {
			t.Errorf("bucket(%d) should be <= bucket(%d)", prev, ns)
		}
		prev = ns
	}
}

func TestEstTimeS(t *testing.T) {
	got := EstTimeS(1000, 1024)
	want := 1000.0 * 1024.0 / 1_000_000.0
	if got != want {
		t.Errorf("EstTimeS = %v, want %v", got, want)
	}
}

func TestLabel(t *testing.T) {
	if got := Label(1024); got != "[512, 1024]" {
		t.Errorf("Label(1024) = %q", got)
	}
	if got := Label(1); got != "[0, 1]" {
		t.Errorf("Label(1) = %q", got)
	}
}
