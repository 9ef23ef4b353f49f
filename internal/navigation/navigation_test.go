package navigation

import "testing"

func TestNavigationReversibility(t *testing.T) {
	s := New()
	initial := s.Current()

	s.DrillDown("state", "RUN", false)
	s.UpdateGrouping([]string{"state", "syscall"})
	s.DrillDown("syscall", "read", false)
	s.ApplyValueFilters("username", []string{"postgres", "root"}, nil)

	for {
		if _, ok := s.BackOut(); !ok {
			break
		}
	}

	got := s.Current()
	if Where(got) != Where(initial) {
		t.Errorf("back_out to root did not restore initial frame: %q != %q", Where(got), Where(initial))
	}
}

func TestFilterMutualExclusion(t *testing.T) {
	s := New()
	s.DrillDown("state", "RUN", true)
	f := s.Current()
	if containsValue(f.Filters["state"], "RUN") {
		t.Error("include set should not contain RUN after exclude drill_down")
	}

	s2 := New()
	s2.DrillDown("state", "RUN", false)
	f2 := s2.Current()
	if containsValue(f2.ExcludeFilters["state"], "RUN") {
		t.Error("exclude set should not contain RUN after include drill_down")
	}
}

func TestIncludeThenExcludeScenario(t *testing.T) {
	s := New()
	s.DrillDown("state", "RUN", false)
	s.DrillDown("state", "RUN", true)
	if got := Where(s.Current()); got != "state != 'RUN'" {
		t.Errorf("WHERE = %q, want state != 'RUN'", got)
	}

	s.BackOut()
	if got := Where(s.Current()); got != "state = 'RUN'" {
		t.Errorf("WHERE after first back_out = %q, want state = 'RUN'", got)
	}

	s.BackOut()
	if got := Where(s.Current()); got != "1=1" {
		t.Errorf("WHERE after second back_out = %q, want 1=1", got)
	}

	if _, ok := s.BackOut(); ok {
		t.Error("third back_out should return not-ok at root")
	}
}

func TestValueSetFilterScenario(t *testing.T) {
	s := New()
	s.ApplyValueFilters("username", []string{"postgres", "root"}, nil)
	if got := Where(s.Current()); got != "username IN ('postgres', 'root')" {
		t.Errorf("WHERE = %q", got)
	}

	s.ApplyValueFilters("username", nil, []string{"postgres"})
	if got := Where(s.Current()); got != "username != 'postgres'" {
		t.Errorf("WHERE after replace = %q", got)
	}
}

func TestWhereNullHandling(t *testing.T) {
	s := New()
	s.ApplyValueFilters("kstack_hash", []string{"NULL"}, nil)
	if got := Where(s.Current()); got != "kstack_hash IS NULL" {
		t.Errorf("WHERE = %q, want IS NULL", got)
	}

	s2 := New()
	s2.ApplyValueFilters("kstack_hash", nil, []string{"NULL"})
	if got := Where(s2.Current()); got != "kstack_hash IS NOT NULL" {
		t.Errorf("WHERE = %q, want IS NOT NULL", got)
	}
}

func TestBreadcrumbCollapsesLongLists(t *testing.T) {
	s := New()
	s.ApplyValueFilters("username", []string{"a", "b", "c", "d", "e"}, nil)
	crumbs := Breadcrumbs(s.Current())
	if len(crumbs) != 1 {
		t.Fatalf("expected 1 breadcrumb, got %d", len(crumbs))
	}
	want := "username in [a, b, c, ... +2 more]"
	if crumbs[0] != want {
		t.Errorf("breadcrumb = %q, want %q", crumbs[0], want)
	}
}

func TestHistoryFIFOEviction(t *testing.T) {
	s := NewWithMaxHistory(2)
	s.DrillDown("a", "1", false)
	s.DrillDown("b", "2", false)
	s.DrillDown("c", "3", false)
	if len(s.history) != 2 {
		t.Errorf("history length = %d, want bounded to 2", len(s.history))
	}
}

func TestWhereEmitsFiltersInInsertionOrder(t *testing.T) {
	s := New()
	s.DrillDown("username", "postgres", false)
	s.DrillDown("state", "RUN", false)
	s.DrillDown("syscall", "read", false)

	want := "username = 'postgres' AND state = 'RUN' AND syscall = 'read'"
	if got := Where(s.Current()); got != want {
		t.Errorf("WHERE = %q, want %q (insertion order, not alphabetical)", got, want)
	}
}

func TestWhereKeepsOriginalPositionAfterReplace(t *testing.T) {
	s := New()
	s.DrillDown("username", "postgres", false)
	s.DrillDown("state", "RUN", false)
	s.DrillDown("state", "RUN", true) // flips state to an exclude filter in place

	want := "username = 'postgres' AND state != 'RUN'"
	if got := Where(s.Current()); got != want {
		t.Errorf("WHERE = %q, want %q (state keeps its original position)", got, want)
	}
}

func containsValue(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
