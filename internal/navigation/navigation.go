// Package navigation implements Navigation State (spec.md §4.9, §3.5):
// a stack of (filters, group-by, sort) frames supporting drill-down,
// back-out, grouping change, and value-set filters, with a bounded,
// FIFO-evicted history.
//
// Grounded on xtop/core/navigation.py (original_source/) for the
// operation semantics; Go idiom (slice-backed stacks, explicit mutator
// methods returning ok/bool per spec.md §7's NavigationError policy)
// follows the teacher's general style of small owned structs.
package navigation

import (
	"github.com/google/uuid"

	"github.com/tanelpoder/xtop-engine/internal/model"
)

// DefaultMaxHistory bounds the frame history depth (spec.md §3.5).
const DefaultMaxHistory = 100

// State owns the current frame, its history, and a separate
// grouping-change history (spec.md §3.5, §4.9).
type State struct {
	maxHistory int

	current model.Frame
	history []model.Frame // push = drill_down/apply_value_filters; pop = back_out

	groupingHistory []model.Frame // a history of frames captured before each update_grouping
}

// New returns a navigation State with the default history bound.
func New() *State {
	return NewWithMaxHistory(DefaultMaxHistory)
}

// NewWithMaxHistory returns a navigation State bounded to maxHistory
// frames of drill-down history.
func NewWithMaxHistory(maxHistory int) *State {
	s := &State{maxHistory: maxHistory}
	s.Reset(nil)
	return s
}

// Reset clears all history and installs a new initial frame (spec.md
// §4.9 reset).
func (s *State) Reset(groupCols []string) {
	f := model.NewFrame(groupCols)
	f.ID = uuid.New().String()
	s.current = f
	s.history = nil
	s.groupingHistory = nil
}

// Current returns the active frame.
func (s *State) Current() model.Frame {
	return s.current
}

// DrillDown pushes the current frame onto history, then returns a new
// frame adding value to col's include (or exclude) list, removing the
// opposite entry for that column -- the mutual-exclusion invariant
// (spec.md §3.5, §4.9 drill_down; §8.1 "Filter mutual exclusion").
func (s *State) DrillDown(col, value string, exclude bool) {
	col = model.Lower(col)
	s.pushHistory()

	next := s.current.Clone()
	if exclude {
		next.Filters[col] = removeValue(next.Filters[col], value)
		next.ExcludeFilters[col] = appendUnique(next.ExcludeFilters[col], value)
		if len(next.Filters[col]) == 0 {
			delete(next.Filters, col)
		}
	} else {
		next.ExcludeFilters[col] = removeValue(next.ExcludeFilters[col], value)
		next.Filters[col] = appendUnique(next.Filters[col], value)
		if len(next.ExcludeFilters[col]) == 0 {
			delete(next.ExcludeFilters, col)
		}
	}
	next.TouchFilterOrder(col)
	next.ID = uuid.New().String()
	next.LastTouchedCol = col
	s.current = next
}

// ApplyValueFilters replaces col's filter with the given multi-value
// include/exclude sets; if both are empty the filter is removed
// entirely (spec.md §4.9 apply_value_filters).
func (s *State) ApplyValueFilters(col string, includes, excludes []string) {
	col = model.Lower(col)
	s.pushHistory()

	next := s.current.Clone()
	delete(next.Filters, col)
	delete(next.ExcludeFilters, col)
	if len(includes) > 0 {
		next.Filters[col] = append([]string(nil), includes...)
	}
	if len(excludes) > 0 {
		next.ExcludeFilters[col] = append([]string(nil), excludes...)
	}
	if len(includes) > 0 || len(excludes) > 0 {
		next.TouchFilterOrder(col)
	} else {
		next.UntouchFilterOrder(col)
	}
	next.ID = uuid.New().String()
	next.LastTouchedCol = col
	s.current = next
}

// BackOut pops one frame from history, returning (frame, true), or
// (zero, false) at the root (spec.md §4.9 back_out).
func (s *State) BackOut() (model.Frame, bool) {
	if len(s.history) == 0 {
		return model.Frame{}, false
	}
	last := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	s.current = last
	return last, true
}

// RemoveLastFilter drops the most recently added predicate from the
// current frame without touching history (spec.md §4.9
// remove_last_filter). Returns false if there is no filter to remove.
func (s *State) RemoveLastFilter() bool {
	// "Most recent" is the column named by LastTouchedCol, which every
	// filter mutation sets. When that column has no filter left (already
	// removed, or cleared by ApplyValueFilters), the last column in
	// FilterOrder -- the column most recently added to the frame -- is
	// removed instead, so repeated calls succeed until no filter remains.
	col := s.current.LastTouchedCol
	if len(s.current.Filters[col]) == 0 && len(s.current.ExcludeFilters[col]) == 0 {
		col = ""
		if n := len(s.current.FilterOrder); n > 0 {
			col = s.current.FilterOrder[n-1]
		}
	}
	if col == "" {
		return false
	}
	delete(s.current.Filters, col)
	delete(s.current.ExcludeFilters, col)
	s.current.UntouchFilterOrder(col)
	s.current.LastTouchedCol = ""
	return true
}

// UpdateGrouping pushes a grouping-history entry (the pre-change frame)
// and replaces GroupCols (spec.md §4.9 update_grouping).
func (s *State) UpdateGrouping(newCols []string) {
	s.groupingHistory = append(s.groupingHistory, s.current.Clone())
	next := s.current.Clone()
	next.GroupCols = model.LowerAll(newCols)
	s.current = next
}

// UndoLastGrouping restores the previously saved grouping without
// rewinding filter history (spec.md §4.9 undo_last_grouping).
func (s *State) UndoLastGrouping() bool {
	if len(s.groupingHistory) == 0 {
		return false
	}
	prev := s.groupingHistory[len(s.groupingHistory)-1]
	s.groupingHistory = s.groupingHistory[:len(s.groupingHistory)-1]
	s.current.GroupCols = prev.GroupCols
	return true
}

func (s *State) pushHistory() {
	s.history = append(s.history, s.current.Clone())
	if len(s.history) > s.maxHistory {
		// FIFO eviction of the oldest frame (spec.md §3.5).
		s.history = s.history[1:]
	}
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func removeValue(list []string, v string) []string {
	out := list[:0:0]
	for _, existing := range list {
		if existing != v {
			out = append(out, existing)
		}
	}
	return out
}
