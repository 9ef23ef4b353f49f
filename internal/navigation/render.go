package navigation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tanelpoder/xtop-engine/internal/model"
)

// Where renders the current frame's filters as a deterministic WHERE
// clause (spec.md §4.9 "WHERE rendering", §8.1 "WHERE correctness for
// NULL"): values are SQL-escaped, NULL values render as IS NULL / IS NOT
// NULL, multi-value lists render as IN (...) / NOT IN (...), and filters
// are emitted in insertion order (spec.md §4.9; the mutual exclusion
// rule already prevents a column emitting both forms).
func Where(f model.Frame) string {
	cols := orderedCols(f)
	var clauses []string
	for _, col := range cols {
		if values, ok := f.Filters[col]; ok {
			clauses = append(clauses, renderClause(col, values, true))
			continue
		}
		if values, ok := f.ExcludeFilters[col]; ok {
			clauses = append(clauses, renderClause(col, values, false))
		}
	}
	if len(clauses) == 0 {
		return "1=1"
	}
	return strings.Join(clauses, " AND ")
}

// orderedCols returns the columns present in f.Filters/f.ExcludeFilters
// in FilterOrder's insertion order, falling back to sorted order for any
// column missing from FilterOrder (defensive: a Frame built directly
// rather than through navigation.State's mutators has no order history).
func orderedCols(f model.Frame) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(f.FilterOrder))
	for _, c := range f.FilterOrder {
		if _, ok := f.Filters[c]; ok {
			out = append(out, c)
			seen[c] = true
		} else if _, ok := f.ExcludeFilters[c]; ok {
			out = append(out, c)
			seen[c] = true
		}
	}

	var rest []string
	for c := range f.Filters {
		if !seen[c] {
			rest = append(rest, c)
		}
	}
	for c := range f.ExcludeFilters {
		if !seen[c] {
			rest = append(rest, c)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func renderClause(col string, values []string, include bool) string {
	hasNull := false
	var nonNull []string
	for _, v := range values {
		if v == "" || strings.EqualFold(v, "NULL") {
			hasNull = true
			continue
		}
		nonNull = append(nonNull, v)
	}

	var parts []string
	if hasNull {
		if include {
			parts = append(parts, fmt.Sprintf("%s IS NULL", col))
		} else {
			parts = append(parts, fmt.Sprintf("%s IS NOT NULL", col))
		}
	}
	if len(nonNull) == 1 {
		op := "="
		if !include {
			op = "!="
		}
		parts = append(parts, fmt.Sprintf("%s %s %s", col, op, sqlQuote(nonNull[0])))
	} else if len(nonNull) > 1 {
		op := "IN"
		if !include {
			op = "NOT IN"
		}
		parts = append(parts, fmt.Sprintf("%s %s (%s)", col, op, sqlQuoteList(nonNull)))
	}
	if len(parts) == 0 {
		return "1=1"
	}
	return strings.Join(parts, " OR ")
}

func sqlQuote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

func sqlQuoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = sqlQuote(v)
	}
	return strings.Join(quoted, ", ")
}

// Breadcrumbs renders one display string per active filter (spec.md
// §4.9 "Breadcrumb rendering"): the stored display label is used when
// present; value lists beyond three entries collapse to
// "[v1, v2, v3, ... +N more]".
func Breadcrumbs(f model.Frame) []string {
	cols := orderedCols(f)
	out := make([]string, 0, len(cols))
	for _, col := range cols {
		label := f.Labels[col]
		if label == "" {
			label = col
		}
		if values, ok := f.Filters[col]; ok {
			out = append(out, fmt.Sprintf("%s in %s", label, collapseList(values)))
			continue
		}
		if values, ok := f.ExcludeFilters[col]; ok {
			out = append(out, fmt.Sprintf("%s not in %s", label, collapseList(values)))
		}
	}
	return out
}

func collapseList(values []string) string {
	if len(values) <= 3 {
		return "[" + strings.Join(values, ", ") + "]"
	}
	extra := len(values) - 3
	return "[" + strings.Join(values[:3], ", ") + ", ... +" + strconv.Itoa(extra) + " more]"
}
