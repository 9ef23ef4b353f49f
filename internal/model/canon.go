package model

import "strings"

// Lower canonicalises a column name for every public API that accepts
// one: all names are matched case-insensitively internally but stored
// lower-cased, so behaviour is identical whether a caller passes
// upper-, lower-, or mixed-case names (spec.md §8.1).
func Lower(col string) string {
	return strings.ToLower(strings.TrimSpace(col))
}

// LowerAll canonicalises a slice of column names in place order,
// returning a new slice.
func LowerAll(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = Lower(c)
	}
	return out
}
