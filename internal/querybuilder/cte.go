package querybuilder

import "strings"

// Cte is one named common table expression in the layered query skeleton
// (spec.md §4.5.1 design notes item 1: "one value type per CTE ... plus
// a single render step", replacing the source's f-string composition).
type Cte struct {
	Name string
	Body string
}

// render assembles a WITH clause from an ordered list of CTEs followed
// by a final statement body.
func render(ctes []Cte, finalStatement string) string {
	var b strings.Builder
	if len(ctes) > 0 {
		b.WriteString("WITH\n")
		for i, c := range ctes {
			b.WriteString("  ")
			b.WriteString(c.Name)
			b.WriteString(" AS (\n")
			b.WriteString(indent(c.Body, "    "))
			b.WriteString("\n  )")
			if i < len(ctes)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
	}
	b.WriteString(finalStatement)
	return b.String()
}

func indent(body, prefix string) string {
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	for i, l := range lines {
		if l == "" {
			continue
		}
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
