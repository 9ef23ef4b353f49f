package histogram

import "github.com/tanelpoder/xtop-engine/internal/bucket"

// sparkBlocks are the Unicode block elements used for thumbnail
// rendering, lowest to highest, matching the eight-level resolution
// terminal sparkline renderers commonly use.
var sparkBlocks = []rune(" ▁▂▃▄▅▆▇█")

// Sparkline renders a Unicode-block thumbnail of rows' EstTimeS,
// collapsing the overflow bucket the same way Table does, so a
// thumbnail and its detail table never disagree about bucket count
// (spec.md §4.7, DESIGN.md Open Question 2).
func Sparkline(rows []bucket.Row) string {
	table := Table(rows)
	out := make([]rune, len(table))
	for i, r := range table {
		out[i] = sparkBlocks[len(sparkBlocks)-1]
		if r.Relative <= 0 {
			out[i] = sparkBlocks[0]
			continue
		}
		idx := int(r.Relative * float64(len(sparkBlocks)-1))
		if idx >= len(sparkBlocks) {
			idx = len(sparkBlocks) - 1
		}
		if idx < 1 {
			idx = 1
		}
		out[i] = sparkBlocks[idx]
	}
	return string(out)
}
