package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/tanelpoder/xtop-engine/internal/model"
)

// Format selects a Result rendering (spec.md §6.2 --format).
type Format string

const (
	FormatGrid   Format = "grid"
	FormatSimple Format = "simple"
	FormatPlain  Format = "plain"
)

// WriteResult renders result to w in the given format. An unrecognised
// format falls back to FormatGrid.
func WriteResult(w io.Writer, result *model.Result, format Format) error {
	rows := stringRows(result)
	switch format {
	case FormatSimple:
		return writeSimple(w, result.Columns, rows)
	case FormatPlain:
		return writePlain(w, result.Columns, rows)
	default:
		return writeGrid(w, result.Columns, rows)
	}
}

// stringRows renders every cell with cellString, preserving column order.
func stringRows(result *model.Result) [][]string {
	rows := make([][]string, 0, len(result.Rows))
	for _, r := range result.Rows {
		row := make([]string, len(result.Columns))
		for i, col := range result.Columns {
			v, _ := r.Get(col)
			row[i] = cellString(v)
		}
		rows = append(rows, row)
	}
	return rows
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// writeGrid renders a box-drawn table, column widths sized to the widest
// cell or header in each column.
func writeGrid(w io.Writer, cols []string, rows [][]string) error {
	widths := columnWidths(cols, rows)
	border := gridBorder(widths)

	fmt.Fprintln(w, border)
	fmt.Fprintln(w, gridRow(cols, widths))
	fmt.Fprintln(w, border)
	for _, row := range rows {
		fmt.Fprintln(w, gridRow(row, widths))
	}
	fmt.Fprintln(w, border)
	return nil
}

func gridBorder(widths []int) string {
	var b strings.Builder
	b.WriteByte('+')
	for _, width := range widths {
		b.WriteString(strings.Repeat("-", width+2))
		b.WriteByte('+')
	}
	return b.String()
}

func gridRow(cells []string, widths []int) string {
	var b strings.Builder
	b.WriteByte('|')
	for i, width := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		fmt.Fprintf(&b, " %-*s |", width, cell)
	}
	return b.String()
}

// writeSimple renders a header line, a dashed separator, and
// space-padded data rows, mirroring the database client "simple" style.
func writeSimple(w io.Writer, cols []string, rows [][]string) error {
	widths := columnWidths(cols, rows)
	fmt.Fprintln(w, paddedRow(cols, widths))

	var sep strings.Builder
	for i, width := range widths {
		if i > 0 {
			sep.WriteByte(' ')
		}
		sep.WriteString(strings.Repeat("-", width))
	}
	fmt.Fprintln(w, sep.String())

	for _, row := range rows {
		fmt.Fprintln(w, paddedRow(row, widths))
	}
	return nil
}

func paddedRow(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, width := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		parts[i] = fmt.Sprintf("%-*s", width, cell)
	}
	return strings.TrimRight(strings.Join(parts, " "), " ")
}

// writePlain renders tab-separated values with no header decoration, for
// piping into other tools.
func writePlain(w io.Writer, cols []string, rows [][]string) error {
	fmt.Fprintln(w, strings.Join(cols, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return nil
}

func columnWidths(cols []string, rows [][]string) []int {
	widths := make([]int, len(cols))
	for i, col := range cols {
		widths[i] = len(col)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	return widths
}
