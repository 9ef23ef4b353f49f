package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tanelpoder/xtop-engine/internal/model"
)

func sampleResult() *model.Result {
	r1 := model.NewRow()
	r1.Set("state", "RUN")
	r1.Set("samples", int64(42))
	r2 := model.NewRow()
	r2.Set("state", "DISK")
	r2.Set("samples", int64(7))
	return &model.Result{
		Columns: []string{"state", "samples"},
		Rows:    []*model.Row{r1, r2},
	}
}

func TestWriteResultGridHasBordersAndHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResult(&buf, sampleResult(), FormatGrid); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "state") || !strings.Contains(out, "RUN") {
		t.Errorf("grid output missing expected content: %q", out)
	}
	if !strings.HasPrefix(out, "+") {
		t.Errorf("grid output should start with a border, got %q", out)
	}
}

func TestWriteResultSimpleHasDashedSeparator(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResult(&buf, sampleResult(), FormatSimple); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header+separator+2 rows, got %d lines: %q", len(lines), lines)
	}
	if !strings.HasPrefix(lines[1], "-") {
		t.Errorf("expected dashed separator line, got %q", lines[1])
	}
}

func TestWriteResultPlainIsTabSeparated(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResult(&buf, sampleResult(), FormatPlain); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if lines[0] != "state\tsamples" {
		t.Errorf("header = %q, want tab-separated columns", lines[0])
	}
	if lines[1] != "RUN\t42" {
		t.Errorf("row = %q, want %q", lines[1], "RUN\t42")
	}
}

func TestWriteResultNullCellRendersAsNULL(t *testing.T) {
	row := model.NewRow()
	row.Set("v", nil)
	result := &model.Result{Columns: []string{"v"}, Rows: []*model.Row{row}}

	var buf bytes.Buffer
	if err := WriteResult(&buf, result, FormatPlain); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	if !strings.Contains(buf.String(), "NULL") {
		t.Errorf("expected NULL rendering, got %q", buf.String())
	}
}
