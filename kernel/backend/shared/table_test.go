package shared

import (
	"fmt"
	"strings"
	"testing"
)

func makeRows(n int) []map[string]any {
	rows := make([]map[string]any, n)
	for i := range rows {
		rows[i] = map[string]any{"id": int64(i + 1), "name": fmt.Sprintf("row-%d", i+1)}
	}
	return rows
}

func TestFormatTextTable_Truncation(t *testing.T) {
	text := FormatTextTable([]string{"id", "name"}, makeRows(150), 100)

	lines := strings.Split(text, "\n")
	// header + separator + 100 data rows + trailer
	if len(lines) != 103 {
		t.Fatalf("line count = %d, want 103", len(lines))
	}
	if lines[len(lines)-1] != "(50 more rows)" {
		t.Errorf("trailer = %q, want %q", lines[len(lines)-1], "(50 more rows)")
	}
	if !strings.Contains(lines[2], "row-1") {
		t.Errorf("first data row = %q", lines[2])
	}
	if !strings.Contains(lines[101], "row-100") {
		t.Errorf("last data row = %q", lines[101])
	}
	if strings.Contains(text, "row-101") {
		t.Error("rows past the cap must not be rendered")
	}
}

func TestFormatTextTable_NoTruncationAtCap(t *testing.T) {
	text := FormatTextTable([]string{"id", "name"}, makeRows(100), 100)
	if strings.Contains(text, "more rows") {
		t.Error("exactly-at-cap result must not carry a trailer")
	}
}

func TestFormatTextTable_Empty(t *testing.T) {
	if got := FormatTextTable([]string{"id"}, nil, 100); got != NoRowsMessage {
		t.Errorf("empty table = %q, want %q", got, NoRowsMessage)
	}
}

func TestFormatTextTable_Alignment(t *testing.T) {
	rows := []map[string]any{
		{"name": "a", "total": int64(1)},
		{"name": "longer-name", "total": int64(23)},
	}
	text := FormatTextTable([]string{"name", "total"}, rows, 0)
	lines := strings.Split(text, "\n")
	if len(lines) != 4 {
		t.Fatalf("line count = %d, want 4", len(lines))
	}
	width := len(lines[0])
	for i, line := range lines[:3] {
		if len(strings.TrimRight(line, " ")) > width {
			t.Errorf("line %d wider than header: %q", i, line)
		}
	}
	if !strings.HasPrefix(lines[1], "----") {
		t.Errorf("separator = %q", lines[1])
	}
}

func TestFormatHTMLTable(t *testing.T) {
	rows := []map[string]any{{"name": "<script>", "total": nil}}
	htmlOut := FormatHTMLTable([]string{"name", "total"}, rows, 100)

	if !strings.Contains(htmlOut, "<th>Name</th>") {
		t.Errorf("headers should be title-cased: %s", htmlOut)
	}
	if !strings.Contains(htmlOut, "&lt;script&gt;") {
		t.Errorf("cell values must be escaped: %s", htmlOut)
	}
	if !strings.Contains(htmlOut, "<td>NULL</td>") {
		t.Errorf("nil should render as NULL: %s", htmlOut)
	}
}

func TestFormatHTMLTable_TruncationAndEmpty(t *testing.T) {
	htmlOut := FormatHTMLTable([]string{"id", "name"}, makeRows(150), 100)
	if !strings.Contains(htmlOut, "(50 more rows)") {
		t.Error("HTML table should note truncated rows")
	}
	if got := FormatHTMLTable([]string{"id"}, nil, 100); got != "<p>"+NoRowsMessage+"</p>" {
		t.Errorf("empty HTML table = %q", got)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "NULL"},
		{"text", "text"},
		{[]byte("bytes"), "bytes"},
		{int64(42), "42"},
		{3.5, "3.5"},
		{true, "true"},
		{map[string]any{"k": "v"}, `{"k":"v"}`},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
