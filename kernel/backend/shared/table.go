package shared

import (
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultMaxRows is the display cap for tabular results.
const DefaultMaxRows = 100

// NoRowsMessage is rendered for an empty result set instead of an empty
// table.
const NoRowsMessage = "(no rows)"

var titleCaser = cases.Title(language.English)

// FormatTextTable renders an ordered sequence of uniform row-mappings as a
// fixed-width plain-text table. At most maxRows data rows are shown; when
// truncated, a "N more rows" note is appended. Zero rows render as
// NoRowsMessage. A maxRows of zero or below applies DefaultMaxRows.
func FormatTextTable(columns []string, rows []map[string]any, maxRows int) string {
	if len(rows) == 0 {
		return NoRowsMessage
	}
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	shown, extra := capRows(rows, maxRows)

	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = len(col)
	}
	cells := make([][]string, len(shown))
	for r, row := range shown {
		cells[r] = make([]string, len(columns))
		for i, col := range columns {
			value := FormatValue(row[col])
			cells[r][i] = value
			if len(value) > widths[i] {
				widths[i] = len(value)
			}
		}
	}

	var b strings.Builder
	for i, col := range columns {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(pad(col, widths[i]))
	}
	b.WriteByte('\n')
	for i := range columns {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(strings.Repeat("-", widths[i]))
	}
	for _, row := range cells {
		b.WriteByte('\n')
		for i, value := range row {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(pad(value, widths[i]))
		}
	}
	if extra > 0 {
		fmt.Fprintf(&b, "\n(%d more rows)", extra)
	}
	return b.String()
}

// FormatHTMLTable renders the same rows as an HTML table with title-cased
// headers. Truncation and empty-set behavior match FormatTextTable.
func FormatHTMLTable(columns []string, rows []map[string]any, maxRows int) string {
	if len(rows) == 0 {
		return "<p>" + NoRowsMessage + "</p>"
	}
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	shown, extra := capRows(rows, maxRows)

	var b strings.Builder
	b.WriteString("<table><thead><tr>")
	for _, col := range columns {
		b.WriteString("<th>")
		b.WriteString(html.EscapeString(titleCaser.String(col)))
		b.WriteString("</th>")
	}
	b.WriteString("</tr></thead><tbody>")
	for _, row := range shown {
		b.WriteString("<tr>")
		for _, col := range columns {
			b.WriteString("<td>")
			b.WriteString(html.EscapeString(FormatValue(row[col])))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	if extra > 0 {
		fmt.Fprintf(&b, "<p>(%d more rows)</p>", extra)
	}
	return b.String()
}

func capRows(rows []map[string]any, maxRows int) (shown []map[string]any, extra int) {
	if len(rows) > maxRows {
		return rows[:maxRows], len(rows) - maxRows
	}
	return rows, 0
}

// FormatValue converts a cell value to display text. SQL NULLs (nil) render
// as NULL; byte slices as text; everything else through its natural string
// form.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	}
	if encoded, err := json.Marshal(value); err == nil {
		return string(encoded)
	}
	return fmt.Sprintf("%v", value)
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
