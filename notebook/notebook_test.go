package notebook

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/inkwell-notebook/inkwell/output"
)

func TestParse_MissingCells(t *testing.T) {
	_, err := Parse([]byte(`{"metadata":{},"nbformat":4,"nbformat_minor":5}`))
	if !errors.Is(err, ErrMalformedDocument) {
		t.Errorf("Parse() error = %v, want ErrMalformedDocument", err)
	}
}

func TestParse_CellsNotArray(t *testing.T) {
	_, err := Parse([]byte(`{"cells":{"a":1},"nbformat":4,"nbformat_minor":5}`))
	if !errors.Is(err, ErrMalformedDocument) {
		t.Errorf("Parse() error = %v, want ErrMalformedDocument", err)
	}
}

func TestParse_UnsupportedVersion(t *testing.T) {
	_, err := Parse([]byte(`{"cells":[],"nbformat":3,"nbformat_minor":0}`))
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("Parse() error = %v, want ErrUnsupportedVersion", err)
	}
}

func TestParse_NotJSON(t *testing.T) {
	_, err := Parse([]byte(`not a notebook`))
	if !errors.Is(err, ErrMalformedDocument) {
		t.Errorf("Parse() error = %v, want ErrMalformedDocument", err)
	}
}

func TestParse_SchemaViolation(t *testing.T) {
	// cell_type outside the accepted enum fails schema validation.
	raw := `{"cells":[{"cell_type":"widget","source":""}],"nbformat":4,"nbformat_minor":5}`
	_, err := Parse([]byte(raw))
	if !errors.Is(err, ErrMalformedDocument) {
		t.Errorf("Parse() error = %v, want ErrMalformedDocument", err)
	}
}

func TestParse_FragmentSourceNormalized(t *testing.T) {
	raw := `{
		"cells": [
			{"cell_type":"code","id":"c1","metadata":{},"execution_count":null,
			 "source":["x = 1\n","y = 2\n","x + y"],"outputs":[]}
		],
		"metadata": {}, "nbformat": 4, "nbformat_minor": 5
	}`
	doc, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := "x = 1\ny = 2\nx + y"
	if doc.Cells[0].Source != want {
		t.Errorf("Source = %q, want %q", doc.Cells[0].Source, want)
	}
}

func TestParse_StringSourceAccepted(t *testing.T) {
	raw := `{
		"cells": [{"cell_type":"markdown","id":"m1","metadata":{},"source":"# Title"}],
		"metadata": {}, "nbformat": 4, "nbformat_minor": 5
	}`
	doc, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if doc.Cells[0].Source != "# Title" {
		t.Errorf("Source = %q, want %q", doc.Cells[0].Source, "# Title")
	}
}

func TestSerialize_SourceSplitOnNewlines(t *testing.T) {
	got := SplitLines("a = 1\nb = 2\nb")
	want := []string{"a = 1\n", "b = 2\n", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitLines() = %q, want %q", got, want)
	}

	if got := SplitLines(""); len(got) != 0 {
		t.Errorf("SplitLines(\"\") = %q, want empty", got)
	}

	// Fragments concatenate back to the original.
	source := "for i in range(3):\n    print(i)\n"
	if joined := strings.Join(SplitLines(source), ""); joined != source {
		t.Errorf("join(SplitLines()) = %q, want %q", joined, source)
	}
}

func TestRoundTrip_ParseSerialize(t *testing.T) {
	cells := []Cell{
		{
			ID:       "c1",
			Kind:     CellCode,
			Language: "python",
			Source:   "print('hi')\nx = 41\nx + 1",
			Outputs: []output.Output{
				output.NewStream(output.Stdout, "hi\n"),
				{Type: output.TypeExecuteResult, ExecutionCount: 3, Data: map[string]any{output.MIMEText: "42"}},
			},
			ExecutionCount: 3,
		},
		{ID: "m1", Kind: CellMarkdown, Language: "markdown", Source: "## Notes\n"},
		{ID: "c2", Kind: CellCode, Language: "sql", Source: "SELECT 1"},
	}
	doc := FromCells(cells, nil)

	data, err := Serialize(doc)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	got, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !reflect.DeepEqual(got, doc) {
		t.Errorf("parse(serialize(doc)) = %+v, want %+v", got, doc)
	}
}

func TestRoundTrip_Cells(t *testing.T) {
	cells := []Cell{
		{ID: "a", Kind: CellCode, Language: "rust", Source: "fn main() {}", ExecutionCount: 2},
		{ID: "b", Kind: CellMarkdown, Language: "markdown", Source: "text"},
	}
	got := FromCells(cells, nil).ToCells()
	if !reflect.DeepEqual(got, cells) {
		t.Errorf("ToCells(FromCells(cells)) = %+v, want %+v", got, cells)
	}
}

func TestToCells_LanguagePrecedence(t *testing.T) {
	doc := Document{
		Cells: []Cell{
			{ID: "a", Kind: CellCode, Language: "sql"},
			{ID: "b", Kind: CellCode},
			{ID: "c", Kind: CellMarkdown},
		},
		Version:  Version{Major: 4, Minor: 5},
		Language: LanguageInfo{Name: "r"},
	}

	cells := doc.ToCells()
	if cells[0].Language != "sql" {
		t.Errorf("cell tag should win, got %q", cells[0].Language)
	}
	if cells[1].Language != "r" {
		t.Errorf("document tag should apply, got %q", cells[1].Language)
	}
	if cells[2].Language != MarkdownLanguage {
		t.Errorf("markdown default should apply, got %q", cells[2].Language)
	}
}

func TestToCells_DefaultLanguage(t *testing.T) {
	doc := Document{Cells: []Cell{{ID: "a", Kind: CellCode}}, Version: Version{Major: 4}}
	if got := doc.ToCells()[0].Language; got != DefaultCodeLanguage {
		t.Errorf("Language = %q, want %q", got, DefaultCodeLanguage)
	}
}

func TestFromCells_DefaultMetadata(t *testing.T) {
	doc := FromCells(nil, nil)
	if doc.Version.Major < MinMajorVersion {
		t.Errorf("Version.Major = %d, want >= %d", doc.Version.Major, MinMajorVersion)
	}
	if doc.Language.Name == "" {
		t.Error("default metadata should carry a language name")
	}
}

func TestNewCell(t *testing.T) {
	a := NewCell(CellCode)
	b := NewCell(CellCode)
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("NewCell ids must be unique and non-empty, got %q and %q", a.ID, b.ID)
	}
	if a.Source != "" || a.Outputs != nil {
		t.Error("NewCell must start with empty source and no outputs")
	}
}
