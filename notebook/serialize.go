package notebook

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/inkwell-notebook/inkwell/output"
)

type wireDocument struct {
	Cells         []any           `json:"cells"`
	Metadata      wireDocMetadata `json:"metadata"`
	Nbformat      int             `json:"nbformat"`
	NbformatMinor int             `json:"nbformat_minor"`
}

type wireDocMetadata struct {
	LanguageInfo LanguageInfo `json:"language_info"`
}

type wireCodeCell struct {
	CellType       string          `json:"cell_type"`
	ID             string          `json:"id,omitempty"`
	Metadata       map[string]any  `json:"metadata"`
	ExecutionCount *int            `json:"execution_count"`
	Source         []string        `json:"source"`
	Outputs        []output.Output `json:"outputs"`
}

type wireTextCell struct {
	CellType string         `json:"cell_type"`
	ID       string         `json:"id,omitempty"`
	Metadata map[string]any `json:"metadata"`
	Source   []string       `json:"source"`
}

// Serialize encodes the document as nbformat v4 JSON, the inverse of Parse.
// Cell source is persisted as an ordered array of line fragments, each
// fragment keeping its trailing newline, for diff-friendliness.
func Serialize(doc Document) ([]byte, error) {
	w := wireDocument{
		Cells:         make([]any, len(doc.Cells)),
		Metadata:      wireDocMetadata{LanguageInfo: doc.Language},
		Nbformat:      doc.Version.Major,
		NbformatMinor: doc.Version.Minor,
	}
	for i, cell := range doc.Cells {
		encoded, err := encodeCell(cell)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		w.Cells[i] = encoded
	}
	return json.MarshalIndent(w, "", " ")
}

func encodeCell(cell Cell) (any, error) {
	metadata := map[string]any{}
	if cell.Language != "" {
		metadata["language"] = cell.Language
	}
	source := SplitLines(cell.Source)

	switch cell.Kind {
	case CellCode:
		wc := wireCodeCell{
			CellType: string(CellCode),
			ID:       cell.ID,
			Metadata: metadata,
			Source:   source,
			Outputs:  cell.Outputs,
		}
		if wc.Outputs == nil {
			wc.Outputs = []output.Output{}
		}
		if cell.ExecutionCount > 0 {
			count := cell.ExecutionCount
			wc.ExecutionCount = &count
		}
		return wc, nil
	case CellMarkdown, CellRaw:
		return wireTextCell{
			CellType: string(cell.Kind),
			ID:       cell.ID,
			Metadata: metadata,
			Source:   source,
		}, nil
	default:
		return nil, fmt.Errorf("unknown cell kind %q", cell.Kind)
	}
}

// SplitLines splits source into nbformat line fragments: each fragment keeps
// its trailing newline, so concatenating the fragments reproduces the source
// exactly.
func SplitLines(source string) []string {
	if source == "" {
		return []string{}
	}
	parts := strings.SplitAfter(source, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}
