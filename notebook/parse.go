package notebook

import (
	"encoding/json"
	"fmt"

	"github.com/inkwell-notebook/inkwell/output"
)

// header is the minimal top-level shape needed to gate version and cells
// before full validation.
type header struct {
	Cells         json.RawMessage `json:"cells"`
	Metadata      wireMetadata    `json:"metadata"`
	Nbformat      *int            `json:"nbformat"`
	NbformatMinor int             `json:"nbformat_minor"`
}

type wireMetadata struct {
	LanguageInfo *LanguageInfo `json:"language_info,omitempty"`
}

// wireCell is the lenient cell decode shape. Source accepts either a single
// string or an ordered array of line fragments.
type wireCell struct {
	CellType       string          `json:"cell_type"`
	ID             string          `json:"id,omitempty"`
	Metadata       cellMetadata    `json:"metadata"`
	Source         json.RawMessage `json:"source"`
	ExecutionCount *int            `json:"execution_count"`
	Outputs        []output.Output `json:"outputs,omitempty"`
}

type cellMetadata struct {
	Language string `json:"language,omitempty"`
}

// Parse decodes a persisted notebook document. It fails with
// ErrMalformedDocument when the top-level cells field is absent or not an
// array (or the document violates the nbformat subset schema), and with
// ErrUnsupportedVersion when the major version is below MinMajorVersion.
func Parse(data []byte) (Document, error) {
	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if len(h.Cells) == 0 {
		return Document{}, fmt.Errorf("%w: missing cells array", ErrMalformedDocument)
	}
	var probe []json.RawMessage
	if err := json.Unmarshal(h.Cells, &probe); err != nil {
		return Document{}, fmt.Errorf("%w: cells is not an array", ErrMalformedDocument)
	}
	if h.Nbformat == nil {
		return Document{}, fmt.Errorf("%w: missing nbformat version", ErrMalformedDocument)
	}
	if *h.Nbformat < MinMajorVersion {
		return Document{}, fmt.Errorf("%w: nbformat %d, need >= %d", ErrUnsupportedVersion, *h.Nbformat, MinMajorVersion)
	}

	// Structural validation against the embedded nbformat subset schema.
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if err := documentSchema.Validate(decoded); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	doc := Document{
		Version: Version{Major: *h.Nbformat, Minor: h.NbformatMinor},
	}
	if h.Metadata.LanguageInfo != nil {
		doc.Language = *h.Metadata.LanguageInfo
	}

	var cells []wireCell
	if err := json.Unmarshal(h.Cells, &cells); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	doc.Cells = make([]Cell, len(cells))
	for i, wc := range cells {
		cell, err := decodeCell(wc)
		if err != nil {
			return Document{}, fmt.Errorf("%w: cell %d: %v", ErrMalformedDocument, i, err)
		}
		doc.Cells[i] = cell
	}
	return doc, nil
}

func decodeCell(wc wireCell) (Cell, error) {
	source, err := output.DecodeMultiline(wc.Source)
	if err != nil {
		return Cell{}, fmt.Errorf("source: %v", err)
	}
	cell := Cell{
		ID:       wc.ID,
		Kind:     CellKind(wc.CellType),
		Language: wc.Metadata.Language,
		Source:   source,
	}
	switch cell.Kind {
	case CellCode:
		if len(wc.Outputs) > 0 {
			cell.Outputs = wc.Outputs
		}
		if wc.ExecutionCount != nil {
			cell.ExecutionCount = *wc.ExecutionCount
		}
	case CellMarkdown, CellRaw:
		// Text cells carry no outputs or execution count.
	default:
		return Cell{}, fmt.Errorf("unknown cell_type %q", wc.CellType)
	}
	return cell, nil
}
