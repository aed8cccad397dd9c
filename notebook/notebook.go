// Package notebook implements the persisted notebook document model: parsing
// and serializing nbformat v4 JSON, and converting between the persisted form
// and the in-memory cell representation the execution runtime operates on.
package notebook

import (
	"errors"

	"github.com/google/uuid"

	"github.com/inkwell-notebook/inkwell/output"
)

// Document-model errors.
var (
	// ErrMalformedDocument is returned when the document is not valid
	// notebook JSON, most notably when the top-level cells array is absent.
	ErrMalformedDocument = errors.New("malformed notebook document")

	// ErrUnsupportedVersion is returned when nbformat major version is
	// below the minimum this model accepts.
	ErrUnsupportedVersion = errors.New("unsupported notebook format version")
)

// MinMajorVersion is the lowest accepted nbformat major version.
const MinMajorVersion = 4

// CellKind distinguishes code, markdown, and raw cells.
type CellKind string

// Cell kinds.
const (
	CellCode     CellKind = "code"
	CellMarkdown CellKind = "markdown"
	CellRaw      CellKind = "raw"
)

// Default language tags applied when neither the cell nor the document
// carries one.
const (
	DefaultCodeLanguage = "python"
	MarkdownLanguage    = "markdown"
)

// Cell is one unit of source plus its execution state within a document.
// Outputs and ExecutionCount are meaningful for code cells only; an
// ExecutionCount of zero means the cell has not been executed.
type Cell struct {
	ID             string
	Kind           CellKind
	Language       string
	Source         string
	Outputs        []output.Output
	ExecutionCount int
}

// NewCell creates a cell with a fresh unique id, empty source, and no
// outputs.
func NewCell(kind CellKind) Cell {
	return Cell{ID: uuid.NewString(), Kind: kind}
}

// Version is the nbformat schema version pair.
type Version struct {
	Major int
	Minor int
}

// LanguageInfo is the document-level language metadata block.
type LanguageInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// Document is a parsed notebook. It exclusively owns its ordered cell list.
type Document struct {
	Cells    []Cell
	Version  Version
	Language LanguageInfo
}

// ToCells derives the in-memory cell list, resolving each cell's language by
// precedence: cell-level tag, then document-level tag, then the kind default.
func (d Document) ToCells() []Cell {
	cells := make([]Cell, len(d.Cells))
	for i, c := range d.Cells {
		if c.Language == "" {
			switch {
			case c.Kind == CellCode && d.Language.Name != "":
				c.Language = d.Language.Name
			case c.Kind == CellCode:
				c.Language = DefaultCodeLanguage
			default:
				c.Language = MarkdownLanguage
			}
		}
		cells[i] = c
	}
	return cells
}

// FromCells builds a document from a cell list. When info is nil a default
// metadata block is synthesized.
func FromCells(cells []Cell, info *LanguageInfo) Document {
	language := LanguageInfo{Name: DefaultCodeLanguage, Version: "3"}
	if info != nil {
		language = *info
	}
	doc := Document{
		Cells:    make([]Cell, len(cells)),
		Version:  Version{Major: 4, Minor: 5},
		Language: language,
	}
	copy(doc.Cells, cells)
	return doc
}
