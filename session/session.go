// Package session ties the document model to the execution runtime: it owns
// an ordered cell list, executes cells through the dispatcher, and writes
// results back in place.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/inkwell-notebook/inkwell/kernel"
	"github.com/inkwell-notebook/inkwell/notebook"
)

// Session errors.
var (
	// ErrNoSuchCell is returned when a cell id is not in the session.
	ErrNoSuchCell = errors.New("no such cell")

	// ErrNotCodeCell is returned when execution is requested for a
	// markdown or raw cell.
	ErrNotCodeCell = errors.New("cell is not a code cell")
)

// Config configures a Session.
type Config struct {
	// Dispatcher executes code cells. Required.
	Dispatcher *kernel.Dispatcher

	// Logger is an optional logger for session events.
	Logger kernel.Logger
}

// Session is one open notebook: an ordered cell list plus the runtime that
// executes it. Methods are safe for concurrent use; the lock is not held
// while a cell executes, so independent cells can run concurrently.
type Session struct {
	dispatcher *kernel.Dispatcher
	logger     kernel.Logger

	mu       sync.Mutex
	cells    []notebook.Cell
	language *notebook.LanguageInfo
}

// New creates an empty session.
// Returns ErrConfiguration if no dispatcher is configured.
func New(cfg Config) (*Session, error) {
	if cfg.Dispatcher == nil {
		return nil, fmt.Errorf("%w: session requires a dispatcher", kernel.ErrConfiguration)
	}
	return &Session{
		dispatcher: cfg.Dispatcher,
		logger:     cfg.Logger,
	}, nil
}

// Load replaces the session's cells with the parsed document's.
func (s *Session) Load(data []byte) error {
	doc, err := notebook.Parse(data)
	if err != nil {
		return err
	}
	cells := doc.ToCells()
	// Documents predating cell ids leave them empty; the session needs
	// every cell addressable.
	for i := range cells {
		if cells[i].ID == "" {
			cells[i].ID = uuid.NewString()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cells = cells
	language := doc.Language
	s.language = &language
	if s.logger != nil {
		s.logger.Info("notebook loaded", "cells", len(s.cells))
	}
	return nil
}

// Save serializes the session's cells as an nbformat document.
func (s *Session) Save() ([]byte, error) {
	s.mu.Lock()
	doc := notebook.FromCells(s.cells, s.language)
	s.mu.Unlock()
	return notebook.Serialize(doc)
}

// Cells returns a copy of the ordered cell list.
func (s *Session) Cells() []notebook.Cell {
	s.mu.Lock()
	defer s.mu.Unlock()
	cells := make([]notebook.Cell, len(s.cells))
	copy(cells, s.cells)
	return cells
}

// Cell returns the cell with the given id.
func (s *Session) Cell(id string) (notebook.Cell, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		return s.cells[i], true
	}
	return notebook.Cell{}, false
}

// AddCell appends a fresh cell and returns it. For code cells the language
// tag records which runtime the cell targets.
func (s *Session) AddCell(kind notebook.CellKind, language string) notebook.Cell {
	cell := notebook.NewCell(kind)
	cell.Language = language
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cells = append(s.cells, cell)
	return cell
}

// UpdateSource replaces a cell's source text.
func (s *Session) UpdateSource(id, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNoSuchCell, id)
	}
	s.cells[i].Source = source
	return nil
}

// RemoveCell deletes a cell from the session.
func (s *Session) RemoveCell(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNoSuchCell, id)
	}
	s.cells = append(s.cells[:i], s.cells[i+1:]...)
	return nil
}

// ExecuteCell runs one code cell and writes the outcome back into the cell,
// replacing any previous outputs and execution count.
//
// The returned error is non-nil only for caller errors: an unknown cell id,
// a non-code cell, an unsupported language, or an execution already in
// flight for this cell. Those leave the cell untouched.
func (s *Session) ExecuteCell(ctx context.Context, id string, opts kernel.Options) (kernel.Result, error) {
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return kernel.Result{}, fmt.Errorf("%w: %s", ErrNoSuchCell, id)
	}
	cell := s.cells[i]
	s.mu.Unlock()

	if cell.Kind != notebook.CellCode {
		return kernel.Result{}, fmt.Errorf("%w: %s is %s", ErrNotCodeCell, id, cell.Kind)
	}

	tag := cell.Language
	if tag == "" {
		tag = notebook.DefaultCodeLanguage
	}
	language, err := kernel.ParseLanguage(tag)
	if err != nil {
		return kernel.Result{}, err
	}

	res, err := s.dispatcher.Execute(ctx, kernel.Request{
		Language: language,
		Source:   cell.Source,
		CellID:   id,
		Options:  opts,
	})
	if err != nil {
		return kernel.Result{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		s.cells[i].Outputs = res.Outputs
		s.cells[i].ExecutionCount = res.ExecutionCount
	}
	return res, nil
}

// ExecuteAll runs every code cell in document order, stopping early only on
// caller errors. Results are returned in cell order, one per code cell.
func (s *Session) ExecuteAll(ctx context.Context, opts kernel.Options) ([]kernel.Result, error) {
	var results []kernel.Result
	for _, cell := range s.Cells() {
		if cell.Kind != notebook.CellCode {
			continue
		}
		res, err := s.ExecuteCell(ctx, cell.ID, opts)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// index returns the position of the cell with the given id, or -1.
// Caller holds s.mu.
func (s *Session) index(id string) int {
	for i, c := range s.cells {
		if c.ID == id {
			return i
		}
	}
	return -1
}
