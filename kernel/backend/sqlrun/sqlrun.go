// Package sqlrun provides the intermediate sql backend: statements run
// against a local sqlite database. The backend is only live when a DSN is
// configured; without one it reports unavailability and the chain falls
// through to simulation.
package sqlrun

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/inkwell-notebook/inkwell/kernel"
	"github.com/inkwell-notebook/inkwell/kernel/backend/shared"
	"github.com/inkwell-notebook/inkwell/output"
)

// DefaultTimeout bounds an execution when the request carries none.
const DefaultTimeout = 30 * time.Second

// Config configures a sqlite backend.
type Config struct {
	// DSN is the sqlite data source name, e.g.
	// file:notebook.db?_foreign_keys=on&_busy_timeout=5000.
	// Empty means the backend is unavailable.
	DSN string

	// MaxRows caps how many rows a query result renders.
	// Default: shared.DefaultMaxRows.
	MaxRows int

	// Timeout bounds an execution when the request carries none.
	// Default: 30s.
	Timeout time.Duration

	// Logger is an optional logger for backend events.
	Logger kernel.Logger
}

// Backend executes sql cells against sqlite.
type Backend struct {
	dsn     string
	maxRows int
	timeout time.Duration
	logger  kernel.Logger

	initOnce sync.Once
	initErr  error
	db       *sql.DB
}

// New creates a sqlite backend with the given configuration.
func New(cfg Config) *Backend {
	maxRows := cfg.MaxRows
	if maxRows == 0 {
		maxRows = shared.DefaultMaxRows
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Backend{
		dsn:     cfg.DSN,
		maxRows: maxRows,
		timeout: timeout,
		logger:  cfg.Logger,
	}
}

// Kind returns the backend kind identifier.
func (b *Backend) Kind() kernel.BackendKind {
	return kernel.BackendSQLRun
}

// Close releases the database handle.
func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

// init opens the database once. A single connection keeps in-memory
// databases and session pragmas stable across cells.
func (b *Backend) init(ctx context.Context) error {
	b.initOnce.Do(func() {
		if b.dsn == "" {
			b.initErr = fmt.Errorf("%w: no sql dsn configured", kernel.ErrBackendUnavailable)
			return
		}
		db, err := sql.Open("sqlite3", b.dsn)
		if err != nil {
			b.initErr = fmt.Errorf("%w: open %s: %v", kernel.ErrBackendUnavailable, b.dsn, err)
			return
		}
		db.SetMaxOpenConns(1)
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			b.initErr = fmt.Errorf("%w: ping %s: %v", kernel.ErrBackendUnavailable, b.dsn, err)
			return
		}
		b.db = db
		if b.logger != nil {
			b.logger.Info("sqlite backend ready", "dsn", b.dsn)
		}
	})
	return b.initErr
}

// Execute runs the statement. Row-returning statements render a table;
// everything else reports the affected row count.
func (b *Backend) Execute(ctx context.Context, req kernel.Request) (kernel.Result, error) {
	if err := b.init(ctx); err != nil {
		return kernel.Result{}, err
	}

	timeout := req.Options.Timeout
	if timeout == 0 {
		timeout = b.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if returnsRows(req.Source) {
		return b.query(ctx, req.Source, timeout)
	}
	return b.exec(ctx, req.Source, timeout)
}

var _ kernel.Backend = (*Backend)(nil)

// returnsRows reports whether the statement's leading keyword produces a
// result set.
func returnsRows(source string) bool {
	fields := strings.Fields(strings.TrimSpace(source))
	if len(fields) == 0 {
		return false
	}
	switch strings.ToUpper(fields[0]) {
	case "SELECT", "WITH", "PRAGMA", "EXPLAIN", "VALUES":
		return true
	}
	return false
}

func (b *Backend) query(ctx context.Context, source string, timeout time.Duration) (kernel.Result, error) {
	rows, err := b.db.QueryContext(ctx, source)
	if err != nil {
		return b.sqlFailure(ctx, err, timeout), nil
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return b.sqlFailure(ctx, err, timeout), nil
	}

	var records []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return b.sqlFailure(ctx, err, timeout), nil
		}
		record := make(map[string]any, len(columns))
		for i, col := range columns {
			if raw, ok := values[i].([]byte); ok {
				record[col] = string(raw)
			} else {
				record[col] = values[i]
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return b.sqlFailure(ctx, err, timeout), nil
	}

	return kernel.Result{
		Success: true,
		Outputs: []output.Output{output.NewResult(map[string]any{
			output.MIMEText: shared.FormatTextTable(columns, records, b.maxRows),
			output.MIMEHTML: shared.FormatHTMLTable(columns, records, b.maxRows),
		})},
	}, nil
}

func (b *Backend) exec(ctx context.Context, source string, timeout time.Duration) (kernel.Result, error) {
	result, err := b.db.ExecContext(ctx, source)
	if err != nil {
		return b.sqlFailure(ctx, err, timeout), nil
	}
	affected, err := result.RowsAffected()
	if err != nil {
		affected = 0
	}
	return kernel.Result{
		Success: true,
		Outputs: []output.Output{output.NewResult(map[string]any{
			output.MIMEText: fmt.Sprintf("OK, %d row(s) affected", affected),
		})},
	}, nil
}

// sqlFailure classifies a statement error: deadline hits become timeouts,
// everything else keeps the driver's message.
func (b *Backend) sqlFailure(ctx context.Context, err error, timeout time.Duration) kernel.Result {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return kernel.Failure(kernel.KindTimeout,
			fmt.Sprintf("execution exceeded %s", timeout), nil)
	}
	return kernel.Failure(kernel.KindExecutionError, err.Error(), nil)
}
