package kernel

import (
	"context"
	"time"

	"github.com/inkwell-notebook/inkwell/output"
)

// BackendKind identifies an execution strategy.
type BackendKind string

// Backend kinds.
const (
	BackendHostEngine BackendKind = "hostengine"
	BackendPyProc     BackendKind = "pyproc"
	BackendJSVM       BackendKind = "jsvm"
	BackendSQLRun     BackendKind = "sqlrun"
	BackendSimulate   BackendKind = "simulate"
	BackendChain      BackendKind = "chain"
)

// Options tunes a single execution request.
type Options struct {
	// Timeout bounds the execution. Zero means the backend default.
	Timeout time.Duration

	// CaptureOutput controls whether stream output is collected.
	// Defaults to true; only an explicit false disables capture.
	CaptureOutput *bool

	// WorkingDirectory is the directory the code runs in, for backends
	// that honor one.
	WorkingDirectory string

	// Environment holds extra environment variables for out-of-process
	// backends.
	Environment map[string]string

	// CompileOnly stops after static compilation for compiled-language
	// backends; the program is not run.
	CompileOnly bool
}

// Request is one cell execution request.
type Request struct {
	// Language must be a member of the closed supported set.
	Language Language

	// Source is the cell source to execute.
	Source string

	// CellID optionally identifies the cell this request executes. When
	// set, the Dispatcher rejects a second request for the same cell
	// while one is in flight.
	CellID string

	// Options tunes the execution.
	Options Options
}

// Result is the normalized outcome of one cell execution.
//
// Invariant: Success is false iff Error is present iff Outputs contains at
// least one error-kind output with matching content. ExecutionCount is the
// per-language sequence number stamped by the Dispatcher, starting at 1 and
// incremented even on failure.
type Result struct {
	Success        bool
	Outputs        []output.Output
	ExecutionCount int
	Error          *ExecError
}

// Failure builds a well-formed failed result: error details plus the
// matching error-kind output.
func Failure(kind, message string, trace []string) Result {
	execErr := &ExecError{Kind: kind, Message: message, Trace: trace}
	return Result{
		Success: false,
		Outputs: []output.Output{output.NewError(kind, message, execErr.FullTrace())},
		Error:   execErr,
	}
}

func newErrorOutput(e *ExecError) output.Output {
	return output.NewError(e.Kind, e.Message, e.FullTrace())
}

// Backend is a single execution strategy for one or more languages.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Execute must honor cancellation and deadlines.
// - Errors: return an error wrapping ErrBackendUnavailable when the backend
//   cannot serve the request at all; return a failed Result (and nil error)
//   for a genuine in-engine execution failure.
type Backend interface {
	// Kind returns the backend kind identifier.
	Kind() BackendKind

	// Execute runs the request and returns its normalized outcome.
	Execute(ctx context.Context, req Request) (Result, error)
}

// Logger is an optional interface for observability during dispatch.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: logging must be best-effort and must not panic.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Phase is the per-execution state machine position. Each call moves
// Idle -> BackendSelecting -> Running -> Succeeded or Failed -> Idle.
type Phase string

// Execution phases.
const (
	PhaseIdle             Phase = "idle"
	PhaseBackendSelecting Phase = "backend-selecting"
	PhaseRunning          Phase = "running"
	PhaseSucceeded        Phase = "succeeded"
	PhaseFailed           Phase = "failed"
)
