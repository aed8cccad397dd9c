package kernel

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for dispatch and backend resolution.
var (
	// ErrUnsupportedLanguage is returned when a request names a language
	// outside the closed supported set. Rejected before dispatch; no
	// sequence number is consumed.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrBackendUnavailable signals that a backend tier cannot serve the
	// request at all (engine absent, interpreter missing). It triggers
	// fallback to the next tier and is never surfaced raw to callers.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrExecutionInFlight is returned when a cell already has an
	// execution running. A second request for the same cell is rejected,
	// not queued.
	ErrExecutionInFlight = errors.New("cell execution already in flight")

	// ErrConfiguration indicates an invalid or incomplete configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Error kinds carried on failed results.
const (
	KindExecutionError  = "ExecutionError"
	KindTimeout         = "Timeout"
	KindCompileOnly     = "CompileOnlyNotSupported"
	KindInternalFailure = "InternalFailure"
)

// ExecError describes an in-engine execution failure: the language-specific
// error name, message, and traceback when the backend could retrieve one.
type ExecError struct {
	// Kind classifies the failure (ExecutionError, Timeout, ...).
	Kind string

	// Message is the human-readable failure description.
	Message string

	// Trace is the ordered language-native traceback, when available.
	Trace []string

	// Err is the underlying error, if any.
	Err error
}

// Error returns the kind-qualified failure message.
func (e *ExecError) Error() string {
	if e.Kind == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *ExecError) Unwrap() error {
	return e.Err
}

// FullTrace returns the trace, substituting a generic single-line trace when
// the backend could not retrieve one. Never empty.
func (e *ExecError) FullTrace() []string {
	if len(e.Trace) > 0 {
		return e.Trace
	}
	return []string{e.Error()}
}

// String renders the trace as one block, matching how a failed cell is shown
// inline.
func (e *ExecError) String() string {
	return strings.Join(e.FullTrace(), "\n")
}
