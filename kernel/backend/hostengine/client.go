package hostengine

import "context"

// Response is the normalized reply of one engine tool call.
type Response struct {
	// Success reports whether the engine executed the code without an
	// in-language error.
	Success bool

	// Output is the captured textual output, possibly carrying sentinel
	// marker lines.
	Output string

	// Columns and Rows carry a tabular result, when the command produced
	// one. Columns preserves the engine's column order.
	Columns []string
	Rows    []map[string]any

	// Data carries structured non-tabular payloads.
	Data map[string]any

	// Error is the engine-side error description when Success is false.
	Error string
}

// Caller issues tool calls to a host engine.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Call and Ping must honor cancellation and deadlines.
// - Errors: Call returns an error only for transport-level failures; an
//   in-language execution failure is a Response with Success false.
type Caller interface {
	// Call invokes the named engine command with the given arguments.
	Call(ctx context.Context, command string, args map[string]any) (*Response, error)

	// Ping verifies the engine is reachable.
	Ping(ctx context.Context) error
}
