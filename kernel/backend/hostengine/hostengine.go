// Package hostengine provides the preferred execution backend: a long-lived
// host engine process spoken to over MCP stdio whose tools execute python,
// sql, rust, r, flux and typescript code. When the engine is absent or the
// transport fails, the backend reports unavailability so the chain can fall
// to the next tier.
package hostengine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/inkwell-notebook/inkwell/kernel"
	"github.com/inkwell-notebook/inkwell/kernel/backend/shared"
	"github.com/inkwell-notebook/inkwell/output"
)

// Defaults for engine probing and execution.
const (
	DefaultProbeTimeout = 2 * time.Second
	DefaultTimeout      = 30 * time.Second
)

// Engine tool names per language. TypeScript rides the generic tool with an
// explicit language argument.
const (
	toolExecutePython = "execute_python_code"
	toolExecuteSQL    = "execute_sql"
	toolExecuteRust   = "execute_rust"
	toolCompileRust   = "compile_rust"
	toolExecuteR      = "execute_r"
	toolRunFlux       = "run_flux"
	toolExecuteCode   = "execute_code"
)

// Config configures a host engine backend.
type Config struct {
	// Caller issues tool calls to the engine.
	// If nil, Execute() reports the backend unavailable.
	Caller Caller

	// ProbeTimeout bounds the availability ping before each execution.
	// Default: 2s.
	ProbeTimeout time.Duration

	// Timeout bounds an execution when the request carries none.
	// Default: 30s.
	Timeout time.Duration

	// Logger is an optional logger for backend events.
	Logger kernel.Logger
}

// Backend executes code via a host engine process.
type Backend struct {
	caller       Caller
	probeTimeout time.Duration
	timeout      time.Duration
	logger       kernel.Logger
}

// New creates a host engine backend with the given configuration.
func New(cfg Config) *Backend {
	probe := cfg.ProbeTimeout
	if probe == 0 {
		probe = DefaultProbeTimeout
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Backend{
		caller:       cfg.Caller,
		probeTimeout: probe,
		timeout:      timeout,
		logger:       cfg.Logger,
	}
}

// Kind returns the backend kind identifier.
func (b *Backend) Kind() kernel.BackendKind {
	return kernel.BackendHostEngine
}

// Available reports whether the engine answers a ping within the probe
// timeout. It never returns an error.
func (b *Backend) Available(ctx context.Context) bool {
	if b.caller == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, b.probeTimeout)
	defer cancel()
	return b.caller.Ping(ctx) == nil
}

// Execute runs the request on the host engine.
func (b *Backend) Execute(ctx context.Context, req kernel.Request) (kernel.Result, error) {
	if b.caller == nil {
		return kernel.Result{}, fmt.Errorf("%w: no engine configured", kernel.ErrBackendUnavailable)
	}
	if !b.Available(ctx) {
		return kernel.Result{}, fmt.Errorf("%w: engine did not answer ping", kernel.ErrBackendUnavailable)
	}

	command, args, err := b.commandFor(req)
	if err != nil {
		return kernel.Result{}, err
	}

	timeout := req.Options.Timeout
	if timeout == 0 {
		timeout = b.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if b.logger != nil {
		b.logger.Info("calling host engine", "command", command, "language", req.Language)
	}

	resp, err := b.caller.Call(ctx, command, args)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return kernel.Failure(kernel.KindTimeout,
				fmt.Sprintf("execution exceeded %s", timeout), nil), nil
		}
		return kernel.Result{}, fmt.Errorf("%w: %v", kernel.ErrBackendUnavailable, err)
	}

	if !resp.Success {
		message := resp.Error
		if message == "" {
			message = "host engine reported failure"
		}
		return kernel.Failure(kernel.KindExecutionError, message, nil), nil
	}

	return kernel.Result{Success: true, Outputs: b.buildOutputs(resp)}, nil
}

var _ kernel.Backend = (*Backend)(nil)

func (b *Backend) commandFor(req kernel.Request) (string, map[string]any, error) {
	switch req.Language {
	case kernel.Python:
		return toolExecutePython, map[string]any{"code": req.Source}, nil
	case kernel.SQL:
		return toolExecuteSQL, map[string]any{"query": req.Source}, nil
	case kernel.Rust:
		if req.Options.CompileOnly {
			return toolCompileRust, map[string]any{"code": req.Source}, nil
		}
		return toolExecuteRust, map[string]any{"code": req.Source}, nil
	case kernel.R:
		return toolExecuteR, map[string]any{"code": req.Source}, nil
	case kernel.Flux:
		return toolRunFlux, map[string]any{"script": req.Source}, nil
	case kernel.JavaScript, kernel.TypeScript:
		return toolExecuteCode, map[string]any{
			"language": string(req.Language),
			"code":     req.Source,
		}, nil
	default:
		return "", nil, fmt.Errorf("%w: %q", kernel.ErrUnsupportedLanguage, req.Language)
	}
}

// buildOutputs converts an engine reply into ordered cell outputs: captured
// streams first, then tabular or structured results.
func (b *Backend) buildOutputs(resp *Response) []output.Output {
	var outs []output.Output

	markers, plain := shared.ExtractMarkers(resp.Output)
	if strings.TrimSpace(plain) != "" {
		outs = append(outs, output.NewStream(output.Stdout, plain))
	}
	for _, m := range markers {
		if o, ok := markerOutput(m); ok {
			outs = append(outs, o)
		}
	}

	if len(resp.Columns) > 0 {
		outs = append(outs, output.NewResult(map[string]any{
			output.MIMEText: shared.FormatTextTable(resp.Columns, resp.Rows, shared.DefaultMaxRows),
			output.MIMEHTML: shared.FormatHTMLTable(resp.Columns, resp.Rows, shared.DefaultMaxRows),
		}))
	} else if len(resp.Data) > 0 {
		outs = append(outs, output.NewResult(map[string]any{
			output.MIMEText: shared.FormatValue(resp.Data),
			output.MIMEJSON: resp.Data,
		}))
	}

	return outs
}

func markerOutput(m shared.Marker) (output.Output, bool) {
	switch m.Name {
	case shared.MarkerResult:
		var value any
		if err := json.Unmarshal([]byte(m.Payload), &value); err != nil {
			value = m.Payload
		}
		return output.NewResult(map[string]any{
			output.MIMEText: shared.FormatValue(value),
		}), true
	case shared.MarkerFigure:
		return output.NewDisplay(map[string]any{
			output.MIMEPNG: m.Payload,
		}), true
	default:
		return output.Output{}, false
	}
}
