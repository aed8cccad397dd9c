// Package pyproc provides the intermediate python backend: cells run in a
// python3 subprocess through a small harness that reports the trailing
// expression value, rendered figures, and tracebacks as sentinel marker
// lines. State does not persist between cells.
package pyproc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/inkwell-notebook/inkwell/kernel"
	"github.com/inkwell-notebook/inkwell/kernel/backend/shared"
	"github.com/inkwell-notebook/inkwell/output"
)

// DefaultInterpreter is the interpreter looked up on PATH when the
// configuration names none.
const DefaultInterpreter = "python3"

// DefaultTimeout bounds an execution when the request carries none.
const DefaultTimeout = 30 * time.Second

// Config configures a python subprocess backend.
type Config struct {
	// Interpreter is the python executable name or path.
	// Default: python3.
	Interpreter string

	// Timeout bounds an execution when the request carries none.
	// Default: 30s.
	Timeout time.Duration

	// Logger is an optional logger for backend events.
	Logger kernel.Logger
}

// Backend executes python cells in a subprocess.
type Backend struct {
	interpreter string
	timeout     time.Duration
	logger      kernel.Logger

	initOnce    sync.Once
	initErr     error
	harnessPath string
}

// New creates a python subprocess backend with the given configuration.
func New(cfg Config) *Backend {
	interpreter := cfg.Interpreter
	if interpreter == "" {
		interpreter = DefaultInterpreter
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Backend{
		interpreter: interpreter,
		timeout:     timeout,
		logger:      cfg.Logger,
	}
}

// Kind returns the backend kind identifier.
func (b *Backend) Kind() kernel.BackendKind {
	return kernel.BackendPyProc
}

// init resolves the interpreter and writes the harness once. Concurrent
// first uses coalesce on the same probe.
func (b *Backend) init() error {
	b.initOnce.Do(func() {
		path, err := exec.LookPath(b.interpreter)
		if err != nil {
			b.initErr = fmt.Errorf("%w: %s not found on PATH", kernel.ErrBackendUnavailable, b.interpreter)
			return
		}
		b.interpreter = path

		// A fresh private file per backend; a fixed name in the shared
		// temp dir could collide with another user's file.
		harness, err := os.CreateTemp("", "inkwell_pyproc_*.py")
		if err != nil {
			b.initErr = fmt.Errorf("%w: write harness: %v", kernel.ErrBackendUnavailable, err)
			return
		}
		if _, err := harness.WriteString(pythonHarness); err != nil {
			harness.Close()
			os.Remove(harness.Name())
			b.initErr = fmt.Errorf("%w: write harness: %v", kernel.ErrBackendUnavailable, err)
			return
		}
		if err := harness.Close(); err != nil {
			os.Remove(harness.Name())
			b.initErr = fmt.Errorf("%w: write harness: %v", kernel.ErrBackendUnavailable, err)
			return
		}
		b.harnessPath = harness.Name()

		if b.logger != nil {
			b.logger.Info("python subprocess backend ready", "interpreter", path)
		}
	})
	return b.initErr
}

// Execute runs the cell in a fresh interpreter process.
func (b *Backend) Execute(ctx context.Context, req kernel.Request) (kernel.Result, error) {
	if err := b.init(); err != nil {
		return kernel.Result{}, err
	}

	timeout := req.Options.Timeout
	if timeout == 0 {
		timeout = b.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, b.interpreter, b.harnessPath)
	cmd.Stdin = strings.NewReader(req.Source)
	if req.Options.WorkingDirectory != "" {
		cmd.Dir = req.Options.WorkingDirectory
	}
	cmd.Env = os.Environ()
	for k, v := range req.Options.Environment {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return kernel.Failure(kernel.KindTimeout,
			fmt.Sprintf("execution exceeded %s", timeout), nil), nil
	}

	capture := req.Options.CaptureOutput == nil || *req.Options.CaptureOutput
	res := parseRun(stdout.String(), stderr.String(), capture)

	if runErr != nil && res.Success {
		// The process died without emitting an error marker.
		return kernel.Failure(kernel.KindExecutionError,
			fmt.Sprintf("python process failed: %v", runErr),
			strings.Split(strings.TrimRight(stderr.String(), "\n"), "\n")), nil
	}
	return res, nil
}

var _ kernel.Backend = (*Backend)(nil)

// errorPayload is the harness's ERROR marker body.
type errorPayload struct {
	EName     string   `json:"ename"`
	EValue    string   `json:"evalue"`
	Traceback []string `json:"traceback"`
}

// parseRun converts the harness's stdout and stderr into a normalized
// result: captured streams first, then figures, then the expression value.
// An ERROR marker turns the whole run into a failed result.
func parseRun(stdout, stderr string, capture bool) kernel.Result {
	markers, plain := shared.ExtractMarkers(stdout)

	var outs []output.Output
	if capture {
		// Marker framing can leave blank lines behind; suppress
		// whitespace-only residue.
		if strings.TrimSpace(plain) != "" {
			outs = append(outs, output.NewStream(output.Stdout, plain))
		}
		if stderr != "" {
			outs = append(outs, output.NewStream(output.Stderr, stderr))
		}
	}

	for _, m := range markers {
		switch m.Name {
		case shared.MarkerError:
			var payload errorPayload
			if err := json.Unmarshal([]byte(m.Payload), &payload); err != nil {
				return kernel.Failure(kernel.KindExecutionError, m.Payload, nil)
			}
			trace := trimTrace(payload.Traceback)
			res := kernel.Failure(kernel.KindExecutionError,
				payload.EName+": "+payload.EValue, trace)
			res.Outputs = append(outs, output.NewError(payload.EName, payload.EValue, trace))
			return res
		case shared.MarkerFigure:
			outs = append(outs, output.NewDisplay(map[string]any{
				output.MIMEPNG: m.Payload,
			}))
		case shared.MarkerResult:
			var value any
			if err := json.Unmarshal([]byte(m.Payload), &value); err != nil {
				value = m.Payload
			}
			outs = append(outs, output.NewResult(map[string]any{
				output.MIMEText: shared.FormatValue(value),
			}))
		}
	}

	return kernel.Result{Success: true, Outputs: outs}
}

// trimTrace strips trailing newlines the python traceback module leaves on
// each frame.
func trimTrace(trace []string) []string {
	trimmed := make([]string, 0, len(trace))
	for _, line := range trace {
		trimmed = append(trimmed, strings.TrimRight(line, "\n"))
	}
	return trimmed
}
