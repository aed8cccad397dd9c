// Package jsvm provides the in-process javascript backend on top of the
// goja interpreter. One VM is created lazily on first use and kept for the
// life of the backend, so top-level bindings persist across cells. Runs are
// serialized; goja runtimes are not safe for concurrent use.
package jsvm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/inkwell-notebook/inkwell/kernel"
	"github.com/inkwell-notebook/inkwell/kernel/backend/shared"
	"github.com/inkwell-notebook/inkwell/output"
)

// DefaultTimeout bounds an execution when the request carries none.
const DefaultTimeout = 10 * time.Second

// Config configures a javascript VM backend.
type Config struct {
	// Timeout bounds an execution when the request carries none.
	// Default: 10s.
	Timeout time.Duration

	// Logger is an optional logger for backend events.
	Logger kernel.Logger
}

// Backend executes javascript cells in an embedded VM.
type Backend struct {
	timeout time.Duration
	logger  kernel.Logger

	initOnce sync.Once
	initErr  error

	mu     sync.Mutex
	vm     *goja.Runtime
	stdout *strings.Builder
	stderr *strings.Builder
}

// New creates a javascript VM backend with the given configuration.
func New(cfg Config) *Backend {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Backend{
		timeout: timeout,
		logger:  cfg.Logger,
	}
}

// Kind returns the backend kind identifier.
func (b *Backend) Kind() kernel.BackendKind {
	return kernel.BackendJSVM
}

// init builds the VM and installs the console shim once. Concurrent first
// uses coalesce on the same VM.
func (b *Backend) init() error {
	b.initOnce.Do(func() {
		vm := goja.New()
		b.stdout = &strings.Builder{}
		b.stderr = &strings.Builder{}

		console := vm.NewObject()
		log := b.consoleWriter(func() *strings.Builder { return b.stdout })
		errw := b.consoleWriter(func() *strings.Builder { return b.stderr })
		for name, fn := range map[string]func(goja.FunctionCall) goja.Value{
			"log":   log,
			"info":  log,
			"debug": log,
			"warn":  errw,
			"error": errw,
		} {
			if err := console.Set(name, fn); err != nil {
				b.initErr = fmt.Errorf("%w: install console.%s: %v", kernel.ErrBackendUnavailable, name, err)
				return
			}
		}
		if err := vm.Set("console", console); err != nil {
			b.initErr = fmt.Errorf("%w: install console: %v", kernel.ErrBackendUnavailable, err)
			return
		}

		b.vm = vm
		if b.logger != nil {
			b.logger.Info("javascript vm ready")
		}
	})
	return b.initErr
}

func (b *Backend) consoleWriter(sink func() *strings.Builder) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, arg.String())
		}
		buf := sink()
		buf.WriteString(strings.Join(parts, " "))
		buf.WriteByte('\n')
		return goja.Undefined()
	}
}

// Execute runs the cell in the shared VM.
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

	b.mu.Lock()
	defer b.mu.Unlock()

	b.stdout.Reset()
	b.stderr.Reset()

	// Watchdog: interrupt the VM when the context ends. It must be joined
	// before ClearInterrupt, or a deadline firing as RunString returns
	// could leave a stale interrupt behind for the next cell.
	stop := make(chan struct{})
	watchdogDone := make(chan struct{})
	go func() {
		defer close(watchdogDone)
		select {
		case <-ctx.Done():
			b.vm.Interrupt(ctx.Err())
		case <-stop:
		}
	}()

	value, runErr := b.vm.RunString(req.Source)
	close(stop)
	<-watchdogDone
	b.vm.ClearInterrupt()

	capture := req.Options.CaptureOutput == nil || *req.Options.CaptureOutput
	var outs []output.Output
	if capture {
		if b.stdout.Len() > 0 {
			outs = append(outs, output.NewStream(output.Stdout, b.stdout.String()))
		}
		if b.stderr.Len() > 0 {
			outs = append(outs, output.NewStream(output.Stderr, b.stderr.String()))
		}
	}

	if runErr != nil {
		res := b.failure(runErr, timeout)
		res.Outputs = append(outs, res.Outputs...)
		return res, nil
	}

	if value != nil && !goja.IsUndefined(value) {
		outs = append(outs, output.NewResult(map[string]any{
			output.MIMEText: shared.FormatValue(value.Export()),
		}))
	}

	return kernel.Result{Success: true, Outputs: outs}, nil
}

var _ kernel.Backend = (*Backend)(nil)

// failure classifies a goja run error. Interrupts fired by the watchdog on
// a deadline become timeouts; thrown values keep their js stack.
func (b *Backend) failure(runErr error, timeout time.Duration) kernel.Result {
	var interrupted *goja.InterruptedError
	if errors.As(runErr, &interrupted) {
		if v, ok := interrupted.Value().(error); ok && errors.Is(v, context.DeadlineExceeded) {
			return kernel.Failure(kernel.KindTimeout,
				fmt.Sprintf("execution exceeded %s", timeout), nil)
		}
		return kernel.Failure(kernel.KindExecutionError, "execution interrupted", nil)
	}

	var exception *goja.Exception
	if errors.As(runErr, &exception) {
		message := exception.Value().String()
		return kernel.Failure(kernel.KindExecutionError, message,
			strings.Split(strings.TrimRight(exception.String(), "\n"), "\n"))
	}

	return kernel.Failure(kernel.KindExecutionError, runErr.Error(), nil)
}
