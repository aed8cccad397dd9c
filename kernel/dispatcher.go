package kernel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Config configures a Dispatcher.
type Config struct {
	// Backends maps every supported language to its execution backend,
	// usually a Chain. Required, and must cover the whole language set.
	Backends map[Language]Backend

	// Counters is the explicit per-language sequence state. When nil a
	// fresh set is created.
	Counters *Counters

	// Logger is an optional logger for dispatch events.
	Logger Logger
}

// validate checks that every supported language has a backend.
func (c *Config) validate() error {
	var missing []string
	for _, lang := range Languages() {
		if c.Backends[lang] == nil {
			missing = append(missing, string(lang))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: no backend for languages: %s",
			ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}

// Dispatcher routes execution requests to per-language backends, stamps
// per-language execution counts, and converts every backend failure into a
// well-formed failed Result. It is the single normalization point all
// callers depend on.
type Dispatcher struct {
	backends map[Language]Backend
	counters *Counters
	logger   Logger

	mu       sync.Mutex
	inflight map[string]Phase
}

// NewDispatcher creates a Dispatcher.
// Returns ErrConfiguration if any supported language lacks a backend.
func NewDispatcher(cfg Config) (*Dispatcher, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	counters := cfg.Counters
	if counters == nil {
		counters = NewCounters()
	}
	backends := make(map[Language]Backend, len(cfg.Backends))
	for lang, b := range cfg.Backends {
		backends[lang] = b
	}
	return &Dispatcher{
		backends: backends,
		counters: counters,
		logger:   cfg.Logger,
		inflight: make(map[string]Phase),
	}, nil
}

// Counters returns the dispatcher's sequence state, for resets.
func (d *Dispatcher) Counters() *Counters {
	return d.counters
}

// Execute runs one cell execution request.
//
// The returned error is non-nil only for caller errors rejected before
// dispatch: an unsupported language, or a second request for a cell whose
// execution is still in flight. Those do not consume a sequence number.
// Every request that reaches its backend consumes exactly one sequence
// number and resolves to a well-formed Result, success or failure.
func (d *Dispatcher) Execute(ctx context.Context, req Request) (Result, error) {
	if _, err := ParseLanguage(string(req.Language)); err != nil {
		return Result{}, err
	}

	if req.CellID != "" {
		if err := d.acquireCell(req.CellID); err != nil {
			return Result{}, err
		}
		defer d.releaseCell(req.CellID)
	}

	count := d.counters.Next(req.Language)

	d.setPhase(req.CellID, PhaseRunning)
	res := d.dispatch(ctx, req)
	res.ExecutionCount = count
	d.normalize(&res)

	phase := PhaseSucceeded
	if !res.Success {
		phase = PhaseFailed
	}
	if d.logger != nil {
		d.logger.Info("cell executed",
			"language", string(req.Language),
			"count", count,
			"phase", string(phase))
	}
	return res, nil
}

// Phase reports the execution phase of the given cell: PhaseIdle when no
// execution is in flight for it.
func (d *Dispatcher) Phase(cellID string) Phase {
	d.mu.Lock()
	defer d.mu.Unlock()
	if phase, running := d.inflight[cellID]; running {
		return phase
	}
	return PhaseIdle
}

// dispatch selects the backend and runs it, converting unavailability,
// timeouts, and panics into failed results. No failure propagates out.
func (d *Dispatcher) dispatch(ctx context.Context, req Request) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			if d.logger != nil {
				d.logger.Error("backend panicked", "language", string(req.Language), "panic", fmt.Sprint(r))
			}
			res = Failure(KindInternalFailure, fmt.Sprintf("backend panic: %v", r), nil)
		}
	}()

	if req.Options.CompileOnly && !req.Language.HasCompileStep() {
		return Failure(KindCompileOnly,
			fmt.Sprintf("language %q has no compile step", req.Language), nil)
	}

	out, err := d.backends[req.Language].Execute(ctx, req)
	switch {
	case err == nil:
		return out
	case errors.Is(err, context.DeadlineExceeded):
		return Failure(KindTimeout, "execution timed out", nil)
	default:
		// Reaching here means even the terminal tier failed or was not
		// wired; report it as an execution failure, not a crash.
		return Failure(KindExecutionError, err.Error(), nil)
	}
}

// normalize enforces the result invariant: Success=false iff Error present
// iff an error-kind output exists with matching content.
func (d *Dispatcher) normalize(res *Result) {
	hasErrOutput := false
	for _, o := range res.Outputs {
		if o.IsError() {
			hasErrOutput = true
			break
		}
	}

	switch {
	case res.Success:
		res.Error = nil
	case res.Error == nil && hasErrOutput:
		for _, o := range res.Outputs {
			if o.IsError() {
				res.Error = &ExecError{Kind: o.ErrName, Message: o.ErrMessage, Trace: o.Traceback}
				break
			}
		}
	case res.Error == nil:
		res.Error = &ExecError{Kind: KindExecutionError, Message: "execution failed"}
	}

	if !res.Success && !hasErrOutput {
		res.Outputs = append(res.Outputs,
			newErrorOutput(res.Error))
	}
	if res.Error != nil && res.Error.Kind == "" {
		res.Error.Kind = KindExecutionError
	}
}

func (d *Dispatcher) acquireCell(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, running := d.inflight[id]; running {
		return fmt.Errorf("%w: cell %s", ErrExecutionInFlight, id)
	}
	d.inflight[id] = PhaseBackendSelecting
	return nil
}

// setPhase advances the state machine for an in-flight cell.
func (d *Dispatcher) setPhase(id string, phase Phase) {
	if id == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, running := d.inflight[id]; running {
		d.inflight[id] = phase
	}
}

func (d *Dispatcher) releaseCell(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.inflight, id)
}
