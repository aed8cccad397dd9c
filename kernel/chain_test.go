package kernel

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestChain_FirstTierWins(t *testing.T) {
	primary := okBackend("from primary\n")
	secondary := okBackend("from secondary\n")
	chain := NewChain(primary, secondary)

	res, err := chain.Execute(context.Background(), Request{Language: Python, Source: "x"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Outputs[0].Text != "from primary\n" {
		t.Errorf("output = %q, want primary output", res.Outputs[0].Text)
	}
	if secondary.callCount() != 0 {
		t.Error("secondary tier must not run when primary succeeds")
	}
}

func TestChain_FallsBackOnUnavailable(t *testing.T) {
	down := &mockBackend{err: fmt.Errorf("%w: engine absent", ErrBackendUnavailable)}
	fallback := okBackend("simulated\n")
	logger := &mockLogger{}
	chain := NewChain(down, fallback).WithLogger(logger)

	res, err := chain.Execute(context.Background(), Request{Language: SQL, Source: "SELECT 1"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Outputs[0].Text != "simulated\n" {
		t.Errorf("output = %q, want fallback output", res.Outputs[0].Text)
	}
	if len(logger.messages) == 0 {
		t.Error("fallback should be logged")
	}
}

func TestChain_FallsBackOnCallFailure(t *testing.T) {
	// Transport-level failure (not unavailability) still degrades rather
	// than surfacing a hard error.
	broken := &mockBackend{err: errors.New("connection reset")}
	fallback := okBackend("simulated\n")
	chain := NewChain(broken, fallback)

	res, err := chain.Execute(context.Background(), Request{Language: Rust, Source: "x"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.Success {
		t.Errorf("result = %+v, want fallback success", res)
	}
}

func TestChain_GenuineExecutionErrorIsFinal(t *testing.T) {
	failing := &mockBackend{result: Failure(KindExecutionError, "division by zero",
		[]string{"Traceback", "ZeroDivisionError: division by zero"})}
	fallback := okBackend("should not run")
	chain := NewChain(failing, fallback)

	res, err := chain.Execute(context.Background(), Request{Language: Python, Source: "1/0"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Success {
		t.Error("in-engine failure must be final, not degraded")
	}
	if fallback.callCount() != 0 {
		t.Error("fallback must not run after a genuine execution error")
	}
}

func TestChain_AllTiersDown(t *testing.T) {
	down := &mockBackend{err: fmt.Errorf("%w: nothing reachable", ErrBackendUnavailable)}
	chain := NewChain(down, down)

	_, err := chain.Execute(context.Background(), Request{Language: R, Source: "x"})
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("Execute() error = %v, want ErrBackendUnavailable", err)
	}
}

func TestChain_NoTiers(t *testing.T) {
	_, err := NewChain().Execute(context.Background(), Request{Language: Flux, Source: "x"})
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("Execute() error = %v, want ErrBackendUnavailable", err)
	}
}
