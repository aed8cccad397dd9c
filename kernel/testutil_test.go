package kernel

import (
	"context"
	"sync"

	"github.com/inkwell-notebook/inkwell/output"
)

// mockBackend implements Backend for testing.
type mockBackend struct {
	mu sync.Mutex

	kind BackendKind

	// Configurable returns
	result Result
	err    error
	fn     func(ctx context.Context, req Request) (Result, error)

	// Call tracking
	calls []Request
}

func (m *mockBackend) Kind() BackendKind {
	if m.kind == "" {
		return BackendSimulate
	}
	return m.kind
}

func (m *mockBackend) Execute(ctx context.Context, req Request) (Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()
	if m.fn != nil {
		return m.fn(ctx, req)
	}
	return m.result, m.err
}

func (m *mockBackend) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// okBackend returns a mock that always succeeds with one stream output.
func okBackend(text string) *mockBackend {
	return &mockBackend{
		result: Result{
			Success: true,
			Outputs: []output.Output{output.NewStream(output.Stdout, text)},
		},
	}
}

// allBackends maps every supported language to the given backend.
func allBackends(b Backend) map[Language]Backend {
	out := make(map[Language]Backend, len(Languages()))
	for _, lang := range Languages() {
		out[lang] = b
	}
	return out
}

// mockLogger implements Logger for testing.
type mockLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *mockLogger) log(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *mockLogger) Info(msg string, _ ...any)  { l.log(msg) }
func (l *mockLogger) Warn(msg string, _ ...any)  { l.log(msg) }
func (l *mockLogger) Error(msg string, _ ...any) { l.log(msg) }
