package hostengine

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type fakeSession struct {
	result  *mcp.CallToolResult
	callErr error
	pingErr error
	params  *mcp.CallToolParams
	closed  bool
}

func (f *fakeSession) CallTool(_ context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error) {
	f.params = params
	if f.callErr != nil {
		return nil, f.callErr
	}
	return f.result, nil
}

func (f *fakeSession) Ping(_ context.Context, _ *mcp.PingParams) error {
	return f.pingErr
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

func TestMCPCallerTextContent(t *testing.T) {
	session := &fakeSession{result: &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "line one"},
			&mcp.TextContent{Text: "line two"},
		},
	}}
	caller := NewMCPCaller(session)

	resp, err := caller.Call(context.Background(), "execute_python_code", map[string]any{"code": "1"})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if !resp.Success {
		t.Fatal("Call() Success = false, want true")
	}
	if got, want := resp.Output, "line one\nline two"; got != want {
		t.Errorf("Output = %q, want %q", got, want)
	}
	if got, want := session.params.Name, "execute_python_code"; got != want {
		t.Errorf("tool name = %q, want %q", got, want)
	}
}

func TestMCPCallerIsError(t *testing.T) {
	session := &fakeSession{result: &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: "engine exploded"}},
	}}
	caller := NewMCPCaller(session)

	resp, err := caller.Call(context.Background(), "execute_sql", nil)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if resp.Success {
		t.Fatal("Call() Success = true, want false")
	}
	if got, want := resp.Error, "engine exploded"; got != want {
		t.Errorf("Error = %q, want %q", got, want)
	}
}

func TestMCPCallerStructuredContent(t *testing.T) {
	session := &fakeSession{result: &mcp.CallToolResult{
		StructuredContent: map[string]any{
			"columns": []any{"id"},
			"rows":    []any{map[string]any{"id": float64(7)}},
		},
	}}
	caller := NewMCPCaller(session)

	resp, err := caller.Call(context.Background(), "execute_sql", nil)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if !resp.Success {
		t.Fatal("Call() Success = false, want true")
	}
	if len(resp.Columns) != 1 || resp.Columns[0] != "id" {
		t.Errorf("Columns = %v, want [id]", resp.Columns)
	}
	if len(resp.Rows) != 1 {
		t.Fatalf("Rows = %v, want one row", resp.Rows)
	}
}

func TestMCPCallerStructuredFailure(t *testing.T) {
	session := &fakeSession{result: &mcp.CallToolResult{
		StructuredContent: map[string]any{
			"success": false,
			"error":   "table missing",
		},
	}}
	caller := NewMCPCaller(session)

	resp, err := caller.Call(context.Background(), "execute_sql", nil)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if resp.Success {
		t.Fatal("Call() Success = true, want false")
	}
	if got, want := resp.Error, "table missing"; got != want {
		t.Errorf("Error = %q, want %q", got, want)
	}
}

func TestMCPCallerTransportError(t *testing.T) {
	transportErr := errors.New("pipe closed")
	caller := NewMCPCaller(&fakeSession{callErr: transportErr})

	_, err := caller.Call(context.Background(), "execute_python_code", nil)
	if !errors.Is(err, transportErr) {
		t.Fatalf("Call() error = %v, want wrapped transport error", err)
	}
}

func TestMCPCallerPingAndClose(t *testing.T) {
	session := &fakeSession{pingErr: errors.New("down")}
	caller := NewMCPCaller(session)

	if err := caller.Ping(context.Background()); err == nil {
		t.Error("Ping() error = nil, want the session error")
	}
	if err := caller.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if !session.closed {
		t.Error("Close() did not close the session")
	}
}
