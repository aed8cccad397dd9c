package hostengine

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Session is the narrow slice of an MCP client session the caller needs.
// *mcp.ClientSession satisfies it.
type Session interface {
	CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error)
	Ping(ctx context.Context, params *mcp.PingParams) error
	Close() error
}

// MCPCaller adapts an MCP session to the Caller interface.
type MCPCaller struct {
	session Session
}

// NewMCPCaller wraps an established MCP session.
func NewMCPCaller(session Session) *MCPCaller {
	return &MCPCaller{session: session}
}

// Dial starts the engine process over stdio and returns a connected caller.
// The caller owns the session; Close shuts the process down.
func Dial(ctx context.Context, command string, args ...string) (*MCPCaller, error) {
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "inkwell",
		Version: "1.0.0",
	}, nil)

	transport := &mcp.CommandTransport{Command: exec.Command(command, args...)}
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to host engine: %w", err)
	}
	return &MCPCaller{session: session}, nil
}

// Call invokes the named engine tool and normalizes its reply.
func (c *MCPCaller) Call(ctx context.Context, command string, args map[string]any) (*Response, error) {
	result, err := c.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      command,
		Arguments: args,
	})
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", command, err)
	}
	return decodeResult(result), nil
}

// Ping verifies the engine session is alive.
func (c *MCPCaller) Ping(ctx context.Context) error {
	return c.session.Ping(ctx, nil)
}

// Close tears the session down.
func (c *MCPCaller) Close() error {
	return c.session.Close()
}

var _ Caller = (*MCPCaller)(nil)

// decodeResult maps a tool result onto the normalized Response. Structured
// content wins; text content blocks are joined as plain output.
func decodeResult(result *mcp.CallToolResult) *Response {
	resp := &Response{Success: !result.IsError}

	var texts []string
	for _, content := range result.Content {
		if tc, ok := content.(*mcp.TextContent); ok {
			texts = append(texts, tc.Text)
		}
	}
	joined := strings.Join(texts, "\n")

	if result.IsError {
		resp.Error = joined
		return resp
	}

	if sc := result.StructuredContent; sc != nil {
		if decoded := decodeStructured(sc); decoded != nil {
			if decoded.Output == "" {
				decoded.Output = joined
			}
			return decoded
		}
	}

	resp.Output = joined
	return resp
}

// structuredPayload is the wire shape host engines use for rich replies.
type structuredPayload struct {
	Success *bool            `json:"success"`
	Output  string           `json:"output"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
	Data    map[string]any   `json:"data"`
	Error   string           `json:"error"`
}

func decodeStructured(sc any) *Response {
	raw, err := json.Marshal(sc)
	if err != nil {
		return nil
	}
	var payload structuredPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}

	resp := &Response{
		Output:  payload.Output,
		Columns: payload.Columns,
		Rows:    payload.Rows,
		Data:    payload.Data,
		Error:   payload.Error,
	}
	if payload.Success != nil {
		resp.Success = *payload.Success
	} else {
		resp.Success = payload.Error == ""
	}
	return resp
}
