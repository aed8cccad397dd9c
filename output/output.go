// Package output defines the typed result vocabulary shared by every
// execution backend. Outputs follow the nbformat v4 wire shapes so that
// documents produced by the runtime interoperate with standard notebook
// tooling.
package output

import (
	"encoding/json"
	"fmt"
)

// Type discriminates the output variants.
type Type string

// Supported output types.
const (
	TypeStream        Type = "stream"
	TypeExecuteResult Type = "execute_result"
	TypeDisplayData   Type = "display_data"
	TypeError         Type = "error"
)

// Channel identifies a stream output's destination.
type Channel string

// Stream channels.
const (
	Stdout Channel = "stdout"
	Stderr Channel = "stderr"
)

// Well-known MIME keys for result data bundles.
const (
	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
	MIMESVG  = "image/svg+xml"
	MIMEHTML = "text/html"
	MIMEText = "text/plain"
	MIMEJSON = "application/json"
)

// Output is a tagged variant over the four output kinds. Exactly one group of
// fields is meaningful for a given Type; the zero values of the other groups
// are ignored on the wire.
type Output struct {
	Type Type

	// Stream fields.
	Channel Channel
	Text    string

	// Execute result / display data fields.
	// ExecutionCount of zero serializes as null.
	ExecutionCount int
	Data           map[string]any
	Metadata       map[string]any

	// Error fields.
	ErrName    string
	ErrMessage string
	Traceback  []string
}

// NewStream builds a stream output on the given channel.
func NewStream(channel Channel, text string) Output {
	return Output{Type: TypeStream, Channel: channel, Text: text}
}

// NewResult builds an execute_result output from a MIME data bundle.
func NewResult(data map[string]any) Output {
	return Output{Type: TypeExecuteResult, Data: data}
}

// NewDisplay builds a display_data output from a MIME data bundle.
func NewDisplay(data map[string]any) Output {
	return Output{Type: TypeDisplayData, Data: data}
}

// NewError builds an error output.
func NewError(name, message string, traceback []string) Output {
	return Output{Type: TypeError, ErrName: name, ErrMessage: message, Traceback: traceback}
}

// IsError reports whether the output is an error-kind output.
func (o Output) IsError() bool {
	return o.Type == TypeError
}

// wire mirrors the nbformat v4 output object. Text and source-like fields may
// be a string or an array of line fragments on input; fragments are joined
// with no separator.
type wire struct {
	OutputType Type            `json:"output_type"`
	Name       Channel         `json:"name,omitempty"`
	Text       json.RawMessage `json:"text,omitempty"`

	ExecutionCount *int           `json:"execution_count,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`

	EName     string   `json:"ename,omitempty"`
	EValue    string   `json:"evalue,omitempty"`
	Traceback []string `json:"traceback,omitempty"`
}

// MarshalJSON encodes the output in nbformat v4 form.
func (o Output) MarshalJSON() ([]byte, error) {
	w := wire{OutputType: o.Type}
	switch o.Type {
	case TypeStream:
		w.Name = o.Channel
		text, err := json.Marshal(o.Text)
		if err != nil {
			return nil, err
		}
		w.Text = text
	case TypeExecuteResult, TypeDisplayData:
		w.Data = o.Data
		w.Metadata = o.Metadata
		if o.Type == TypeExecuteResult && o.ExecutionCount > 0 {
			count := o.ExecutionCount
			w.ExecutionCount = &count
		}
	case TypeError:
		w.EName = o.ErrName
		w.EValue = o.ErrMessage
		w.Traceback = o.Traceback
	default:
		return nil, fmt.Errorf("unknown output type %q", o.Type)
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes an nbformat v4 output object, accepting both string
// and line-fragment representations for stream text.
func (o *Output) UnmarshalJSON(data []byte) error {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.OutputType {
	case TypeStream:
		text, err := DecodeMultiline(w.Text)
		if err != nil {
			return fmt.Errorf("stream text: %w", err)
		}
		*o = Output{Type: TypeStream, Channel: w.Name, Text: text}
	case TypeExecuteResult, TypeDisplayData:
		out := Output{Type: w.OutputType, Data: w.Data, Metadata: w.Metadata}
		if w.ExecutionCount != nil {
			out.ExecutionCount = *w.ExecutionCount
		}
		*o = out
	case TypeError:
		*o = Output{Type: TypeError, ErrName: w.EName, ErrMessage: w.EValue, Traceback: w.Traceback}
	default:
		return fmt.Errorf("unknown output type %q", w.OutputType)
	}
	return nil
}

// DecodeMultiline decodes an nbformat multiline value: either a JSON string
// or an array of line fragments. Fragments are concatenated with no
// separator inserted.
func DecodeMultiline(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var fragments []string
	if err := json.Unmarshal(raw, &fragments); err != nil {
		return "", fmt.Errorf("expected string or string array")
	}
	joined := ""
	for _, f := range fragments {
		joined += f
	}
	return joined, nil
}
