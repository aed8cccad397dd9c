package output

import (
	"encoding/json"
	"fmt"
	"strings"
)

// renderOrder is the fixed preference order for selecting one renderable
// representation from a MIME data bundle: richest first.
var renderOrder = []string{MIMEPNG, MIMEJPEG, MIMESVG, MIMEHTML, MIMEText}

// Render selects exactly one renderable representation for the output and
// returns it together with the MIME type it was taken from. It is
// deterministic and total: stream outputs render their text, error outputs
// render their formatted traceback, and a result output with no known
// representation renders as an empty string with an empty MIME type.
func (o Output) Render() (mime string, rendered string) {
	switch o.Type {
	case TypeStream:
		return MIMEText, o.Text
	case TypeError:
		return MIMEText, o.renderError()
	case TypeExecuteResult, TypeDisplayData:
		for _, key := range renderOrder {
			if value, ok := o.Data[key]; ok {
				return key, renderValue(value)
			}
		}
		return "", ""
	default:
		return "", ""
	}
}

func (o Output) renderError() string {
	if len(o.Traceback) > 0 {
		return strings.Join(o.Traceback, "\n")
	}
	if o.ErrName == "" {
		return o.ErrMessage
	}
	return o.ErrName + ": " + o.ErrMessage
}

// renderValue converts a MIME bundle entry to a display string. Bundle values
// may be plain strings, line-fragment arrays, or arbitrary structured JSON.
func renderValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, "")
	case []any:
		var b strings.Builder
		allStrings := true
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				allStrings = false
				break
			}
			b.WriteString(s)
		}
		if allStrings {
			return b.String()
		}
	case nil:
		return ""
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(encoded)
}
