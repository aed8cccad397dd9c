package shared

import (
	"reflect"
	"testing"
)

func TestExtractMarkers(t *testing.T) {
	stdout := "hello\n__RESULT__:\"42\"\nworld\n__FIGURE__:aW1n\n"

	markers, remaining := ExtractMarkers(stdout)
	want := []Marker{
		{Name: "RESULT", Payload: `"42"`},
		{Name: "FIGURE", Payload: "aW1n"},
	}
	if !reflect.DeepEqual(markers, want) {
		t.Errorf("markers = %+v, want %+v", markers, want)
	}
	if remaining != "hello\nworld\n" {
		t.Errorf("remaining = %q, want %q", remaining, "hello\nworld\n")
	}
}

func TestExtractMarkers_NoMarkers(t *testing.T) {
	markers, remaining := ExtractMarkers("plain output\nno sentinels here")
	if markers != nil {
		t.Errorf("markers = %+v, want nil", markers)
	}
	if remaining != "plain output\nno sentinels here" {
		t.Errorf("remaining = %q, want unchanged input", remaining)
	}
}

func TestExtractMarkers_Empty(t *testing.T) {
	markers, remaining := ExtractMarkers("")
	if markers != nil || remaining != "" {
		t.Errorf("ExtractMarkers(\"\") = (%v, %q)", markers, remaining)
	}
}

func TestExtractMarkers_LookalikesPreserved(t *testing.T) {
	tests := []string{
		"__init__: python dunder",
		"__lowercase__:payload",
		"____:empty name",
	}
	// Only correctly-formed uppercase sentinel names are extracted; the
	// dunder-style lines stay in the output stream.
	markers, remaining := ExtractMarkers(tests[0] + "\n" + tests[1] + "\n" + tests[2])
	if len(markers) != 0 {
		t.Errorf("markers = %+v, want none", markers)
	}
	if remaining == "" {
		t.Error("lookalike lines should be preserved")
	}
}

func TestExtractMarkers_PayloadWithColon(t *testing.T) {
	markers, _ := ExtractMarkers(`__ERROR__:{"ename":"ValueError","evalue":"a:b"}`)
	if len(markers) != 1 || markers[0].Payload != `{"ename":"ValueError","evalue":"a:b"}` {
		t.Errorf("markers = %+v", markers)
	}
}
