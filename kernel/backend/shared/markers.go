// Package shared provides common utilities for backend implementations:
// the sentinel-line result protocol used by out-of-process runners, and the
// tabular rendering used by SQL-like backends.
package shared

import "strings"

// Marker names emitted by runner harnesses on stdout.
const (
	MarkerResult = "RESULT"
	MarkerFigure = "FIGURE"
	MarkerError  = "ERROR"
)

// Marker is one sentinel line extracted from captured stdout. Runner
// harnesses emit lines of the form __NAME__:payload to smuggle structured
// results through the stdout channel.
type Marker struct {
	Name    string
	Payload string
}

// ExtractMarkers scans stdout for sentinel lines and returns them in order,
// together with the stdout text with those lines removed. Non-sentinel lines
// are preserved verbatim, including blank ones.
func ExtractMarkers(stdout string) ([]Marker, string) {
	if stdout == "" {
		return nil, ""
	}

	var markers []Marker
	var kept []string
	for _, line := range strings.Split(stdout, "\n") {
		if m, ok := parseMarker(strings.TrimSpace(line)); ok {
			markers = append(markers, m)
			continue
		}
		kept = append(kept, line)
	}
	return markers, strings.Join(kept, "\n")
}

func parseMarker(line string) (Marker, bool) {
	if !strings.HasPrefix(line, "__") {
		return Marker{}, false
	}
	rest := line[2:]
	end := strings.Index(rest, "__:")
	if end <= 0 {
		return Marker{}, false
	}
	name := rest[:end]
	for _, r := range name {
		if r < 'A' || r > 'Z' {
			return Marker{}, false
		}
	}
	return Marker{Name: name, Payload: rest[end+3:]}, true
}
