// Package simulate provides the terminal fallback backend: a deterministic,
// clearly-labeled placeholder response produced when no execution engine is
// reachable. It inspects the source for print-style statements to echo for
// cosmetic realism, never performs real computation, and always succeeds.
package simulate

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/inkwell-notebook/inkwell/kernel"
	"github.com/inkwell-notebook/inkwell/output"
)

// Label marks simulated placeholder output.
const Label = "[simulated]"

// Print-style statement patterns per language family. Only literal string
// arguments are echoed; anything needing evaluation is ignored. RE2 has no
// backreferences, so matching quote pairs are spelled out as alternatives;
// the literal argument lands in exactly one capture group per match.
var (
	pythonPrint = regexp.MustCompile(`print\(\s*(?:'(.*?)'|"(.*?)")\s*\)`)
	rustPrintln = regexp.MustCompile(`println!\(\s*"(.*?)"\s*\)`)
	rPrint      = regexp.MustCompile(`(?:print|cat)\(\s*(?:'(.*?)'|"(.*?)")\s*\)`)
	consoleLog  = regexp.MustCompile(`console\.log\(\s*(?:'(.*?)'|"(.*?)"|` + "`(.*?)`" + `)\s*\)`)
)

// Backend is the simulated execution backend.
type Backend struct{}

// New creates a simulated backend.
func New() *Backend {
	return &Backend{}
}

// Kind returns the backend kind identifier.
func (b *Backend) Kind() kernel.BackendKind {
	return kernel.BackendSimulate
}

// Execute produces a deterministic placeholder result. It never fails.
func (b *Backend) Execute(_ context.Context, req kernel.Request) (kernel.Result, error) {
	if req.Options.CompileOnly {
		return kernel.Result{
			Success: true,
			Outputs: []output.Output{output.NewResult(map[string]any{
				output.MIMEText: Label + " compilation check passed (no compiler available)",
			})},
		}, nil
	}

	switch req.Language {
	case kernel.Python:
		if echoed := echo(pythonPrint, req.Source); echoed != "" {
			return streamResult(echoed), nil
		}
	case kernel.Rust:
		if echoed := echo(rustPrintln, req.Source); echoed != "" {
			return streamResult(echoed), nil
		}
	case kernel.R:
		if echoed := echo(rPrint, req.Source); echoed != "" {
			return streamResult(echoed), nil
		}
	case kernel.JavaScript, kernel.TypeScript:
		if echoed := echo(consoleLog, req.Source); echoed != "" {
			return streamResult(echoed), nil
		}
	case kernel.SQL:
		return kernel.Result{
			Success: true,
			Outputs: []output.Output{output.NewResult(map[string]any{
				output.MIMEText: fmt.Sprintf("%s sql execution (no engine reachable)\n%s", Label, summarize(req.Source)),
			})},
		}, nil
	case kernel.Flux:
		return kernel.Result{
			Success: true,
			Outputs: []output.Output{output.NewResult(map[string]any{
				output.MIMEText: Label + " flux execution (no engine reachable)",
				output.MIMEJSON: map[string]any{"simulated": true, "language": string(kernel.Flux)},
			})},
		}, nil
	}

	lines := strings.Count(strings.TrimRight(req.Source, "\n"), "\n") + 1
	return kernel.Result{
		Success: true,
		Outputs: []output.Output{output.NewResult(map[string]any{
			output.MIMEText: fmt.Sprintf("%s executed %d line(s) of %s (no execution engine available)",
				Label, lines, req.Language),
		})},
	}, nil
}

var _ kernel.Backend = (*Backend)(nil)

// echo collects the literal arguments of every print-style match and joins
// them as output lines. Each match populates exactly one quote alternative's
// capture group and leaves the rest empty, so concatenating the groups yields
// the literal argument.
func echo(pattern *regexp.Regexp, source string) string {
	matches := pattern.FindAllStringSubmatch(source, -1)
	if len(matches) == 0 {
		return ""
	}
	var b strings.Builder
	for _, m := range matches {
		for _, g := range m[1:] {
			b.WriteString(g)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func streamResult(text string) kernel.Result {
	return kernel.Result{
		Success: true,
		Outputs: []output.Output{output.NewStream(output.Stdout, text)},
	}
}

// summarize returns the first line of the source for the placeholder body.
func summarize(source string) string {
	trimmed := strings.TrimSpace(source)
	if i := strings.IndexByte(trimmed, '\n'); i >= 0 {
		trimmed = trimmed[:i]
	}
	const maxLen = 120
	if len(trimmed) > maxLen {
		trimmed = trimmed[:maxLen] + "..."
	}
	return trimmed
}
