package kernel

import (
	"fmt"

	"github.com/agnivade/levenshtein"
)

// Language is a supported language tag. The set is closed: the Dispatcher
// rejects anything outside it before dispatch.
type Language string

// Supported languages.
const (
	Python     Language = "python"
	SQL        Language = "sql"
	Rust       Language = "rust"
	R          Language = "r"
	Flux       Language = "flux"
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
)

// Languages returns the closed set of supported language tags in a stable
// order.
func Languages() []Language {
	return []Language{Python, SQL, Rust, R, Flux, JavaScript, TypeScript}
}

// Valid reports whether l is a member of the supported set.
func (l Language) Valid() bool {
	switch l {
	case Python, SQL, Rust, R, Flux, JavaScript, TypeScript:
		return true
	}
	return false
}

// HasCompileStep reports whether the language has a distinct compilation
// phase, which is what makes the CompileOnly option meaningful.
func (l Language) HasCompileStep() bool {
	return l == Rust
}

// ParseLanguage validates a raw language tag. Unrecognized tags fail with
// ErrUnsupportedLanguage; when a supported tag is a close match, the error
// message carries a suggestion.
func ParseLanguage(tag string) (Language, error) {
	l := Language(tag)
	if l.Valid() {
		return l, nil
	}
	if hint := closestLanguage(tag); hint != "" {
		return "", fmt.Errorf("%w: %q (did you mean %q?)", ErrUnsupportedLanguage, tag, hint)
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, tag)
}

// closestLanguage returns the supported tag nearest to the input, or empty
// when nothing is close enough to be a plausible typo.
func closestLanguage(tag string) Language {
	const maxDistance = 3
	best := Language("")
	bestDistance := maxDistance + 1
	for _, candidate := range Languages() {
		d := levenshtein.ComputeDistance(tag, string(candidate))
		if d < bestDistance {
			best = candidate
			bestDistance = d
		}
	}
	if bestDistance > maxDistance {
		return ""
	}
	return best
}
