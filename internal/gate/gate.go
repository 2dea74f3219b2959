package gate

import "regexp"

// Limits enforced by the gate. Sanitized query text never exceeds
// MaxQueryLength and no query may return more than MaxRecords rows.
const (
	MaxQueryLength = 2000
	MaxRecords     = 1000

	// DefaultTemplateLimit is the row cap applied to templated queries
	// when the caller does not supply one.
	DefaultTemplateLimit = 100
)

// identifierRe matches schema-level names (labels, property keys,
// relationship types) that are safe to splice into query text. Cypher
// does not allow parameterizing these, so they are validated and
// interpolated directly, never bound.
var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether s is safe to splice into a query as a
// node label, property name, or relationship type.
func ValidIdentifier(s string) bool {
	return identifierRe.MatchString(s)
}

// SanitizedQuery is the gate's output: the exact text to execute and the
// parameters to bind. Text is at most MaxQueryLength characters and, for
// free-text input, always carries an explicit LIMIT of at most MaxRecords.
type SanitizedQuery struct {
	Text   string
	Params map[string]any
}

// ClampLimit forces a requested row limit into the inclusive range
// [1, MaxRecords]. A zero or negative limit falls back to def.
func ClampLimit(n, def int) int {
	if n <= 0 {
		n = def
	}
	if n < 1 {
		n = 1
	}
	if n > MaxRecords {
		n = MaxRecords
	}
	return n
}
