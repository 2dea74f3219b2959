package gate

import "fmt"

// ErrorKind classifies a gate refusal.
type ErrorKind int

const (
	KindUnspecified ErrorKind = iota
	KindEmptyQuery
	KindQueryTooLong
	KindUnknownTemplate
	KindMissingRequiredField
	KindInvalidIdentifier
	KindDenylistedOperation
	KindMalformedParameters
)

// String returns the lowercase kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindEmptyQuery:
		return "empty_query"
	case KindQueryTooLong:
		return "query_too_long"
	case KindUnknownTemplate:
		return "unknown_template"
	case KindMissingRequiredField:
		return "missing_required_field"
	case KindInvalidIdentifier:
		return "invalid_identifier"
	case KindDenylistedOperation:
		return "denylisted_operation"
	case KindMalformedParameters:
		return "malformed_parameters"
	default:
		return "unspecified"
	}
}

// Error is a gate refusal with a machine-readable kind and a
// human-readable detail. It never wraps a database error; execution
// failures stay in the graph layer.
type Error struct {
	Kind   ErrorKind
	Detail string
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Detail
}

func errf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
