package storage

import "time"

// EventWriter is the interface for writing query audit events.
// Write() must NEVER block the caller.
type EventWriter interface {
	Write(event *QueryEvent)
	Close()
}

// QueryEvent records one pass through the gate, whether it ended in
// execution, refusal, or a database failure.
type QueryEvent struct {
	RequestID     string
	ProjectID     string
	Timestamp     time.Time
	Mode          string // "template", "freetext", or "validate"
	TemplateKind  string // empty for free-text requests
	QueryPreview  string // first 500 chars of the final query text
	QueryHash     string // SHA256 of the full query text
	QuerySize     uint32
	Verdict       string // "executed", "refused", or "failed"
	RefusalKind   string // gate error kind, write_not_allowed, syntax_error
	Reason        string
	StatementType string // EXPLAIN classification, when one was obtained
	Database      string
	AllowWrite    bool
	RowCount      uint32
	Truncated     bool
	LatencyMs     float32
	Source        string // "api"
}

// QueryPreviewLength is the max chars stored in query_preview.
const QueryPreviewLength = 500

// TruncateQuery returns the first N characters (runes) of query text for
// preview storage. It never splits a multi-byte UTF-8 character.
func TruncateQuery(query string, maxLen int) string {
	runes := []rune(query)
	if len(runes) <= maxLen {
		return query
	}
	return string(runes[:maxLen])
}
