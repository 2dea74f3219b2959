package graph

import (
	"errors"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"
)

// WriteNotAllowedError is the policy refusal for a mutating query when
// the caller did not opt into writes.
type WriteNotAllowedError struct {
	Kind StatementKind
}

func (e *WriteNotAllowedError) Error() string {
	return "write queries are not allowed: query classified as " + e.Kind.String()
}

// SyntaxError carries the server's syntax diagnostic from an EXPLAIN
// dry run.
type SyntaxError struct {
	Message string
}

func (e *SyntaxError) Error() string {
	return "query syntax error: " + e.Message
}

// translatePlanError converts an EXPLAIN failure into a *SyntaxError
// when the server reported one, and passes everything else through.
func translatePlanError(err error) error {
	var neoErr *db.Neo4jError
	if errors.As(err, &neoErr) && strings.Contains(neoErr.Code, "SyntaxError") {
		return &SyntaxError{Message: neoErr.Msg}
	}
	if strings.Contains(strings.ToLower(err.Error()), "syntax") {
		return &SyntaxError{Message: err.Error()}
	}
	return err
}

// ConnectErrorKind classifies a failed connectivity check.
type ConnectErrorKind int

const (
	ConnectErrorValidation ConnectErrorKind = iota
	ConnectErrorAuthentication
	ConnectErrorDNS
	ConnectErrorConnection
)

// String returns the kind name used in error messages and audit events.
func (k ConnectErrorKind) String() string {
	switch k {
	case ConnectErrorAuthentication:
		return "authentication_failed"
	case ConnectErrorDNS:
		return "dns_resolution_failed"
	case ConnectErrorConnection:
		return "connection_failed"
	default:
		return "validation_failed"
	}
}

// ClassifyConnectError maps a connectivity failure to a kind. The
// driver's structured error code is checked first; after that this is
// best-effort substring matching on the error text, not a structured
// error code, and it is the only place such matching happens so the
// heuristic can be swapped without touching call sites.
func ClassifyConnectError(err error) ConnectErrorKind {
	if err == nil {
		return ConnectErrorValidation
	}

	var neoErr *db.Neo4jError
	if errors.As(err, &neoErr) && strings.Contains(neoErr.Code, "Security.") {
		return ConnectErrorAuthentication
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "authentication") || strings.Contains(msg, "unauthorized"):
		return ConnectErrorAuthentication
	case strings.Contains(msg, "dns") || strings.Contains(msg, "name or service not known") || strings.Contains(msg, "no such host"):
		return ConnectErrorDNS
	case strings.Contains(msg, "connection") || strings.Contains(msg, "timeout"):
		return ConnectErrorConnection
	default:
		return ConnectErrorValidation
	}
}
