package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// StatementKind is the server's classification of a query, obtained
// from an EXPLAIN dry run.
type StatementKind int

const (
	StatementUnknown StatementKind = iota
	StatementReadOnly
	StatementReadWrite
	StatementWriteOnly
	StatementSchemaWrite
)

// String returns the classification name as reported to callers.
func (k StatementKind) String() string {
	switch k {
	case StatementReadOnly:
		return "read_only"
	case StatementReadWrite:
		return "read_write"
	case StatementWriteOnly:
		return "write_only"
	case StatementSchemaWrite:
		return "schema_write"
	default:
		return "unknown"
	}
}

// Mutating reports whether the classification implies side effects.
// Unknown counts as mutating: a query the server cannot classify does
// not get the benefit of the doubt.
func (k StatementKind) Mutating() bool {
	return k != StatementReadOnly
}

// Classify runs an EXPLAIN form of the query to obtain the server's
// read/write classification without executing side effects. A syntax
// problem in the query surfaces here as *SyntaxError.
//
// This is an advisory gate. A server that permits side effects inside a
// nominally read classification, or that misreports the statement type,
// defeats it; it is not a security boundary.
func (c *Client) Classify(ctx context.Context, queryText string, params map[string]any, database string) (StatementKind, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: database})
	defer session.Close(ctx)

	res, err := session.Run(ctx, "EXPLAIN "+queryText, params)
	if err != nil {
		return StatementUnknown, translatePlanError(err)
	}
	summary, err := res.Consume(ctx)
	if err != nil {
		return StatementUnknown, translatePlanError(err)
	}

	return kindFromStatementType(summary.StatementType()), nil
}

// CheckWriteAllowed applies the read-only policy: a mutating
// classification with allowWrite=false is refused, naming the detected
// type.
func CheckWriteAllowed(kind StatementKind, allowWrite bool) error {
	if allowWrite || !kind.Mutating() {
		return nil
	}
	return &WriteNotAllowedError{Kind: kind}
}

func kindFromStatementType(t neo4j.StatementType) StatementKind {
	switch t {
	case neo4j.StatementTypeReadOnly:
		return StatementReadOnly
	case neo4j.StatementTypeReadWrite:
		return StatementReadWrite
	case neo4j.StatementTypeWriteOnly:
		return StatementWriteOnly
	case neo4j.StatementTypeSchemaWrite:
		return StatementSchemaWrite
	default:
		return StatementUnknown
	}
}
