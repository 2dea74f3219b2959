package graph

import (
	"errors"
	"strings"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"
)

func TestClassifyConnectError_StructuredSecurityCode(t *testing.T) {
	err := &db.Neo4jError{Code: "Neo.ClientError.Security.Unauthorized", Msg: "bad credentials"}
	if got := ClassifyConnectError(err); got != ConnectErrorAuthentication {
		t.Errorf("expected authentication_failed, got %s", got)
	}
}

func TestClassifyConnectError_Substrings(t *testing.T) {
	cases := []struct {
		msg  string
		want ConnectErrorKind
	}{
		{"authentication failure against server", ConnectErrorAuthentication},
		{"request unauthorized", ConnectErrorAuthentication},
		{"dns lookup failed", ConnectErrorDNS},
		{"dial tcp: lookup db.example.com: no such host", ConnectErrorDNS},
		{"Name or service not known", ConnectErrorDNS},
		{"connection refused", ConnectErrorConnection},
		{"i/o timeout", ConnectErrorConnection},
		{"something else entirely", ConnectErrorValidation},
	}
	for _, c := range cases {
		if got := ClassifyConnectError(errors.New(c.msg)); got != c.want {
			t.Errorf("message %q: expected %s, got %s", c.msg, c.want, got)
		}
	}
}

func TestClassifyConnectError_Nil(t *testing.T) {
	if got := ClassifyConnectError(nil); got != ConnectErrorValidation {
		t.Errorf("nil error should classify as validation_failed, got %s", got)
	}
}

func TestTranslatePlanError_StructuredSyntaxCode(t *testing.T) {
	err := translatePlanError(&db.Neo4jError{
		Code: "Neo.ClientError.Statement.SyntaxError",
		Msg:  "Invalid input 'MACTH'",
	})
	var synErr *SyntaxError
	if !errors.As(err, &synErr) {
		t.Fatalf("expected *SyntaxError, got %T", err)
	}
	if !strings.Contains(synErr.Message, "MACTH") {
		t.Errorf("expected server message carried through, got %q", synErr.Message)
	}
}

func TestTranslatePlanError_SubstringFallback(t *testing.T) {
	err := translatePlanError(errors.New("server reported a syntax problem"))
	var synErr *SyntaxError
	if !errors.As(err, &synErr) {
		t.Fatalf("expected *SyntaxError, got %T", err)
	}
}

func TestTranslatePlanError_PassThrough(t *testing.T) {
	orig := errors.New("connection reset")
	if got := translatePlanError(orig); got != orig {
		t.Errorf("non-syntax errors must pass through unchanged, got %v", got)
	}
}

func TestCheckWriteAllowed(t *testing.T) {
	if err := CheckWriteAllowed(StatementReadOnly, false); err != nil {
		t.Errorf("read-only query must pass without write permission: %v", err)
	}
	if err := CheckWriteAllowed(StatementReadWrite, true); err != nil {
		t.Errorf("write query with permission must pass: %v", err)
	}

	err := CheckWriteAllowed(StatementSchemaWrite, false)
	var wna *WriteNotAllowedError
	if !errors.As(err, &wna) {
		t.Fatalf("expected *WriteNotAllowedError, got %v", err)
	}
	if !strings.Contains(err.Error(), "schema_write") {
		t.Errorf("refusal must name the detected type, got %q", err.Error())
	}
}

func TestCheckWriteAllowed_UnknownCountsAsMutating(t *testing.T) {
	if err := CheckWriteAllowed(StatementUnknown, false); err == nil {
		t.Error("unclassified queries must not pass a read-only gate")
	}
}

func TestStatementKindStrings(t *testing.T) {
	cases := map[StatementKind]string{
		StatementReadOnly:    "read_only",
		StatementReadWrite:   "read_write",
		StatementWriteOnly:   "write_only",
		StatementSchemaWrite: "schema_write",
		StatementUnknown:     "unknown",
	}
	for kind, want := range cases {
		if kind.String() != want {
			t.Errorf("kind %d: got %q, want %q", kind, kind.String(), want)
		}
	}
}
