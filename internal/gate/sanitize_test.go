package gate

import (
	"strings"
	"testing"
)

func TestSanitizeFreeText_EmptyQuery(t *testing.T) {
	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := SanitizeFreeText(q, nil)
		gerr, ok := err.(*Error)
		if !ok || gerr.Kind != KindEmptyQuery {
			t.Errorf("query %q: expected empty_query, got %v", q, err)
		}
	}
}

func TestSanitizeFreeText_QueryTooLong(t *testing.T) {
	long := "MATCH (n) WHERE n.name = '" + strings.Repeat("x", MaxQueryLength) + "' RETURN n"
	_, err := SanitizeFreeText(long, nil)
	gerr, ok := err.(*Error)
	if !ok || gerr.Kind != KindQueryTooLong {
		t.Fatalf("expected query_too_long, got %v", err)
	}
}

func TestSanitizeFreeText_AppendsSingleCap(t *testing.T) {
	sq, err := SanitizeFreeText("MATCH (n) RETURN n", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Count(strings.ToUpper(sq.Text), "LIMIT"); got != 1 {
		t.Errorf("expected exactly one LIMIT clause, got %d in %q", got, sq.Text)
	}
	if !strings.HasSuffix(sq.Text, "LIMIT 1000") {
		t.Errorf("expected cap at 1000, got %q", sq.Text)
	}
}

func TestSanitizeFreeText_ClampsExistingCapInPlace(t *testing.T) {
	sq, err := SanitizeFreeText("MATCH (n) RETURN n LIMIT 50000", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sq.Text != "MATCH (n) RETURN n LIMIT 1000" {
		t.Errorf("expected in-place clamp, got %q", sq.Text)
	}
}

func TestSanitizeFreeText_KeepsSmallCap(t *testing.T) {
	sq, err := SanitizeFreeText("MATCH (n) RETURN n LIMIT 25", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(sq.Text, "LIMIT 25") {
		t.Errorf("cap under the maximum must be preserved, got %q", sq.Text)
	}
}

func TestSanitizeFreeText_CapBeforeUnion(t *testing.T) {
	sq, err := SanitizeFreeText("MATCH (n:A) RETURN n UNION MATCH (m:B) RETURN m LIMIT 10", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The second clause already carries a cap, so the text is unchanged
	// apart from that one.
	if !strings.Contains(sq.Text, "LIMIT 10") {
		t.Errorf("existing cap lost: %q", sq.Text)
	}
}

func TestSanitizeFreeText_CapInsertedBeforeUnion(t *testing.T) {
	sq, err := SanitizeFreeText("MATCH (n:A) RETURN n UNION MATCH (m:B) RETURN m", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "MATCH (n:A) RETURN n LIMIT 1000 UNION MATCH (m:B) RETURN m"
	if sq.Text != want {
		t.Errorf("expected cap on the first RETURN clause:\n got %q\nwant %q", sq.Text, want)
	}
}

func TestSanitizeFreeText_NoReturnCapAtEnd(t *testing.T) {
	sq, err := SanitizeFreeText("MATCH (n) WITH n SKIP 5", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(sq.Text, "LIMIT 1000") {
		t.Errorf("expected cap at end for RETURN-less query, got %q", sq.Text)
	}
}

func TestSanitizeFreeText_TrailingSemicolon(t *testing.T) {
	sq, err := SanitizeFreeText("MATCH (n) RETURN n;", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(sq.Text, ";") {
		t.Errorf("cap must not land after a semicolon, got %q", sq.Text)
	}
}

func TestSanitizeFreeText_DenylistUnconditional(t *testing.T) {
	// Even a caller allowed to write may not run a denylisted operation.
	_, err := SanitizeFreeText("MATCH (n) DETACH DELETE n", nil)
	gerr, ok := err.(*Error)
	if !ok || gerr.Kind != KindDenylistedOperation {
		t.Fatalf("expected denylisted_operation, got %v", err)
	}
	if !strings.Contains(gerr.Detail, "DETACH DELETE") {
		t.Errorf("reason should name the rule, got %q", gerr.Detail)
	}
}

func TestSanitizeFreeText_DenylistedOperations(t *testing.T) {
	queries := []string{
		"MATCH (n) DELETE n",
		"match (n) delete n", // case-insensitive
		"DROP INDEX node_index",
		"CREATE DATABASE sandbox",
		"CREATE USER eve SET PASSWORD 'hunter2'",
		"CREATE OR REPLACE ROLE admin2",
		"ALTER USER neo4j SET PASSWORD 'x'",
		"CALL dbms.listConfig()",
		"CALL db.createLabel('X')",
		"CALL apoc.trigger.add('t', 'RETURN 1', {})",
	}
	for _, q := range queries {
		_, err := SanitizeFreeText(q, nil)
		gerr, ok := err.(*Error)
		if !ok || gerr.Kind != KindDenylistedOperation {
			t.Errorf("query %q: expected denylisted_operation, got %v", q, err)
		}
	}
}

func TestSanitizeFreeText_ReadQueriesPass(t *testing.T) {
	queries := []string{
		"MATCH (n:Person) RETURN n.name",
		"MATCH (a)-[r:KNOWS]->(b) RETURN a, b LIMIT 10",
		"CALL db.labels() YIELD label RETURN label",
	}
	for _, q := range queries {
		if _, err := SanitizeFreeText(q, nil); err != nil {
			t.Errorf("query %q: unexpected error %v", q, err)
		}
	}
}

func TestSanitizeFreeText_ParamsPassThrough(t *testing.T) {
	params := map[string]any{"name": "value"}
	sq, err := SanitizeFreeText("MATCH (n) WHERE n.name = $name RETURN n", params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sq.Params["name"] != "value" {
		t.Errorf("expected params preserved, got %v", sq.Params)
	}
}
