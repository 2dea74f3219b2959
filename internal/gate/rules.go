package gate

import "regexp"

// Rule pairs a denylist pattern with the reason reported to the caller.
type Rule struct {
	re     *regexp.Regexp
	Reason string
}

// denyRules are checked against every free-text query, in order, before
// anything else touches the database. The list is static and applies
// regardless of the caller's write permission.
//
// This is a lexical filter, not a parser: it can over-match (a DELETE
// inside a string literal) and under-match (a destructive operation
// reached through an unanticipated spelling). It is a guard rail for
// LLM-generated queries, not a security boundary.
var denyRules = []Rule{
	{regexp.MustCompile(`(?i)\bDETACH\s+DELETE\b`), "DETACH DELETE removes nodes and their relationships"},
	{regexp.MustCompile(`(?i)\bDELETE\b`), "DELETE is a destructive operation"},
	{regexp.MustCompile(`(?i)\bDROP\b`), "DROP is a destructive operation"},
	{regexp.MustCompile(`(?i)\bCREATE\s+(OR\s+REPLACE\s+)?DATABASE\b`), "database administration is not permitted"},
	{regexp.MustCompile(`(?i)\bCREATE\s+(OR\s+REPLACE\s+)?(USER|ROLE)\b`), "user and role administration is not permitted"},
	{regexp.MustCompile(`(?i)\bSET\s+(PLAINTEXT\s+|ENCRYPTED\s+)?PASSWORD\b`), "password management is not permitted"},
	{regexp.MustCompile(`(?i)\bALTER\s+(USER|DATABASE|SERVER)\b`), "administrative ALTER is not permitted"},
	{regexp.MustCompile(`(?i)\bCALL\s+dbms\.`), "dbms procedure calls are not permitted"},
	{regexp.MustCompile(`(?i)\bCALL\s+db\.(create|drop|clearQueryCaches|awaitIndex)`), "database management procedure calls are not permitted"},
	{regexp.MustCompile(`(?i)\bCALL\s+apoc\.(trigger|systemdb|cypher\.runFile|export|load)`), "administrative apoc procedure calls are not permitted"},
}

// MatchDenylist returns the first matching rule, or nil.
func MatchDenylist(query string) *Rule {
	for i := range denyRules {
		if denyRules[i].re.MatchString(query) {
			return &denyRules[i]
		}
	}
	return nil
}
