package gate

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	limitRe  = regexp.MustCompile(`(?i)\bLIMIT\s+(\d+)\b`)
	digitsRe = regexp.MustCompile(`\d+`)
	returnRe = regexp.MustCompile(`(?i)\bRETURN\b`)
	unionRe  = regexp.MustCompile(`(?i)\bUNION\b`)
)

// SanitizeFreeText validates raw Cypher text and returns it with an
// enforced row cap. The denylist applies unconditionally; a caller with
// write permission still cannot run a denylisted operation. Write
// permission itself is enforced later by the EXPLAIN preflight.
func SanitizeFreeText(query string, params map[string]any) (*SanitizedQuery, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, errf(KindEmptyQuery, "query must be a non-empty string")
	}
	if len(trimmed) > MaxQueryLength {
		return nil, errf(KindQueryTooLong, "query length %d exceeds maximum of %d characters", len(trimmed), MaxQueryLength)
	}
	if rule := MatchDenylist(trimmed); rule != nil {
		return nil, errf(KindDenylistedOperation, "query refused: %s", rule.Reason)
	}

	if params == nil {
		params = map[string]any{}
	}
	return &SanitizedQuery{Text: applyRowCap(trimmed), Params: params}, nil
}

// applyRowCap guarantees the query carries an explicit LIMIT of at most
// MaxRecords. Existing caps are clamped down in place; otherwise a cap
// is inserted after the first RETURN clause, or at the end when the
// query has no RETURN.
func applyRowCap(query string) string {
	if limitRe.MatchString(query) {
		return limitRe.ReplaceAllStringFunc(query, func(m string) string {
			n, err := strconv.Atoi(digitsRe.FindString(m))
			if err == nil && n > MaxRecords {
				return "LIMIT " + strconv.Itoa(MaxRecords)
			}
			return m
		})
	}

	capText := " LIMIT " + strconv.Itoa(MaxRecords)

	ret := returnRe.FindStringIndex(query)
	if ret == nil {
		return strings.TrimRight(query, " \t\n;") + capText
	}

	// The cap belongs to the first RETURN clause, which ends at the next
	// UNION or at the end of the query.
	rest := query[ret[1]:]
	if u := unionRe.FindStringIndex(rest); u != nil {
		pos := ret[1] + u[0]
		return strings.TrimRight(query[:pos], " \t\n") + capText + " " + query[pos:]
	}
	return strings.TrimRight(query, " \t\n;") + capText
}
