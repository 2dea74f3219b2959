// Package creds validates Neo4j connection credentials and resolves
// them from the environment. Both the NEO4J_* and the older AURA_*
// naming conventions are accepted; stored connection profiles take
// precedence over either.
package creds

import (
	"fmt"
	"os"
	"strings"
)

// Credentials is a (url, username, password) tuple for one Neo4j target.
type Credentials struct {
	URL      string
	Username string
	Password string
}

// allowedSchemes are the URI schemes the bolt driver accepts.
var allowedSchemes = []string{
	"bolt://", "bolt+ssc://", "bolt+s://",
	"neo4j://", "neo4j+ssc://", "neo4j+s://",
}

// MissingCredentialError reports which credential fields were absent.
type MissingCredentialError struct {
	Fields []string
}

func (e *MissingCredentialError) Error() string {
	return "missing required credentials: " + strings.Join(e.Fields, ", ")
}

// UnsupportedSchemeError reports a URL whose scheme the driver does not
// accept. Suggestion is non-empty when the URL looks like a known typo.
type UnsupportedSchemeError struct {
	URL        string
	Suggestion string
}

func (e *UnsupportedSchemeError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unsupported URL scheme in %q — did you mean %q?", e.URL, e.Suggestion)
	}
	return fmt.Sprintf("unsupported URL scheme in %q; expected one of %s", e.URL, strings.Join(allowedSchemes, ", "))
}

// Validate checks that all fields are present and the URL scheme is one
// the driver supports. It does not touch the network; connectivity is
// checked separately against the graph layer.
func (c Credentials) Validate() error {
	var missing []string
	if strings.TrimSpace(c.URL) == "" {
		missing = append(missing, "url")
	}
	if strings.TrimSpace(c.Username) == "" {
		missing = append(missing, "username")
	}
	if strings.TrimSpace(c.Password) == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return &MissingCredentialError{Fields: missing}
	}

	for _, scheme := range allowedSchemes {
		if strings.HasPrefix(c.URL, scheme) {
			return nil
		}
	}

	// The single most common typo: neo4+s:// missing the j.
	if rest, ok := strings.CutPrefix(c.URL, "neo4+s://"); ok {
		return &UnsupportedSchemeError{URL: c.URL, Suggestion: "neo4j+s://" + rest}
	}

	return &UnsupportedSchemeError{URL: c.URL}
}

// FromEnv reads credentials from the environment. NEO4J_* wins over
// AURA_*; the two conventions come from different plugin revisions and
// both remain supported.
func FromEnv() Credentials {
	return Credentials{
		URL:      envFirst("NEO4J_URL", "AURA_URL"),
		Username: envFirst("NEO4J_USERNAME", "AURA_USERNAME"),
		Password: envFirst("NEO4J_PASSWORD", "AURA_PASSWORD"),
	}
}

func envFirst(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}
