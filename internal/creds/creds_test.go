package creds

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate_AllMissing(t *testing.T) {
	err := Credentials{}.Validate()
	var missing *MissingCredentialError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingCredentialError, got %v", err)
	}
	if len(missing.Fields) != 3 {
		t.Errorf("expected 3 missing fields, got %v", missing.Fields)
	}
}

func TestValidate_EnumeratesMissingFields(t *testing.T) {
	err := Credentials{URL: "neo4j://db:7687", Username: "neo4j"}.Validate()
	var missing *MissingCredentialError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingCredentialError, got %v", err)
	}
	if len(missing.Fields) != 1 || missing.Fields[0] != "password" {
		t.Errorf("expected exactly [password], got %v", missing.Fields)
	}
	if !strings.Contains(err.Error(), "password") {
		t.Errorf("message must name the missing field, got %q", err.Error())
	}
}

func TestValidate_AcceptedSchemes(t *testing.T) {
	schemes := []string{"bolt", "bolt+ssc", "bolt+s", "neo4j", "neo4j+ssc", "neo4j+s"}
	for _, scheme := range schemes {
		c := Credentials{URL: scheme + "://db.example.com:7687", Username: "neo4j", Password: "pw"}
		if err := c.Validate(); err != nil {
			t.Errorf("scheme %s: unexpected error %v", scheme, err)
		}
	}
}

func TestValidate_RejectsOtherSchemes(t *testing.T) {
	for _, url := range []string{"http://db:7687", "postgres://db", "db.example.com:7687"} {
		c := Credentials{URL: url, Username: "neo4j", Password: "pw"}
		var schemeErr *UnsupportedSchemeError
		if err := c.Validate(); !errors.As(err, &schemeErr) {
			t.Errorf("url %q: expected *UnsupportedSchemeError, got %v", url, err)
		}
	}
}

func TestValidate_Neo4TypoSuggestsFix(t *testing.T) {
	c := Credentials{URL: "neo4+s://db.example.com", Username: "neo4j", Password: "pw"}
	err := c.Validate()

	var schemeErr *UnsupportedSchemeError
	if !errors.As(err, &schemeErr) {
		t.Fatalf("expected *UnsupportedSchemeError, got %v", err)
	}
	if schemeErr.Suggestion != "neo4j+s://db.example.com" {
		t.Errorf("expected corrected URL, got %q", schemeErr.Suggestion)
	}
	if !strings.Contains(err.Error(), "neo4j+s://db.example.com") {
		t.Errorf("message must show the fixed URL, got %q", err.Error())
	}
}

func TestFromEnv_Neo4jWinsOverAura(t *testing.T) {
	t.Setenv("NEO4J_URL", "neo4j://first:7687")
	t.Setenv("AURA_URL", "neo4j://second:7687")
	t.Setenv("NEO4J_USERNAME", "")
	t.Setenv("AURA_USERNAME", "aura-user")
	t.Setenv("NEO4J_PASSWORD", "pw")
	t.Setenv("AURA_PASSWORD", "")

	c := FromEnv()
	if c.URL != "neo4j://first:7687" {
		t.Errorf("NEO4J_URL must win, got %q", c.URL)
	}
	if c.Username != "aura-user" {
		t.Errorf("AURA_USERNAME must fill the gap, got %q", c.Username)
	}
	if c.Password != "pw" {
		t.Errorf("expected pw, got %q", c.Password)
	}
}
