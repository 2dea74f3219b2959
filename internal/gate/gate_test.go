package gate

import "testing"

func TestValidIdentifier_Accepts(t *testing.T) {
	for _, id := range []string{"Person", "person", "_private", "Node_2", "a", "REL_TYPE"} {
		if !ValidIdentifier(id) {
			t.Errorf("expected %q to be a valid identifier", id)
		}
	}
}

func TestValidIdentifier_Rejects(t *testing.T) {
	for _, id := range []string{"", "2fast", "has space", "semi;colon", `quo"te`, "quo'te", "dash-ed", "dot.ted", "n)-[r]->(m"} {
		if ValidIdentifier(id) {
			t.Errorf("expected %q to be rejected", id)
		}
	}
}

func TestClampLimit_InRange(t *testing.T) {
	if got := ClampLimit(50, DefaultTemplateLimit); got != 50 {
		t.Errorf("expected 50, got %d", got)
	}
}

func TestClampLimit_ZeroUsesDefault(t *testing.T) {
	if got := ClampLimit(0, DefaultTemplateLimit); got != DefaultTemplateLimit {
		t.Errorf("expected default %d, got %d", DefaultTemplateLimit, got)
	}
}

func TestClampLimit_NegativeUsesDefault(t *testing.T) {
	if got := ClampLimit(-3, 100); got != 100 {
		t.Errorf("expected 100, got %d", got)
	}
}

func TestClampLimit_ClampsHigh(t *testing.T) {
	if got := ClampLimit(5000, DefaultTemplateLimit); got != MaxRecords {
		t.Errorf("expected %d, got %d", MaxRecords, got)
	}
}
