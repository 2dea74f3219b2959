package gate

import (
	"strings"
	"testing"
)

func mustBuild(t *testing.T, kind TemplateKind, fields TemplateFields, limit int) *SanitizedQuery {
	t.Helper()
	sq, err := BuildTemplated(kind, fields, limit)
	if err != nil {
		t.Fatalf("BuildTemplated failed: %v", err)
	}
	return sq
}

func TestParseTemplateKind(t *testing.T) {
	for _, name := range []string{"find_nodes", "find_relationships", "path_query", "neighbor_query"} {
		kind, ok := ParseTemplateKind(name)
		if !ok {
			t.Errorf("expected %q to parse", name)
		}
		if kind.String() != name {
			t.Errorf("round trip: got %q, want %q", kind.String(), name)
		}
	}
	if _, ok := ParseTemplateKind("drop_everything"); ok {
		t.Error("unknown kind should not parse")
	}
}

func TestBuildTemplated_UnknownKind(t *testing.T) {
	_, err := BuildTemplated(TemplateUnknown, TemplateFields{}, 10)
	gerr, ok := err.(*Error)
	if !ok || gerr.Kind != KindUnknownTemplate {
		t.Fatalf("expected unknown_template error, got %v", err)
	}
}

func TestBuildTemplated_FindNodes_LabelSpliced(t *testing.T) {
	sq := mustBuild(t, TemplateFindNodes, TemplateFields{NodeLabel: "Person"}, 5000)

	if !strings.Contains(sq.Text, "MATCH (n:Person)") {
		t.Errorf("label must be spliced into text, got %q", sq.Text)
	}
	if _, bound := sq.Params["node_label"]; bound {
		t.Error("label must never be a bound parameter")
	}
	if sq.Params["limit"] != 1000 {
		t.Errorf("limit 5000 must clamp to 1000, got %v", sq.Params["limit"])
	}
	if !strings.Contains(sq.Text, "LIMIT $limit") {
		t.Errorf("expected bound LIMIT clause, got %q", sq.Text)
	}
}

func TestBuildTemplated_FindNodes_VariantSelection(t *testing.T) {
	full := mustBuild(t, TemplateFindNodes, TemplateFields{NodeLabel: "Disease", PropertyName: "name", PropertyValue: "flu"}, 10)
	if !strings.Contains(full.Text, "WHERE n.name = $property_value") {
		t.Errorf("expected property variant, got %q", full.Text)
	}
	if full.Params["property_value"] != "flu" {
		t.Errorf("property value must be bound, got %v", full.Params["property_value"])
	}

	noLabel := mustBuild(t, TemplateFindNodes, TemplateFields{PropertyName: "name", PropertyValue: "flu"}, 10)
	if !strings.HasPrefix(noLabel.Text, "MATCH (n) WHERE n.name") {
		t.Errorf("expected no-label variant, got %q", noLabel.Text)
	}

	minimal := mustBuild(t, TemplateFindNodes, TemplateFields{}, 10)
	if minimal.Text != "MATCH (n) RETURN n LIMIT $limit" {
		t.Errorf("expected minimal variant, got %q", minimal.Text)
	}
}

func TestBuildTemplated_FindNodes_PropertyNeedsNameAndValue(t *testing.T) {
	// A property name without a value falls back to the label-only variant.
	sq := mustBuild(t, TemplateFindNodes, TemplateFields{NodeLabel: "Person", PropertyName: "name"}, 10)
	if strings.Contains(sq.Text, "WHERE") {
		t.Errorf("half-specified property must not select the property variant, got %q", sq.Text)
	}
}

func TestBuildTemplated_FindRelationships_Variants(t *testing.T) {
	both := mustBuild(t, TemplateFindRelationships, TemplateFields{NodeLabel: "Person", RelationshipType: "KNOWS"}, 10)
	if !strings.Contains(both.Text, "[r:KNOWS]") || !strings.Contains(both.Text, "WHERE a:Person") {
		t.Errorf("expected label+type variant, got %q", both.Text)
	}

	typeOnly := mustBuild(t, TemplateFindRelationships, TemplateFields{RelationshipType: "KNOWS"}, 10)
	if strings.Contains(typeOnly.Text, "WHERE") {
		t.Errorf("type-only variant must not filter on label, got %q", typeOnly.Text)
	}

	minimal := mustBuild(t, TemplateFindRelationships, TemplateFields{}, 10)
	if minimal.Text != "MATCH (a)-[r]->(b) RETURN a, r, b LIMIT $limit" {
		t.Errorf("expected minimal variant, got %q", minimal.Text)
	}
}

func TestBuildTemplated_PathQuery_RequiresLabel(t *testing.T) {
	_, err := BuildTemplated(TemplatePathQuery, TemplateFields{PropertyName: "name", PropertyValue: "x"}, 10)
	gerr, ok := err.(*Error)
	if !ok || gerr.Kind != KindMissingRequiredField {
		t.Fatalf("expected missing_required_field, got %v", err)
	}
}

func TestBuildTemplated_NeighborQuery_RequiresLabel(t *testing.T) {
	_, err := BuildTemplated(TemplateNeighborQuery, TemplateFields{}, 10)
	gerr, ok := err.(*Error)
	if !ok || gerr.Kind != KindMissingRequiredField {
		t.Fatalf("expected missing_required_field, got %v", err)
	}
}

func TestBuildTemplated_InvalidIdentifierRejected(t *testing.T) {
	cases := []TemplateFields{
		{NodeLabel: "Person; DROP"},
		{PropertyName: "name`", PropertyValue: "x"},
		{RelationshipType: "KNOWS]->()<-[", NodeLabel: "Person"},
	}
	for _, fields := range cases {
		_, err := BuildTemplated(TemplateFindRelationships, fields, 10)
		gerr, ok := err.(*Error)
		if !ok || gerr.Kind != KindInvalidIdentifier {
			t.Errorf("fields %+v: expected invalid_identifier, got %v", fields, err)
		}
	}
}

func TestBuildTemplated_ValueEscaped(t *testing.T) {
	sq := mustBuild(t, TemplateFindNodes, TemplateFields{
		NodeLabel:     "Person",
		PropertyName:  "name",
		PropertyValue: `O'Brien \ "quoted"`,
	}, 10)

	want := `O\'Brien \\ \"quoted\"`
	if sq.Params["property_value"] != want {
		t.Errorf("expected escaped value %q, got %q", want, sq.Params["property_value"])
	}
}

func TestBuildTemplated_DefaultLimit(t *testing.T) {
	sq := mustBuild(t, TemplateFindNodes, TemplateFields{}, 0)
	if sq.Params["limit"] != DefaultTemplateLimit {
		t.Errorf("expected default limit %d, got %v", DefaultTemplateLimit, sq.Params["limit"])
	}
}
