package gate

import (
	"fmt"
	"strings"
)

// TemplateKind names one of the fixed query shapes exposed to the host.
type TemplateKind int

const (
	TemplateUnknown TemplateKind = iota
	TemplateFindNodes
	TemplateFindRelationships
	TemplatePathQuery
	TemplateNeighborQuery
)

// String returns the wire name of the template kind.
func (k TemplateKind) String() string {
	switch k {
	case TemplateFindNodes:
		return "find_nodes"
	case TemplateFindRelationships:
		return "find_relationships"
	case TemplatePathQuery:
		return "path_query"
	case TemplateNeighborQuery:
		return "neighbor_query"
	default:
		return "unknown"
	}
}

// ParseTemplateKind maps a wire name to a TemplateKind.
func ParseTemplateKind(s string) (TemplateKind, bool) {
	switch s {
	case "find_nodes":
		return TemplateFindNodes, true
	case "find_relationships":
		return TemplateFindRelationships, true
	case "path_query":
		return TemplatePathQuery, true
	case "neighbor_query":
		return TemplateNeighborQuery, true
	default:
		return TemplateUnknown, false
	}
}

// TemplateFields carries the optional slots of a templated query.
// NodeLabel, PropertyName and RelationshipType are identifiers and get
// spliced into the query text after validation; PropertyValue is escaped
// and bound as a parameter, never spliced.
type TemplateFields struct {
	NodeLabel        string
	PropertyName     string
	PropertyValue    string
	RelationshipType string
}

// BuildTemplated fills the template family for kind with the given
// fields, picking the most specific variant the non-empty fields allow
// and falling back toward the minimal one. The limit is clamped to
// [1, MaxRecords] and bound as $limit.
func BuildTemplated(kind TemplateKind, fields TemplateFields, limit int) (*SanitizedQuery, error) {
	label := strings.TrimSpace(fields.NodeLabel)
	propName := strings.TrimSpace(fields.PropertyName)
	propValue := strings.TrimSpace(fields.PropertyValue)
	relType := strings.TrimSpace(fields.RelationshipType)

	if label != "" && !ValidIdentifier(label) {
		return nil, errf(KindInvalidIdentifier, "invalid node label: %s", label)
	}
	if propName != "" && !ValidIdentifier(propName) {
		return nil, errf(KindInvalidIdentifier, "invalid property name: %s", propName)
	}
	if relType != "" && !ValidIdentifier(relType) {
		return nil, errf(KindInvalidIdentifier, "invalid relationship type: %s", relType)
	}

	params := map[string]any{"limit": ClampLimit(limit, DefaultTemplateLimit)}
	hasProperty := propName != "" && propValue != ""

	var text string
	switch kind {
	case TemplateFindNodes:
		switch {
		case label != "" && hasProperty:
			text = fmt.Sprintf("MATCH (n:%s) WHERE n.%s = $property_value RETURN n LIMIT $limit", label, propName)
		case label != "":
			text = fmt.Sprintf("MATCH (n:%s) RETURN n LIMIT $limit", label)
		case hasProperty:
			text = fmt.Sprintf("MATCH (n) WHERE n.%s = $property_value RETURN n LIMIT $limit", propName)
		default:
			text = "MATCH (n) RETURN n LIMIT $limit"
		}

	case TemplateFindRelationships:
		switch {
		case label != "" && relType != "":
			text = fmt.Sprintf("MATCH (a)-[r:%s]->(b) WHERE a:%s RETURN a, r, b LIMIT $limit", relType, label)
		case label != "":
			text = fmt.Sprintf("MATCH (a:%s)-[r]->(b) RETURN a, r, b LIMIT $limit", label)
		case relType != "":
			text = fmt.Sprintf("MATCH (a)-[r:%s]->(b) RETURN a, r, b LIMIT $limit", relType)
		default:
			text = "MATCH (a)-[r]->(b) RETURN a, r, b LIMIT $limit"
		}

	case TemplatePathQuery:
		if label == "" {
			return nil, errf(KindMissingRequiredField, "node label is required for %s", kind)
		}
		if hasProperty {
			text = fmt.Sprintf("MATCH p = (start:%s {%s: $property_value})-[*1..3]-(end) RETURN p LIMIT $limit", label, propName)
		} else {
			text = fmt.Sprintf("MATCH p = (start:%s)-[*1..3]-(end) RETURN p LIMIT $limit", label)
		}

	case TemplateNeighborQuery:
		if label == "" {
			return nil, errf(KindMissingRequiredField, "node label is required for %s", kind)
		}
		if hasProperty {
			text = fmt.Sprintf("MATCH (n:%s {%s: $property_value})--(neighbor) RETURN n, neighbor LIMIT $limit", label, propName)
		} else {
			text = fmt.Sprintf("MATCH (n:%s)--(neighbor) RETURN n, neighbor LIMIT $limit", label)
		}

	default:
		return nil, errf(KindUnknownTemplate, "invalid query type: %s", kind)
	}

	if hasProperty {
		params["property_value"] = escapeValue(propValue)
	}

	return &SanitizedQuery{Text: text, Params: params}, nil
}

// escapeValue escapes a property value before binding: backslash first,
// then both quote characters.
func escapeValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return v
}
