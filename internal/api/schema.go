package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// queryRequestSchema rejects malformed /v1/query bodies before the gate
// sees them. The gate still owns semantic validation (identifiers,
// denylist, limits); this only pins the wire shape.
const queryRequestSchema = `{
	"type": "object",
	"properties": {
		"query_type": {
			"type": "string",
			"enum": ["find_nodes", "find_relationships", "path_query", "neighbor_query"]
		},
		"node_label": {"type": "string"},
		"property_name": {"type": "string"},
		"property_value": {"type": "string"},
		"relationship_type": {"type": "string"},
		"query": {"type": "string"},
		"parameters": {"type": ["object", "string"]},
		"limit": {"type": "integer", "minimum": 1},
		"max_records": {"type": "integer", "minimum": 1},
		"allow_write_queries": {"type": "boolean"},
		"database": {"type": "string"},
		"profile": {"type": "string"}
	},
	"anyOf": [
		{"required": ["query_type"]},
		{"required": ["query"]}
	],
	"additionalProperties": false
}`

func compileQuerySchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(queryRequestSchema)))
	if err != nil {
		return nil, fmt.Errorf("compileQuerySchema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("query_request.json", doc); err != nil {
		return nil, fmt.Errorf("compileQuerySchema: %w", err)
	}
	sch, err := c.Compile("query_request.json")
	if err != nil {
		return nil, fmt.Errorf("compileQuerySchema: %w", err)
	}
	return sch, nil
}

// validateQueryBody checks raw bytes against the request schema and
// returns a caller-facing detail string on mismatch.
func validateQueryBody(sch *jsonschema.Schema, body []byte) string {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return "Invalid JSON body"
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Sprintf("Request body does not match schema: %v", err)
	}
	return ""
}
