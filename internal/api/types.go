package api

import (
	"encoding/json"
	"time"
)

// --- POST /v1/query request/response ---

// QueryRequest is the JSON body for POST /v1/query. Exactly one of the
// two shapes is used: query_type with template fields, or query with
// optional parameters.
type QueryRequest struct {
	QueryType        string          `json:"query_type,omitempty"`
	NodeLabel        string          `json:"node_label,omitempty"`
	PropertyName     string          `json:"property_name,omitempty"`
	PropertyValue    string          `json:"property_value,omitempty"`
	RelationshipType string          `json:"relationship_type,omitempty"`
	Query            string          `json:"query,omitempty"`
	Parameters       json.RawMessage `json:"parameters,omitempty"`
	Limit            int             `json:"limit,omitempty"`
	MaxRecords       int             `json:"max_records,omitempty"`
	AllowWriteQueries bool           `json:"allow_write_queries,omitempty"`
	Database         string          `json:"database,omitempty"`
	Profile          string          `json:"profile,omitempty"`
}

// QueryInfo describes the query that actually ran.
type QueryInfo struct {
	Query         string         `json:"query"`
	Parameters    map[string]any `json:"parameters"`
	StatementType string         `json:"statement_type,omitempty"`
	RowCount      int            `json:"row_count"`
	Truncated     bool           `json:"truncated"`
	Database      string         `json:"database,omitempty"`
}

// QueryResponse is the success body for POST /v1/query.
type QueryResponse struct {
	Results   []map[string]any `json:"results"`
	QueryInfo QueryInfo        `json:"query_info"`
	Message   string           `json:"message"`
	RequestID string           `json:"request_id"`
}

// --- POST /v1/validate ---

// ValidateRequest carries credentials to check, or names a stored profile.
type ValidateRequest struct {
	URL      string `json:"url,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Profile  string `json:"profile,omitempty"`
}

// ValidateResponse reports the outcome of a credential check.
type ValidateResponse struct {
	Valid   bool   `json:"valid"`
	Kind    string `json:"kind,omitempty"` // connect error classification when invalid
	Message string `json:"message"`
}

// --- Project CRUD ---

// CreateProjectReq is the JSON body for POST /api/cyphergate/projects.
type CreateProjectReq struct {
	Name string `json:"name"`
}

// CreateProjectResp includes the plaintext API key (shown once).
type CreateProjectResp struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	APIKey       string    `json:"api_key"`
	APIKeyPrefix string    `json:"api_key_prefix"`
	AllowWrite   bool      `json:"allow_write"`
	MaxRecords   *int      `json:"max_records"`
	CreatedAt    time.Time `json:"created_at"`
}

// UpdateProjectReq is the JSON body for PATCH /api/cyphergate/projects/{id}.
type UpdateProjectReq struct {
	Name       *string `json:"name,omitempty"`
	AllowWrite *bool   `json:"allow_write,omitempty"`
	MaxRecords *int    `json:"max_records,omitempty"`
}

// ProjectResp mirrors a project row (no plaintext key).
type ProjectResp struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	APIKeyPrefix string    `json:"api_key_prefix"`
	AllowWrite   bool      `json:"allow_write"`
	MaxRecords   *int      `json:"max_records"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RotateKeyResp includes the new plaintext API key (shown once).
type RotateKeyResp struct {
	APIKey       string `json:"api_key"`
	APIKeyPrefix string `json:"api_key_prefix"`
}

// --- Connection profiles ---

// CreateProfileReq is the JSON body for profile creation.
type CreateProfileReq struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Username string `json:"username"`
	Password string `json:"password"`
	Database string `json:"database,omitempty"`
}

// ProfileResp mirrors a connection profile row. The password never
// leaves the store through this surface.
type ProfileResp struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Username  string    `json:"username"`
	Database  string    `json:"database,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// --- Query events ---

// QueryEventResp mirrors a ClickHouse query_events row.
type QueryEventResp struct {
	RequestID     string    `json:"request_id"`
	ProjectID     string    `json:"project_id"`
	Mode          string    `json:"mode"`
	TemplateKind  *string   `json:"template_kind"`
	QueryPreview  string    `json:"query_preview"`
	Verdict       string    `json:"verdict"`
	RefusalKind   *string   `json:"refusal_kind"`
	Reason        *string   `json:"reason"`
	StatementType *string   `json:"statement_type"`
	Database      *string   `json:"database"`
	AllowWrite    bool      `json:"allow_write"`
	RowCount      int       `json:"row_count"`
	Truncated     bool      `json:"truncated"`
	LatencyMs     float32   `json:"latency_ms"`
	Source        string    `json:"source"`
	Timestamp     time.Time `json:"timestamp"`
}

// EventListResp is a paginated event listing.
type EventListResp struct {
	Events   []QueryEventResp `json:"events"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// --- Analytics ---

// AnalyticsResp aggregates gate activity for the dashboard.
type AnalyticsResp struct {
	Summary            SummaryStatsResp       `json:"summary"`
	RefusalsOverTime   []TimeSeriesBucketResp `json:"refusals_over_time"`
	TopRefusalKinds    []RefusalCountResp     `json:"top_refusal_kinds"`
	StatementTypes     []StatementCountResp   `json:"statement_types"`
	LatencyPercentiles LatencyPercentilesResp `json:"latency_percentiles"`
	RowsReturned       int                    `json:"rows_returned"`
}

// SummaryStatsResp holds aggregate verdict counts.
type SummaryStatsResp struct {
	TotalRequests int `json:"total_requests"`
	Executed      int `json:"executed"`
	Refused       int `json:"refused"`
	Failed        int `json:"failed"`
}

// TimeSeriesBucketResp holds an hourly count.
type TimeSeriesBucketResp struct {
	Hour  string `json:"hour"`
	Count int    `json:"count"`
}

// RefusalCountResp holds a refusal kind and its count.
type RefusalCountResp struct {
	RefusalKind string `json:"refusal_kind"`
	Count       int    `json:"count"`
}

// StatementCountResp holds an EXPLAIN statement type and its count.
type StatementCountResp struct {
	StatementType string `json:"statement_type"`
	Count         int    `json:"count"`
}

// LatencyPercentilesResp holds latency percentiles.
type LatencyPercentilesResp struct {
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// ErrorResp is a standard error response body.
type ErrorResp struct {
	Detail string `json:"detail"`
}
