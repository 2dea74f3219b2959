package chread

import (
	"context"
	"crypto/tls"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"
)

// Reader provides read access to the ClickHouse query_events table.
type Reader struct {
	conn   driver.Conn
	logger *zap.Logger
}

// NewReader opens a ClickHouse connection for read queries.
func NewReader(dsn string, logger *zap.Logger) (*Reader, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}
	if opts.TLS == nil {
		opts.TLS = &tls.Config{}
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}

	return &Reader{conn: conn, logger: logger}, nil
}

// Close closes the ClickHouse connection.
func (r *Reader) Close() error {
	return r.conn.Close()
}

// EventRow represents a single row from the query_events table.
type EventRow struct {
	RequestID     string
	ProjectID     string
	Timestamp     time.Time
	Mode          string
	TemplateKind  string
	QueryPreview  string
	Verdict       string
	RefusalKind   string
	Reason        string
	StatementType string
	Database      string
	AllowWrite    uint8
	RowCount      uint32
	Truncated     uint8
	LatencyMs     float32
	Source        string
}

const eventColumns = "request_id, project_id, timestamp, mode, template_kind, " +
	"query_preview, verdict, refusal_kind, reason, statement_type, " +
	"database_name, allow_write, row_count, truncated, latency_ms, source"

func scanEvent(row driver.Row, e *EventRow) error {
	return row.Scan(
		&e.RequestID, &e.ProjectID, &e.Timestamp, &e.Mode, &e.TemplateKind,
		&e.QueryPreview, &e.Verdict, &e.RefusalKind, &e.Reason, &e.StatementType,
		&e.Database, &e.AllowWrite, &e.RowCount, &e.Truncated, &e.LatencyMs, &e.Source,
	)
}

// ListEventsParams holds filters and pagination for event listing.
type ListEventsParams struct {
	ProjectID   string
	Verdict     *string
	Mode        *string
	RefusalKind *string
	StartTime   *time.Time
	EndTime     *time.Time
	Page        int
	PageSize    int
}

// ListEvents returns paginated, filtered query events and the total count.
func (r *Reader) ListEvents(ctx context.Context, params ListEventsParams) ([]EventRow, int, error) {
	conditions := []string{"project_id = @project_id"}
	args := []any{
		clickhouse.Named("project_id", params.ProjectID),
	}

	if params.Verdict != nil {
		conditions = append(conditions, "verdict = @verdict")
		args = append(args, clickhouse.Named("verdict", *params.Verdict))
	}
	if params.Mode != nil {
		conditions = append(conditions, "mode = @mode")
		args = append(args, clickhouse.Named("mode", *params.Mode))
	}
	if params.RefusalKind != nil {
		conditions = append(conditions, "refusal_kind = @refusal_kind")
		args = append(args, clickhouse.Named("refusal_kind", *params.RefusalKind))
	}
	if params.StartTime != nil {
		conditions = append(conditions, "timestamp >= @start_time")
		args = append(args, clickhouse.Named("start_time", *params.StartTime))
	}
	if params.EndTime != nil {
		conditions = append(conditions, "timestamp <= @end_time")
		args = append(args, clickhouse.Named("end_time", *params.EndTime))
	}

	where := strings.Join(conditions, " AND ")
	offset := (params.Page - 1) * params.PageSize

	// Count query
	var total uint64
	countQuery := fmt.Sprintf("SELECT count() FROM query_events WHERE %s", where)
	if err := r.conn.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ListEvents count: %w", err)
	}

	// Data query
	dataQuery := fmt.Sprintf(
		"SELECT "+eventColumns+" FROM query_events WHERE %s "+
			"ORDER BY timestamp DESC "+
			"LIMIT @limit OFFSET @offset",
		where,
	)
	args = append(args,
		clickhouse.Named("limit", uint32(params.PageSize)),
		clickhouse.Named("offset", uint32(offset)),
	)

	rows, err := r.conn.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ListEvents query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []EventRow
	for rows.Next() {
		var e EventRow
		if err := rows.Scan(
			&e.RequestID, &e.ProjectID, &e.Timestamp, &e.Mode, &e.TemplateKind,
			&e.QueryPreview, &e.Verdict, &e.RefusalKind, &e.Reason, &e.StatementType,
			&e.Database, &e.AllowWrite, &e.RowCount, &e.Truncated, &e.LatencyMs, &e.Source,
		); err != nil {
			return nil, 0, fmt.Errorf("ListEvents scan: %w", err)
		}
		events = append(events, e)
	}

	return events, int(total), rows.Err()
}

// GetEvent returns a single event by project ID and request ID, or nil if not found.
func (r *Reader) GetEvent(ctx context.Context, projectID, requestID string) (*EventRow, error) {
	row := r.conn.QueryRow(ctx,
		"SELECT "+eventColumns+" FROM query_events "+
			"WHERE project_id = @project_id AND request_id = @request_id",
		clickhouse.Named("project_id", projectID),
		clickhouse.Named("request_id", requestID),
	)

	var e EventRow
	if err := scanEvent(row, &e); err != nil {
		// ClickHouse doesn't return sql.ErrNoRows, so check for empty result
		return nil, fmt.Errorf("GetEvent: %w", err)
	}
	if e.RequestID == "" {
		return nil, nil
	}
	return &e, nil
}

// SummaryStats holds aggregate counts.
type SummaryStats struct {
	TotalRequests int `json:"total_requests"`
	Executed      int `json:"executed"`
	Refused       int `json:"refused"`
	Failed        int `json:"failed"`
}

// TimeSeriesBucket holds an hourly count.
type TimeSeriesBucket struct {
	Hour  string `json:"hour"`
	Count int    `json:"count"`
}

// RefusalCount holds a refusal kind and its count.
type RefusalCount struct {
	RefusalKind string `json:"refusal_kind"`
	Count       int    `json:"count"`
}

// StatementCount holds a statement type and its count.
type StatementCount struct {
	StatementType string `json:"statement_type"`
	Count         int    `json:"count"`
}

// LatencyStats holds latency percentiles.
type LatencyStats struct {
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// AnalyticsResult holds all analytics aggregations.
type AnalyticsResult struct {
	Summary            SummaryStats       `json:"summary"`
	RefusalsOverTime   []TimeSeriesBucket `json:"refusals_over_time"`
	TopRefusalKinds    []RefusalCount     `json:"top_refusal_kinds"`
	StatementTypes     []StatementCount   `json:"statement_types"`
	LatencyPercentiles LatencyStats       `json:"latency_percentiles"`
	RowsReturned       int                `json:"rows_returned"`
}

// GetAnalytics returns aggregated analytics for a project over the given number of days.
func (r *Reader) GetAnalytics(ctx context.Context, projectID string, days int) (*AnalyticsResult, error) {
	now := time.Now().UTC()
	rangeStart := now.Add(-time.Duration(days) * 24 * time.Hour)
	dayStart := now.Add(-24 * time.Hour)

	baseArgs := []any{
		clickhouse.Named("project_id", projectID),
		clickhouse.Named("range_start", rangeStart),
	}

	result := &AnalyticsResult{}

	// Summary counts
	var total, executed, refused, failed, rowsReturned uint64
	err := r.conn.QueryRow(ctx,
		"SELECT count() as total, "+
			"countIf(verdict = 'executed') as executed, "+
			"countIf(verdict = 'refused') as refused, "+
			"countIf(verdict = 'failed') as failed, "+
			"sum(row_count) as rows_returned "+
			"FROM query_events "+
			"WHERE project_id = @project_id AND timestamp >= @range_start",
		baseArgs...,
	).Scan(&total, &executed, &refused, &failed, &rowsReturned)
	if err != nil {
		return nil, fmt.Errorf("GetAnalytics summary: %w", err)
	}
	result.Summary = SummaryStats{
		TotalRequests: int(total),
		Executed:      int(executed),
		Refused:       int(refused),
		Failed:        int(failed),
	}
	result.RowsReturned = int(rowsReturned)

	// Refusals over time (hourly)
	rotRows, err := r.conn.Query(ctx,
		"SELECT toStartOfHour(timestamp) as hour, count() as count "+
			"FROM query_events "+
			"WHERE project_id = @project_id AND verdict = 'refused' "+
			"AND timestamp >= @range_start "+
			"GROUP BY hour ORDER BY hour",
		baseArgs...,
	)
	if err != nil {
		return nil, fmt.Errorf("GetAnalytics refusals_over_time: %w", err)
	}
	defer func() { _ = rotRows.Close() }()
	for rotRows.Next() {
		var hour time.Time
		var count uint64
		if err := rotRows.Scan(&hour, &count); err != nil {
			return nil, fmt.Errorf("GetAnalytics refusals_over_time scan: %w", err)
		}
		result.RefusalsOverTime = append(result.RefusalsOverTime, TimeSeriesBucket{
			Hour:  hour.Format(time.RFC3339),
			Count: int(count),
		})
	}

	// Top refusal kinds
	refRows, err := r.conn.Query(ctx,
		"SELECT refusal_kind, count() as count "+
			"FROM query_events "+
			"WHERE project_id = @project_id AND verdict = 'refused' "+
			"AND timestamp >= @range_start "+
			"GROUP BY refusal_kind ORDER BY count DESC LIMIT 10",
		baseArgs...,
	)
	if err != nil {
		return nil, fmt.Errorf("GetAnalytics top_refusal_kinds: %w", err)
	}
	defer func() { _ = refRows.Close() }()
	for refRows.Next() {
		var kind string
		var count uint64
		if err := refRows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("GetAnalytics top_refusal_kinds scan: %w", err)
		}
		result.TopRefusalKinds = append(result.TopRefusalKinds, RefusalCount{
			RefusalKind: kind, Count: int(count),
		})
	}

	// Statement type distribution
	stRows, err := r.conn.Query(ctx,
		"SELECT statement_type, count() as count "+
			"FROM query_events "+
			"WHERE project_id = @project_id AND statement_type != '' "+
			"AND timestamp >= @range_start "+
			"GROUP BY statement_type ORDER BY count DESC",
		baseArgs...,
	)
	if err != nil {
		return nil, fmt.Errorf("GetAnalytics statement_types: %w", err)
	}
	defer func() { _ = stRows.Close() }()
	for stRows.Next() {
		var st string
		var count uint64
		if err := stRows.Scan(&st, &count); err != nil {
			return nil, fmt.Errorf("GetAnalytics statement_types scan: %w", err)
		}
		result.StatementTypes = append(result.StatementTypes, StatementCount{
			StatementType: st, Count: int(count),
		})
	}

	// Latency percentiles (last 24h)
	var p50, p95, p99 float64
	err = r.conn.QueryRow(ctx,
		"SELECT quantile(0.5)(latency_ms) as p50, "+
			"quantile(0.95)(latency_ms) as p95, "+
			"quantile(0.99)(latency_ms) as p99 "+
			"FROM query_events "+
			"WHERE project_id = @project_id AND timestamp >= @day_start",
		clickhouse.Named("project_id", projectID),
		clickhouse.Named("day_start", dayStart),
	).Scan(&p50, &p95, &p99)
	if err != nil {
		return nil, fmt.Errorf("GetAnalytics latency: %w", err)
	}
	result.LatencyPercentiles = LatencyStats{
		P50: safeFloat(p50), P95: safeFloat(p95), P99: safeFloat(p99),
	}

	return result, nil
}

// safeFloat replaces NaN (quantile over zero rows) with 0 so the value
// survives JSON encoding.
func safeFloat(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	return f
}
