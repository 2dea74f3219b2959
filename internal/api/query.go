package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/arbor-sec/cyphergate/internal/creds"
	"github.com/arbor-sec/cyphergate/internal/gate"
	"github.com/arbor-sec/cyphergate/internal/graph"
	"github.com/arbor-sec/cyphergate/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxBodyBytes bounds /v1/query request bodies. The gate caps query
// text at 2000 chars; the rest is parameters and template fields.
const maxBodyBytes = 64 << 10

// handleQuery implements POST /v1/query.
// Auth middleware has already validated the Bearer token and injected the project.
func (d *Dependencies) handleQuery(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := uuid.New().String()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	_ = r.Body.Close()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Failed to read request body"})
		return
	}
	if detail := validateQueryBody(d.QuerySchema, body); detail != "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: detail})
		return
	}

	var req QueryRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}

	proj := projectFromContext(r.Context())
	if proj == nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "missing project context"})
		return
	}

	ev := &storage.QueryEvent{
		RequestID: requestID,
		ProjectID: proj.ID,
		Timestamp: time.Now(),
		Source:    "api",
	}
	defer func() {
		ev.LatencyMs = float32(time.Since(start)) / float32(time.Millisecond)
		d.Writer.Write(ev)
	}()

	// Resolve credentials: named profile first, env shim as fallback.
	connCreds, database, detail := d.resolveCredentials(r, proj, req.Profile)
	if detail != "" {
		ev.Verdict = "refused"
		ev.RefusalKind = "credential_error"
		ev.Reason = detail
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: detail})
		return
	}
	if req.Database != "" {
		database = req.Database
	}
	ev.Database = database

	// allow_write_queries is honored only when the project allows writes.
	allowWrite := req.AllowWriteQueries && proj.AllowWrite
	ev.AllowWrite = allowWrite

	var sq *gate.SanitizedQuery
	if req.QueryType != "" {
		ev.Mode = "template"
		ev.TemplateKind = req.QueryType
		sq, err = d.buildTemplated(req)
	} else {
		ev.Mode = "freetext"
		sq, err = buildFreeText(req)
	}
	if err != nil {
		if req.Query != "" {
			recordEventQuery(ev, req.Query)
		}
		var gerr *gate.Error
		if errors.As(err, &gerr) {
			ev.Verdict = "refused"
			ev.RefusalKind = gerr.Kind.String()
			ev.Reason = gerr.Detail
			writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: gerr.Error()})
			return
		}
		ev.Verdict = "failed"
		ev.Reason = err.Error()
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: err.Error()})
		return
	}

	recordEventQuery(ev, sq.Text)

	conn, err := d.Pool.Acquire(r.Context(), graph.Key{
		URL:      connCreds.URL,
		Username: connCreds.Username,
		Password: connCreds.Password,
	})
	if err != nil {
		kind := graph.ClassifyConnectError(err)
		ev.Verdict = "failed"
		ev.RefusalKind = kind.String()
		ev.Reason = err.Error()
		d.Logger.Warn("connection failed", zap.String("kind", kind.String()), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, ErrorResp{
			Detail: fmt.Sprintf("Could not connect to the database (%s): %v", kind, err),
		})
		return
	}

	// EXPLAIN preflight for free-text queries. Templates are read-only
	// by construction and skip the round trip.
	write := false
	if ev.Mode == "freetext" {
		stmtKind, err := conn.Classify(r.Context(), sq.Text, sq.Params, database)
		if err != nil {
			var synErr *graph.SyntaxError
			if errors.As(err, &synErr) {
				ev.Verdict = "refused"
				ev.RefusalKind = "syntax_error"
				ev.Reason = synErr.Message
				writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: synErr.Error()})
				return
			}
			ev.Verdict = "failed"
			ev.Reason = err.Error()
			writeJSON(w, http.StatusBadGateway, ErrorResp{Detail: fmt.Sprintf("Query preflight failed: %v", err)})
			return
		}
		ev.StatementType = stmtKind.String()

		if err := graph.CheckWriteAllowed(stmtKind, allowWrite); err != nil {
			ev.Verdict = "refused"
			ev.RefusalKind = "write_not_allowed"
			ev.Reason = err.Error()
			writeJSON(w, http.StatusForbidden, ErrorResp{Detail: err.Error()})
			return
		}
		write = stmtKind.Mutating()
	}

	maxRecords := resolveMaxRecords(req.MaxRecords, proj.MaxRecords)

	result, err := conn.Run(r.Context(), graph.Query{
		Text:       sq.Text,
		Params:     sq.Params,
		Database:   database,
		MaxRecords: maxRecords,
		Write:      write,
	})
	if err != nil {
		ev.Verdict = "failed"
		ev.Reason = err.Error()
		d.Logger.Warn("query execution failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, ErrorResp{Detail: fmt.Sprintf("Query execution failed: %v", err)})
		return
	}

	ev.Verdict = "executed"
	ev.RowCount = uint32(len(result.Rows))
	ev.Truncated = result.Truncated

	message := fmt.Sprintf("Query returned %d rows.", len(result.Rows))
	if result.Truncated {
		message = fmt.Sprintf("Query returned %d rows (truncated at the %d row cap).", len(result.Rows), maxRecords)
	}

	writeJSON(w, http.StatusOK, QueryResponse{
		Results: result.Rows,
		QueryInfo: QueryInfo{
			Query:         sq.Text,
			Parameters:    sq.Params,
			StatementType: ev.StatementType,
			RowCount:      len(result.Rows),
			Truncated:     result.Truncated,
			Database:      database,
		},
		Message:   message,
		RequestID: requestID,
	})
}

// buildTemplated fills one of the predefined query shapes.
func (d *Dependencies) buildTemplated(req QueryRequest) (*gate.SanitizedQuery, error) {
	kind, ok := gate.ParseTemplateKind(req.QueryType)
	if !ok {
		// The schema already pins the enum; this guards direct callers.
		return nil, fmt.Errorf("unknown query_type %q", req.QueryType)
	}
	return gate.BuildTemplated(kind, gate.TemplateFields{
		NodeLabel:        req.NodeLabel,
		PropertyName:     req.PropertyName,
		PropertyValue:    req.PropertyValue,
		RelationshipType: req.RelationshipType,
	}, req.Limit)
}

// buildFreeText parses parameters and sanitizes free-text Cypher.
func buildFreeText(req QueryRequest) (*gate.SanitizedQuery, error) {
	params, err := gate.ParseParamsRaw(req.Parameters)
	if err != nil {
		return nil, err
	}
	return gate.SanitizeFreeText(req.Query, params)
}

// resolveCredentials returns the connection credentials for a request:
// the named profile when one is given, otherwise the environment shim.
// The returned detail string is a caller-facing error when non-empty.
func (d *Dependencies) resolveCredentials(r *http.Request, proj *authProject, profileName string) (creds.Credentials, string, string) {
	if profileName != "" {
		profile, err := d.Store.GetProfile(r.Context(), proj.ID, profileName)
		if err != nil {
			d.Logger.Error("profile lookup failed", zap.Error(err))
			return creds.Credentials{}, "", "Failed to load connection profile"
		}
		if profile == nil {
			return creds.Credentials{}, "", fmt.Sprintf("Connection profile %q not found", profileName)
		}
		c := creds.Credentials{URL: profile.URL, Username: profile.Username, Password: profile.Password}
		if err := c.Validate(); err != nil {
			return creds.Credentials{}, "", err.Error()
		}
		return c, profile.Database, ""
	}

	c := creds.FromEnv()
	if err := c.Validate(); err != nil {
		return creds.Credentials{}, "", err.Error()
	}
	return c, "", ""
}

// resolveMaxRecords picks the row cap: request override, then project
// default, then the global cap. Never above the global cap.
func resolveMaxRecords(requested int, projectDefault *int) int {
	ceiling := gate.MaxRecords
	if projectDefault != nil && *projectDefault > 0 && *projectDefault < ceiling {
		ceiling = *projectDefault
	}
	if requested > 0 && requested < ceiling {
		return requested
	}
	return ceiling
}

// recordEventQuery fills the preview/hash/size event fields.
func recordEventQuery(ev *storage.QueryEvent, queryText string) {
	hash := sha256.Sum256([]byte(queryText))
	ev.QueryPreview = storage.TruncateQuery(queryText, storage.QueryPreviewLength)
	ev.QueryHash = hex.EncodeToString(hash[:])
	ev.QuerySize = uint32(len(queryText))
}

// handleValidate implements POST /v1/validate: check credentials (or a
// stored profile) without running a query.
func (d *Dependencies) handleValidate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := uuid.New().String()

	var req ValidateRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}

	proj := projectFromContext(r.Context())
	if proj == nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "missing project context"})
		return
	}

	ev := &storage.QueryEvent{
		RequestID: requestID,
		ProjectID: proj.ID,
		Timestamp: time.Now(),
		Mode:      "validate",
		Source:    "api",
	}
	defer func() {
		ev.LatencyMs = float32(time.Since(start)) / float32(time.Millisecond)
		d.Writer.Write(ev)
	}()

	var c creds.Credentials
	switch {
	case req.Profile != "":
		profile, err := d.Store.GetProfile(r.Context(), proj.ID, req.Profile)
		if err != nil {
			d.Logger.Error("profile lookup failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to load connection profile"})
			return
		}
		if profile == nil {
			writeJSON(w, http.StatusNotFound, ErrorResp{Detail: fmt.Sprintf("Connection profile %q not found", req.Profile)})
			return
		}
		c = creds.Credentials{URL: profile.URL, Username: profile.Username, Password: profile.Password}
	case req.URL != "" || req.Username != "" || req.Password != "":
		c = creds.Credentials{URL: req.URL, Username: req.Username, Password: req.Password}
	default:
		c = creds.FromEnv()
	}

	if err := c.Validate(); err != nil {
		ev.Verdict = "refused"
		ev.RefusalKind = graph.ConnectErrorValidation.String()
		ev.Reason = err.Error()
		writeJSON(w, http.StatusOK, ValidateResponse{
			Valid:   false,
			Kind:    graph.ConnectErrorValidation.String(),
			Message: err.Error(),
		})
		return
	}

	client, err := graph.Connect(r.Context(), graph.Config{
		URL:      c.URL,
		Username: c.Username,
		Password: c.Password,
	})
	if err != nil {
		kind := graph.ClassifyConnectError(err)
		ev.Verdict = "refused"
		ev.RefusalKind = kind.String()
		ev.Reason = err.Error()
		writeJSON(w, http.StatusOK, ValidateResponse{
			Valid:   false,
			Kind:    kind.String(),
			Message: err.Error(),
		})
		return
	}
	_ = client.Close(r.Context())

	ev.Verdict = "executed"
	writeJSON(w, http.StatusOK, ValidateResponse{
		Valid:   true,
		Message: "Connection successful.",
	})
}
