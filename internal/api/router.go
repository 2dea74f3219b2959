package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/arbor-sec/cyphergate/internal/chread"
	"github.com/arbor-sec/cyphergate/internal/graph"
	"github.com/arbor-sec/cyphergate/internal/storage"
	"github.com/arbor-sec/cyphergate/internal/store"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"
)

// Dependencies holds shared state injected into all HTTP handlers.
type Dependencies struct {
	Store       *store.Store
	Pool        *graph.Pool
	Writer      storage.EventWriter
	Reader      *chread.Reader // nil if ClickHouse unavailable
	Logger      *zap.Logger
	CacheTTL    time.Duration
	QuerySchema *jsonschema.Schema
}

// NewRouter builds the HTTP mux with all routes wired up.
func NewRouter(deps *Dependencies) (http.Handler, error) {
	if deps.QuerySchema == nil {
		sch, err := compileQuerySchema()
		if err != nil {
			return nil, fmt.Errorf("NewRouter: %w", err)
		}
		deps.QuerySchema = sch
	}

	mux := http.NewServeMux()

	// Query endpoints (auth required via Bearer cgk_ token)
	mux.HandleFunc("POST /v1/query", deps.authMiddleware(deps.handleQuery))
	mux.HandleFunc("POST /v1/validate", deps.authMiddleware(deps.handleValidate))

	// Project CRUD (no auth — dashboard auth added later)
	mux.HandleFunc("POST /api/cyphergate/projects", deps.handleCreateProject)
	mux.HandleFunc("GET /api/cyphergate/projects", deps.handleListProjects)
	mux.HandleFunc("GET /api/cyphergate/projects/{project_id}", deps.handleGetProject)
	mux.HandleFunc("PATCH /api/cyphergate/projects/{project_id}", deps.handleUpdateProject)
	mux.HandleFunc("DELETE /api/cyphergate/projects/{project_id}", deps.handleDeleteProject)
	mux.HandleFunc("POST /api/cyphergate/projects/{project_id}/rotate-key", deps.handleRotateKey)

	// Connection profile CRUD (no auth)
	mux.HandleFunc("POST /api/cyphergate/projects/{project_id}/profiles", deps.handleCreateProfile)
	mux.HandleFunc("GET /api/cyphergate/projects/{project_id}/profiles", deps.handleListProfiles)
	mux.HandleFunc("GET /api/cyphergate/projects/{project_id}/profiles/{name}", deps.handleGetProfile)
	mux.HandleFunc("DELETE /api/cyphergate/projects/{project_id}/profiles/{name}", deps.handleDeleteProfile)

	// Events & Analytics (no auth)
	mux.HandleFunc("GET /api/cyphergate/events", deps.handleListEvents)
	mux.HandleFunc("GET /api/cyphergate/events/{request_id}", deps.handleGetEvent)
	mux.HandleFunc("GET /api/cyphergate/analytics", deps.handleGetAnalytics)

	// Health check
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return corsMiddleware(requestLogging(mux, deps.Logger)), nil
}
