package api

import (
	"database/sql"
	"net/http"

	"github.com/arbor-sec/cyphergate/internal/creds"
	"github.com/arbor-sec/cyphergate/internal/graph"
	"github.com/arbor-sec/cyphergate/internal/store"
	"go.uber.org/zap"
)

func (d *Dependencies) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("project_id")

	var req CreateProfileReq
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}
	if req.Name == "" || len(req.Name) > 255 {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "name must be 1-255 characters"})
		return
	}

	c := creds.Credentials{URL: req.URL, Username: req.Username, Password: req.Password}
	if err := c.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: err.Error()})
		return
	}

	profile, err := d.Store.CreateProfile(r.Context(), projectID, store.CreateProfileParams{
		Name:     req.Name,
		URL:      req.URL,
		Username: req.Username,
		Password: req.Password,
		Database: req.Database,
	})
	if err != nil {
		d.Logger.Error("failed to create profile", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to create connection profile"})
		return
	}
	writeJSON(w, http.StatusCreated, profileToResp(profile))
}

func (d *Dependencies) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("project_id")

	profiles, err := d.Store.ListProfiles(r.Context(), projectID)
	if err != nil {
		d.Logger.Error("failed to list profiles", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to list connection profiles"})
		return
	}

	resp := make([]ProfileResp, 0, len(profiles))
	for _, p := range profiles {
		resp = append(resp, profileToResp(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (d *Dependencies) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("project_id")
	name := r.PathValue("name")

	profile, err := d.Store.GetProfile(r.Context(), projectID, name)
	if err != nil {
		d.Logger.Error("failed to get profile", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to get connection profile"})
		return
	}
	if profile == nil {
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "Connection profile not found."})
		return
	}
	writeJSON(w, http.StatusOK, profileToResp(profile))
}

// handleDeleteProfile removes a profile and drops any pooled connection
// holding its credentials.
func (d *Dependencies) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("project_id")
	name := r.PathValue("name")

	profile, err := d.Store.GetProfile(r.Context(), projectID, name)
	if err != nil {
		d.Logger.Error("failed to get profile", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to delete connection profile"})
		return
	}

	err = d.Store.DeleteProfile(r.Context(), projectID, name)
	if err == sql.ErrNoRows {
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "Connection profile not found."})
		return
	}
	if err != nil {
		d.Logger.Error("failed to delete profile", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to delete connection profile"})
		return
	}

	if profile != nil {
		d.Pool.Invalidate(graph.Key{
			URL:      profile.URL,
			Username: profile.Username,
			Password: profile.Password,
		})
	}
	w.WriteHeader(http.StatusNoContent)
}

func profileToResp(p *store.ConnectionProfile) ProfileResp {
	return ProfileResp{
		ID:        p.ID,
		ProjectID: p.ProjectID,
		Name:      p.Name,
		URL:       p.URL,
		Username:  p.Username,
		Database:  p.Database,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
