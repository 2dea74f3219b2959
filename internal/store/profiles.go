package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ConnectionProfile is a named Neo4j credential set owned by a project.
// Profiles are the host-side credential store: a query request names a
// profile instead of shipping raw credentials, and the env-based
// NEO4J_*/AURA_* shim is only the fallback when no profile is given.
type ConnectionProfile struct {
	ID        string
	ProjectID string
	Name      string
	URL       string
	Username  string
	Password  string
	Database  string // optional target database on multi-database servers
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateProfileParams holds the fields for a new connection profile.
type CreateProfileParams struct {
	Name     string
	URL      string
	Username string
	Password string
	Database string
}

const profileColumns = `id, project_id, name, url, username, password, COALESCE(database_name, ''), created_at, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (*ConnectionProfile, error) {
	var p ConnectionProfile
	err := row.Scan(&p.ID, &p.ProjectID, &p.Name, &p.URL, &p.Username,
		&p.Password, &p.Database, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProfile inserts a connection profile for a project. The (project,
// name) pair is unique; inserting a duplicate fails at the database.
func (s *Store) CreateProfile(ctx context.Context, projectID string, params CreateProfileParams) (*ConnectionProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO connection_profiles (project_id, name, url, username, password, database_name)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		RETURNING `+profileColumns,
		projectID, params.Name, params.URL, params.Username, params.Password, params.Database,
	)
	p, err := scanProfile(row)
	if err != nil {
		return nil, fmt.Errorf("CreateProfile: %w", err)
	}
	return p, nil
}

// ListProfiles returns a project's connection profiles ordered by name.
func (s *Store) ListProfiles(ctx context.Context, projectID string) ([]*ConnectionProfile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+profileColumns+`
		FROM connection_profiles WHERE project_id = $1 ORDER BY name`, projectID)
	if err != nil {
		return nil, fmt.Errorf("ListProfiles: %w", err)
	}
	defer rows.Close()

	var profiles []*ConnectionProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("ListProfiles: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// GetProfile returns a project's profile by name, or nil if not found.
func (s *Store) GetProfile(ctx context.Context, projectID, name string) (*ConnectionProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+profileColumns+`
		FROM connection_profiles WHERE project_id = $1 AND name = $2`, projectID, name)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetProfile: %w", err)
	}
	return p, nil
}

// DeleteProfile removes a project's profile by name.
func (s *Store) DeleteProfile(ctx context.Context, projectID, name string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM connection_profiles WHERE project_id = $1 AND name = $2`, projectID, name)
	if err != nil {
		return fmt.Errorf("DeleteProfile: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
