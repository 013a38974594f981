package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// Admin provides CRUD operations on the collaborators table, suitable for
// exposure over the HTTP API and as MCP tools so the routing can be
// administered at runtime.
//
// All mutations go through SQLite, so the Watch loop automatically picks
// up changes — no need to call Reload manually.
type Admin struct {
	db *sql.DB
}

// NewAdmin creates an Admin backed by the given collaborators database.
// The database must have the collaborators schema applied (via Init).
func NewAdmin(db *sql.DB) *Admin {
	return &Admin{db: db}
}

// CollaboratorRow represents a single row from the collaborators table.
type CollaboratorRow struct {
	ServiceName string          `json:"service_name"`
	Strategy    string          `json:"strategy"`
	Endpoint    string          `json:"endpoint,omitempty"`
	Config      json.RawMessage `json:"config,omitempty"`
	UpdatedAt   int64           `json:"updated_at"`
}

// ListCollaborators returns all rows from the collaborators table.
func (a *Admin) ListCollaborators(ctx context.Context) ([]CollaboratorRow, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT service_name, strategy, COALESCE(endpoint, ''), COALESCE(config, '{}'), updated_at FROM collaborators ORDER BY service_name`)
	if err != nil {
		return nil, fmt.Errorf("admin: list collaborators: %w", err)
	}
	defer rows.Close()

	var result []CollaboratorRow
	for rows.Next() {
		var r CollaboratorRow
		var cfgStr string
		if err := rows.Scan(&r.ServiceName, &r.Strategy, &r.Endpoint, &cfgStr, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("admin: scan collaborator: %w", err)
		}
		r.Config = json.RawMessage(cfgStr)
		result = append(result, r)
	}
	return result, rows.Err()
}

// GetCollaborator returns a single row by service name, nil if absent.
func (a *Admin) GetCollaborator(ctx context.Context, serviceName string) (*CollaboratorRow, error) {
	var r CollaboratorRow
	var cfgStr string
	err := a.db.QueryRowContext(ctx,
		`SELECT service_name, strategy, COALESCE(endpoint, ''), COALESCE(config, '{}'), updated_at FROM collaborators WHERE service_name = ?`,
		serviceName).Scan(&r.ServiceName, &r.Strategy, &r.Endpoint, &cfgStr, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("admin: get collaborator: %w", err)
	}
	r.Config = json.RawMessage(cfgStr)
	return &r, nil
}

// UpsertCollaborator inserts or updates a row in the collaborators table.
// On conflict (same service_name), strategy, endpoint and config are
// updated; updated_at is refreshed by the trigger. The watcher will detect
// the change and trigger a Reload automatically.
func (a *Admin) UpsertCollaborator(ctx context.Context, serviceName, strategy, endpoint string, config json.RawMessage) error {
	if config == nil {
		config = json.RawMessage(`{}`)
	}
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO collaborators (service_name, strategy, endpoint, config)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(service_name) DO UPDATE SET
		     strategy = excluded.strategy,
		     endpoint = excluded.endpoint,
		     config   = excluded.config`,
		serviceName, strategy, endpoint, string(config))
	if err != nil {
		return fmt.Errorf("admin: upsert collaborator: %w", err)
	}
	return nil
}

// DeleteCollaborator removes a row from the collaborators table.
// The watcher will detect the change and close any associated handler.
func (a *Admin) DeleteCollaborator(ctx context.Context, serviceName string) error {
	result, err := a.db.ExecContext(ctx,
		`DELETE FROM collaborators WHERE service_name = ?`, serviceName)
	if err != nil {
		return fmt.Errorf("admin: delete collaborator: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("admin: collaborator %q not found", serviceName)
	}
	return nil
}

// SetStrategy changes only the strategy of an existing row. Useful for
// quick enable/disable: set to "noop" to disable a collaborator, "local"
// to re-enable the built-in one with zero downtime.
func (a *Admin) SetStrategy(ctx context.Context, serviceName, strategy string) error {
	result, err := a.db.ExecContext(ctx,
		`UPDATE collaborators SET strategy = ? WHERE service_name = ?`,
		strategy, serviceName)
	if err != nil {
		return fmt.Errorf("admin: set strategy: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("admin: collaborator %q not found", serviceName)
	}
	return nil
}
