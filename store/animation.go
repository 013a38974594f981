// CLAUDE:SUMMARY Animation descriptor CRUD plus the enabled toggle.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// InsertAnimation adds a new animation descriptor.
func (s *Store) InsertAnimation(ctx context.Context, a *Animation) error {
	now := time.Now().UnixMilli()
	if a.CreatedAt == 0 {
		a.CreatedAt = now
	}
	if a.UpdatedAt == 0 {
		a.UpdatedAt = now
	}
	if a.Trigger == "" {
		a.Trigger = "load"
	}
	if a.PropertiesJSON == "" {
		a.PropertiesJSON = "{}"
	}
	if a.TimingJSON == "" {
		a.TimingJSON = "{}"
	}

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO animations (id, project_id, target_id, anim_type, trigger_type,
		properties_json, timing_json, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ProjectID, a.TargetID, a.AnimType, a.Trigger,
		a.PropertiesJSON, a.TimingJSON, a.Enabled, a.CreatedAt, a.UpdatedAt,
	)
	return err
}

// GetAnimation retrieves a descriptor by ID, nil when absent.
func (s *Store) GetAnimation(ctx context.Context, id string) (*Animation, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, project_id, target_id, anim_type, trigger_type,
		properties_json, timing_json, enabled, created_at, updated_at
		FROM animations WHERE id = ?`, id)
	return scanAnimation(row)
}

// ListAnimations returns a project's descriptors in creation order, which
// is the order the preview injects them in.
func (s *Store) ListAnimations(ctx context.Context, projectID string) ([]*Animation, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, project_id, target_id, anim_type, trigger_type,
		properties_json, timing_json, enabled, created_at, updated_at
		FROM animations WHERE project_id = ? ORDER BY created_at ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var animations []*Animation
	for rows.Next() {
		a, err := scanAnimationRows(rows)
		if err != nil {
			return nil, err
		}
		animations = append(animations, a)
	}
	return animations, rows.Err()
}

// UpdateAnimation updates a descriptor's mutable fields.
func (s *Store) UpdateAnimation(ctx context.Context, a *Animation) error {
	a.UpdatedAt = time.Now().UnixMilli()
	_, err := s.DB.ExecContext(ctx,
		`UPDATE animations SET target_id=?, anim_type=?, trigger_type=?,
		properties_json=?, timing_json=?, enabled=?, updated_at=?
		WHERE id=?`,
		a.TargetID, a.AnimType, a.Trigger,
		a.PropertiesJSON, a.TimingJSON, a.Enabled, a.UpdatedAt, a.ID,
	)
	return err
}

// SetAnimationEnabled flips the preview toggle without touching the rest.
func (s *Store) SetAnimationEnabled(ctx context.Context, id string, enabled bool) error {
	_, err := s.DB.ExecContext(ctx,
		`UPDATE animations SET enabled=?, updated_at=? WHERE id=?`,
		enabled, time.Now().UnixMilli(), id)
	return err
}

// DeleteAnimation removes a descriptor.
func (s *Store) DeleteAnimation(ctx context.Context, id string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM animations WHERE id = ?`, id)
	return err
}

// DeleteAnimationsForTarget removes every descriptor bound to a component,
// called when the component is deleted from the page.
func (s *Store) DeleteAnimationsForTarget(ctx context.Context, projectID, targetID string) error {
	_, err := s.DB.ExecContext(ctx,
		`DELETE FROM animations WHERE project_id = ? AND target_id = ?`, projectID, targetID)
	return err
}

func scanAnimation(row *sql.Row) (*Animation, error) {
	var a Animation
	var enabled int
	err := row.Scan(
		&a.ID, &a.ProjectID, &a.TargetID, &a.AnimType, &a.Trigger,
		&a.PropertiesJSON, &a.TimingJSON, &enabled, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan animation: %w", err)
	}
	a.Enabled = enabled != 0
	return &a, nil
}

func scanAnimationRows(rows *sql.Rows) (*Animation, error) {
	var a Animation
	var enabled int
	err := rows.Scan(
		&a.ID, &a.ProjectID, &a.TargetID, &a.AnimType, &a.Trigger,
		&a.PropertiesJSON, &a.TimingJSON, &enabled, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan animation: %w", err)
	}
	a.Enabled = enabled != 0
	return &a, nil
}
