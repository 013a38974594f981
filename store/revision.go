// CLAUDE:SUMMARY Named revision save points: insert, list per project, restore lookup.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// InsertRevision records an explicit save point.
func (s *Store) InsertRevision(ctx context.Context, r *Revision) error {
	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().UnixMilli()
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO revisions (id, project_id, label, document_json, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.ProjectID, r.Label, r.DocumentJSON, r.CreatedAt,
	)
	return err
}

// GetRevision retrieves a revision by ID, nil when absent.
func (s *Store) GetRevision(ctx context.Context, id string) (*Revision, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, project_id, label, document_json, created_at
		FROM revisions WHERE id = ?`, id)
	return scanRevision(row)
}

// ListRevisions returns a project's revisions, newest first. The document
// payload is included; the history viewer only shows label and time but
// restore needs the body anyway.
func (s *Store) ListRevisions(ctx context.Context, projectID string) ([]*Revision, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, project_id, label, document_json, created_at
		FROM revisions WHERE project_id = ? ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var revisions []*Revision
	for rows.Next() {
		r, err := scanRevisionRows(rows)
		if err != nil {
			return nil, err
		}
		revisions = append(revisions, r)
	}
	return revisions, rows.Err()
}

// DeleteRevision removes one save point.
func (s *Store) DeleteRevision(ctx context.Context, id string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM revisions WHERE id = ?`, id)
	return err
}

func scanRevision(row *sql.Row) (*Revision, error) {
	var r Revision
	err := row.Scan(&r.ID, &r.ProjectID, &r.Label, &r.DocumentJSON, &r.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan revision: %w", err)
	}
	return &r, nil
}

func scanRevisionRows(rows *sql.Rows) (*Revision, error) {
	var r Revision
	err := rows.Scan(&r.ID, &r.ProjectID, &r.Label, &r.DocumentJSON, &r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan revision: %w", err)
	}
	return &r, nil
}
