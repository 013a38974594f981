// CLAUDE:SUMMARY Append-only edit log writes and the bounded history listing.
package store

import (
	"context"
	"fmt"
	"time"
)

// AppendEdit records one operation in the edit log. Callers treat failures
// as non-fatal: the log feeds the history viewer, it never gates an edit.
func (s *Store) AppendEdit(ctx context.Context, e *EditLogEntry) error {
	if e.EditedAt == 0 {
		e.EditedAt = time.Now().UnixMilli()
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO edit_log (id, project_id, session_id, op, component_id, page_id, detail, edited_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ProjectID, e.SessionID, e.Op, e.ComponentID, e.PageID, e.Detail, e.EditedAt,
	)
	return err
}

// ListEdits returns a project's most recent operations, newest first,
// capped at limit (100 when limit <= 0).
func (s *Store) ListEdits(ctx context.Context, projectID string, limit int) ([]*EditLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, project_id, session_id, op, component_id, page_id, detail, edited_at
		FROM edit_log WHERE project_id = ? ORDER BY edited_at DESC LIMIT ?`, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*EditLogEntry
	for rows.Next() {
		var e EditLogEntry
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.SessionID, &e.Op,
			&e.ComponentID, &e.PageID, &e.Detail, &e.EditedAt); err != nil {
			return nil, fmt.Errorf("scan edit log entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// CountEdits returns the total number of logged operations for a project.
func (s *Store) CountEdits(ctx context.Context, projectID string) (int, error) {
	var count int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM edit_log WHERE project_id = ?`, projectID).Scan(&count)
	return count, err
}
