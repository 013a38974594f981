// CLAUDE:SUMMARY Project CRUD over the projects table.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// InsertProject adds a new project.
func (s *Store) InsertProject(ctx context.Context, p *Project) error {
	now := time.Now().UnixMilli()
	if p.CreatedAt == 0 {
		p.CreatedAt = now
	}
	if p.UpdatedAt == 0 {
		p.UpdatedAt = now
	}
	if p.DocumentJSON == "" {
		p.DocumentJSON = "{}"
	}

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO projects (id, name, document_json, active_page, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.DocumentJSON, p.ActivePage, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// GetProject retrieves a project by ID, nil when absent.
func (s *Store) GetProject(ctx context.Context, id string) (*Project, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, name, document_json, active_page, created_at, updated_at
		FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

// ListProjects returns all projects, most recently touched first.
func (s *Store) ListProjects(ctx context.Context) ([]*Project, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, name, document_json, active_page, created_at, updated_at
		FROM projects ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p, err := scanProjectRows(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProject updates a project's mutable fields.
func (s *Store) UpdateProject(ctx context.Context, p *Project) error {
	p.UpdatedAt = time.Now().UnixMilli()
	_, err := s.DB.ExecContext(ctx,
		`UPDATE projects SET name=?, document_json=?, active_page=?, updated_at=?
		WHERE id=?`,
		p.Name, p.DocumentJSON, p.ActivePage, p.UpdatedAt, p.ID,
	)
	return err
}

// DeleteProject removes a project (cascades to revisions, animations, edit_log).
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	return err
}

// CountProjects returns the total number of projects.
func (s *Store) CountProjects(ctx context.Context) (int, error) {
	var count int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&count)
	return count, err
}

func scanProject(row *sql.Row) (*Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.Name, &p.DocumentJSON, &p.ActivePage, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan project: %w", err)
	}
	return &p, nil
}

func scanProjectRows(rows *sql.Rows) (*Project, error) {
	var p Project
	err := rows.Scan(&p.ID, &p.Name, &p.DocumentJSON, &p.ActivePage, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan project: %w", err)
	}
	return &p, nil
}
