// CLAUDE:SUMMARY Applies the atelier project schema: projects, revisions, animations, edit_log.
package store

import "database/sql"

// Schema is the complete project schema.
const Schema = `
-- Website projects
CREATE TABLE IF NOT EXISTS projects (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    document_json TEXT NOT NULL DEFAULT '{}',
    active_page   TEXT NOT NULL DEFAULT '',
    created_at    INTEGER NOT NULL,
    updated_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_projects_updated ON projects(updated_at DESC);

-- Named revisions: explicit save points, restorable
CREATE TABLE IF NOT EXISTS revisions (
    id            TEXT PRIMARY KEY,
    project_id    TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    label         TEXT NOT NULL DEFAULT '',
    document_json TEXT NOT NULL,
    created_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_revisions_project ON revisions(project_id, created_at DESC);

-- Animation descriptors, style-adjacent and not part of the undo history
CREATE TABLE IF NOT EXISTS animations (
    id              TEXT PRIMARY KEY,
    project_id      TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    target_id       TEXT NOT NULL,
    anim_type       TEXT NOT NULL DEFAULT '',
    trigger_type    TEXT NOT NULL DEFAULT 'load',
    properties_json TEXT NOT NULL DEFAULT '{}',
    timing_json     TEXT NOT NULL DEFAULT '{}',
    enabled         INTEGER NOT NULL DEFAULT 1,
    created_at      INTEGER NOT NULL,
    updated_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_animations_project ON animations(project_id);

-- Append-only edit log for the version-history viewer
CREATE TABLE IF NOT EXISTS edit_log (
    id           TEXT PRIMARY KEY,
    project_id   TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    session_id   TEXT NOT NULL DEFAULT '',
    op           TEXT NOT NULL,
    component_id TEXT NOT NULL DEFAULT '',
    page_id      TEXT NOT NULL DEFAULT '',
    detail       TEXT NOT NULL DEFAULT '',
    edited_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_edit_log_project ON edit_log(project_id, edited_at DESC);
`

// Migration001EditLogPage adds page_id to edit_log rows written before the
// log tracked the page an edit landed on.
const Migration001EditLogPage = `
ALTER TABLE edit_log ADD COLUMN page_id TEXT NOT NULL DEFAULT '';
`

// ApplySchema creates all tables and indexes on the given database.
func ApplySchema(db *sql.DB) error {
	if _, err := db.Exec(Schema); err != nil {
		return err
	}
	applyColumnMigration(db, "edit_log", "page_id", Migration001EditLogPage)
	return nil
}

// applyColumnMigration adds a column if it doesn't exist (idempotent).
func applyColumnMigration(db *sql.DB, table, column, ddl string) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column).Scan(&count)
	if err != nil || count > 0 {
		return
	}
	db.Exec(ddl)
}
