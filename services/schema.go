package services

import (
	"database/sql"

	"github.com/hazyhaar/atelier/dbopen"
)

// Schema defines the collaborators table that drives the router. Each row
// maps a collaborator name to a dispatch strategy.
//
// Strategies:
//   - "local": dispatch to an in-memory Handler registered via RegisterLocal.
//   - "http":  dispatch via the HTTP transport factory.
//   - "noop":  silently succeed without doing anything (collaborator disabled).
//
// The config column holds per-route JSON (timeouts, content type). Any
// UPDATE to this table increments PRAGMA data_version, which the Watch
// loop detects to trigger a hot-reload.
const Schema = `
CREATE TABLE IF NOT EXISTS collaborators (
    service_name TEXT PRIMARY KEY,
    strategy     TEXT NOT NULL CHECK(strategy IN ('local', 'http', 'noop')),
    endpoint     TEXT,
    config       TEXT DEFAULT '{}',
    updated_at   INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
);

CREATE INDEX IF NOT EXISTS idx_collaborators_strategy ON collaborators(strategy);

CREATE TRIGGER IF NOT EXISTS trg_collaborators_updated_at
AFTER UPDATE ON collaborators
FOR EACH ROW
BEGIN
    UPDATE collaborators SET updated_at = strftime('%s', 'now') WHERE service_name = NEW.service_name;
END;
`

// OpenDB opens a SQLite database at path with production-safe pragmas.
// The caller must blank-import the SQLite driver:
//
//	import _ "modernc.org/sqlite"
func OpenDB(path string) (*sql.DB, error) {
	return dbopen.Open(path, dbopen.WithBusyTimeout(5000))
}

// Init creates the collaborators table if it doesn't exist.
func Init(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
