// Package store is the persistence layer for atelier projects: project
// documents, named revisions, animation descriptors, and the append-only
// edit log behind the version-history viewer.
//
// The store receives an already-opened *sql.DB (see dbopen) and owns the
// schema on it. All timestamps are unix milliseconds.
package store

import "database/sql"

// Store wraps the project database.
type Store struct {
	DB *sql.DB
}

// NewStore creates a Store from an already-opened database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}
