// Package db provides SQLite-backed persistence for journal entries and
// attachment records.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/halvard/dagaz/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS entries (
	id            TEXT PRIMARY KEY,
	owner_id      TEXT NOT NULL,
	title         TEXT NOT NULL,
	content       TEXT NOT NULL DEFAULT '',
	tags          TEXT NOT NULL DEFAULT '[]',
	entry_date    DATETIME NOT NULL,
	location_lat  REAL,
	location_lon  REAL,
	location_name TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL,
	updated_at    DATETIME NOT NULL,
	deleted_at    DATETIME
);

CREATE INDEX IF NOT EXISTS idx_entries_owner ON entries(owner_id, deleted_at);

CREATE TABLE IF NOT EXISTS attachments (
	id              TEXT PRIMARY KEY,
	entry_id        TEXT NOT NULL,
	owner_id        TEXT NOT NULL,
	stored_filename TEXT NOT NULL UNIQUE,
	original_name   TEXT NOT NULL,
	mime_type       TEXT NOT NULL,
	size_bytes      INTEGER NOT NULL,
	created_at      DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_attachments_entry ON attachments(entry_id);
`

// Store defines the persistence operations. Consumers should depend on this
// interface rather than the concrete *DB type to facilitate testing.
type Store interface {
	InsertEntry(e *models.Entry) error
	GetEntry(id, ownerID string) (*models.Entry, error)
	UpdateEntry(e *models.Entry) error
	SoftDeleteEntry(id, ownerID string) error
	HardDeleteEntry(id, ownerID string) error
	ListEntries(ownerID string, limit, offset int, tag, sort string) ([]models.Entry, int, error)
	EntryOwned(id, ownerID string) (bool, error)

	InsertAttachment(a *models.Attachment) error
	GetAttachment(id, entryID, ownerID string) (*models.Attachment, error)
	GetAttachmentByStoredName(storedFilename string) (*models.Attachment, error)
	ListAttachmentsByEntry(entryID string) ([]models.Attachment, error)
	DeleteAttachment(id string) error
	DeleteAttachments(ids []string) error

	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)

// DB wraps a sql.DB with journal-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("db: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
