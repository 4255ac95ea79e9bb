package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("record not found")

// New opens a SQLite database connection at the given path.
// It enables foreign keys and sets connection pool settings.
func New(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys (disabled by default in SQLite)
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate creates the documents, passages, full-text and audit tables.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			path TEXT NOT NULL UNIQUE,
			title TEXT,
			access_level TEXT NOT NULL,
			departments TEXT NOT NULL DEFAULT '[]',
			hash TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS passages (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			heading_path TEXT,
			text TEXT NOT NULL,
			access_level TEXT NOT NULL,
			departments TEXT NOT NULL DEFAULT '[]',
			FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_passages_document ON passages(document_id, chunk_index);`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS passages_fts USING fts4(
			passage_id, heading_path, text,
			notindexed=passage_id,
			tokenize=porter
		);`,
		`CREATE TABLE IF NOT EXISTS audit_events (
			id TEXT PRIMARY KEY,
			occurred_at DATETIME NOT NULL,
			user_id TEXT,
			session_id TEXT,
			action TEXT NOT NULL,
			resource_id TEXT,
			details TEXT,
			ip_address TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_audit_events_session ON audit_events(session_id, occurred_at);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

// Ping checks that the database answers within ctx.
func Ping(ctx context.Context, db *sql.DB) error {
	return db.PingContext(ctx)
}
