package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks docqa/internal/storage DocumentStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DocumentStore defines the interface for document storage operations.
type DocumentStore interface {
	// GetByPath gets a document by its relative path. Returns ErrNotFound if not found.
	GetByPath(ctx context.Context, path string) (*DocumentRecord, error)
	// Upsert inserts a new document or updates an existing one, keeping its ID.
	Upsert(ctx context.Context, doc *DocumentRecord) error
}

// DocumentRepo provides methods for document operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// GetByPath gets a document by its relative path.
func (r *DocumentRepo) GetByPath(ctx context.Context, path string) (*DocumentRecord, error) {
	var (
		doc          DocumentRecord
		title        sql.NullString
		departments  string
		updatedAtStr string
	)

	err := r.db.QueryRowContext(ctx,
		"SELECT id, path, title, access_level, departments, hash, updated_at FROM documents WHERE path = ?",
		path,
	).Scan(&doc.ID, &doc.Path, &title, &doc.AccessLevel, &departments, &doc.Hash, &updatedAtStr)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	doc.Title = title.String
	doc.Departments = decodeDepartments(departments)
	doc.UpdatedAt, err = parseTimestamp(updatedAtStr)
	if err != nil {
		return nil, err
	}

	return &doc, nil
}

// Upsert inserts a new document or updates an existing one.
// New documents get a UUID; existing ones keep theirs and doc.ID is set to it.
func (r *DocumentRepo) Upsert(ctx context.Context, doc *DocumentRecord) error {
	existing, err := r.GetByPath(ctx, doc.Path)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to check existing document: %w", err)
	}

	if existing != nil {
		doc.ID = existing.ID
	} else if doc.ID == "" {
		doc.ID = uuid.New().String()
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO documents (id, path, title, access_level, departments, hash, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (path) DO UPDATE SET
		 title = excluded.title, access_level = excluded.access_level,
		 departments = excluded.departments, hash = excluded.hash, updated_at = CURRENT_TIMESTAMP`,
		doc.ID, doc.Path, doc.Title, doc.AccessLevel, encodeDepartments(doc.Departments), doc.Hash,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	return nil
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err == nil {
		return t, nil
	}
	// The driver may hand back RFC3339 depending on how the value was written.
	t, err = time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}
