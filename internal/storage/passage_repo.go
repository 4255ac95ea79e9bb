package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_passage_store.go -package=mocks docqa/internal/storage PassageStore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"docqa/internal/knowledge"
	"docqa/internal/query"
)

// PassageStore defines the interface for passage storage operations.
type PassageStore interface {
	// ReplaceForDocument atomically swaps the passages of a document.
	ReplaceForDocument(ctx context.Context, documentID string, passages []PassageRecord) error
	// ListIDsByDocument returns the passage IDs of a document, ordered by chunk_index.
	ListIDsByDocument(ctx context.Context, documentID string) ([]string, error)
}

// PassageRepo stores passages and serves the keyword retrieval path from an FTS4 index.
// It implements PassageStore and retrieval.KeywordSearcher.
type PassageRepo struct {
	db *sql.DB
}

// NewPassageRepo creates a new PassageRepo.
func NewPassageRepo(db *sql.DB) *PassageRepo {
	return &PassageRepo{db: db}
}

// ReplaceForDocument deletes the document's previous passages and full-text rows
// and inserts the new ones in one transaction.
func (r *PassageRepo) ReplaceForDocument(ctx context.Context, documentID string, passages []PassageRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM passages_fts WHERE passage_id IN (SELECT id FROM passages WHERE document_id = ?)",
		documentID,
	); err != nil {
		return fmt.Errorf("failed to delete full-text rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM passages WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("failed to delete passages by document: %w", err)
	}

	for _, p := range passages {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO passages (id, document_id, chunk_index, heading_path, text, access_level, departments)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID, documentID, p.ChunkIndex, p.HeadingPath, p.Text, p.AccessLevel, encodeDepartments(p.Departments),
		); err != nil {
			return fmt.Errorf("failed to insert passage %s: %w", p.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO passages_fts (passage_id, heading_path, text) VALUES (?, ?, ?)",
			p.ID, p.HeadingPath, p.Text,
		); err != nil {
			return fmt.Errorf("failed to index passage %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit passages: %w", err)
	}
	return nil
}

// ListIDsByDocument returns all passage IDs for a document, ordered by chunk_index.
// Returns an empty slice if no passages exist (not an error).
func (r *PassageRepo) ListIDsByDocument(ctx context.Context, documentID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id FROM passages WHERE document_id = ? ORDER BY chunk_index",
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query passage IDs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan passage ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return ids, nil
}

// SearchKeywords runs an OR query over the full-text index and returns the top k passages
// by lexical score. expression is a keyword expression joined with query.OrSeparator.
// FTS4 yields matches in docid order, so every match is scored before truncation.
func (r *PassageRepo) SearchKeywords(ctx context.Context, expression string, k int) ([]knowledge.Passage, error) {
	terms := query.SplitExpression(expression)
	match := matchExpression(terms)
	if match == "" || k <= 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.heading_path, p.text, p.access_level, p.departments
		 FROM passages_fts f
		 JOIN passages p ON p.id = f.passage_id
		 WHERE passages_fts MATCH ?`,
		match,
	)
	if err != nil {
		return nil, fmt.Errorf("full-text query failed: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var hits []knowledge.Passage
	for rows.Next() {
		var (
			id, text, level, departments string
			heading                      sql.NullString
		)
		if err := rows.Scan(&id, &heading, &text, &level, &departments); err != nil {
			return nil, fmt.Errorf("failed to scan passage: %w", err)
		}
		hits = append(hits, knowledge.Passage{
			ID:          id,
			Text:        text,
			HeadingPath: heading.String,
			AccessLevel: knowledge.ParseAccessLevel(level),
			Departments: decodeDepartments(departments),
			Score:       lexicalScore(terms, text, heading.String),
			Source:      knowledge.SourceKeyword,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// matchExpression quotes each term and joins them with OR for FTS4 MATCH.
func matchExpression(terms []string) string {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(strings.ReplaceAll(t, `"`, ""))
		if t == "" {
			continue
		}
		quoted = append(quoted, `"`+t+`"`)
	}
	return strings.Join(quoted, " OR ")
}
