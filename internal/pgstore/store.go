// Package pgstore is the Postgres knowledge backend: pgvector similarity for the
// vector path and tsvector full-text search for the keyword path.
package pgstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"docqa/internal/contextutil"
	"docqa/internal/knowledge"
	"docqa/internal/query"
	"docqa/internal/vectorstore"
)

// Open opens a Postgres connection pool and verifies it answers.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return db, nil
}

// Store keeps passages, their embeddings and a generated tsvector in one table.
// It implements retrieval.VectorSearcher and retrieval.KeywordSearcher.
type Store struct {
	db         *sql.DB
	dimensions int
}

// New creates a Store for embeddings of the given dimensionality.
func New(db *sql.DB, dimensions int) *Store {
	return &Store{db: db, dimensions: dimensions}
}

// EnsureSchema creates the pgvector extension, the passages table and its indexes.
// It is idempotent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS passages (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			heading_path TEXT NOT NULL DEFAULT '',
			text TEXT NOT NULL,
			access_level TEXT NOT NULL,
			departments TEXT[] NOT NULL DEFAULT '{}',
			embedding vector(%d) NOT NULL,
			tsv tsvector GENERATED ALWAYS AS (to_tsvector('english', heading_path || ' ' || text)) STORED
		)`, s.dimensions),
		`CREATE INDEX IF NOT EXISTS idx_passages_document ON passages (document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_passages_tsv ON passages USING GIN (tsv)`,
		`CREATE INDEX IF NOT EXISTS idx_passages_embedding ON passages USING hnsw (embedding vector_cosine_ops)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "postgres schema ready", "dimensions", s.dimensions)
	return nil
}

// Ping checks that the database answers within ctx.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SearchVectors returns the k passages with the highest cosine similarity to vector.
// A non-empty levels restricts the search to passages stored with one of those levels.
func (s *Store) SearchVectors(ctx context.Context, vector []float32, k int, levels []knowledge.AccessLevel) ([]knowledge.Passage, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	var names []string
	for _, l := range levels {
		names = append(names, string(l))
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, heading_path, text, access_level, departments, 1 - (embedding <=> $1) AS score
		 FROM passages
		 WHERE coalesce(cardinality($3::text[]), 0) = 0 OR access_level = ANY($3::text[])
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(vector), k, pq.Array(names),
	)
	if err != nil {
		return nil, fmt.Errorf("similarity query failed: %w", err)
	}
	return scanPassages(rows, knowledge.SourceVector)
}

// SearchKeywords ranks passages by ts_rank against the OR of the expression's terms.
func (s *Store) SearchKeywords(ctx context.Context, expression string, k int) ([]knowledge.Passage, error) {
	tsq := tsQuery(query.SplitExpression(expression))
	if tsq == "" || k <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, heading_path, text, access_level, departments, ts_rank(tsv, q) AS score
		 FROM passages, to_tsquery('english', $1) AS q
		 WHERE tsv @@ q
		 ORDER BY score DESC, id
		 LIMIT $2`,
		tsq, k,
	)
	if err != nil {
		return nil, fmt.Errorf("full-text query failed: %w", err)
	}
	return scanPassages(rows, knowledge.SourceKeyword)
}

// UpsertPassages inserts or replaces passages with their embeddings in one transaction.
func (s *Store) UpsertPassages(ctx context.Context, passages []vectorstore.PassagePoint) error {
	if len(passages) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, p := range passages {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO passages (id, document_id, heading_path, text, access_level, departments, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (id) DO UPDATE SET
			 document_id = EXCLUDED.document_id, heading_path = EXCLUDED.heading_path,
			 text = EXCLUDED.text, access_level = EXCLUDED.access_level,
			 departments = EXCLUDED.departments, embedding = EXCLUDED.embedding`,
			p.ID, p.DocumentID, p.HeadingPath, p.Text, string(p.AccessLevel),
			pq.Array(p.Departments), pgvector.NewVector(p.Vector),
		); err != nil {
			return fmt.Errorf("failed to upsert passage %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit passages: %w", err)
	}
	return nil
}

// DeletePassages removes passages by id.
func (s *Store) DeletePassages(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM passages WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to delete passages: %w", err)
	}
	return nil
}

func scanPassages(rows *sql.Rows, source string) ([]knowledge.Passage, error) {
	defer func() {
		_ = rows.Close()
	}()

	var passages []knowledge.Passage
	for rows.Next() {
		var (
			p           knowledge.Passage
			level       string
			departments []string
		)
		if err := rows.Scan(&p.ID, &p.HeadingPath, &p.Text, &level, pq.Array(&departments), &p.Score); err != nil {
			return nil, fmt.Errorf("failed to scan passage: %w", err)
		}
		p.AccessLevel = knowledge.ParseAccessLevel(level)
		p.Departments = departments
		p.Source = source
		passages = append(passages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return passages, nil
}

// tsQuery builds a to_tsquery OR expression. Terms are reduced to letters and digits
// so that user text cannot break the tsquery syntax; multi-word terms become phrases.
func tsQuery(terms []string) string {
	parts := make([]string, 0, len(terms))
	for _, term := range terms {
		words := strings.FieldsFunc(term, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len(words) == 0 {
			continue
		}
		parts = append(parts, strings.Join(words, " <-> "))
	}
	return strings.Join(parts, " | ")
}
