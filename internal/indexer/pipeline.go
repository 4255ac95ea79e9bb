package indexer

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_indexer.go -package=mocks docqa/internal/indexer Embedder,PassageIndexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"

	"docqa/internal/contextutil"
	"docqa/internal/corpus"
	"docqa/internal/storage"
	"docqa/internal/vectorstore"
)

// passageNamespace seeds the UUIDv5 passage ids so re-ingesting a file yields the same ids.
var passageNamespace = uuid.MustParse("8f5a3c2e-6b1d-4c7a-9e0f-2d4b6a8c1e3f")

// Embedder produces passage embeddings in batches.
type Embedder interface {
	EmbedBatched(ctx context.Context, texts []string, batchSize int) ([][]float32, error)
}

// PassageIndexer is the vector-side passage store (Qdrant or Postgres).
type PassageIndexer interface {
	UpsertPassages(ctx context.Context, passages []vectorstore.PassagePoint) error
	DeletePassages(ctx context.Context, ids []string) error
}

// Pipeline ingests markdown documents into the keyword store and the vector store.
type Pipeline struct {
	scanner   *corpus.Scanner
	documents storage.DocumentStore
	passages  storage.PassageStore
	embedder  Embedder
	index     PassageIndexer
	chunker   *GoldmarkChunker
	batchSize int
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	scanner *corpus.Scanner,
	documents storage.DocumentStore,
	passages storage.PassageStore,
	embedder Embedder,
	index PassageIndexer,
	batchSize int,
) *Pipeline {
	return &Pipeline{
		scanner:   scanner,
		documents: documents,
		passages:  passages,
		embedder:  embedder,
		index:     index,
		chunker:   NewGoldmarkChunker(),
		batchSize: batchSize,
	}
}

// passageID derives the stable id of the chunk at index in the document at relPath.
func passageID(relPath string, index int) string {
	return uuid.NewSHA1(passageNamespace, []byte(relPath+"#"+strconv.Itoa(index))).String()
}

// FileResult describes the outcome of ingesting one document.
type FileResult struct {
	// Unchanged is set when the content hash matches the last successful ingestion.
	Unchanged   bool
	AccessLevel string
	Chunks      []Chunk
}

// IndexFile ingests one document.
func (p *Pipeline) IndexFile(ctx context.Context, file corpus.ScannedFile) (FileResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	content, err := os.ReadFile(file.AbsPath)
	if err != nil {
		return FileResult{}, fmt.Errorf("failed to read file %s: %w", file.AbsPath, err)
	}

	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])

	existing, err := p.documents.GetByPath(ctx, file.RelPath)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return FileResult{}, fmt.Errorf("failed to check existing document: %w", err)
	}
	if existing != nil && existing.Hash == hash {
		logger.DebugContext(ctx, "skipping unchanged document", "rel_path", file.RelPath)
		return FileResult{Unchanged: true}, nil
	}

	meta, body, err := corpus.ParseDocument(content)
	if err != nil {
		return FileResult{}, fmt.Errorf("failed to parse %s: %w", file.RelPath, err)
	}
	level := meta.Level()
	if !level.Known() {
		// Stored as declared; the access filter refuses it to everyone but admins.
		logger.WarnContext(ctx, "unrecognized access level", "rel_path", file.RelPath, "access_level", string(level))
	}

	title, chunks := p.chunker.ChunkMarkdown(body, file.RelPath)
	if meta.Title != "" {
		title = meta.Title
	}

	// The hash is recorded only after both stores accepted the passages, so a failed
	// run is retried next time.
	doc := &storage.DocumentRecord{
		Path:        file.RelPath,
		Title:       title,
		AccessLevel: string(level),
		Departments: meta.Departments,
	}
	if existing != nil {
		doc.Hash = existing.Hash
	}
	if err := p.documents.Upsert(ctx, doc); err != nil {
		return FileResult{}, fmt.Errorf("failed to upsert document: %w", err)
	}

	oldIDs, err := p.passages.ListIDsByDocument(ctx, doc.ID)
	if err != nil {
		return FileResult{}, fmt.Errorf("failed to list previous passages: %w", err)
	}

	records := make([]storage.PassageRecord, len(chunks))
	points := make([]vectorstore.PassagePoint, len(chunks))
	texts := make([]string, len(chunks))
	current := make(map[string]struct{}, len(chunks))
	for i, c := range chunks {
		id := passageID(file.RelPath, c.Index)
		current[id] = struct{}{}
		texts[i] = c.Text
		records[i] = storage.PassageRecord{
			ID:          id,
			DocumentID:  doc.ID,
			ChunkIndex:  c.Index,
			HeadingPath: c.HeadingPath,
			Text:        c.Text,
			AccessLevel: string(level),
			Departments: meta.Departments,
		}
		points[i] = vectorstore.PassagePoint{
			ID:          id,
			DocumentID:  doc.ID,
			HeadingPath: c.HeadingPath,
			Text:        c.Text,
			AccessLevel: level,
			Departments: meta.Departments,
		}
	}

	if len(texts) > 0 {
		vectors, err := p.embedder.EmbedBatched(ctx, texts, p.batchSize)
		if err != nil {
			return FileResult{}, fmt.Errorf("failed to embed passages: %w", err)
		}
		if len(vectors) != len(points) {
			return FileResult{}, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(points), len(vectors))
		}
		for i := range points {
			points[i].Vector = vectors[i]
		}
	}

	var stale []string
	for _, id := range oldIDs {
		if _, ok := current[id]; !ok {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		if err := p.index.DeletePassages(ctx, stale); err != nil {
			logger.WarnContext(ctx, "failed to delete stale vectors", "rel_path", file.RelPath, "count", len(stale), "error", err)
		}
	}

	if err := p.passages.ReplaceForDocument(ctx, doc.ID, records); err != nil {
		return FileResult{}, fmt.Errorf("failed to store passages: %w", err)
	}
	if len(points) > 0 {
		if err := p.index.UpsertPassages(ctx, points); err != nil {
			return FileResult{}, fmt.Errorf("failed to upsert vectors: %w", err)
		}
	}

	doc.Hash = hash
	if err := p.documents.Upsert(ctx, doc); err != nil {
		return FileResult{}, fmt.Errorf("failed to record document hash: %w", err)
	}

	logger.InfoContext(ctx, "indexed document",
		"rel_path", file.RelPath, "title", title, "access_level", string(level), "passages", len(chunks))
	return FileResult{AccessLevel: string(level), Chunks: chunks}, nil
}

// IndexAll scans the knowledge directory and ingests every markdown file.
// Errors for individual files are logged and counted; the run continues.
func (p *Pipeline) IndexAll(ctx context.Context) (*Report, error) {
	logger := contextutil.LoggerFromContext(ctx)

	files, err := p.scanner.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan knowledge directory: %w", err)
	}

	report := newReport()
	report.FilesScanned = len(files)
	logger.InfoContext(ctx, "starting ingestion", "root", p.scanner.Root(), "files", len(files))

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		res, err := p.IndexFile(ctx, file)
		switch {
		case err != nil:
			report.FilesFailed++
			logger.ErrorContext(ctx, "failed to index document", "rel_path", file.RelPath, "error", err)
		case res.Unchanged:
			report.FilesUnchanged++
		default:
			report.FilesIndexed++
			report.addPassages(res.AccessLevel, res.Chunks)
		}
	}
	report.finish()

	logger.InfoContext(ctx, "ingestion completed",
		"files", report.FilesScanned, "indexed", report.FilesIndexed,
		"unchanged", report.FilesUnchanged, "failed", report.FilesFailed,
		"passages", report.PassagesWritten)

	if report.FilesFailed > 0 {
		return report, fmt.Errorf("ingestion completed with %d errors", report.FilesFailed)
	}
	return report, nil
}
