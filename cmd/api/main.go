package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docqa/internal/answer"
	"docqa/internal/audit"
	"docqa/internal/config"
	"docqa/internal/corpus"
	"docqa/internal/handlers"
	"docqa/internal/http"
	"docqa/internal/indexer"
	"docqa/internal/llm"
	"docqa/internal/pgstore"
	"docqa/internal/rag"
	"docqa/internal/retrieval"
	"docqa/internal/session"
	"docqa/internal/storage"
	"docqa/internal/vectorstore"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API answers questions over an internal document collection. Passages are retrieved
// with hybrid vector and keyword search, filtered by the caller's role, department and
// clearance, ranked, and handed to a language model.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: DocQA API
//   description: |
//     Access-controlled question answering over indexed markdown documents.
//     Callers identify themselves with the X-User-* headers; anonymous callers see public passages only.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

const (
	embedBatchSize  = 32
	shutdownTimeout = 10 * time.Second
	auditDrain      = 5 * time.Second
)

// knowledgeStore is the vector and keyword side of the selected backend.
type knowledgeStore struct {
	vectors  retrieval.VectorSearcher
	keywords retrieval.KeywordSearcher
	index    indexer.PassageIndexer
	checks   []handlers.Check
}

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	// Create repository instances
	documentRepo := storage.NewDocumentRepo(db)
	passageRepo := storage.NewPassageRepo(db)
	auditRepo := storage.NewAuditRepo(db)

	store, closeStore, err := openKnowledgeStore(ctx, cfg, db, passageRepo)
	if err != nil {
		log.Fatalf("Failed to initialize knowledge store: %v", err)
	}
	defer closeStore()

	// Validate embedding client vector size (fail-fast)
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.VectorSize)
	if err := embedder.CheckDimensions(ctx); err != nil {
		log.Fatalf("Failed to validate embedding client: %v", err)
	}
	slog.Info("Embedding client validated", "vector_size", cfg.VectorSize)

	// Audit trail: SQLite always, NATS when configured, and the log at debug level
	sinks := audit.MultiSink{auditRepo}
	if cfg.NATSURL != "" {
		natsSink, err := audit.NewNATSSink(cfg.NATSURL, cfg.NATSAuditSubject)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer natsSink.Close()
		sinks = append(sinks, natsSink)
		slog.Info("Publishing audit events", "url", cfg.NATSURL, "subject", cfg.NATSAuditSubject)
	}
	if cfg.LogLevel <= slog.LevelDebug {
		sinks = append(sinks, audit.LogSink{Logger: logger})
	}
	dispatcher, err := audit.NewDispatcher(sinks, cfg.AuditWorkers)
	if err != nil {
		log.Fatalf("Failed to create audit dispatcher: %v", err)
	}
	defer func() {
		if err := dispatcher.Close(auditDrain); err != nil {
			slog.Warn("Audit dispatcher did not drain", "error", err)
		}
	}()

	// Create LLM client (external service layer)
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)

	// Create RAG engine
	ragEngine := rag.NewEngine(
		nil,
		retrieval.NewRetriever(embedder, store.vectors, store.keywords, cfg.RetrievalTimeout),
		session.NewManager(cfg.SessionIdleTTL),
		answer.NewGenerator(llmClient, 0),
		dispatcher,
		auditRepo,
		cfg.GenerationTimeout,
	)
	slog.Info("RAG engine initialized", "backend", cfg.KnowledgeBackend)

	deps := &http.Deps{
		Engine:       ragEngine,
		HealthChecks: store.checks,
	}

	// Create ingestion pipeline when a knowledge directory is configured
	var pipeline *indexer.Pipeline
	if cfg.KnowledgePath != "" {
		pipeline = indexer.NewPipeline(
			corpus.NewScanner(cfg.KnowledgePath),
			documentRepo,
			passageRepo,
			embedder,
			store.index,
			embedBatchSize,
		)
		deps.Ingester = pipeline
	}

	router := http.NewRouter(deps)

	// Start ingestion in background after router is ready
	if pipeline != nil {
		go func() {
			slog.Info("Starting background ingestion", "path", cfg.KnowledgePath)
			report, err := pipeline.IndexAll(ctx)
			if err != nil {
				slog.Error("Ingestion completed with errors", "error", err)
				return
			}
			slog.Info("Ingestion completed successfully",
				"indexed", report.FilesIndexed, "unchanged", report.FilesUnchanged, "passages", report.PassagesWritten)
		}()
	}

	// Start API server
	server := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", server.Addr)
		slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			slog.Error("API server failed", "error", err)
		}
	case <-ctx.Done():
		slog.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("API server shutdown failed", "error", err)
		}
	}
}

// openKnowledgeStore connects the configured backend. Keyword search falls back to the
// SQLite full-text index for the Qdrant backend; Postgres serves both paths itself.
func openKnowledgeStore(ctx context.Context, cfg *config.Config, db *sql.DB, passages *storage.PassageRepo) (*knowledgeStore, func(), error) {
	sqliteCheck := handlers.Check{
		Name: "keyword_store",
		Ping: db.PingContext,
	}

	switch cfg.KnowledgeBackend {
	case config.BackendPostgres:
		pg, err := pgstore.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		store := pgstore.New(pg, cfg.VectorSize)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = pg.Close()
			return nil, nil, err
		}
		slog.Info("Postgres knowledge store ready", "vector_size", cfg.VectorSize)
		return &knowledgeStore{
			vectors:  store,
			keywords: store,
			index:    store,
			checks: []handlers.Check{
				{Name: "vector_store", Critical: true, Ping: store.Ping},
				{Name: "keyword_store", Ping: store.Ping},
				{Name: "document_store", Ping: db.PingContext},
			},
		}, func() { _ = pg.Close() }, nil

	default:
		qdrantStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Qdrant client: %w", err)
		}
		// Ensure collection exists with correct vector size
		if err := qdrantStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.VectorSize); err != nil {
			return nil, nil, fmt.Errorf("failed to ensure Qdrant collection: %w", err)
		}
		slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.VectorSize)

		index := vectorstore.NewPassageIndex(qdrantStore, cfg.QdrantCollection)
		return &knowledgeStore{
			vectors:  index,
			keywords: passages,
			index:    index,
			checks: []handlers.Check{
				{Name: "vector_store", Critical: true, Ping: func(ctx context.Context) error {
					info, err := qdrantStore.GetCollectionInfo(ctx, cfg.QdrantCollection)
					if err != nil {
						return err
					}
					if info.VectorSize != cfg.VectorSize {
						return fmt.Errorf("collection %s has vector size %d, want %d", cfg.QdrantCollection, info.VectorSize, cfg.VectorSize)
					}
					return nil
				}},
				sqliteCheck,
			},
		}, func() {}, nil
	}
}
