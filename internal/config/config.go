package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Knowledge backends.
const (
	BackendQdrant   = "qdrant"
	BackendPostgres = "postgres"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort   string
	LogLevel  slog.Level
	LogFormat string

	LLMBaseURL         string
	LLMModelName       string
	LLMAPIKey          string
	EmbeddingBaseURL   string
	EmbeddingModelName string
	VectorSize         int

	KnowledgeBackend string
	QdrantURL        string
	QdrantCollection string
	DBPath           string
	PostgresDSN      string
	KnowledgePath    string

	NATSURL          string
	NATSAuditSubject string
	AuditWorkers     int

	RetrievalTimeout  time.Duration
	GenerationTimeout time.Duration
	SessionIdleTTL    time.Duration
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or a parent, it is loaded first.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		APIPort:            getEnv("API_PORT", "9000"),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
		LLMBaseURL:         getEnv("LLM_BASE_URL", "http://localhost:8080"),
		LLMModelName:       getEnv("LLM_MODEL", "Llama-3.1-8B-Instruct"),
		LLMAPIKey:          getEnv("LLM_API_KEY", "dummy-key"),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "granite-embedding-278m-multilingual"),
		KnowledgeBackend:   strings.ToLower(getEnv("KNOWLEDGE_BACKEND", BackendQdrant)),
		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "passages"),
		DBPath:             getEnv("DB_PATH", "./data/docqa.db"),
		PostgresDSN:        getEnv("POSTGRES_DSN", ""),
		KnowledgePath:      getEnv("KNOWLEDGE_PATH", ""),
		NATSURL:            getEnv("NATS_URL", ""),
		NATSAuditSubject:   getEnv("NATS_AUDIT_SUBJECT", "docqa.audit"),
	}

	cfg.LogLevel, err = parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	// VECTOR_SIZE must match the output size of the embeddings model. Changing it
	// requires recreating the Qdrant collection or the Postgres table.
	vectorSizeStr := getEnv("VECTOR_SIZE", "")
	if vectorSizeStr == "" {
		return nil, fmt.Errorf("VECTOR_SIZE is required")
	}
	vectorSize, err := strconv.Atoi(vectorSizeStr)
	if err != nil {
		return nil, fmt.Errorf("VECTOR_SIZE must be a valid integer: %w", err)
	}
	if vectorSize <= 0 {
		return nil, fmt.Errorf("VECTOR_SIZE must be greater than 0")
	}
	cfg.VectorSize = vectorSize

	switch cfg.KnowledgeBackend {
	case BackendQdrant:
	case BackendPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("POSTGRES_DSN is required when KNOWLEDGE_BACKEND is postgres")
		}
	default:
		return nil, fmt.Errorf("KNOWLEDGE_BACKEND must be qdrant or postgres, got %q", cfg.KnowledgeBackend)
	}

	if cfg.AuditWorkers, err = getInt("AUDIT_WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.AuditWorkers <= 0 {
		return nil, fmt.Errorf("AUDIT_WORKERS must be greater than 0")
	}
	if cfg.RetrievalTimeout, err = getDuration("RETRIEVAL_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.GenerationTimeout, err = getDuration("GENERATION_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionIdleTTL, err = getDuration("SESSION_IDLE_TTL", 0); err != nil {
		return nil, err
	}

	if cfg.KnowledgePath != "" {
		info, err := os.Stat(cfg.KnowledgePath)
		if err != nil {
			return nil, fmt.Errorf("KNOWLEDGE_PATH is not accessible: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("KNOWLEDGE_PATH must be a directory: %s", cfg.KnowledgePath)
		}
	}

	// Create the SQLite data directory if it doesn't exist
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", s)
	}
}
