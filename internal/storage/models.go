package storage

import (
	"encoding/json"
	"time"
)

// DocumentRecord represents an ingested source document.
type DocumentRecord struct {
	ID          string // UUID
	Path        string // Path relative to the knowledge directory
	Title       string
	AccessLevel string
	Departments []string
	Hash        string // SHA256 hex string of file content
	UpdatedAt   time.Time
}

// PassageRecord represents one chunk of a document, indexed for keyword and vector search.
type PassageRecord struct {
	ID          string // UUID (same as the vector point ID)
	DocumentID  string
	ChunkIndex  int
	HeadingPath string // Format: "# Heading1 > ## Heading2"
	Text        string
	AccessLevel string
	Departments []string
}

func encodeDepartments(depts []string) string {
	if len(depts) == 0 {
		return "[]"
	}
	raw, err := json.Marshal(depts)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func decodeDepartments(raw string) []string {
	var depts []string
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), &depts); err != nil {
		return nil
	}
	return depts
}
