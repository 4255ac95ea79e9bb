package pgstore

import (
	"context"
	"os"
	"testing"

	"docqa/internal/knowledge"
	"docqa/internal/vectorstore"
)

func TestTSQuery(t *testing.T) {
	tests := []struct {
		name  string
		terms []string
		want  string
	}{
		{name: "empty", terms: nil, want: ""},
		{name: "single", terms: []string{"charity"}, want: "charity"},
		{name: "or", terms: []string{"charity", "donations"}, want: "charity | donations"},
		{name: "phrase", terms: []string{"golf tournament"}, want: "golf <-> tournament"},
		{name: "syntax stripped", terms: []string{"a&b", "!!", "c:*"}, want: "a <-> b | c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tsQuery(tt.terms); got != tt.want {
				t.Errorf("tsQuery(%v) = %q, want %q", tt.terms, got, tt.want)
			}
		})
	}
}

// TestStore_Postgres runs against a live database when DOCQA_TEST_POSTGRES_DSN is set.
func TestStore_Postgres(t *testing.T) {
	dsn := os.Getenv("DOCQA_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DOCQA_TEST_POSTGRES_DSN not set")
	}

	db, err := Open(dsn)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.Exec("DROP TABLE IF EXISTS passages")
		_ = db.Close()
	})

	ctx := context.Background()
	store := New(db, 3)
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}

	err = store.UpsertPassages(ctx, []vectorstore.PassagePoint{
		{ID: "p1", DocumentID: "d1", Text: "Charitable donations reached $2 million.", AccessLevel: knowledge.AccessPublic, Vector: []float32{1, 0, 0}},
		{ID: "p2", DocumentID: "d1", Text: "Premiums grew in all regions.", AccessLevel: knowledge.AccessInternal, Departments: []string{"finance"}, Vector: []float32{0, 1, 0}},
	})
	if err != nil {
		t.Fatalf("UpsertPassages() error = %v", err)
	}

	vec, err := store.SearchVectors(ctx, []float32{1, 0, 0}, 2, nil)
	if err != nil {
		t.Fatalf("SearchVectors() error = %v", err)
	}
	if len(vec) != 2 || vec[0].ID != "p1" || vec[0].Source != knowledge.SourceVector {
		t.Errorf("SearchVectors() = %+v", vec)
	}

	public, err := store.SearchVectors(ctx, []float32{0, 1, 0}, 2, []knowledge.AccessLevel{knowledge.AccessPublic})
	if err != nil {
		t.Fatalf("SearchVectors(public) error = %v", err)
	}
	if len(public) != 1 || public[0].ID != "p1" {
		t.Errorf("SearchVectors(public) = %+v", public)
	}

	kw, err := store.SearchKeywords(ctx, "donations | premiums", 5)
	if err != nil {
		t.Fatalf("SearchKeywords() error = %v", err)
	}
	if len(kw) != 2 {
		t.Errorf("SearchKeywords() = %d hits, want 2", len(kw))
	}

	if err := store.DeletePassages(ctx, []string{"p1", "p2"}); err != nil {
		t.Fatalf("DeletePassages() error = %v", err)
	}
}
