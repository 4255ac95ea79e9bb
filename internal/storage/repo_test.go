package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"docqa/internal/audit"
	"docqa/internal/knowledge"
)

func seedDocument(t *testing.T, ctx context.Context, docs *DocumentRepo, path string) *DocumentRecord {
	t.Helper()
	doc := &DocumentRecord{
		Path:        path,
		Title:       "Annual Report",
		AccessLevel: "internal",
		Departments: []string{"finance"},
		Hash:        "abc",
	}
	if err := docs.Upsert(ctx, doc); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	return doc
}

func TestDocumentRepo_UpsertKeepsID(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepo(openTestDB(t))

	doc := seedDocument(t, ctx, repo, "reports/annual.md")
	if doc.ID == "" {
		t.Fatal("Upsert() did not assign an ID")
	}

	again := &DocumentRecord{Path: "reports/annual.md", AccessLevel: "public", Hash: "def"}
	if err := repo.Upsert(ctx, again); err != nil {
		t.Fatalf("Upsert() second call error = %v", err)
	}
	if again.ID != doc.ID {
		t.Errorf("Upsert() ID = %s, want %s", again.ID, doc.ID)
	}

	got, err := repo.GetByPath(ctx, "reports/annual.md")
	if err != nil {
		t.Fatalf("GetByPath() error = %v", err)
	}
	if got.Hash != "def" || got.AccessLevel != "public" {
		t.Errorf("GetByPath() = %+v, want updated hash and level", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("GetByPath() UpdatedAt is zero")
	}
}

func TestDocumentRepo_GetByPathNotFound(t *testing.T) {
	repo := NewDocumentRepo(openTestDB(t))
	_, err := repo.GetByPath(context.Background(), "missing.md")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByPath() error = %v, want ErrNotFound", err)
	}
}

func TestPassageRepo_ReplaceAndGet(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	doc := seedDocument(t, ctx, NewDocumentRepo(db), "a.md")
	repo := NewPassageRepo(db)

	first := []PassageRecord{
		{ID: "p1", ChunkIndex: 0, HeadingPath: "# Giving", Text: "Charitable donations reached $2 million.", AccessLevel: "public"},
		{ID: "p2", ChunkIndex: 1, Text: "Premiums grew in all regions.", AccessLevel: "internal", Departments: []string{"finance", "sales"}},
	}
	if err := repo.ReplaceForDocument(ctx, doc.ID, first); err != nil {
		t.Fatalf("ReplaceForDocument() error = %v", err)
	}

	ids, err := repo.ListIDsByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("ListIDsByDocument() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != "p1" || ids[1] != "p2" {
		t.Errorf("ListIDsByDocument() = %v, want [p1 p2]", ids)
	}

	premiums, err := repo.SearchKeywords(ctx, "premiums", 5)
	if err != nil {
		t.Fatalf("SearchKeywords() error = %v", err)
	}
	if len(premiums) != 1 || len(premiums[0].Departments) != 2 || premiums[0].Departments[1] != "sales" {
		t.Errorf("SearchKeywords() departments = %+v", premiums)
	}

	if err := repo.ReplaceForDocument(ctx, doc.ID, []PassageRecord{
		{ID: "p3", ChunkIndex: 0, Text: "Sponsorship of the tournament.", AccessLevel: "public"},
	}); err != nil {
		t.Fatalf("ReplaceForDocument() second call error = %v", err)
	}
	ids, err = repo.ListIDsByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("ListIDsByDocument() after replace error = %v", err)
	}
	if len(ids) != 1 || ids[0] != "p3" {
		t.Errorf("ListIDsByDocument() after replace = %v, want [p3]", ids)
	}

	// Old full-text rows are gone with their passages.
	hits, err := repo.SearchKeywords(ctx, "charitable | donations", 5)
	if err != nil {
		t.Fatalf("SearchKeywords() error = %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("SearchKeywords() after replace = %d hits, want 0", len(hits))
	}
}

func TestPassageRepo_SearchKeywords(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	doc := seedDocument(t, ctx, NewDocumentRepo(db), "a.md")
	repo := NewPassageRepo(db)

	if err := repo.ReplaceForDocument(ctx, doc.ID, []PassageRecord{
		{ID: "weak", ChunkIndex: 0, Text: "The company reviewed many topics this year including charity work and other long unrelated matters of governance.", AccessLevel: "public"},
		{ID: "strong", ChunkIndex: 1, HeadingPath: "# Charity", Text: "Charity donations: charity grants.", AccessLevel: "confidential", Departments: []string{"finance"}},
		{ID: "none", ChunkIndex: 2, Text: "Premiums grew in all regions.", AccessLevel: "public"},
	}); err != nil {
		t.Fatalf("ReplaceForDocument() error = %v", err)
	}

	hits, err := repo.SearchKeywords(ctx, "charity | donations", 5)
	if err != nil {
		t.Fatalf("SearchKeywords() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("SearchKeywords() = %d hits, want 2", len(hits))
	}
	if hits[0].ID != "strong" {
		t.Errorf("SearchKeywords()[0] = %s, want strong", hits[0].ID)
	}
	for _, h := range hits {
		if h.Source != knowledge.SourceKeyword {
			t.Errorf("hit %s source = %q, want keyword", h.ID, h.Source)
		}
		if h.Score <= 0 || h.Score > maxLexicalScore {
			t.Errorf("hit %s score = %v, out of range", h.ID, h.Score)
		}
	}
	if hits[0].AccessLevel != knowledge.AccessConfidential || !hits[0].HasDepartment("finance") {
		t.Errorf("SearchKeywords() lost metadata: %+v", hits[0])
	}

	limited, err := repo.SearchKeywords(ctx, "charity | donations", 1)
	if err != nil {
		t.Fatalf("SearchKeywords() error = %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("SearchKeywords(k=1) = %d hits, want 1", len(limited))
	}

	empty, err := repo.SearchKeywords(ctx, "", 5)
	if err != nil || len(empty) != 0 {
		t.Errorf("SearchKeywords(empty) = %v, %v", empty, err)
	}
}

func TestPassageRepo_SearchKeywords_RanksAllMatches(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	doc := seedDocument(t, ctx, NewDocumentRepo(db), "a.md")
	repo := NewPassageRepo(db)

	// Weak matches are inserted first so they lead in docid order.
	var records []PassageRecord
	for i := 0; i < 30; i++ {
		records = append(records, PassageRecord{
			ID:          fmt.Sprintf("weak-%02d", i),
			ChunkIndex:  i,
			Text:        "charity" + strings.Repeat(" quarterly filler", 20),
			AccessLevel: "public",
		})
	}
	records = append(records, PassageRecord{
		ID:          "best",
		ChunkIndex:  30,
		Text:        "charity charity charity donations to charity",
		AccessLevel: "public",
	})
	if err := repo.ReplaceForDocument(ctx, doc.ID, records); err != nil {
		t.Fatalf("ReplaceForDocument() error = %v", err)
	}

	hits, err := repo.SearchKeywords(ctx, "charity", 5)
	if err != nil {
		t.Fatalf("SearchKeywords() error = %v", err)
	}
	if len(hits) != 5 {
		t.Fatalf("SearchKeywords() = %d hits, want 5", len(hits))
	}
	if hits[0].ID != "best" {
		t.Errorf("SearchKeywords()[0] = %s (%.3f), want best", hits[0].ID, hits[0].Score)
	}
}

func TestMatchExpression(t *testing.T) {
	tests := []struct {
		terms []string
		want  string
	}{
		{nil, ""},
		{[]string{"charity"}, `"charity"`},
		{[]string{"charity", `don"ations`, " "}, `"charity" OR "donations"`},
	}
	for _, tt := range tests {
		if got := matchExpression(tt.terms); got != tt.want {
			t.Errorf("matchExpression(%v) = %q, want %q", tt.terms, got, tt.want)
		}
	}
}

func TestLexicalScore(t *testing.T) {
	if got := lexicalScore(nil, "anything", ""); got != minLexicalScore {
		t.Errorf("lexicalScore(no terms) = %v, want floor", got)
	}
	long := "charity" + strings.Repeat(" filler", 30)
	plain := lexicalScore([]string{"charity"}, long, "")
	withHeading := lexicalScore([]string{"charity"}, long, "# Charity")
	if withHeading <= plain {
		t.Errorf("heading bonus not applied: %v <= %v", withHeading, plain)
	}
	if got := lexicalScore([]string{"charity"}, "charity charity charity", "# Charity"); got != maxLexicalScore {
		t.Errorf("lexicalScore() = %v, want capped at %v", got, maxLexicalScore)
	}
}

func TestAuditRepo_Record(t *testing.T) {
	ctx := context.Background()
	repo := NewAuditRepo(openTestDB(t))

	events := []audit.Event{
		audit.NewEvent(audit.ActionDocumentQuery, "u1", "s1", "", "10.0.0.1", map[string]any{"passages": 3}),
		audit.NewEvent(audit.ActionPermissionDenied, "u1", "s1", "p9", "10.0.0.1", nil),
		audit.NewEvent(audit.ActionDocumentQuery, "u1", "s1", "", "10.0.0.1", nil),
	}
	for _, e := range events {
		if err := repo.Record(ctx, e); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	counts, err := repo.CountBySession(ctx, "s1")
	if err != nil {
		t.Fatalf("CountBySession() error = %v", err)
	}
	if counts[audit.ActionDocumentQuery] != 2 || counts[audit.ActionPermissionDenied] != 1 {
		t.Errorf("CountBySession() = %v", counts)
	}

	dup := events[0]
	dup.Timestamp = time.Now()
	if err := repo.Record(ctx, dup); err == nil {
		t.Error("Record() with duplicate ID expected error")
	}
}
