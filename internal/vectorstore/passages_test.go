package vectorstore_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"docqa/internal/knowledge"
	"docqa/internal/vectorstore"
	"docqa/internal/vectorstore/mocks"
)

func TestPassageIndex_SearchVectors(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockVectorStore(ctrl)
	index := vectorstore.NewPassageIndex(store, "passages")

	vec := []float32{0.1, 0.2}
	store.EXPECT().
		Search(gomock.Any(), "passages", vec, 5, gomock.Nil()).
		Return([]vectorstore.SearchResult{
			{
				PointID: "p1",
				Score:   0.75,
				Meta: map[string]any{
					vectorstore.PayloadText:        "Charitable donations reached $2 million.",
					vectorstore.PayloadAccessLevel: "Confidential",
					vectorstore.PayloadDepartments: []any{"finance", 7, "sales"},
				},
			},
			{PointID: "empty", Score: 0.9, Meta: map[string]any{}},
			{PointID: "p2", Score: 0.5, Meta: map[string]any{vectorstore.PayloadText: "Public note."}},
		}, nil)

	got, err := index.SearchVectors(context.Background(), vec, 5, nil)
	if err != nil {
		t.Fatalf("SearchVectors() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("SearchVectors() = %d passages, want 2", len(got))
	}

	p1 := got[0]
	if p1.ID != "p1" || p1.Source != knowledge.SourceVector {
		t.Errorf("SearchVectors()[0] = %+v", p1)
	}
	if p1.AccessLevel != knowledge.AccessConfidential {
		t.Errorf("AccessLevel = %q, want confidential", p1.AccessLevel)
	}
	if len(p1.Departments) != 2 || p1.Departments[1] != "sales" {
		t.Errorf("Departments = %v, want [finance sales]", p1.Departments)
	}
	if p1.Score != 0.75 {
		t.Errorf("Score = %v, want 0.75", p1.Score)
	}

	// A point without an access level keeps an empty, unrecognized level.
	if got[1].AccessLevel.Known() {
		t.Errorf("missing access level parsed as %q", got[1].AccessLevel)
	}
}

func TestPassageIndex_SearchVectorsError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockVectorStore(ctrl)
	index := vectorstore.NewPassageIndex(store, "passages")

	errDown := errors.New("unavailable")
	store.EXPECT().Search(gomock.Any(), "passages", gomock.Any(), 8, gomock.Any()).Return(nil, errDown)

	_, err := index.SearchVectors(context.Background(), []float32{1}, 8, nil)
	if !errors.Is(err, errDown) {
		t.Errorf("SearchVectors() error = %v, want wrapped %v", err, errDown)
	}
}

func TestPassageIndex_SearchVectorsRestrictsLevels(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockVectorStore(ctrl)
	index := vectorstore.NewPassageIndex(store, "passages")

	want := map[string]any{vectorstore.PayloadAccessLevel: []string{"public"}}
	store.EXPECT().
		Search(gomock.Any(), "passages", gomock.Any(), 5, want).
		Return([]vectorstore.SearchResult{
			{PointID: "p1", Score: 0.6, Meta: map[string]any{vectorstore.PayloadText: "Company overview.", vectorstore.PayloadAccessLevel: "public"}},
		}, nil)

	got, err := index.SearchVectors(context.Background(), []float32{1}, 5, []knowledge.AccessLevel{knowledge.AccessPublic})
	if err != nil {
		t.Fatalf("SearchVectors() error = %v", err)
	}
	if len(got) != 1 || got[0].AccessLevel != knowledge.AccessPublic {
		t.Errorf("SearchVectors() = %+v", got)
	}
}

func TestPassageIndex_UpsertPassages(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockVectorStore(ctrl)
	index := vectorstore.NewPassageIndex(store, "passages")

	store.EXPECT().
		Upsert(gomock.Any(), "passages", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, points []vectorstore.Point) error {
			if len(points) != 1 {
				t.Fatalf("Upsert() points = %d, want 1", len(points))
			}
			meta := points[0].Meta
			if meta[vectorstore.PayloadAccessLevel] != "departmental" {
				t.Errorf("access_level payload = %v", meta[vectorstore.PayloadAccessLevel])
			}
			if meta[vectorstore.PayloadDocumentID] != "doc-1" {
				t.Errorf("document_id payload = %v", meta[vectorstore.PayloadDocumentID])
			}
			depts, ok := meta[vectorstore.PayloadDepartments].([]any)
			if !ok || len(depts) != 1 || depts[0] != "underwriting" {
				t.Errorf("departments payload = %v", meta[vectorstore.PayloadDepartments])
			}
			return nil
		})

	err := index.UpsertPassages(context.Background(), []vectorstore.PassagePoint{{
		ID:          "p1",
		DocumentID:  "doc-1",
		Text:        "Underwriting guidelines.",
		AccessLevel: knowledge.AccessDepartmental,
		Departments: []string{"underwriting"},
		Vector:      []float32{0.3},
	}})
	if err != nil {
		t.Fatalf("UpsertPassages() error = %v", err)
	}
}

func TestPassageIndex_DeletePassages(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockVectorStore(ctrl)
	index := vectorstore.NewPassageIndex(store, "passages")

	store.EXPECT().Delete(gomock.Any(), "passages", []string{"a", "b"}).Return(nil)

	if err := index.DeletePassages(context.Background(), []string{"a", "b"}); err != nil {
		t.Fatalf("DeletePassages() error = %v", err)
	}
	if index.Collection() != "passages" {
		t.Errorf("Collection() = %q", index.Collection())
	}
}
