package vectorstore

import (
	"context"
	"fmt"

	"docqa/internal/contextutil"
	"docqa/internal/knowledge"
)

// Payload keys stored on every passage point.
const (
	PayloadText        = "text"
	PayloadAccessLevel = "access_level"
	PayloadDepartments = "departments"
	PayloadDocumentID  = "document_id"
	PayloadHeadingPath = "heading_path"
)

// PassagePoint is a passage ready to be written to the vector store.
type PassagePoint struct {
	ID          string
	DocumentID  string
	HeadingPath string
	Text        string
	AccessLevel knowledge.AccessLevel
	Departments []string
	Vector      []float32
}

// PassageIndex stores passages as points of one collection and serves the vector
// retrieval path. It implements retrieval.VectorSearcher.
type PassageIndex struct {
	store      VectorStore
	collection string
}

// NewPassageIndex creates a PassageIndex over the given collection.
func NewPassageIndex(store VectorStore, collection string) *PassageIndex {
	return &PassageIndex{store: store, collection: collection}
}

// Collection returns the collection name.
func (p *PassageIndex) Collection() string {
	return p.collection
}

// SearchVectors returns the k nearest passages to vector, tagged with the vector source.
// A non-empty levels restricts the search to points stored with one of those access
// levels. Points without text are skipped.
func (p *PassageIndex) SearchVectors(ctx context.Context, vector []float32, k int, levels []knowledge.AccessLevel) ([]knowledge.Passage, error) {
	var filters map[string]any
	if len(levels) > 0 {
		names := make([]string, len(levels))
		for i, l := range levels {
			names[i] = string(l)
		}
		filters = map[string]any{PayloadAccessLevel: names}
	}

	results, err := p.store.Search(ctx, p.collection, vector, k, filters)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	passages := make([]knowledge.Passage, 0, len(results))
	for _, r := range results {
		text, _ := r.Meta[PayloadText].(string)
		if text == "" {
			contextutil.LoggerFromContext(ctx).WarnContext(ctx, "vector hit without text", "point_id", r.PointID)
			continue
		}
		level, _ := r.Meta[PayloadAccessLevel].(string)
		heading, _ := r.Meta[PayloadHeadingPath].(string)
		passages = append(passages, knowledge.Passage{
			ID:          r.PointID,
			Text:        text,
			HeadingPath: heading,
			AccessLevel: knowledge.ParseAccessLevel(level),
			Departments: stringList(r.Meta[PayloadDepartments]),
			Score:       float64(r.Score),
			Source:      knowledge.SourceVector,
		})
	}
	return passages, nil
}

// UpsertPassages writes passages with their vectors and access metadata.
func (p *PassageIndex) UpsertPassages(ctx context.Context, passages []PassagePoint) error {
	points := make([]Point, 0, len(passages))
	for _, pp := range passages {
		departments := make([]any, 0, len(pp.Departments))
		for _, d := range pp.Departments {
			departments = append(departments, d)
		}
		points = append(points, Point{
			ID:  pp.ID,
			Vec: pp.Vector,
			Meta: map[string]any{
				PayloadText:        pp.Text,
				PayloadAccessLevel: string(pp.AccessLevel),
				PayloadDepartments: departments,
				PayloadDocumentID:  pp.DocumentID,
				PayloadHeadingPath: pp.HeadingPath,
			},
		})
	}
	return p.store.Upsert(ctx, p.collection, points)
}

// DeletePassages removes passages by id.
func (p *PassageIndex) DeletePassages(ctx context.Context, ids []string) error {
	return p.store.Delete(ctx, p.collection, ids)
}

// stringList reads a payload list of strings. Non-string items are ignored.
func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
