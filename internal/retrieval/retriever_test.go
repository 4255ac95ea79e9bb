package retrieval_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"docqa/internal/knowledge"
	"docqa/internal/retrieval"
	"docqa/internal/retrieval/mocks"
)

var testVector = []float32{0.1, 0.2, 0.3}

func hit(id string, score float64) knowledge.Passage {
	return knowledge.Passage{ID: id, Text: "text " + id, AccessLevel: knowledge.AccessPublic, Score: score}
}

func ids(passages []knowledge.Passage) []string {
	out := make([]string, len(passages))
	for i, p := range passages {
		out[i] = p.ID + "/" + p.Source
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLimit(t *testing.T) {
	if retrieval.Limit(true) != 8 || retrieval.Limit(false) != 5 {
		t.Errorf("Limit() = %d/%d, want 8/5", retrieval.Limit(true), retrieval.Limit(false))
	}
}

func TestRetriever_Retrieve(t *testing.T) {
	errDown := errors.New("down")

	tests := []struct {
		name      string
		monetary  bool
		setup     func(e *mocks.MockEmbedder, v *mocks.MockVectorSearcher, k *mocks.MockKeywordSearcher)
		want      []string
		wantErr   bool
		wantRelax bool
		wantKwOK  bool
		wantVecOK bool
	}{
		{
			name: "both paths",
			setup: func(e *mocks.MockEmbedder, v *mocks.MockVectorSearcher, k *mocks.MockKeywordSearcher) {
				e.EXPECT().EmbedTexts(gomock.Any(), []string{"q"}).Return([][]float32{testVector}, nil)
				v.EXPECT().SearchVectors(gomock.Any(), testVector, 5, gomock.Any()).Return([]knowledge.Passage{hit("a", 0.9)}, nil)
				k.EXPECT().SearchKeywords(gomock.Any(), "kw", 5).Return([]knowledge.Passage{hit("a", 0.3), hit("b", 0.2)}, nil)
			},
			want:      []string{"a/vector", "a/keyword", "b/keyword"},
			wantKwOK:  true,
			wantVecOK: true,
		},
		{
			name:     "monetary widens limit",
			monetary: true,
			setup: func(e *mocks.MockEmbedder, v *mocks.MockVectorSearcher, k *mocks.MockKeywordSearcher) {
				e.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return([][]float32{testVector}, nil)
				v.EXPECT().SearchVectors(gomock.Any(), gomock.Any(), 8, gomock.Any()).Return(nil, nil)
				k.EXPECT().SearchKeywords(gomock.Any(), gomock.Any(), 8).Return(nil, nil)
			},
			want:      []string{},
			wantKwOK:  true,
			wantVecOK: true,
		},
		{
			name: "keyword path down",
			setup: func(e *mocks.MockEmbedder, v *mocks.MockVectorSearcher, k *mocks.MockKeywordSearcher) {
				e.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return([][]float32{testVector}, nil)
				v.EXPECT().SearchVectors(gomock.Any(), gomock.Any(), 5, gomock.Any()).Return([]knowledge.Passage{hit("a", 0.9)}, nil)
				k.EXPECT().SearchKeywords(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errDown)
			},
			want:      []string{"a/vector"},
			wantVecOK: true,
		},
		{
			name: "vector path down",
			setup: func(e *mocks.MockEmbedder, v *mocks.MockVectorSearcher, k *mocks.MockKeywordSearcher) {
				e.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return([][]float32{testVector}, nil)
				v.EXPECT().SearchVectors(gomock.Any(), gomock.Any(), 5, gomock.Any()).Return(nil, errDown)
				k.EXPECT().SearchKeywords(gomock.Any(), gomock.Any(), 5).Return([]knowledge.Passage{hit("b", 0.2)}, nil)
			},
			want:     []string{"b/keyword"},
			wantKwOK: true,
		},
		{
			name: "both down, relaxed retry succeeds",
			setup: func(e *mocks.MockEmbedder, v *mocks.MockVectorSearcher, k *mocks.MockKeywordSearcher) {
				e.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return([][]float32{testVector}, nil)
				gomock.InOrder(
					v.EXPECT().SearchVectors(gomock.Any(), gomock.Any(), 5, gomock.Any()).Return(nil, errDown),
					v.EXPECT().SearchVectors(gomock.Any(), testVector, 10, gomock.Any()).Return([]knowledge.Passage{hit("c", 0.5)}, nil),
				)
				k.EXPECT().SearchKeywords(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errDown)
			},
			want:      []string{"c/vector"},
			wantRelax: true,
			wantVecOK: true,
		},
		{
			name: "embedding down, relaxed retry re-embeds",
			setup: func(e *mocks.MockEmbedder, v *mocks.MockVectorSearcher, k *mocks.MockKeywordSearcher) {
				gomock.InOrder(
					e.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return(nil, errDown),
					e.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return([][]float32{testVector}, nil),
				)
				v.EXPECT().SearchVectors(gomock.Any(), testVector, 10, gomock.Any()).Return([]knowledge.Passage{hit("c", 0.5)}, nil)
				k.EXPECT().SearchKeywords(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errDown)
			},
			want:      []string{"c/vector"},
			wantRelax: true,
			wantVecOK: true,
		},
		{
			name: "everything down",
			setup: func(e *mocks.MockEmbedder, v *mocks.MockVectorSearcher, k *mocks.MockKeywordSearcher) {
				e.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return([][]float32{testVector}, nil)
				v.EXPECT().SearchVectors(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errDown).Times(2)
				k.EXPECT().SearchKeywords(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errDown)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			embedder := mocks.NewMockEmbedder(ctrl)
			vectors := mocks.NewMockVectorSearcher(ctrl)
			keywords := mocks.NewMockKeywordSearcher(ctrl)
			tt.setup(embedder, vectors, keywords)

			r := retrieval.NewRetriever(embedder, vectors, keywords, time.Second)
			res, err := r.Retrieve(context.Background(), retrieval.Request{Text: "q", KeywordExpression: "kw", Monetary: tt.monetary})

			if tt.wantErr {
				if !errors.Is(err, retrieval.ErrRetrievalFailed) {
					t.Fatalf("Retrieve() error = %v, want ErrRetrievalFailed", err)
				}
				if !errors.Is(err, errDown) {
					t.Errorf("Retrieve() error should wrap the cause, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Retrieve() unexpected error = %v", err)
			}
			if got := ids(res.Candidates); !equal(got, tt.want) {
				t.Errorf("Candidates = %v, want %v", got, tt.want)
			}
			if res.Relaxed != tt.wantRelax {
				t.Errorf("Relaxed = %v, want %v", res.Relaxed, tt.wantRelax)
			}
			if res.KeywordOK != tt.wantKwOK || res.VectorOK != tt.wantVecOK {
				t.Errorf("VectorOK/KeywordOK = %v/%v, want %v/%v", res.VectorOK, res.KeywordOK, tt.wantVecOK, tt.wantKwOK)
			}
		})
	}
}

func TestRetriever_VectorOnlyWhenNoKeywordStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	embedder := mocks.NewMockEmbedder(ctrl)
	vectors := mocks.NewMockVectorSearcher(ctrl)
	embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return([][]float32{testVector}, nil)
	vectors.EXPECT().SearchVectors(gomock.Any(), gomock.Any(), 5, gomock.Any()).Return([]knowledge.Passage{hit("a", 0.4)}, nil)

	res, err := retrieval.NewRetriever(embedder, vectors, nil, 0).Retrieve(context.Background(), retrieval.Request{Text: "q"})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(res.Candidates) != 1 || res.KeywordOK {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestRetriever_PassesLevelsToVectorPath(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	embedder := mocks.NewMockEmbedder(ctrl)
	vectors := mocks.NewMockVectorSearcher(ctrl)
	keywords := mocks.NewMockKeywordSearcher(ctrl)
	public := []knowledge.AccessLevel{knowledge.AccessPublic}
	errDown := errors.New("down")

	embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return([][]float32{testVector}, nil)
	gomock.InOrder(
		vectors.EXPECT().SearchVectors(gomock.Any(), testVector, 5, public).Return(nil, errDown),
		vectors.EXPECT().SearchVectors(gomock.Any(), testVector, 10, public).Return([]knowledge.Passage{hit("c", 0.5)}, nil),
	)
	keywords.EXPECT().SearchKeywords(gomock.Any(), "kw", 5).Return(nil, errDown)

	res, err := retrieval.NewRetriever(embedder, vectors, keywords, 0).Retrieve(context.Background(), retrieval.Request{
		Text:              "q",
		KeywordExpression: "kw",
		Levels:            public,
	})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if !res.Relaxed || len(res.Candidates) != 1 {
		t.Errorf("relaxed retry should keep the level restriction, got %+v", res)
	}
}

func TestRetriever_TimeoutIsFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	embedder := mocks.NewMockEmbedder(ctrl)
	vectors := mocks.NewMockVectorSearcher(ctrl)
	keywords := mocks.NewMockKeywordSearcher(ctrl)

	embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return([][]float32{testVector}, nil)
	vectors.EXPECT().SearchVectors(gomock.Any(), gomock.Any(), 5, gomock.Any()).Return([]knowledge.Passage{hit("a", 0.4)}, nil)
	keywords.EXPECT().SearchKeywords(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ int) ([]knowledge.Passage, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

	res, err := retrieval.NewRetriever(embedder, vectors, keywords, 20*time.Millisecond).
		Retrieve(context.Background(), retrieval.Request{Text: "q", KeywordExpression: "kw"})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if res.KeywordOK || len(res.Candidates) != 1 {
		t.Errorf("timed out keyword path should degrade to vector-only, got %+v", res)
	}
}
