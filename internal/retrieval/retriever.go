package retrieval

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_retrieval.go -package=mocks docqa/internal/retrieval Embedder,VectorSearcher,KeywordSearcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"docqa/internal/contextutil"
	"docqa/internal/knowledge"
)

const (
	// DefaultK is the per-path candidate limit.
	DefaultK = 5
	// MonetaryK is the per-path candidate limit for monetary questions.
	MonetaryK = 8

	relaxedFactor = 2
)

// ErrRetrievalFailed is returned when no retrieval path, including the relaxed
// vector-only retry, produced a result.
var ErrRetrievalFailed = errors.New("retrieval failed")

// Embedder turns texts into fixed-size vectors.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorSearcher returns the nearest passages to a query vector. A non-empty levels
// restricts results to passages stored with one of those access levels.
type VectorSearcher interface {
	SearchVectors(ctx context.Context, vector []float32, k int, levels []knowledge.AccessLevel) ([]knowledge.Passage, error)
}

// KeywordSearcher returns passages ranked by full-text relevance to an OR expression.
type KeywordSearcher interface {
	SearchKeywords(ctx context.Context, expression string, k int) ([]knowledge.Passage, error)
}

// Limit returns the per-path candidate limit.
func Limit(monetary bool) int {
	if monetary {
		return MonetaryK
	}
	return DefaultK
}

// Request describes one retrieval.
type Request struct {
	// Text is embedded for the vector path.
	Text string
	// KeywordExpression feeds the keyword path.
	KeywordExpression string
	Monetary          bool

	// Levels narrows the vector path to these access levels. Nil searches every level;
	// the access filter still runs on whatever comes back.
	Levels []knowledge.AccessLevel
}

// Result holds the candidates of both paths, vector results first.
type Result struct {
	Candidates []knowledge.Passage
	K          int
	VectorOK   bool
	KeywordOK  bool
	// Relaxed is set when both paths failed and the vector-only retry answered.
	Relaxed bool
}

// Retriever queries the vector and keyword paths concurrently.
type Retriever struct {
	embedder Embedder
	vectors  VectorSearcher
	keywords KeywordSearcher
	timeout  time.Duration
}

// NewRetriever creates a retriever. keywords may be nil, in which case only the vector
// path is used. A non-positive timeout disables the per-call bound.
func NewRetriever(embedder Embedder, vectors VectorSearcher, keywords KeywordSearcher, timeout time.Duration) *Retriever {
	return &Retriever{
		embedder: embedder,
		vectors:  vectors,
		keywords: keywords,
		timeout:  timeout,
	}
}

// Retrieve runs both paths. A failed keyword path degrades to vector-only results.
// When both fail, a vector-only query with a relaxed limit is attempted before
// giving up with ErrRetrievalFailed.
func (r *Retriever) Retrieve(ctx context.Context, req Request) (Result, error) {
	logger := contextutil.LoggerFromContext(ctx)
	k := Limit(req.Monetary)

	var (
		g                   errgroup.Group
		embedding           []float32
		vectorHits          []knowledge.Passage
		keywordHits         []knowledge.Passage
		vectorErr, embedErr error
		keywordErr          = errors.New("keyword path not configured")
	)

	// Each path records its own error instead of returning it: the group carries no
	// context, and a failure on one path must leave the other's hits usable.
	g.Go(func() error {
		embedding, embedErr = r.embed(ctx, req.Text)
		if embedErr != nil {
			vectorErr = embedErr
			return nil
		}
		vectorHits, vectorErr = r.searchVectors(ctx, embedding, k, req.Levels)
		return nil
	})
	if r.keywords != nil {
		g.Go(func() error {
			keywordHits, keywordErr = r.searchKeywords(ctx, req.KeywordExpression, k)
			return nil
		})
	}
	_ = g.Wait()

	res := Result{K: k, VectorOK: vectorErr == nil, KeywordOK: keywordErr == nil}

	switch {
	case vectorErr == nil && keywordErr == nil:
		res.Candidates = append(tag(vectorHits, knowledge.SourceVector), tag(keywordHits, knowledge.SourceKeyword)...)
	case vectorErr == nil:
		if r.keywords != nil {
			logger.WarnContext(ctx, "keyword path unavailable, continuing with vector results", "error", keywordErr)
		}
		res.Candidates = tag(vectorHits, knowledge.SourceVector)
	case keywordErr == nil:
		logger.WarnContext(ctx, "vector path unavailable, continuing with keyword results", "error", vectorErr)
		res.Candidates = tag(keywordHits, knowledge.SourceKeyword)
	default:
		logger.WarnContext(ctx, "both retrieval paths failed, retrying vector-only with relaxed limit",
			"vector_error", vectorErr,
			"keyword_error", keywordErr,
		)
		hits, err := r.relaxed(ctx, req.Text, embedding, k*relaxedFactor, req.Levels)
		if err != nil {
			logger.ErrorContext(ctx, "relaxed vector retrieval failed", "error", err)
			return Result{K: k}, fmt.Errorf("%w: %w", ErrRetrievalFailed, err)
		}
		res.Candidates = tag(hits, knowledge.SourceVector)
		res.Relaxed = true
		res.VectorOK = true
	}

	logger.DebugContext(ctx, "retrieval completed",
		"k", k,
		"candidates", len(res.Candidates),
		"vector_ok", res.VectorOK,
		"keyword_ok", res.KeywordOK,
		"relaxed", res.Relaxed,
	)
	return res, nil
}

func (r *Retriever) relaxed(ctx context.Context, text string, embedding []float32, k int, levels []knowledge.AccessLevel) ([]knowledge.Passage, error) {
	if embedding == nil {
		var err error
		embedding, err = r.embed(ctx, text)
		if err != nil {
			return nil, err
		}
	}
	return r.searchVectors(ctx, embedding, k, levels)
}

func (r *Retriever) embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	vectors, err := r.embedder.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("failed to embed query: empty embedding")
	}
	return vectors[0], nil
}

func (r *Retriever) searchVectors(ctx context.Context, vector []float32, k int, levels []knowledge.AccessLevel) ([]knowledge.Passage, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	hits, err := r.vectors.SearchVectors(ctx, vector, k, levels)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	return hits, nil
}

func (r *Retriever) searchKeywords(ctx context.Context, expression string, k int) ([]knowledge.Passage, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	hits, err := r.keywords.SearchKeywords(ctx, expression, k)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}
	return hits, nil
}

func (r *Retriever) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

func tag(passages []knowledge.Passage, source string) []knowledge.Passage {
	out := make([]knowledge.Passage, len(passages))
	for i, p := range passages {
		p.Source = source
		out[i] = p
	}
	return out
}
