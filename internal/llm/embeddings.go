package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"docqa/internal/contextutil"
)

// DefaultBatchSize bounds the number of texts sent in one embeddings request during ingestion.
const DefaultBatchSize = 32

// ErrVectorSize is returned when the server produces vectors of a different dimension
// than the configured VECTOR_SIZE.
var ErrVectorSize = errors.New("embedding dimension mismatch")

// EmbeddingsClient is a client for an OpenAI-compatible embeddings API.
type EmbeddingsClient struct {
	BaseURL string
	APIKey  string
	Model   string
	// Dimensions is the configured VECTOR_SIZE every returned vector must have.
	Dimensions int
	client     *http.Client
}

// NewEmbeddingsClient creates a new embeddings client producing vectors of the given dimension.
func NewEmbeddingsClient(baseURL, apiKey, model string, dimensions int) *EmbeddingsClient {
	return &EmbeddingsClient{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		Model:      model,
		Dimensions: dimensions,
		client:     http.DefaultClient,
	}
}

// EmbeddingsRequest is the embeddings API request body.
type EmbeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// EmbeddingData is one vector of an embeddings response. Index is the position of the
// input it belongs to.
type EmbeddingData struct {
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

// EmbeddingsResponse is the embeddings API response body.
type EmbeddingsResponse struct {
	Data []EmbeddingData `json:"data"`
}

// EmbedTexts returns one vector per text in input order. Every vector is checked
// against Dimensions; a mismatch wraps ErrVectorSize.
func (c *EmbeddingsClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}

	var resp EmbeddingsResponse
	url := fmt.Sprintf("%s/v1/embeddings", c.BaseURL)
	if err := postJSON(ctx, c.client, url, c.APIKey, EmbeddingsRequest{Model: c.Model, Input: texts}, &resp); err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	order := inputOrder(resp.Data)
	vectors := make([][]float32, len(texts))
	for pos, data := range resp.Data {
		if len(data.Embedding) != c.Dimensions {
			return nil, fmt.Errorf("%w: embedding %d has %d dimensions, want %d", ErrVectorSize, pos, len(data.Embedding), c.Dimensions)
		}
		vectors[order[pos]] = toFloat32(data.Embedding)
	}
	return vectors, nil
}

// EmbedBatched embeds texts in requests of at most batchSize inputs, preserving order.
// The first failing batch aborts the rest.
func (c *EmbeddingsClient) EmbedBatched(ctx context.Context, texts []string, batchSize int) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	logger := contextutil.LoggerFromContext(ctx)

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))
		vectors, err := c.EmbedTexts(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		logger.DebugContext(ctx, "embedded batch", "start", start, "end", end, "total", len(texts))
		out = append(out, vectors...)
	}
	return out, nil
}

// CheckDimensions embeds a short text and reports whether the server's vectors match
// Dimensions.
func (c *EmbeddingsClient) CheckDimensions(ctx context.Context) error {
	if _, err := c.EmbedTexts(ctx, []string{"dimension check"}); err != nil {
		return fmt.Errorf("embedding server check failed: %w", err)
	}
	return nil
}

// inputOrder maps each response item to its input position. Servers that report indexes
// may return them out of order; responses whose indexes are not a permutation keep
// their order.
func inputOrder(data []EmbeddingData) []int {
	order := make([]int, len(data))
	seen := make([]bool, len(data))
	for pos, d := range data {
		if d.Index < 0 || d.Index >= len(data) || seen[d.Index] {
			for i := range order {
				order[i] = i
			}
			return order
		}
		seen[d.Index] = true
		order[pos] = d.Index
	}
	return order
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
