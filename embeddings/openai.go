package embeddings

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultModel is the embedding model used when none is configured.
const DefaultModel = "text-embedding-3-small"

// OpenAIEmbedder implements Embedder using the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	dimension int
}

// NewOpenAIEmbedder creates an embedder for the given model. A zero dimension
// disables the dimension check on returned vectors.
func NewOpenAIEmbedder(apiKey, model string, dimension int) *OpenAIEmbedder {
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIEmbedder{
		client:    openai.NewClient(apiKey),
		model:     model,
		dimension: dimension,
	}
}

// Embed converts texts to vectors in a single API call.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, errEmbeddingCount(len(resp.Data))
	}

	results := make([][]float32, len(resp.Data))
	for i, datum := range resp.Data {
		if e.dimension > 0 && len(datum.Embedding) != e.dimension {
			return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", e.dimension, len(datum.Embedding))
		}
		results[i] = datum.Embedding
	}

	return results, nil
}

func errEmbeddingCount(n int) error {
	return fmt.Errorf("unexpected embedding count: %d", n)
}

var _ Embedder = (*OpenAIEmbedder)(nil)
