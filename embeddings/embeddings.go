// Package embeddings converts text to vectors for semantic retrieval.
//
// The Embedder is treated as a pure function by the rest of the system: the
// same text always maps to the same vector for a given model.
package embeddings

import "context"

// Embedder converts a batch of texts into vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedOne embeds a single text.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, errEmbeddingCount(len(vecs))
	}
	return vecs[0], nil
}
