// Package embeddings defines the embedding capability consumed by the
// semantic chunker.
package embeddings

import "context"

// Vector is one embedding.
type Vector []float32

// Embedder turns texts into one vector per text, in input order, all of equal
// dimensionality. The semantic chunker calls EmbedBatch exactly once per
// invocation with every context window; failures propagate to the caller
// without retries.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([]Vector, error)
}
