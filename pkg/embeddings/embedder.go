// Package embeddings
package embeddings

import "context"

// Embedder provides text embedding capabilities. Implementations must be
// safe to invoke concurrently for independent texts.
type Embedder interface {
	// Embed converts text into a vector embedding. The empty string is a
	// valid input.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector length produced by the
	// model. It must match the collection schema dimension.
	Dimensions() int

	// Close releases any resources held by the embedder.
	Close() error
}
