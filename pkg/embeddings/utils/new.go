// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"fmt"

	"github.com/ctava-msft/gloss/pkg/config"
	"github.com/ctava-msft/gloss/pkg/credentials"
	"github.com/ctava-msft/gloss/pkg/embeddings"
	"github.com/ctava-msft/gloss/pkg/embeddings/azure"
)

// NewEmbedder constructs the embedding client selected by the configuration.
func NewEmbedder(cfg config.EmbeddingConfig, tokens credentials.TokenSource) (embeddings.Embedder, error) {
	switch cfg.Provider {
	case "azure":
		return azure.NewEmbedder(azure.EmbedderConfig{
			Endpoint:   cfg.Endpoint,
			Deployment: cfg.Deployment,
			APIVersion: cfg.APIVersion,
			Dimensions: int(cfg.Dimensions),
			Tokens:     tokens,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
