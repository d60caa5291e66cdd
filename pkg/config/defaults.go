package config

const (
	// DefaultCollection is the default glossary collection name.
	DefaultCollection = "glossary"

	// DefaultEmbeddingAPIVersion tracks the stable embeddings API surface.
	DefaultEmbeddingAPIVersion = "2024-02-01"

	// DefaultDimensions matches text-embedding-3-large.
	DefaultDimensions uint = 3072
)

// NewDefaultConfig returns the configuration defaults. Endpoint, deployment
// and identity values have no sensible defaults and must be supplied.
func NewDefaultConfig() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Provider:   "azure",
			APIVersion: DefaultEmbeddingAPIVersion,
			Dimensions: DefaultDimensions,
		},
		VectorStore: VectorStoreConfig{
			Provider:   "qdrant",
			Target:     "localhost:6334",
			Collection: DefaultCollection,
		},
		Identity: IdentityConfig{
			Provider: "managed",
		},
	}
}
