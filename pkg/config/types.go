package config

// Config represents the gloss configuration assembled from defaults,
// an optional config.toml, GLOSS_* environment variables, and flags.
type Config struct {
	Embedding   EmbeddingConfig   `mapstructure:"embedding"`
	Chat        ChatConfig        `mapstructure:"chat"`
	VectorStore VectorStoreConfig `mapstructure:"vector_store"`
	Identity    IdentityConfig    `mapstructure:"identity"`
}

// EmbeddingConfig holds embedding service settings.
type EmbeddingConfig struct {
	// Provider selects the embedding backend ("azure").
	Provider string `mapstructure:"provider"`

	// Endpoint is the base URL of the embedding service.
	Endpoint string `mapstructure:"endpoint"`

	// Deployment is the embedding model deployment identifier.
	Deployment string `mapstructure:"deployment"`

	// APIVersion is the service API version query parameter.
	APIVersion string `mapstructure:"api_version"`

	// Dimensions is the embedding vector length. It is carried into the
	// collection schema rather than compiled in.
	Dimensions uint `mapstructure:"dimensions"`
}

// ChatConfig holds chat model deployment settings. The values are part of
// the deployment surface but unused by the glossary workflow.
type ChatConfig struct {
	Deployment string `mapstructure:"deployment"`
	APIVersion string `mapstructure:"api_version"`
}

// VectorStoreConfig holds vector collection settings.
type VectorStoreConfig struct {
	// Provider selects the store backend ("qdrant" or "sqlite").
	Provider string `mapstructure:"provider"`

	// Target is the store address. For qdrant this is host:port of the
	// gRPC endpoint; for sqlite it is the database path, defaulting to
	// an in-memory database when empty.
	Target string `mapstructure:"target"`

	// Collection is the named collection holding glossary records.
	Collection string `mapstructure:"collection"`
}

// IdentityConfig holds credential settings for outbound calls.
type IdentityConfig struct {
	// Provider selects the token source ("managed", "static" or "file").
	Provider string `mapstructure:"provider"`

	// Resource is the audience requested from the managed identity
	// endpoint.
	Resource string `mapstructure:"resource"`

	// ClientID optionally selects a user-assigned identity.
	ClientID string `mapstructure:"client_id"`

	// Token is a static bearer token, used when Provider is "static".
	Token string `mapstructure:"token"`

	// CredentialsFile points at a credentials.toml, used when Provider
	// is "file".
	CredentialsFile string `mapstructure:"credentials_file"`
}
