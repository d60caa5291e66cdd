// Package wire assembles the shared components every gloss command needs:
// configuration, credentials, the embedding client and the vector
// collection.
package wire

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ctava-msft/gloss/pkg/config"
	"github.com/ctava-msft/gloss/pkg/credentials"
	"github.com/ctava-msft/gloss/pkg/embeddings"
	embeddingutils "github.com/ctava-msft/gloss/pkg/embeddings/utils"
	"github.com/ctava-msft/gloss/pkg/glossary"
	"github.com/ctava-msft/gloss/pkg/logger"
	"github.com/ctava-msft/gloss/pkg/vector"
	vectorutils "github.com/ctava-msft/gloss/pkg/vector/utils"
)

// Components holds the wired collaborators for one command invocation.
type Components struct {
	Config     *config.Config
	Logger     *zap.Logger
	Embedder   embeddings.Embedder
	Collection vector.Collection
}

// Close releases the embedder and the collection handle.
func (c *Components) Close() {
	if c.Embedder != nil {
		c.Embedder.Close()
	}
	if c.Collection != nil {
		c.Collection.Close()
	}
	if c.Logger != nil {
		c.Logger.Sync()
	}
}

// Setup loads configuration from the command's persistent flags plus
// environment, then constructs the logger, token source, embedder and
// collection. Configuration errors surface before any network call.
func Setup(cmd *cobra.Command) (*Components, error) {
	debug, err := cmd.Flags().GetBool("debug")
	if err != nil {
		return nil, fmt.Errorf("could not get debug flag: %v", err)
	}

	configDir, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("could not get config flag: %v", err)
	}

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	log := logger.NewLogger(debug)

	tokens, err := newTokenSource(cfg.Identity)
	if err != nil {
		log.Sync()
		return nil, err
	}

	embedder, err := embeddingutils.NewEmbedder(cfg.Embedding, tokens)
	if err != nil {
		log.Sync()
		return nil, err
	}

	schema := glossary.Schema(cfg.VectorStore.Collection, cfg.Embedding.Dimensions)

	collection, err := vectorutils.NewCollection(cfg.VectorStore, schema, log)
	if err != nil {
		embedder.Close()
		log.Sync()
		return nil, err
	}

	return &Components{
		Config:     cfg,
		Logger:     log,
		Embedder:   embedder,
		Collection: collection,
	}, nil
}

func newTokenSource(cfg config.IdentityConfig) (credentials.TokenSource, error) {
	switch cfg.Provider {
	case "managed":
		return credentials.NewManagedIdentity(credentials.ManagedIdentityConfig{
			Resource: cfg.Resource,
			ClientID: cfg.ClientID,
		})
	case "static":
		return credentials.Static(cfg.Token), nil
	case "file":
		return credentials.FromFile(cfg.CredentialsFile)
	default:
		return nil, fmt.Errorf("unsupported identity provider: %s", cfg.Provider)
	}
}
