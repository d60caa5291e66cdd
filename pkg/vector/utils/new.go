// Package vectorutils is the vector store utility package
package vectorutils

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ctava-msft/gloss/pkg/config"
	"github.com/ctava-msft/gloss/pkg/vector"
	"github.com/ctava-msft/gloss/pkg/vector/qdrant"
	"github.com/ctava-msft/gloss/pkg/vector/sqlitevec"
)

// NewCollection constructs the collection driver selected by the
// configuration for the given schema.
func NewCollection(cfg config.VectorStoreConfig, schema vector.Schema, logger *zap.Logger) (vector.Collection, error) {
	switch cfg.Provider {
	case "qdrant":
		return qdrant.New(cfg.Target, schema, logger)
	case "sqlite":
		return sqlitevec.New(cfg.Target, schema, logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", cfg.Provider)
	}
}
