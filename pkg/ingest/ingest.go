// Package ingest implements the glossary load pipeline: embed every
// definition concurrently, join, then delete-and-upsert every record
// concurrently. Within one record the delete always completes before its
// upsert; across records no ordering is guaranteed.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ctava-msft/gloss/pkg/embeddings"
	"github.com/ctava-msft/gloss/pkg/glossary"
	"github.com/ctava-msft/gloss/pkg/vector"
)

const (
	defaultWorkers     = 4
	defaultMaxAttempts = 3
)

// Config is the configuration options for the ingest pipeline.
type Config struct {
	// Embedder generates definition embeddings.
	Embedder embeddings.Embedder

	// Collection is the target vector collection.
	Collection vector.Collection

	// Workers bounds concurrent in-flight calls per stage (defaults to 4).
	Workers int

	// MaxAttempts bounds retries for transient failures (defaults to 3).
	MaxAttempts uint

	// Logger is the provided zap logger.
	Logger *zap.Logger
}

// Pipeline loads glossary records into a vector collection.
type Pipeline struct {
	embedder    embeddings.Embedder
	collection  vector.Collection
	workers     int
	maxAttempts uint
	logger      *zap.Logger
}

// NewPipeline creates an ingest pipeline.
func NewPipeline(c *Config) (*Pipeline, error) {
	if c.Embedder == nil {
		return nil, fmt.Errorf("an embedder is required")
	}
	if c.Collection == nil {
		return nil, fmt.Errorf("a collection is required")
	}

	workers := c.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	maxAttempts := c.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = defaultMaxAttempts
	}

	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pipeline{
		embedder:    c.Embedder,
		collection:  c.Collection,
		workers:     workers,
		maxAttempts: maxAttempts,
		logger:      logger,
	}, nil
}

// Run embeds and upserts the records. The embed fan-in completes before any
// upsert is issued, because an upsert requires a populated embedding. The
// first failure cancels the remaining work.
func (p *Pipeline) Run(ctx context.Context, records []glossary.Record) error {
	if len(records) == 0 {
		return nil
	}

	if err := p.embedAll(ctx, records); err != nil {
		return fmt.Errorf("embedding records: %w", err)
	}

	if err := p.upsertAll(ctx, records); err != nil {
		return fmt.Errorf("upserting records: %w", err)
	}

	p.logger.Info("ingest complete", zap.Int("records", len(records)))

	return nil
}

// embedAll computes every record's definition embedding concurrently and
// joins before returning. Records are mutated in place.
func (p *Pipeline) embedAll(ctx context.Context, records []glossary.Record) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i := range records {
		g.Go(func() error {
			embedding, err := retry(ctx, p.maxAttempts, func() ([]float32, error) {
				return p.embedder.Embed(ctx, records[i].Definition)
			})
			if err != nil {
				return fmt.Errorf("record %q: %w", records[i].Key, err)
			}

			records[i].DefinitionEmbedding = embedding

			p.logger.Debug("embedded definition",
				zap.String("key", records[i].Key),
				zap.Int("dimensions", len(embedding)),
			)

			return nil
		})
	}

	return g.Wait()
}

// upsertAll deletes and re-upserts every record concurrently. The delete
// guarantees replacement semantics rather than a field-level merge.
func (p *Pipeline) upsertAll(ctx context.Context, records []glossary.Record) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i := range records {
		g.Go(func() error {
			record := records[i]

			_, err := retry(ctx, p.maxAttempts, func() (struct{}, error) {
				return struct{}{}, p.collection.Delete(ctx, record.Key)
			})
			if err != nil {
				return fmt.Errorf("deleting record %q: %w", record.Key, err)
			}

			_, err = retry(ctx, p.maxAttempts, func() (struct{}, error) {
				return struct{}{}, p.collection.Upsert(ctx, record.Document())
			})
			if err != nil {
				return fmt.Errorf("upserting record %q: %w", record.Key, err)
			}

			p.logger.Debug("upserted record", zap.String("key", record.Key))

			return nil
		})
	}

	return g.Wait()
}

// retry runs op with exponential backoff. Schema mismatches indicate
// configuration or model-version drift and are never retried.
func retry[T any](ctx context.Context, maxAttempts uint, op func() (T, error)) (T, error) {
	return backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err != nil && errors.Is(err, vector.ErrSchemaMismatch) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(maxAttempts))
}
