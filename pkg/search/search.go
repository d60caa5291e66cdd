// Package search provides the glossary read workflows: semantic lookups,
// category-filtered lookups, and exact lookups by a unique non-key field.
package search

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/ctava-msft/gloss/pkg/embeddings"
	"github.com/ctava-msft/gloss/pkg/glossary"
	"github.com/ctava-msft/gloss/pkg/vector"
)

// Result is a glossary record with its similarity score.
type Result struct {
	Record glossary.Record

	// Score is meaningful only for similarity lookups; exact lookups
	// leave it zero.
	Score float32
}

// Searcher runs read workflows against a collection.
type Searcher struct {
	embedder   embeddings.Embedder
	collection vector.Collection
	logger     *zap.Logger
}

// NewSearcher creates a Searcher.
func NewSearcher(embedder embeddings.Embedder, collection vector.Collection, logger *zap.Logger) (*Searcher, error) {
	if embedder == nil {
		return nil, fmt.Errorf("an embedder is required")
	}
	if collection == nil {
		return nil, fmt.Errorf("a collection is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Searcher{
		embedder:   embedder,
		collection: collection,
		logger:     logger,
	}, nil
}

// Similar embeds the query text and returns the topK nearest records.
func (s *Searcher) Similar(ctx context.Context, query string, topK int) ([]Result, error) {
	return s.similar(ctx, query, topK, nil)
}

// SimilarInCategory is Similar restricted to records of one category.
func (s *Searcher) SimilarInCategory(ctx context.Context, query, category string, topK int) ([]Result, error) {
	return s.similar(ctx, query, topK, &vector.Filter{
		Field: glossary.FieldCategory,
		Value: category,
	})
}

func (s *Searcher) similar(ctx context.Context, query string, topK int, filter *vector.Filter) ([]Result, error) {
	if topK <= 0 {
		topK = 5
	}

	s.logger.Debug("similarity search",
		zap.String("query", query),
		zap.Int("topK", topK),
	)

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := s.collection.Search(ctx, embedding, vector.SearchOptions{
		TopK:   topK,
		Filter: filter,
	})
	if err != nil {
		return nil, fmt.Errorf("searching collection: %w", err)
	}

	return toResults(hits, true), nil
}

// ByURL returns the record whose url field equals the given value, using
// the collection's pure-filter query. vector.ErrNotFound is returned when
// no record matches.
func (s *Searcher) ByURL(ctx context.Context, url string) (Result, error) {
	hits, err := s.collection.Query(ctx, vector.Filter{
		Field: glossary.FieldURL,
		Value: url,
	}, 1)
	if err != nil {
		return Result{}, fmt.Errorf("querying collection: %w", err)
	}

	if len(hits) == 0 {
		return Result{}, fmt.Errorf("%w: url %q", vector.ErrNotFound, url)
	}

	return Result{Record: glossary.FromDocument(hits[0].Document)}, nil
}

// ByURLVector is a fallback for stores without a pure-filter endpoint: a
// filtered similarity search with a neutral query vector. The vector is
// uniform rather than zero because cosine stores cannot normalize a zero
// query. Similarity scores carry no meaning here and are dropped from the
// results.
func (s *Searcher) ByURLVector(ctx context.Context, url string) (Result, error) {
	dims := s.embedder.Dimensions()
	neutral := make([]float32, dims)
	fill := float32(1 / math.Sqrt(float64(dims)))
	for i := range neutral {
		neutral[i] = fill
	}

	hits, err := s.collection.Search(ctx, neutral, vector.SearchOptions{
		TopK: 1,
		Filter: &vector.Filter{
			Field: glossary.FieldURL,
			Value: url,
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("searching collection: %w", err)
	}

	if len(hits) == 0 {
		return Result{}, fmt.Errorf("%w: url %q", vector.ErrNotFound, url)
	}

	return Result{Record: glossary.FromDocument(hits[0].Document)}, nil
}

func toResults(hits []vector.QueryResult, withScore bool) []Result {
	results := make([]Result, len(hits))
	for i, hit := range hits {
		results[i] = Result{Record: glossary.FromDocument(hit.Document)}
		if withScore {
			results[i].Score = hit.Score
		}
	}
	return results
}
