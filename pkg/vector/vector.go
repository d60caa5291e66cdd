// Package vector defines the collection contract for storing and retrieving
// glossary records by vector similarity and by scalar filter.
package vector

import "context"

// Metric is the similarity metric declared by a collection schema.
type Metric string

const (
	// MetricCosine ranks by cosine similarity.
	MetricCosine Metric = "cosine"
)

// ScalarField describes a non-vector field of a collection schema.
type ScalarField struct {
	// Name is the field name as stored in the collection.
	Name string

	// Filterable marks the field as usable in equality filters.
	Filterable bool
}

// Schema declares the shape of a collection: its key field, scalar fields
// and one vector field. It is carried as data so that record representation
// stays decoupled from store mapping.
type Schema struct {
	// Name is the collection name.
	Name string

	// KeyField is the unique record identifier field.
	KeyField string

	// ScalarFields are the non-vector fields.
	ScalarFields []ScalarField

	// VectorField is the name of the embedding field.
	VectorField string

	// Dimensions is the fixed embedding length the collection accepts.
	Dimensions uint

	// Metric is the similarity metric used for search.
	Metric Metric
}

// Filterable reports whether the named scalar field accepts filters.
func (s Schema) Filterable(field string) bool {
	for _, f := range s.ScalarFields {
		if f.Name == field && f.Filterable {
			return true
		}
	}
	return false
}

// Document is the unit stored in a collection.
type Document struct {
	// Key uniquely identifies the document within its collection.
	Key string

	// Fields holds the scalar field values keyed by schema field name.
	Fields map[string]string

	// Embedding is the document's vector, length = Schema.Dimensions.
	Embedding []float32
}

// QueryResult is a search hit with its similarity score.
type QueryResult struct {
	Document

	// Score is the similarity score, higher is more similar. It is
	// meaningless for pure-filter lookups and set to zero there.
	Score float32
}

// Filter restricts candidates to documents whose field equals the value.
// Only equality predicates are supported.
type Filter struct {
	Field string
	Value string
}

// SearchOptions controls a similarity search.
type SearchOptions struct {
	// TopK bounds the number of results.
	TopK int

	// Filter optionally restricts candidates; results always satisfy it.
	Filter *Filter
}

// Collection is a named, schema-typed store of documents. Implementations
// must be safe for concurrent use by multiple in-flight calls.
type Collection interface {
	// Ensure creates the collection if it does not exist. It is idempotent
	// and returns ErrSchemaMismatch when a collection of the same name
	// exists with an incompatible vector dimension.
	Ensure(ctx context.Context) error

	// Upsert inserts or fully replaces documents by key. A document whose
	// embedding length differs from the schema dimension is rejected with
	// ErrSchemaMismatch before anything is written.
	Upsert(ctx context.Context, docs ...Document) error

	// Delete removes documents by key. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Search returns up to opts.TopK documents ordered by descending
	// similarity to the query vector.
	Search(ctx context.Context, embedding []float32, opts SearchOptions) ([]QueryResult, error)

	// Query returns up to limit documents matching the filter without any
	// vector involvement. Scores in the results are zero.
	Query(ctx context.Context, filter Filter, limit int) ([]QueryResult, error)

	// Close releases resources held by the collection handle.
	Close() error
}
