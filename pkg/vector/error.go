package vector

import "errors"

var (
	// ErrNotFound is returned when a document is not found in the collection.
	ErrNotFound = errors.New("document not found")

	// ErrEmbedding is returned when embedding generation fails.
	ErrEmbedding = errors.New("embedding failed")

	// ErrConnection is returned when the vector store connection fails.
	ErrConnection = errors.New("vector store connection failed")

	// ErrSchemaMismatch is returned when a vector's length conflicts with
	// the collection's declared dimension.
	ErrSchemaMismatch = errors.New("collection schema mismatch")

	// ErrNotFilterable is returned when a filter names a field the schema
	// does not mark filterable.
	ErrNotFilterable = errors.New("field is not filterable")
)
