// Package glossary defines the glossary record model, its collection
// schema, and the built-in sample corpus.
package glossary

import (
	"github.com/ctava-msft/gloss/pkg/vector"
)

// Field names as stored in the collection.
const (
	FieldKey        = "key"
	FieldCategory   = "category"
	FieldTerm       = "term"
	FieldDefinition = "definition"
	FieldURL        = "url"

	// VectorField holds the definition embedding.
	VectorField = "definition_embedding"
)

// Record is a single glossary entry.
type Record struct {
	// Key uniquely identifies the record and is immutable once assigned.
	Key string

	// Category groups records and supports equality filters.
	Category string

	// Term is the word or phrase being defined. Descriptive only.
	Term string

	// Definition is the text whose embedding is stored.
	Definition string

	// URL is an external correlation key, filterable, distinct from Key.
	URL string

	// DefinitionEmbedding is derived from Definition before every upsert;
	// it is never persisted independently of its source text.
	DefinitionEmbedding []float32
}

// Schema returns the collection schema for glossary records. The embedding
// dimension is supplied by configuration, never compiled in.
func Schema(collection string, dimensions uint) vector.Schema {
	return vector.Schema{
		Name:     collection,
		KeyField: FieldKey,
		ScalarFields: []vector.ScalarField{
			{Name: FieldCategory, Filterable: true},
			{Name: FieldTerm},
			{Name: FieldDefinition},
			{Name: FieldURL, Filterable: true},
		},
		VectorField: VectorField,
		Dimensions:  dimensions,
		Metric:      vector.MetricCosine,
	}
}

// Document maps the record onto the stored document shape.
func (r Record) Document() vector.Document {
	return vector.Document{
		Key: r.Key,
		Fields: map[string]string{
			FieldCategory:   r.Category,
			FieldTerm:       r.Term,
			FieldDefinition: r.Definition,
			FieldURL:        r.URL,
		},
		Embedding: r.DefinitionEmbedding,
	}
}

// FromDocument rebuilds a record from a stored document.
func FromDocument(doc vector.Document) Record {
	return Record{
		Key:                 doc.Key,
		Category:            doc.Fields[FieldCategory],
		Term:                doc.Fields[FieldTerm],
		Definition:          doc.Fields[FieldDefinition],
		URL:                 doc.Fields[FieldURL],
		DefinitionEmbedding: doc.Embedding,
	}
}

// SampleRecords returns the built-in demo corpus. Embeddings are left nil
// and computed by the ingest pipeline.
func SampleRecords() []Record {
	return []Record{
		{
			Key:        "1",
			Category:   "AI",
			Term:       "API",
			Definition: "Application Programming Interface. A set of rules and specifications that allow software components to communicate and exchange data.",
			URL:        "https://example.com/1",
		},
		{
			Key:        "2",
			Category:   "AI",
			Term:       "RAG",
			Definition: "Retrieval Augmented Generation - a technique that grounds a model's answers in retrieved external knowledge before generating a response.",
			URL:        "https://example.com/2",
		},
		{
			Key:        "3",
			Category:   "External Definitions",
			Term:       "LLM",
			Definition: "Large Language Model. A model trained on large volumes of text, used to generate and understand natural language.",
			URL:        "https://example.com/3",
		},
	}
}
