package sqlitevec_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/ctava-msft/gloss/pkg/vector"
	"github.com/ctava-msft/gloss/pkg/vector/sqlitevec"
)

func testSchema() vector.Schema {
	return vector.Schema{
		Name:     "glossary-test",
		KeyField: "key",
		ScalarFields: []vector.ScalarField{
			{Name: "category", Filterable: true},
			{Name: "term"},
			{Name: "url", Filterable: true},
		},
		VectorField: "embedding",
		Dimensions:  4,
		Metric:      vector.MetricCosine,
	}
}

func doc(key, category, url string, embedding []float32) vector.Document {
	return vector.Document{
		Key: key,
		Fields: map[string]string{
			"category": category,
			"term":     "term-" + key,
			"url":      url,
		},
		Embedding: embedding,
	}
}

var _ = Describe("Store", func() {
	var (
		ctx   context.Context
		store *sqlitevec.Store
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		store, err = sqlitevec.New(":memory:", testSchema(), zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
		Expect(store.Ensure(ctx)).To(Succeed())
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	Describe("New", func() {
		It("rejects a zero-dimension schema", func() {
			schema := testSchema()
			schema.Dimensions = 0
			_, err := sqlitevec.New(":memory:", schema, zap.NewNop())
			Expect(err).To(HaveOccurred())
		})

		It("implements vector.Collection", func() {
			var _ vector.Collection = (*sqlitevec.Store)(nil)
		})
	})

	Describe("Ensure", func() {
		It("is idempotent", func() {
			Expect(store.Ensure(ctx)).To(Succeed())
			Expect(store.Upsert(ctx, doc("1", "AI", "https://example.com/1", []float32{1, 0, 0, 0}))).To(Succeed())
			Expect(store.Ensure(ctx)).To(Succeed())

			results, err := store.Query(ctx, vector.Filter{Field: "category", Value: "AI"}, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
		})

		It("detects a dimension conflict with an existing collection", func() {
			dir := GinkgoT().TempDir()
			path := dir + "/glossary.db"

			first, err := sqlitevec.New(path, testSchema(), zap.NewNop())
			Expect(err).NotTo(HaveOccurred())
			Expect(first.Ensure(ctx)).To(Succeed())
			Expect(first.Close()).To(Succeed())

			conflicting := testSchema()
			conflicting.Dimensions = 8
			second, err := sqlitevec.New(path, conflicting, zap.NewNop())
			Expect(err).NotTo(HaveOccurred())
			defer second.Close()

			Expect(second.Ensure(ctx)).To(MatchError(vector.ErrSchemaMismatch))
		})
	})

	Describe("Upsert", func() {
		It("stores and returns a document", func() {
			Expect(store.Upsert(ctx, doc("1", "AI", "https://example.com/1", []float32{1, 0, 0, 0}))).To(Succeed())

			results, err := store.Search(ctx, []float32{1, 0, 0, 0}, vector.SearchOptions{TopK: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Key).To(Equal("1"))
		})

		It("replaces an existing key instead of merging", func() {
			Expect(store.Upsert(ctx, doc("1", "AI", "https://example.com/1", []float32{1, 0, 0, 0}))).To(Succeed())
			Expect(store.Upsert(ctx, doc("1", "Updated", "https://example.com/changed", []float32{0, 1, 0, 0}))).To(Succeed())

			results, err := store.Search(ctx, []float32{0, 1, 0, 0}, vector.SearchOptions{TopK: 10})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Fields["category"]).To(Equal("Updated"))
			Expect(results[0].Fields["url"]).To(Equal("https://example.com/changed"))
		})

		It("rejects a dimension mismatch and leaves the collection unchanged", func() {
			Expect(store.Upsert(ctx, doc("1", "AI", "https://example.com/1", []float32{1, 0, 0, 0}))).To(Succeed())

			err := store.Upsert(ctx, doc("2", "AI", "https://example.com/2", []float32{1, 0}))
			Expect(err).To(MatchError(vector.ErrSchemaMismatch))

			results, err := store.Search(ctx, []float32{1, 0, 0, 0}, vector.SearchOptions{TopK: 10})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
		})

		It("validates the whole batch before writing anything", func() {
			err := store.Upsert(ctx,
				doc("1", "AI", "https://example.com/1", []float32{1, 0, 0, 0}),
				doc("2", "AI", "https://example.com/2", []float32{1, 0, 0}),
			)
			Expect(err).To(MatchError(vector.ErrSchemaMismatch))

			results, err := store.Search(ctx, []float32{1, 0, 0, 0}, vector.SearchOptions{TopK: 10})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})
	})

	Describe("Delete", func() {
		It("removes a document by key", func() {
			Expect(store.Upsert(ctx, doc("1", "AI", "https://example.com/1", []float32{1, 0, 0, 0}))).To(Succeed())
			Expect(store.Delete(ctx, "1")).To(Succeed())

			results, err := store.Search(ctx, []float32{1, 0, 0, 0}, vector.SearchOptions{TopK: 10})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("succeeds silently for absent keys", func() {
			Expect(store.Delete(ctx, "missing")).To(Succeed())
		})
	})

	Describe("Search", func() {
		BeforeEach(func() {
			Expect(store.Upsert(ctx,
				doc("1", "AI", "https://example.com/1", []float32{1, 0, 0, 0}),
				doc("2", "AI", "https://example.com/2", []float32{0.9, 0.1, 0, 0}),
				doc("3", "External Definitions", "https://example.com/3", []float32{0, 0, 1, 0}),
			)).To(Succeed())
		})

		It("orders results by descending similarity", func() {
			results, err := store.Search(ctx, []float32{1, 0, 0, 0}, vector.SearchOptions{TopK: 3})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
			Expect(results[0].Key).To(Equal("1"))
			Expect(results[1].Key).To(Equal("2"))
			Expect(results[2].Key).To(Equal("3"))
			Expect(results[0].Score).To(BeNumerically(">=", results[1].Score))
			Expect(results[1].Score).To(BeNumerically(">=", results[2].Score))
		})

		It("caps results at TopK", func() {
			results, err := store.Search(ctx, []float32{1, 0, 0, 0}, vector.SearchOptions{TopK: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
		})

		It("never returns records outside the filter", func() {
			results, err := store.Search(ctx, []float32{1, 0, 0, 0}, vector.SearchOptions{
				TopK:   10,
				Filter: &vector.Filter{Field: "category", Value: "External Definitions"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Key).To(Equal("3"))
		})

		It("rejects filters on non-filterable fields", func() {
			_, err := store.Search(ctx, []float32{1, 0, 0, 0}, vector.SearchOptions{
				TopK:   10,
				Filter: &vector.Filter{Field: "term", Value: "term-1"},
			})
			Expect(err).To(MatchError(vector.ErrNotFilterable))
		})

		It("rejects query vectors of the wrong dimension", func() {
			_, err := store.Search(ctx, []float32{1, 0}, vector.SearchOptions{TopK: 1})
			Expect(err).To(MatchError(vector.ErrSchemaMismatch))
		})
	})

	Describe("Query", func() {
		BeforeEach(func() {
			Expect(store.Upsert(ctx,
				doc("1", "AI", "https://example.com/1", []float32{1, 0, 0, 0}),
				doc("2", "AI", "https://example.com/2", []float32{0, 1, 0, 0}),
				doc("3", "External Definitions", "https://example.com/3", []float32{0, 0, 1, 0}),
			)).To(Succeed())
		})

		It("finds exactly the record with a unique field value", func() {
			results, err := store.Query(ctx, vector.Filter{Field: "url", Value: "https://example.com/2"}, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Key).To(Equal("2"))
			Expect(results[0].Score).To(BeZero())
		})

		It("caps matches at the limit in stable key order", func() {
			results, err := store.Query(ctx, vector.Filter{Field: "category", Value: "AI"}, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Key).To(Equal("1"))
		})

		It("returns nothing when no record matches", func() {
			results, err := store.Query(ctx, vector.Filter{Field: "url", Value: "https://example.com/9"}, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("rejects filters on non-filterable fields", func() {
			_, err := store.Query(ctx, vector.Filter{Field: "term", Value: "term-1"}, 10)
			Expect(err).To(MatchError(vector.ErrNotFilterable))
		})
	})
})
