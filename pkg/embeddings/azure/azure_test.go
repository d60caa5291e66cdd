package azure_test

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ctava-msft/gloss/pkg/credentials"
	"github.com/ctava-msft/gloss/pkg/embeddings"
	"github.com/ctava-msft/gloss/pkg/embeddings/azure"
	"github.com/ctava-msft/gloss/pkg/vector"
)

// embedServer answers the embeddings route with a vector derived
// deterministically from the input text.
func embedServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer GinkgoRecover()

		Expect(r.URL.Path).To(Equal("/openai/deployments/embed-3/embeddings"))
		Expect(r.URL.Query().Get("api-version")).To(Equal(azure.DefaultAPIVersion))
		Expect(r.Header.Get("Authorization")).To(Equal("Bearer test-token"))
		Expect(r.Header.Get("Content-Type")).To(Equal("application/json"))

		var req struct {
			Input []string `json:"input"`
		}
		Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
		Expect(req.Input).To(HaveLen(1))

		h := fnv.New32a()
		h.Write([]byte(req.Input[0]))
		seed := h.Sum32()

		vec := make([]float32, 4)
		for i := range vec {
			seed = seed*1664525 + 1013904223
			vec[i] = float32(seed%1000) / 1000
		}

		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": vec}},
		})
	}))
}

func newEmbedder(endpoint string) *azure.Embedder {
	e, err := azure.NewEmbedder(azure.EmbedderConfig{
		Endpoint:   endpoint,
		Deployment: "embed-3",
		Dimensions: 4,
		Tokens:     credentials.Static("test-token"),
	})
	Expect(err).NotTo(HaveOccurred())
	return e
}

var _ = Describe("Embedder", func() {
	var (
		ctx    context.Context
		server *httptest.Server
	)

	BeforeEach(func() {
		ctx = context.Background()
		server = embedServer()
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("NewEmbedder", func() {
		It("requires endpoint, deployment, dimensions and a token source", func() {
			_, err := azure.NewEmbedder(azure.EmbedderConfig{})
			Expect(err).To(HaveOccurred())

			_, err = azure.NewEmbedder(azure.EmbedderConfig{
				Endpoint:   server.URL,
				Deployment: "embed-3",
				Dimensions: 4,
			})
			Expect(err).To(MatchError(ContainSubstring("token source")))
		})

		It("implements embeddings.Embedder", func() {
			var _ embeddings.Embedder = (*azure.Embedder)(nil)
		})
	})

	Describe("Embed", func() {
		It("returns the deployment's embedding", func() {
			e := newEmbedder(server.URL)
			defer e.Close()

			vec, err := e.Embed(ctx, "What is Retrieval Augmented Generation")
			Expect(err).NotTo(HaveOccurred())
			Expect(vec).To(HaveLen(4))
		})

		It("yields identical vectors for identical input", func() {
			e := newEmbedder(server.URL)
			defer e.Close()

			first, err := e.Embed(ctx, "a glossary definition")
			Expect(err).NotTo(HaveOccurred())

			second, err := e.Embed(ctx, "a glossary definition")
			Expect(err).NotTo(HaveOccurred())

			Expect(second).To(Equal(first))
		})

		It("accepts the empty string", func() {
			e := newEmbedder(server.URL)
			defer e.Close()

			vec, err := e.Embed(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(vec).To(HaveLen(4))
		})

		It("wraps service failures in vector.ErrEmbedding", func() {
			failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "throttled", http.StatusTooManyRequests)
			}))
			defer failing.Close()

			e := newEmbedder(failing.URL)
			defer e.Close()

			_, err := e.Embed(ctx, "anything")
			Expect(err).To(MatchError(vector.ErrEmbedding))
			Expect(err.Error()).To(ContainSubstring("status 429"))
		})

		It("reports token acquisition failures", func() {
			e, err := azure.NewEmbedder(azure.EmbedderConfig{
				Endpoint:   server.URL,
				Deployment: "embed-3",
				Dimensions: 4,
				Tokens:     failingTokens{},
			})
			Expect(err).NotTo(HaveOccurred())
			defer e.Close()

			_, err = e.Embed(ctx, "anything")
			Expect(err).To(MatchError(vector.ErrEmbedding))
			Expect(err.Error()).To(ContainSubstring("acquiring token"))
		})
	})

	Describe("Dimensions", func() {
		It("returns the configured vector length", func() {
			e := newEmbedder(server.URL)
			defer e.Close()
			Expect(e.Dimensions()).To(Equal(4))
		})
	})
})

type failingTokens struct{}

func (failingTokens) Token(context.Context) (string, error) {
	return "", context.DeadlineExceeded
}
