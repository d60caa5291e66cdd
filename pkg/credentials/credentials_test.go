package credentials_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ctava-msft/gloss/pkg/credentials"
)

var _ = Describe("Credentials", func() {
	Describe("Static", func() {
		It("always returns the configured token", func() {
			src := credentials.Static("tok-123")
			token, err := src.Token(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(token).To(Equal("tok-123"))
		})
	})

	Describe("FromFile", func() {
		It("reads identity.token from credentials.toml", func() {
			path := filepath.Join(GinkgoT().TempDir(), "credentials.toml")
			Expect(credentials.WriteFile(path, "file-token")).To(Succeed())

			src, err := credentials.FromFile(path)
			Expect(err).NotTo(HaveOccurred())

			token, err := src.Token(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(token).To(Equal("file-token"))
		})

		It("refuses to write an empty token", func() {
			path := filepath.Join(GinkgoT().TempDir(), "credentials.toml")
			Expect(credentials.WriteFile(path, "")).NotTo(Succeed())
		})

		It("rejects a file without a token", func() {
			path := filepath.Join(GinkgoT().TempDir(), "credentials.toml")
			Expect(os.WriteFile(path, []byte("version = 0\n\n[identity]\n"), 0o600)).To(Succeed())

			_, err := credentials.FromFile(path)
			Expect(err).To(MatchError(ContainSubstring("no identity.token")))
		})

		It("fails for a missing file", func() {
			_, err := credentials.FromFile(filepath.Join(GinkgoT().TempDir(), "missing.toml"))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ManagedIdentity", func() {
		var (
			server *httptest.Server
			calls  atomic.Int64
		)

		BeforeEach(func() {
			calls.Store(0)
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer GinkgoRecover()
				Expect(r.Header.Get("Metadata")).To(Equal("true"))
				Expect(r.URL.Query().Get("resource")).To(Equal("https://svc.example.com"))

				calls.Add(1)
				expires := time.Now().Add(time.Hour).Unix()
				fmt.Fprintf(w, `{"access_token":"imds-token","expires_on":"%d"}`, expires)
			}))
		})

		AfterEach(func() {
			server.Close()
		})

		It("requires a resource", func() {
			_, err := credentials.NewManagedIdentity(credentials.ManagedIdentityConfig{})
			Expect(err).To(HaveOccurred())
		})

		It("fetches a token from the metadata endpoint", func() {
			src, err := credentials.NewManagedIdentity(credentials.ManagedIdentityConfig{
				Resource: "https://svc.example.com",
				Endpoint: server.URL,
			})
			Expect(err).NotTo(HaveOccurred())

			token, err := src.Token(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(token).To(Equal("imds-token"))
		})

		It("caches the token across calls", func() {
			src, err := credentials.NewManagedIdentity(credentials.ManagedIdentityConfig{
				Resource: "https://svc.example.com",
				Endpoint: server.URL,
			})
			Expect(err).NotTo(HaveOccurred())

			for range 3 {
				_, err := src.Token(context.Background())
				Expect(err).NotTo(HaveOccurred())
			}

			Expect(calls.Load()).To(Equal(int64(1)))
		})

		It("surfaces endpoint failures", func() {
			failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
			}))
			defer failing.Close()

			src, err := credentials.NewManagedIdentity(credentials.ManagedIdentityConfig{
				Resource: "https://svc.example.com",
				Endpoint: failing.URL,
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = src.Token(context.Background())
			Expect(err).To(MatchError(ContainSubstring("status 401")))
		})
	})
})
