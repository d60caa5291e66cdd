// Package azure implements pkg/embeddings' Embedder against an Azure OpenAI
// embeddings deployment, authenticating with a bearer token credential.
package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ctava-msft/gloss/pkg/credentials"
	"github.com/ctava-msft/gloss/pkg/embeddings"
	"github.com/ctava-msft/gloss/pkg/vector"
)

// DefaultAPIVersion tracks the stable embeddings API surface.
const DefaultAPIVersion = "2024-02-01"

// Embedder wraps an Azure OpenAI embeddings deployment.
type Embedder struct {
	endpoint   string
	deployment string
	apiVersion string
	dimensions int
	tokens     credentials.TokenSource
	httpClient *http.Client
}

// EmbedderConfig holds configuration for the Azure embedder.
type EmbedderConfig struct {
	// Endpoint is the service base URL (e.g. "https://res.openai.azure.com").
	Endpoint string

	// Deployment is the embedding model deployment identifier.
	Deployment string

	// APIVersion defaults to DefaultAPIVersion if empty.
	APIVersion string

	// Dimensions is the vector length the deployment produces.
	Dimensions int

	// Tokens supplies bearer tokens for each request.
	Tokens credentials.TokenSource
}

// embedRequest is the request body for the embeddings API.
type embedRequest struct {
	Input []string `json:"input"`
}

// embedResponse is the response from the embeddings API.
type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// NewEmbedder creates an embedder for an Azure OpenAI embeddings deployment.
func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("embedding endpoint is required")
	}
	if cfg.Deployment == "" {
		return nil, fmt.Errorf("embedding deployment is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("embedding dimensions must be positive")
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("a token source is required")
	}

	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	return &Embedder{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		deployment: cfg.Deployment,
		apiVersion: apiVersion,
		dimensions: cfg.Dimensions,
		tokens:     cfg.Tokens,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// Embed converts text into a vector embedding.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	token, err := e.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: acquiring token: %v", vector.ErrEmbedding, err)
	}

	jsonBody, err := json.Marshal(embedRequest{Input: []string{text}})
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", vector.ErrEmbedding, err)
	}

	reqURL := fmt.Sprintf("%s/openai/deployments/%s/embeddings?api-version=%s",
		e.endpoint, url.PathEscape(e.deployment), url.QueryEscape(e.apiVersion))

	req, err := http.NewRequestWithContext(ctx, "POST", reqURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", vector.ErrEmbedding, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: sending request: %v", vector.ErrEmbedding, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: service returned status %d: %s", vector.ErrEmbedding, resp.StatusCode, string(body))
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", vector.ErrEmbedding, err)
	}

	if len(embedResp.Data) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", vector.ErrEmbedding)
	}

	return embedResp.Data[0].Embedding, nil
}

// Dimensions returns the configured vector length.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// Close releases resources held by the embedder.
func (e *Embedder) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
