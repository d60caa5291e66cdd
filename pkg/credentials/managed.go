package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

const (
	// DefaultMetadataEndpoint is the instance metadata identity endpoint of
	// the hosting environment.
	DefaultMetadataEndpoint = "http://169.254.169.254/metadata/identity/oauth2/token"

	// metadataAPIVersion is the identity token API version.
	metadataAPIVersion = "2018-02-01"

	// refreshMargin renews tokens this long before they expire.
	refreshMargin = 2 * time.Minute
)

// ManagedIdentityConfig configures a managed identity token source.
type ManagedIdentityConfig struct {
	// Resource is the audience the token is requested for.
	Resource string

	// ClientID optionally selects a user-assigned identity.
	ClientID string

	// Endpoint overrides the metadata endpoint, for tests.
	Endpoint string
}

// ManagedIdentity fetches bearer tokens from the instance metadata endpoint
// and caches them until shortly before expiry.
type ManagedIdentity struct {
	resource   string
	clientID   string
	endpoint   string
	httpClient *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// tokenResponse is the metadata endpoint's token payload. ExpiresOn is a
// unix timestamp transmitted as a string.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresOn   string `json:"expires_on"`
}

// NewManagedIdentity creates a managed identity token source.
func NewManagedIdentity(cfg ManagedIdentityConfig) (*ManagedIdentity, error) {
	if cfg.Resource == "" {
		return nil, fmt.Errorf("managed identity resource is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultMetadataEndpoint
	}

	return &ManagedIdentity{
		resource: cfg.Resource,
		clientID: cfg.ClientID,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// Token returns the cached token, refreshing it from the metadata endpoint
// when it is missing or close to expiry.
func (m *ManagedIdentity) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && time.Now().Before(m.expiresAt.Add(-refreshMargin)) {
		return m.token, nil
	}

	token, expiresAt, err := m.fetch(ctx)
	if err != nil {
		return "", err
	}

	m.token = token
	m.expiresAt = expiresAt

	return token, nil
}

func (m *ManagedIdentity) fetch(ctx context.Context) (string, time.Time, error) {
	q := url.Values{}
	q.Set("api-version", metadataAPIVersion)
	q.Set("resource", m.resource)
	if m.clientID != "" {
		q.Set("client_id", m.clientID)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", m.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Metadata", "true")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("requesting identity token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", time.Time{}, fmt.Errorf("identity endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", time.Time{}, fmt.Errorf("decoding token response: %w", err)
	}

	if tr.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("identity endpoint returned an empty token")
	}

	expiresAt := time.Now().Add(time.Hour)
	if secs, err := strconv.ParseInt(tr.ExpiresOn, 10, 64); err == nil {
		expiresAt = time.Unix(secs, 0)
	}

	return tr.AccessToken, expiresAt, nil
}

var _ TokenSource = (*ManagedIdentity)(nil)
