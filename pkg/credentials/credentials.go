// Package credentials supplies bearer tokens for outbound service calls.
// Tokens come from the hosting environment's instance metadata endpoint
// (managed identity), a static value, or a credentials.toml file.
package credentials

import "context"

// TokenSource yields a bearer token for downstream clients. Implementations
// must be safe for concurrent use by multiple in-flight calls.
type TokenSource interface {
	// Token returns a currently valid bearer token.
	Token(ctx context.Context) (string, error)
}

// Static returns a TokenSource that always yields the given token.
func Static(token string) TokenSource {
	return staticSource(token)
}

type staticSource string

func (s staticSource) Token(_ context.Context) (string, error) {
	return string(s), nil
}
