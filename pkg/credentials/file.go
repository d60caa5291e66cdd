package credentials

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// credentialsFile mirrors the credentials.toml layout:
//
//	version = 0
//
//	[identity]
//	token = "..."
type credentialsFile struct {
	Version  int `toml:"version"`
	Identity struct {
		Token string `toml:"token"`
	} `toml:"identity"`
}

// FromFile reads a bearer token from a credentials.toml at path. The file is
// read once; rotate by restarting the process.
func FromFile(path string) (TokenSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}

	var cf credentialsFile
	if err := toml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parsing credentials file: %w", err)
	}

	if cf.Identity.Token == "" {
		return nil, fmt.Errorf("credentials file %s has no identity.token", path)
	}

	return Static(cf.Identity.Token), nil
}

// WriteFile persists a token to a credentials.toml at path with owner-only
// permissions.
func WriteFile(path, token string) error {
	if token == "" {
		return fmt.Errorf("refusing to write an empty token")
	}

	var cf credentialsFile
	cf.Identity.Token = token

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("creating credentials file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cf); err != nil {
		return fmt.Errorf("writing credentials file: %w", err)
	}

	return nil
}
