// Package config loads gloss configuration from defaults, an optional
// config.toml, GLOSS_* environment variables and CLI flags, in that
// order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the environment variable prefix (GLOSS_EMBEDDING_ENDPOINT,
// GLOSS_VECTOR_STORE_TARGET, and so on).
const EnvPrefix = "GLOSS"

// InitViper creates and returns a configured *viper.Viper. It registers
// defaults from NewDefaultConfig(), reads config.toml from configDir when
// provided, and binds GLOSS_-prefixed environment variables.
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	if configDir != "" {
		v.AddConfigPath(configDir)
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults and env apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// Load unmarshals the viper state into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration before any network call is made.
func (c *Config) Validate() error {
	var missing []string

	if c.Embedding.Endpoint == "" {
		missing = append(missing, "embedding.endpoint")
	}
	if c.Embedding.Deployment == "" {
		missing = append(missing, "embedding.deployment")
	}
	if c.Embedding.Dimensions == 0 {
		missing = append(missing, "embedding.dimensions")
	}
	if c.VectorStore.Collection == "" {
		missing = append(missing, "vector_store.collection")
	}

	switch c.VectorStore.Provider {
	case "qdrant":
		if c.VectorStore.Target == "" {
			missing = append(missing, "vector_store.target")
		}
	case "sqlite":
	default:
		return fmt.Errorf("unsupported vector store provider: %q", c.VectorStore.Provider)
	}

	switch c.Identity.Provider {
	case "managed":
		if c.Identity.Resource == "" {
			missing = append(missing, "identity.resource")
		}
	case "static":
		if c.Identity.Token == "" {
			missing = append(missing, "identity.token")
		}
	case "file":
		if c.Identity.CredentialsFile == "" {
			missing = append(missing, "identity.credentials_file")
		}
	default:
		return fmt.Errorf("unsupported identity provider: %q", c.Identity.Provider)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required config keys: %s", strings.Join(missing, ", "))
	}

	return nil
}

// setViperDefaults registers defaults from NewDefaultConfig() using dotted
// key notation, keeping defaults.go the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.endpoint", d.Embedding.Endpoint)
	v.SetDefault("embedding.deployment", d.Embedding.Deployment)
	v.SetDefault("embedding.api_version", d.Embedding.APIVersion)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)

	v.SetDefault("chat.deployment", d.Chat.Deployment)
	v.SetDefault("chat.api_version", d.Chat.APIVersion)

	v.SetDefault("vector_store.provider", d.VectorStore.Provider)
	v.SetDefault("vector_store.target", d.VectorStore.Target)
	v.SetDefault("vector_store.collection", d.VectorStore.Collection)

	v.SetDefault("identity.provider", d.Identity.Provider)
	v.SetDefault("identity.resource", d.Identity.Resource)
	v.SetDefault("identity.client_id", d.Identity.ClientID)
	v.SetDefault("identity.token", d.Identity.Token)
	v.SetDefault("identity.credentials_file", d.Identity.CredentialsFile)
}
