// Package config resolves settings from defaults, an optional YAML file and
// the environment. Command-line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/moasq/toolfactory/internal/llm"
	"github.com/moasq/toolfactory/internal/secrets"
	"github.com/moasq/toolfactory/internal/storage"
)

// DefaultAddr is where serve listens unless configured otherwise.
const DefaultAddr = "127.0.0.1:8787"

// Config holds the CLI configuration.
type Config struct {
	// Provider is the model backend for local generation.
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	// MaxTokens caps API completions.
	MaxTokens int `yaml:"max_tokens"`
	// Endpoint is a remote tool-factory service root. When set, generate and
	// save go over HTTP instead of calling a model directly.
	Endpoint string `yaml:"endpoint"`

	// Store is the persistence backend: file, sqlite or postgres.
	Store string `yaml:"store"`
	// DSN is the store location: a directory, a database file or a
	// postgres connection string.
	DSN string `yaml:"dsn"`

	// Addr is the serve listen address.
	Addr string `yaml:"addr"`

	ClaudePath    string `yaml:"claude_path"`
	OpenAIBaseURL string `yaml:"openai_base_url"`

	// Review turns on the model-backed self-review suggestions.
	Review bool `yaml:"review"`

	// Dir is the state directory (~/.toolfactory).
	Dir string `yaml:"-"`

	// API keys come from the environment only; the keychain is consulted
	// by APIKey.
	AnthropicAPIKey string `yaml:"-"`
	OpenAIAPIKey    string `yaml:"-"`
}

// Default returns the built-in configuration rooted at dir.
func Default(dir string) *Config {
	return &Config{
		Provider:  string(llm.ProviderAnthropic),
		MaxTokens: llm.DefaultMaxTokens,
		Store:     storage.BackendFile,
		Addr:      DefaultAddr,
		Dir:       dir,
	}
}

// Load reads ~/.toolfactory/config.yaml (or path) and the environment.
func Load(path string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return LoadFrom(filepath.Join(home, ".toolfactory"), path, os.Getenv)
}

// LoadFrom is Load with an explicit state directory and environment. An
// explicit path must exist; the default one may not.
func LoadFrom(dir, path string, getenv func(string) string) (*Config, error) {
	cfg := Default(dir)

	explicit := path != ""
	if !explicit {
		path = filepath.Join(dir, "config.yaml")
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnv(getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Provider, "TOOLFACTORY_PROVIDER")
	set(&c.Model, "TOOLFACTORY_MODEL")
	set(&c.Endpoint, "TOOLFACTORY_ENDPOINT")
	set(&c.Store, "TOOLFACTORY_STORE")
	set(&c.DSN, "TOOLFACTORY_DSN")
	set(&c.Addr, "TOOLFACTORY_ADDR")
	set(&c.ClaudePath, "TOOLFACTORY_CLAUDE_PATH")
	set(&c.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	set(&c.OpenAIAPIKey, "OPENAI_API_KEY")
	set(&c.OpenAIBaseURL, "OPENAI_BASE_URL")
	if v, err := strconv.ParseBool(getenv("TOOLFACTORY_REVIEW")); err == nil {
		c.Review = v
	}
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if _, err := llm.ParseProvider(c.Provider); err != nil {
		return err
	}
	switch c.Store {
	case storage.BackendFile, storage.BackendSQLite, storage.BackendPostgres:
	default:
		return fmt.Errorf("unknown store %q (want file, sqlite or postgres)", c.Store)
	}
	if c.Store == storage.BackendPostgres && c.DSN == "" {
		return fmt.Errorf("store postgres needs a dsn (TOOLFACTORY_DSN)")
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must not be negative")
	}
	return nil
}

// StoreDSN returns the DSN, defaulting file and sqlite stores into Dir.
func (c *Config) StoreDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	switch c.Store {
	case storage.BackendSQLite:
		return filepath.Join(c.Dir, "tools.db")
	case storage.BackendFile:
		return filepath.Join(c.Dir, "tools")
	}
	return ""
}

// APIKey returns the key for provider from the environment, then the
// secret store. Missing keys yield "".
func (c *Config) APIKey(provider llm.Provider, store secrets.Store) string {
	var env string
	switch provider {
	case llm.ProviderAnthropic:
		env = c.AnthropicAPIKey
	case llm.ProviderOpenAI:
		env = c.OpenAIAPIKey
	default:
		return ""
	}
	if env != "" || store == nil {
		return env
	}
	key, err := store.Get(secrets.APIKey(string(provider)))
	if err != nil {
		return ""
	}
	return key
}

// LLM builds the backend configuration.
func (c *Config) LLM(store secrets.Store) (llm.Config, error) {
	p, err := llm.ParseProvider(c.Provider)
	if err != nil {
		return llm.Config{}, err
	}
	cfg := llm.Config{
		Provider:   p,
		Model:      c.Model,
		APIKey:     c.APIKey(p, store),
		MaxTokens:  c.MaxTokens,
		ClaudePath: c.ClaudePath,
	}
	if p == llm.ProviderOpenAI {
		cfg.BaseURL = c.OpenAIBaseURL
	}
	return cfg, nil
}
