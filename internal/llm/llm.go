// Package llm adapts model providers to a single streaming text interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Streamer produces a completion as a sequence of text deltas. Returning an
// error from onDelta aborts the stream and that error is returned.
type Streamer interface {
	Stream(ctx context.Context, system, user string, onDelta func(string) error) error
}

// Provider names a backend.
type Provider string

const (
	ProviderAnthropic  Provider = "anthropic"
	ProviderOpenAI     Provider = "openai"
	ProviderClaudeCode Provider = "claude-code"
)

// Providers lists every supported backend.
var Providers = []Provider{ProviderAnthropic, ProviderOpenAI, ProviderClaudeCode}

// ParseProvider validates a provider name.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Providers {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q (want anthropic, openai or claude-code)", s)
}

// Default models per provider.
const (
	DefaultAnthropicModel = "claude-sonnet-4-5"
	DefaultOpenAIModel    = "gpt-4o"
	DefaultMaxTokens      = 8192
)

// ErrMissingAPIKey is returned when an API provider has no key configured.
var ErrMissingAPIKey = errors.New("missing API key")

// Config selects and configures a backend.
type Config struct {
	Provider   Provider
	Model      string
	APIKey     string
	BaseURL    string
	MaxTokens  int
	ClaudePath string
}

// New returns the Streamer for cfg.Provider.
func New(cfg Config) (Streamer, error) {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	switch cfg.Provider {
	case ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w for anthropic: set ANTHROPIC_API_KEY or run `toolfactory auth set anthropic`", ErrMissingAPIKey)
		}
		if cfg.Model == "" {
			cfg.Model = DefaultAnthropicModel
		}
		return NewAnthropic(cfg), nil
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w for openai: set OPENAI_API_KEY or run `toolfactory auth set openai`", ErrMissingAPIKey)
		}
		if cfg.Model == "" {
			cfg.Model = DefaultOpenAIModel
		}
		return NewOpenAI(cfg), nil
	case ProviderClaudeCode:
		return NewClaudeCode(cfg)
	}
	_, err := ParseProvider(string(cfg.Provider))
	return nil, err
}

// Complete collects a whole streamed completion.
func Complete(ctx context.Context, s Streamer, system, user string) (string, error) {
	var sb strings.Builder
	err := s.Stream(ctx, system, user, func(delta string) error {
		sb.WriteString(delta)
		return nil
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}
