// Package secrets keeps provider API keys in the OS keychain (macOS Keychain,
// Linux Secret Service) and falls back to a 0600 JSON file where no keychain
// is reachable (CI, containers).
package secrets

import (
	"errors"
	"strings"
)

const serviceName = "toolfactory"

// Store is a small credential store keyed by provider.
type Store interface {
	// Get returns ErrNotFound if the key is absent.
	Get(key string) (string, error)
	Set(key, value string) error
	// Delete is a no-op for absent keys.
	Delete(key string) error
	// Backend names where secrets live ("keychain" or "file").
	Backend() string
}

var ErrNotFound = errors.New("secret not found")

// APIKey returns the canonical key for a provider's API key, e.g.
// "anthropic/api_key".
func APIKey(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider)) + "/api_key"
}

// New returns the keychain store when a set/delete round-trip succeeds and the
// file store under dir otherwise.
func New(dir string) Store {
	ks := newKeychainStore()
	key := "__toolfactory_check__"
	if err := ks.Set(key, "ok"); err != nil {
		return newFileStore(dir)
	}
	_ = ks.Delete(key)
	return ks
}

// Mask shows the first and last four characters of a secret.
func Mask(s string) string {
	r := []rune(s)
	if len(r) <= 8 {
		return strings.Repeat("*", len(r))
	}
	return string(r[:4]) + strings.Repeat("*", len(r)-8) + string(r[len(r)-4:])
}
