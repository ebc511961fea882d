package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func init() {
	keyring.MockInit()
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	key := APIKey("anthropic")

	_, err := s.Get(key)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(key, "sk-ant-123"))
	val, err := s.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-123", val)

	require.NoError(t, s.Set(key, "sk-ant-456"))
	val, err = s.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-456", val)

	require.NoError(t, s.Delete(key))
	_, err = s.Get(key)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, s.Delete(key), "deleting a missing key is fine")
}

func TestKeychainStore(t *testing.T) {
	s := newKeychainStore()
	exerciseStore(t, s)
	assert.Equal(t, "keychain", s.Backend())
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s := newFileStore(dir)
	exerciseStore(t, s)
	assert.Equal(t, "file", s.Backend())

	require.NoError(t, s.Set("openai/api_key", "sk-1"))
	info, err := os.Stat(filepath.Join(dir, secretsFile))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(secretsFileMode), info.Mode().Perm())

	// A second instance sees the same data.
	val, err := newFileStore(dir).Get("openai/api_key")
	require.NoError(t, err)
	assert.Equal(t, "sk-1", val)
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, secretsFile), []byte("{not json"), 0o600))
	_, err := newFileStore(dir).Get("x")
	assert.Error(t, err)
}

func TestNewUsesKeychainWhenAvailable(t *testing.T) {
	s := New(t.TempDir())
	assert.Equal(t, "keychain", s.Backend())
}

func TestAPIKeyAndMask(t *testing.T) {
	assert.Equal(t, "anthropic/api_key", APIKey(" Anthropic "))
	assert.Equal(t, "sk-a******wxyz", Mask("sk-abcdefgwxyz"))
	assert.Equal(t, "*****", Mask("short"))
}
