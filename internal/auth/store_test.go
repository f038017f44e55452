package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts Options) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.json")
	s, err := Open(path, opts)
	require.NoError(t, err)
	return s, path
}

func TestSignupAndAuthenticate(t *testing.T) {
	s, _ := newTestStore(t, Options{AllowSignup: true})

	require.NoError(t, s.Signup("Alice", "secret"))

	t.Run("correct credentials", func(t *testing.T) {
		assert.NoError(t, s.Authenticate("alice", "secret"))
	})

	t.Run("usernames are case insensitive", func(t *testing.T) {
		assert.NoError(t, s.Authenticate("ALICE", "secret"))
	})

	t.Run("wrong password", func(t *testing.T) {
		assert.ErrorIs(t, s.Authenticate("alice", "wrong"), ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		assert.ErrorIs(t, s.Authenticate("mallory", "secret"), ErrInvalidCredentials)
	})

	t.Run("duplicate signup rejected", func(t *testing.T) {
		assert.ErrorIs(t, s.Signup("alice", "other"), ErrUserExists)
	})
}

func TestSignupClosed(t *testing.T) {
	s, _ := newTestStore(t, Options{AllowSignup: false})
	assert.ErrorIs(t, s.Signup("alice", "secret"), ErrSignupClosed)
}

func TestBootstrap(t *testing.T) {
	t.Run("creates the initial account", func(t *testing.T) {
		s, _ := newTestStore(t, Options{})
		require.NoError(t, s.Bootstrap("admin", "changeit"))
		assert.NoError(t, s.Authenticate("admin", "changeit"))
		assert.Equal(t, 1, s.Count())
	})

	t.Run("does not overwrite an existing account", func(t *testing.T) {
		s, _ := newTestStore(t, Options{AllowSignup: true})
		require.NoError(t, s.Signup("admin", "original"))
		require.NoError(t, s.Bootstrap("admin", "other"))
		assert.NoError(t, s.Authenticate("admin", "original"))
	})

	t.Run("blank values are a no-op", func(t *testing.T) {
		s, _ := newTestStore(t, Options{})
		require.NoError(t, s.Bootstrap("", ""))
		assert.Equal(t, 0, s.Count())
	})
}

func TestPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")

	s1, err := Open(path, Options{AllowSignup: true})
	require.NoError(t, err)
	require.NoError(t, s1.Signup("alice", "secret"))

	s2, err := Open(path, Options{AllowSignup: true})
	require.NoError(t, err)
	assert.NoError(t, s2.Authenticate("alice", "secret"))
}

func TestPepperChangesHashes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")

	s1, err := Open(path, Options{AllowSignup: true, Pepper: "deployment-pepper"})
	require.NoError(t, err)
	require.NoError(t, s1.Signup("alice", "secret"))

	// Reopening without the pepper must not validate the password.
	s2, err := Open(path, Options{AllowSignup: true})
	require.NoError(t, err)
	assert.ErrorIs(t, s2.Authenticate("alice", "secret"), ErrInvalidCredentials)
}

func TestPasswordsNotStoredInPlaintext(t *testing.T) {
	s, path := newTestStore(t, Options{AllowSignup: true})
	require.NoError(t, s.Signup("alice", "super-secret-password"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "super-secret-password")
}
