package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "history.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreAppendLoad(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Append("alice", RoleUser, "first question"))
	require.NoError(t, s.Append("alice", RoleAssistant, "first answer"))
	require.NoError(t, s.Append("bob", RoleUser, "unrelated"))

	turns, err := s.Load("alice")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, RoleUser, turns[0].Role)
	assert.Equal(t, "first question", turns[0].Content)
	assert.Equal(t, "first answer", turns[1].Content)

	other, err := s.Load("bob")
	require.NoError(t, err)
	require.Len(t, other, 1)
}

func TestStoreLoadUnknownUser(t *testing.T) {
	s := newTestStore(t)

	turns, err := s.Load("nobody")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestStoreSaveReplaces(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Append("alice", RoleUser, "old"))
	require.NoError(t, s.Save("alice", []Turn{
		{Role: RoleUser, Content: "new one"},
		{Role: RoleAssistant, Content: "new two"},
	}))

	turns, err := s.Load("alice")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "new one", turns[0].Content)
}

func TestStoreClear(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Append("alice", RoleUser, "q"))
	require.NoError(t, s.Clear("alice"))

	turns, err := s.Load("alice")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestStoreOrderingSurvivesManyAppends(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 20; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		require.NoError(t, s.Append("alice", role, string(rune('a'+i))))
	}
	turns, err := s.Load("alice")
	require.NoError(t, err)
	require.Len(t, turns, 20)
	for i, turn := range turns {
		assert.Equal(t, string(rune('a'+i)), turn.Content)
	}
}
