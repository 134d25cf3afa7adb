package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage(t *testing.T) {
	s := NewMemoryStorage()

	_, ok := s.Get(KeyToken)
	assert.False(t, ok)

	require.NoError(t, s.Set(KeyToken, "abc"))
	v, ok := s.Get(KeyToken)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	require.NoError(t, s.Remove(KeyToken))
	_, ok = s.Get(KeyToken)
	assert.False(t, ok)
}

func TestFileStorage_PersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qactl", "state.json")

	s, err := OpenFileStorage(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(KeyToken, "tok"))
	require.NoError(t, s.Set(KeyTheme, "dark"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := OpenFileStorage(path)
	require.NoError(t, err)
	v, ok := reopened.Get(KeyTheme)
	assert.True(t, ok)
	assert.Equal(t, "dark", v)

	require.NoError(t, reopened.Remove(KeyToken))
	again, err := OpenFileStorage(path)
	require.NoError(t, err)
	_, ok = again.Get(KeyToken)
	assert.False(t, ok)
}

func TestFileStorage_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := OpenFileStorage(path)
	assert.Error(t, err)
}
