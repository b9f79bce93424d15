package prefs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/localbox/internal/domain/library"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SortKey(t *testing.T) {
	s := openMemory(t)

	key, err := s.SortKey()
	require.NoError(t, err)
	assert.Equal(t, library.SortNone, key)

	require.NoError(t, s.SetSortKey(library.SortArtist))
	require.NoError(t, s.SetSortKey(library.SortAlbum))

	key, err = s.SortKey()
	require.NoError(t, err)
	assert.Equal(t, library.SortAlbum, key)
}

func TestStore_Folders(t *testing.T) {
	s := openMemory(t)

	folders, err := s.Folders()
	require.NoError(t, err)
	assert.Empty(t, folders)

	require.NoError(t, s.AddFolder("/music"))
	require.NoError(t, s.AddFolder("/podcasts"))
	require.NoError(t, s.AddFolder("/music"))

	folders, err = s.Folders()
	require.NoError(t, err)
	assert.Equal(t, []string{"/music", "/podcasts"}, folders)

	require.NoError(t, s.RemoveFolder("/music"))
	require.NoError(t, s.RemoveFolder("/unknown"))

	folders, err = s.Folders()
	require.NoError(t, err)
	assert.Equal(t, []string{"/podcasts"}, folders)
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SetSortKey(library.SortTitle))
	require.NoError(t, s.AddFolder("/music"))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	key, err := s.SortKey()
	require.NoError(t, err)
	assert.Equal(t, library.SortTitle, key)

	folders, err := s.Folders()
	require.NoError(t, err)
	assert.Equal(t, []string{"/music"}, folders)
}
