package fsource

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_Enumerate(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.mp3"), []byte("bbbb"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.flac"), []byte("a"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "album"), 0o755))

	handles, err := New().Enumerate(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, handles, 3)

	assert.Equal(t, "a.flac", handles[0].Name())
	assert.Equal(t, filepath.Join(root, "a.flac"), handles[0].Locator())
	assert.False(t, handles[0].IsDirectory())
	assert.Equal(t, int64(1), handles[0].Size())

	assert.Equal(t, "album", handles[1].Name())
	assert.True(t, handles[1].IsDirectory())

	rc, err := handles[2].Open()
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "bbbb", string(data))
}

func TestSource_EnumerateErrors(t *testing.T) {
	_, err := New().Enumerate(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New().Enumerate(ctx, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}
