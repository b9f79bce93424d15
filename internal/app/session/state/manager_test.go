package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/localbox/internal/domain/library"
	"github.com/osa030/localbox/internal/domain/track"
)

func TestManager_ScanSingleFlight(t *testing.T) {
	m := New(library.SortTitle, nil)
	now := time.Now()

	require.True(t, m.BeginScan())
	assert.Equal(t, ScanRunning, m.GetScanPhase())
	assert.True(t, m.IsScanning())

	assert.False(t, m.BeginScan())
	assert.False(t, m.BeginScan())
	assert.Equal(t, ScanPending, m.GetScanPhase())

	assert.True(t, m.FinishScan(now), "pending request triggers one rerun")
	assert.Equal(t, ScanRunning, m.GetScanPhase())

	assert.False(t, m.FinishScan(now))
	assert.Equal(t, ScanIdle, m.GetScanPhase())
	assert.False(t, m.IsScanning())

	info := m.BuildInfo()
	require.NotNil(t, info.LastScanAt)
	assert.True(t, now.Equal(*info.LastScanAt))
}

func TestManager_TracksAreCopied(t *testing.T) {
	m := New(library.SortArtist, []string{"/music"})
	tracks := []track.Track{track.New("/music/a.mp3", "A", "", "")}

	m.SetTracks(tracks)
	tracks[0] = track.New("/changed.mp3", "", "", "")

	got := m.Tracks()
	assert.Equal(t, "/music/a.mp3", got[0].Locator)
	got[0] = track.New("/changed.mp3", "", "", "")
	assert.Equal(t, "/music/a.mp3", m.Tracks()[0].Locator)

	found, ok := m.FindTrack("/music/a.mp3")
	assert.True(t, ok)
	assert.Equal(t, "A", found.Title)
	_, ok = m.FindTrack("/missing.mp3")
	assert.False(t, ok)

	m.SetTracks(nil)
	assert.NotNil(t, m.Tracks())
	assert.Empty(t, m.Tracks())
}

func TestManager_SortKeyAndFolders(t *testing.T) {
	m := New(library.SortNone, []string{"/a"})

	m.SetSortKey(library.SortAlbum)
	m.SetFolders([]string{"/a", "/b"})

	info := m.BuildInfo()
	assert.Equal(t, library.SortAlbum, info.SortKey)
	assert.Equal(t, []string{"/a", "/b"}, info.Folders)
	assert.Equal(t, 0, info.TrackCount)
	assert.Equal(t, ScanIdle, info.ScanPhase)
	assert.Nil(t, info.LastScanAt)
}

func TestScanPhase_String(t *testing.T) {
	assert.Equal(t, "idle", ScanIdle.String())
	assert.Equal(t, "running", ScanRunning.String())
	assert.Equal(t, "pending", ScanPending.String())
	assert.Equal(t, "unknown", ScanPhase(9).String())
}
