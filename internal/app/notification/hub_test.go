package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/localbox/internal/app/queue"
	"github.com/osa030/localbox/internal/domain/library"
	"github.com/osa030/localbox/internal/domain/track"
)

func TestHub_InitialState(t *testing.T) {
	h := NewHub()
	defer h.Close()

	s := h.Snapshot()

	assert.Empty(t, s.LibraryView)
	assert.Equal(t, queue.NoIndex, s.Queue.Index)
	assert.Nil(t, s.NowPlaying)
	assert.False(t, s.IsPlaying)
	assert.Zero(t, s.PositionMs)
	assert.Zero(t, s.DurationMs)
	assert.False(t, s.IsScanning)
	assert.Empty(t, s.MusicFolders)
}

func TestHub_FieldsAndSnapshotAgree(t *testing.T) {
	h := NewHub()
	defer h.Close()
	a := track.New("/a.mp3", "A", "X", "Y")

	h.PublishNowPlaying(&a)
	h.PublishIsPlaying(true)
	h.PublishPosition(1200)
	h.PublishDuration(180000)
	h.PublishQueue(queue.Queue{Tracks: []track.Track{a}, Index: 0})
	h.PublishLibraryView([]library.Entry{library.Header("A"), library.Row(a)})
	h.PublishScanning(true)
	h.PublishFolders([]string{"/music"})

	s := h.Snapshot()
	require.NotNil(t, s.NowPlaying)
	assert.Equal(t, a, *s.NowPlaying)
	assert.Equal(t, a, *h.NowPlaying.Get())
	assert.True(t, h.IsPlaying.Get())
	assert.Equal(t, int64(1200), h.PositionMs.Get())
	assert.Equal(t, int64(180000), s.DurationMs)
	assert.Equal(t, 0, h.Queue.Get().Index)
	assert.Len(t, h.LibraryView.Get(), 2)
	assert.True(t, s.IsScanning)
	assert.Equal(t, []string{"/music"}, h.MusicFolders.Get())
	assert.Equal(t, uint64(8), s.SequenceNo)
}

func TestHub_PublishCopiesInput(t *testing.T) {
	h := NewHub()
	defer h.Close()
	a := track.New("/a.mp3", "A", "X", "Y")
	folders := []string{"/music"}

	h.PublishNowPlaying(&a)
	h.PublishFolders(folders)
	a.Title = "changed"
	folders[0] = "/changed"

	assert.Equal(t, "A", h.NowPlaying.Get().Title)
	assert.Equal(t, "/music", h.MusicFolders.Get()[0])
}

func TestHub_NegativePositionIsClamped(t *testing.T) {
	h := NewHub()
	defer h.Close()

	h.PublishPosition(-5)

	assert.Zero(t, h.PositionMs.Get())
}

func TestHub_SubscribeCoalescesSnapshots(t *testing.T) {
	h := NewHub()
	defer h.Close()

	sub := h.Subscribe()
	first := <-sub.C
	assert.Equal(t, uint64(0), first.SequenceNo)

	h.PublishPosition(1000)
	h.PublishPosition(2000)
	h.PublishIsPlaying(true)

	latest := <-sub.C
	assert.Equal(t, int64(2000), latest.PositionMs)
	assert.True(t, latest.IsPlaying)
	assert.Equal(t, uint64(3), latest.SequenceNo)

	assert.Equal(t, 1, h.SubscriberCount())
	h.Unsubscribe(sub.ID)
	assert.Equal(t, 0, h.SubscriberCount())
}
