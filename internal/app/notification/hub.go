// Package notification broadcasts playback and library state to observers.
package notification

import (
	"slices"
	"sync"

	"github.com/osa030/localbox/internal/app/queue"
	"github.com/osa030/localbox/internal/domain/library"
	"github.com/osa030/localbox/internal/domain/track"
	"github.com/osa030/localbox/internal/metrics"
)

// State is a full snapshot of every observable field.
type State struct {
	SequenceNo   uint64
	LibraryView  []library.Entry
	Queue        queue.Queue
	NowPlaying   *track.Track
	IsPlaying    bool
	PositionMs   int64
	DurationMs   int64
	IsScanning   bool
	MusicFolders []string
}

// Hub holds the observable fields and a combined snapshot stream.
// Each field can be observed on its own; Subscribe observes all of them.
type Hub struct {
	LibraryView  *Value[[]library.Entry]
	Queue        *Value[queue.Queue]
	NowPlaying   *Value[*track.Track]
	IsPlaying    *Value[bool]
	PositionMs   *Value[int64]
	DurationMs   *Value[int64]
	IsScanning   *Value[bool]
	MusicFolders *Value[[]string]

	mu       sync.Mutex
	snapshot State
	states   *Value[State]
}

// NewHub creates a hub with empty state.
func NewHub() *Hub {
	initial := State{
		LibraryView:  []library.Entry{},
		Queue:        queue.Empty(),
		MusicFolders: []string{},
	}
	return &Hub{
		LibraryView:  NewValue(initial.LibraryView),
		Queue:        NewValue(initial.Queue),
		NowPlaying:   NewValue[*track.Track](nil),
		IsPlaying:    NewValue(false),
		PositionMs:   NewValue[int64](0),
		DurationMs:   NewValue[int64](0),
		IsScanning:   NewValue(false),
		MusicFolders: NewValue(initial.MusicFolders),
		snapshot:     initial,
		states:       NewValue(initial),
	}
}

// update applies fn to the snapshot and broadcasts the result.
func (h *Hub) update(fn func(s *State)) {
	h.mu.Lock()
	defer h.mu.Unlock()

	fn(&h.snapshot)
	h.snapshot.SequenceNo++
	h.states.Set(h.snapshot)
}

// PublishLibraryView publishes a new library view.
func (h *Hub) PublishLibraryView(entries []library.Entry) {
	entries = slices.Clone(entries)
	if entries == nil {
		entries = []library.Entry{}
	}
	h.update(func(s *State) {
		s.LibraryView = entries
		h.LibraryView.Set(entries)
	})
}

// PublishQueue publishes the queue and its current index.
func (h *Hub) PublishQueue(q queue.Queue) {
	q = q.Snapshot()
	h.update(func(s *State) {
		s.Queue = q
		h.Queue.Set(q)
	})
}

// PublishNowPlaying publishes the current track; nil means nothing is loaded.
func (h *Hub) PublishNowPlaying(t *track.Track) {
	if t != nil {
		cp := *t
		t = &cp
	}
	h.update(func(s *State) {
		s.NowPlaying = t
		h.NowPlaying.Set(t)
	})
}

// PublishIsPlaying publishes the engine's playing flag.
func (h *Hub) PublishIsPlaying(playing bool) {
	h.update(func(s *State) {
		s.IsPlaying = playing
		h.IsPlaying.Set(playing)
	})
}

// PublishPosition publishes the playback position.
func (h *Hub) PublishPosition(ms int64) {
	ms = max(ms, 0)
	h.update(func(s *State) {
		s.PositionMs = ms
		h.PositionMs.Set(ms)
	})
}

// PublishDuration publishes the duration of the current track.
func (h *Hub) PublishDuration(ms int64) {
	ms = max(ms, 0)
	h.update(func(s *State) {
		s.DurationMs = ms
		h.DurationMs.Set(ms)
	})
}

// PublishScanning publishes whether a library scan is running.
func (h *Hub) PublishScanning(scanning bool) {
	h.update(func(s *State) {
		s.IsScanning = scanning
		h.IsScanning.Set(scanning)
	})
}

// PublishFolders publishes the configured music folders.
func (h *Hub) PublishFolders(folders []string) {
	folders = slices.Clone(folders)
	if folders == nil {
		folders = []string{}
	}
	h.update(func(s *State) {
		s.MusicFolders = folders
		h.MusicFolders.Set(folders)
	})
}

// Snapshot returns the latest combined state.
func (h *Hub) Snapshot() State {
	return h.states.Get()
}

// Subscribe observes the combined state. The channel starts with the
// current snapshot and then coalesces to the latest one.
func (h *Hub) Subscribe() *Subscription[State] {
	sub := h.states.Subscribe()
	metrics.Subscribers.Set(float64(h.states.SubscriberCount()))
	return sub
}

// Unsubscribe removes a combined-state subscription.
func (h *Hub) Unsubscribe(subscriptionID string) {
	h.states.Unsubscribe(subscriptionID)
	metrics.Subscribers.Set(float64(h.states.SubscriberCount()))
}

// SubscriberCount returns the number of combined-state subscribers.
func (h *Hub) SubscriberCount() int {
	return h.states.SubscriberCount()
}

// Close closes every stream of the hub.
func (h *Hub) Close() {
	h.LibraryView.Close()
	h.Queue.Close()
	h.NowPlaying.Close()
	h.IsPlaying.Close()
	h.PositionMs.Close()
	h.DurationMs.Close()
	h.IsScanning.Close()
	h.MusicFolders.Close()
	h.states.Close()
	metrics.Subscribers.Set(0)
}
