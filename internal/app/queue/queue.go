// Package queue derives playback queues from a library selection and
// computes next/previous steps.
package queue

import "github.com/osa030/localbox/internal/domain/track"

// RestartThresholdMs is the position past which "previous" restarts the
// current track instead of stepping back.
const RestartThresholdMs int64 = 3000

// NoIndex marks a queue with no current track.
const NoIndex = -1

// Queue is an ordered play sequence plus the current index.
// Index is either NoIndex or within bounds.
type Queue struct {
	Tracks []track.Track
	Index  int
}

// Empty returns a queue with no tracks and no current index.
func Empty() Queue {
	return Queue{Index: NoIndex}
}

// Len returns the number of tracks in the queue.
func (q Queue) Len() int {
	return len(q.Tracks)
}

// InBounds reports whether i addresses a track of the queue.
func (q Queue) InBounds(i int) bool {
	return i >= 0 && i < len(q.Tracks)
}

// Current returns the current track, if any.
func (q Queue) Current() (track.Track, bool) {
	if !q.InBounds(q.Index) {
		return track.Track{}, false
	}
	return q.Tracks[q.Index], true
}

// WithIndex returns a copy pointing at i, or NoIndex when i is out of bounds.
func (q Queue) WithIndex(i int) Queue {
	if !q.InBounds(i) {
		i = NoIndex
	}
	return Queue{Tracks: q.Tracks, Index: i}
}

// Snapshot returns a copy whose track slice is not shared with q.
func (q Queue) Snapshot() Queue {
	tracks := make([]track.Track, len(q.Tracks))
	copy(tracks, q.Tracks)
	return Queue{Tracks: tracks, Index: q.Index}
}

// Derive builds the queue for a selection: every library track on the same
// album, in library (scan) order, starting at the selected track.
// If the selection cannot be located, the queue holds only the selection.
func Derive(selected track.Track, library []track.Track) (Queue, int) {
	tracks := make([]track.Track, 0)
	for _, t := range library {
		if t.Album == selected.Album {
			tracks = append(tracks, t)
		}
	}

	start := track.IndexOf(tracks, selected.Locator)
	if start < 0 {
		return Queue{Tracks: []track.Track{selected}, Index: 0}, 0
	}
	return Queue{Tracks: tracks, Index: start}, start
}

// Next returns the index after the current one. Bounds are checked by the caller.
func Next(q Queue) int {
	return q.Index + 1
}

// PreviousKind is the outcome of a "previous" request.
type PreviousKind int

const (
	NoOp           PreviousKind = iota // Already at the first track, near its start
	RestartCurrent                     // Seek the current track to 0
	StepBack                           // Play the track at Target
)

// String returns the string representation of the previous kind.
func (k PreviousKind) String() string {
	switch k {
	case NoOp:
		return "noop"
	case RestartCurrent:
		return "restart_current"
	case StepBack:
		return "step_back"
	default:
		return "unknown"
	}
}

// PreviousAction tells the transport what "previous" means right now.
type PreviousAction struct {
	Kind   PreviousKind
	Target int // Queue index for StepBack
}

// Previous decides between restarting the current track and stepping back.
func Previous(q Queue, positionMs int64) PreviousAction {
	return PreviousWithThreshold(q, positionMs, RestartThresholdMs)
}

// PreviousWithThreshold is Previous with a configurable restart threshold.
func PreviousWithThreshold(q Queue, positionMs, thresholdMs int64) PreviousAction {
	if positionMs > thresholdMs {
		return PreviousAction{Kind: RestartCurrent, Target: q.Index}
	}
	if q.Index > 0 {
		return PreviousAction{Kind: StepBack, Target: q.Index - 1}
	}
	return PreviousAction{Kind: NoOp, Target: q.Index}
}
