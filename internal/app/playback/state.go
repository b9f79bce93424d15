// Package playback provides the transport state machine that drives a player engine.
package playback

import (
	"github.com/osa030/localbox/internal/app/queue"
	"github.com/osa030/localbox/internal/domain/track"
)

// State represents the transport state.
type State int

const (
	StateIdle    State = iota // Nothing selected yet
	StateLoading              // Track handed to the engine, not ready yet
	StatePlaying              // Engine reports playing
	StatePaused               // Engine reports paused
	StateEnded                // Queue ran out
	StateStopped              // Torn down; terminal
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// hasTrack reports whether the state has a track handed to the engine.
func (s State) hasTrack() bool {
	return s == StateLoading || s == StatePlaying || s == StatePaused
}

// StateNames returns the names of all states.
func StateNames() []string {
	return []string{"idle", "loading", "playing", "paused", "ended", "stopped"}
}

// Snapshot is a read-only copy of the transport state.
type Snapshot struct {
	State      State
	IsPlaying  bool
	PositionMs int64
	DurationMs int64
	NowPlaying *track.Track
	Queue      queue.Queue
}
