package playback

import (
	"github.com/osa030/localbox/internal/app/queue"
	"github.com/osa030/localbox/internal/domain/track"
)

// EngineEventType identifies an asynchronous engine notification.
type EngineEventType int

const (
	EngineReady            EngineEventType = iota // Loaded track is ready; duration known
	EngineEnded                                   // Track played to the end
	EngineIsPlayingChanged                        // Playing flag flipped
	EngineError                                   // Playback failed
)

// String returns the string representation of the engine event type.
func (t EngineEventType) String() string {
	switch t {
	case EngineReady:
		return "ready"
	case EngineEnded:
		return "ended"
	case EngineIsPlayingChanged:
		return "is_playing_changed"
	case EngineError:
		return "error"
	default:
		return "unknown"
	}
}

// EngineEvent is one notification from the engine.
type EngineEvent struct {
	Type    EngineEventType
	Playing bool  // EngineIsPlayingChanged only
	Err     error // EngineError only
}

// Engine decodes and renders audio. Implementations must be safe for
// concurrent use: the position poller reads them from its own goroutine.
// Events must not block the engine when nobody is reading.
type Engine interface {
	LoadAndPrepare(locator string) error
	Play() error
	Pause() error
	SeekTo(positionMs int64) error
	Stop() error
	Release()

	CurrentPositionMs() int64
	DurationMs() int64
	IsPlaying() bool

	Events() <-chan EngineEvent
}

// Publisher receives transport state changes.
type Publisher interface {
	PublishQueue(q queue.Queue)
	PublishNowPlaying(t *track.Track)
	PublishIsPlaying(playing bool)
	PublishPosition(ms int64)
	PublishDuration(ms int64)
}
