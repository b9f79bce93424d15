package playback

import "github.com/osa030/localbox/internal/domain/track"

// EventType represents a playback event type.
type EventType int

const (
	EventTrackStarted EventType = iota // Track handed to the engine
	EventStateChanged                  // Transport state changed
	EventQueueEnded                    // Last track finished or skipped past
	EventEngineError                   // Engine reported an error
	EventStopped                       // Controller torn down
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackStarted:
		return "track_started"
	case EventStateChanged:
		return "state_changed"
	case EventQueueEnded:
		return "queue_ended"
	case EventEngineError:
		return "engine_error"
	case EventStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type  EventType
	Track *track.Track // Current track (nil for some events)
	State State        // Transport state after the event
	Err   error        // EventEngineError only
}
