package engine

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/localbox/internal/app/playback"
)

// NullSettings configures the simulated engine.
type NullSettings struct {
	TrackDurationMs int64 `mapstructure:"track_duration_ms" default:"180000" validate:"gt=0"`
}

// NullEngine renders nothing. It advances a wall clock while playing and
// reports the end of each track after TrackDurationMs.
type NullEngine struct {
	mu       sync.Mutex
	settings NullSettings
	events   chan playback.EngineEvent

	locator   string
	playing   bool
	basePosMs int64     // Position at the last pause or seek
	startedAt time.Time // Wall time of the last play or seek while playing
	endTimer  *time.Timer
	gen       uint64 // Invalidates end timers armed for an older position
}

// NewNullEngine creates a simulated engine.
func NewNullEngine(settings map[string]any) (*NullEngine, error) {
	var s NullSettings
	if err := decodeSettings(settings, &s); err != nil {
		return nil, err
	}
	zlog.Info().Msgf("null engine config: %+v", s)

	return &NullEngine{
		settings: s,
		events:   make(chan playback.EngineEvent, eventBufferSize),
	}, nil
}

func (e *NullEngine) LoadAndPrepare(locator string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.reset()
	e.locator = locator
	emit(e.events, playback.EngineEvent{Type: playback.EngineReady})
	return nil
}

func (e *NullEngine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.locator == "" {
		return errors.New("null engine: nothing loaded")
	}
	if e.playing {
		return nil
	}
	if e.basePosMs >= e.settings.TrackDurationMs {
		e.basePosMs = 0
	}
	e.playing = true
	e.startedAt = time.Now()
	e.armEnd()
	emit(e.events, playback.EngineEvent{Type: playback.EngineIsPlayingChanged, Playing: true})
	return nil
}

func (e *NullEngine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.playing {
		return nil
	}
	e.basePosMs = e.positionLocked()
	e.playing = false
	e.disarmEnd()
	emit(e.events, playback.EngineEvent{Type: playback.EngineIsPlayingChanged, Playing: false})
	return nil
}

func (e *NullEngine) SeekTo(positionMs int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.locator == "" {
		return errors.New("null engine: nothing loaded")
	}
	e.basePosMs = min(max(positionMs, 0), e.settings.TrackDurationMs)
	if e.playing {
		e.startedAt = time.Now()
		e.armEnd()
	}
	return nil
}

func (e *NullEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	wasPlaying := e.playing
	e.reset()
	if wasPlaying {
		emit(e.events, playback.EngineEvent{Type: playback.EngineIsPlayingChanged, Playing: false})
	}
	return nil
}

func (e *NullEngine) Release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset()
}

func (e *NullEngine) CurrentPositionMs() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positionLocked()
}

func (e *NullEngine) DurationMs() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.locator == "" {
		return 0
	}
	return e.settings.TrackDurationMs
}

func (e *NullEngine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

func (e *NullEngine) Events() <-chan playback.EngineEvent {
	return e.events
}

func (e *NullEngine) positionLocked() int64 {
	if !e.playing {
		return e.basePosMs
	}
	pos := e.basePosMs + time.Since(e.startedAt).Milliseconds()
	return min(pos, e.settings.TrackDurationMs)
}

func (e *NullEngine) reset() {
	e.disarmEnd()
	e.locator = ""
	e.playing = false
	e.basePosMs = 0
}

// armEnd schedules the end-of-track event for the remaining duration.
func (e *NullEngine) armEnd() {
	e.disarmEnd()
	gen := e.gen
	remaining := time.Duration(e.settings.TrackDurationMs-e.basePosMs) * time.Millisecond
	e.endTimer = time.AfterFunc(remaining, func() { e.onEnd(gen) })
}

func (e *NullEngine) disarmEnd() {
	e.gen++
	if e.endTimer != nil {
		e.endTimer.Stop()
		e.endTimer = nil
	}
}

func (e *NullEngine) onEnd(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.gen || !e.playing {
		return
	}
	e.playing = false
	e.basePosMs = e.settings.TrackDurationMs
	e.endTimer = nil
	zlog.Debug().Msgf("null engine: track ended: locator=%s", e.locator)
	emit(e.events, playback.EngineEvent{Type: playback.EngineEnded})
}
