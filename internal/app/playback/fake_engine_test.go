package playback

import (
	"sync"

	"github.com/cockroachdb/errors"
)

// fakeEngine mimics a player: LoadAndPrepare reports Ready, Play/Pause
// report the playing flag, and End reports a natural track end.
type fakeEngine struct {
	mu         sync.Mutex
	loaded     []string
	seeks      []int64
	playing    bool
	positionMs int64
	durationMs int64
	stops      int
	released   bool
	failLoad   bool

	events chan EngineEvent
}

func newFakeEngine(durationMs int64) *fakeEngine {
	return &fakeEngine{
		durationMs: durationMs,
		events:     make(chan EngineEvent, 64),
	}
}

func (e *fakeEngine) emit(ev EngineEvent) {
	select {
	case e.events <- ev:
	default:
	}
}

func (e *fakeEngine) LoadAndPrepare(locator string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failLoad {
		return errors.Newf("cannot open %s", locator)
	}
	e.loaded = append(e.loaded, locator)
	e.positionMs = 0
	e.emit(EngineEvent{Type: EngineReady})
	return nil
}

func (e *fakeEngine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.playing {
		e.playing = true
		e.emit(EngineEvent{Type: EngineIsPlayingChanged, Playing: true})
	}
	return nil
}

func (e *fakeEngine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.playing {
		e.playing = false
		e.emit(EngineEvent{Type: EngineIsPlayingChanged, Playing: false})
	}
	return nil
}

func (e *fakeEngine) SeekTo(positionMs int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seeks = append(e.seeks, positionMs)
	e.positionMs = positionMs
	return nil
}

func (e *fakeEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stops++
	if e.playing {
		e.playing = false
		e.emit(EngineEvent{Type: EngineIsPlayingChanged, Playing: false})
	}
	return nil
}

func (e *fakeEngine) Release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.released = true
}

func (e *fakeEngine) CurrentPositionMs() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positionMs
}

func (e *fakeEngine) DurationMs() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.durationMs
}

func (e *fakeEngine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

func (e *fakeEngine) Events() <-chan EngineEvent {
	return e.events
}

// End simulates the current track playing to completion.
func (e *fakeEngine) End() {
	e.emit(EngineEvent{Type: EngineEnded})
}

// Fail simulates an asynchronous playback error.
func (e *fakeEngine) Fail(err error) {
	e.emit(EngineEvent{Type: EngineError, Err: err})
}

func (e *fakeEngine) setPosition(ms int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.positionMs = ms
}

func (e *fakeEngine) loadedLocators() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.loaded...)
}

func (e *fakeEngine) seekLog() []int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int64(nil), e.seeks...)
}

func (e *fakeEngine) stopCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stops
}

func (e *fakeEngine) isReleased() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.released
}
