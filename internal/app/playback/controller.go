package playback

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/localbox/internal/app/notification"
	"github.com/osa030/localbox/internal/app/queue"
	"github.com/osa030/localbox/internal/domain/track"
	"github.com/osa030/localbox/internal/metrics"
)

// DefaultSeekStepMs is the rewind/fast-forward step.
const DefaultSeekStepMs int64 = 10000

const (
	inboxSize       = 64
	eventBufferSize = 32
)

// Config holds controller configuration.
type Config struct {
	PollInterval       time.Duration // Position sampling period while playing
	SeekStepMs         int64         // Rewind/fast-forward step
	RestartThresholdMs int64         // "Previous" restarts the track past this position
}

// command is a unit of work for the actor goroutine. Commands without a
// name are internal (engine events, poller ticks) and are not counted.
type command struct {
	name string
	run  func()
}

// binding is either connected (engine set) or disconnected (zero value).
type binding struct {
	engine Engine
	cancel context.CancelFunc // Stops the engine event forwarder
	gen    uint64
}

func (b binding) connected() bool {
	return b.engine != nil
}

// Controller is the transport state machine. A single goroutine owns all
// transport state; every exported method only enqueues work for it.
type Controller struct {
	config Config
	pub    Publisher
	poller *notification.Poller

	inbox    chan command
	events   chan Event
	done     chan struct{}
	stopOnce sync.Once

	last atomic.Pointer[Snapshot]

	// Owned by the actor goroutine
	state      State
	queue      queue.Queue
	binding    binding
	bindGen    uint64
	pollGen    uint64
	isPlaying  bool
	positionMs int64
	durationMs int64
}

// NewController creates a controller and starts its actor goroutine.
// It starts disconnected; call Connect to attach an engine.
func NewController(config Config, pub Publisher) *Controller {
	if config.SeekStepMs <= 0 {
		config.SeekStepMs = DefaultSeekStepMs
	}
	if config.RestartThresholdMs <= 0 {
		config.RestartThresholdMs = queue.RestartThresholdMs
	}

	c := &Controller{
		config: config,
		pub:    pub,
		poller: notification.NewPoller(config.PollInterval),
		inbox:  make(chan command, inboxSize),
		events: make(chan Event, eventBufferSize),
		done:   make(chan struct{}),
		state:  StateIdle,
		queue:  queue.Empty(),
	}
	c.storeSnapshot()
	metrics.SetPlaybackState(StateNames(), c.state.String())

	go c.run()
	return c
}

// Events returns the event channel. It is closed once the controller stops.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// Done is closed once the controller has stopped.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Snapshot returns the transport state as of the last handled command.
func (c *Controller) Snapshot() Snapshot {
	return *c.last.Load()
}

// PlayQueue replaces the queue and plays the track at its index.
func (c *Controller) PlayQueue(q queue.Queue) {
	q = q.Snapshot()
	c.post("play", func() { c.playQueue(q) })
}

// TogglePlayPause pauses or resumes based on what the engine reports.
func (c *Controller) TogglePlayPause() {
	c.post("toggle", c.togglePlayPause)
}

// SeekTo moves the engine to positionMs. The position is published by the
// next poller sample, not here.
func (c *Controller) SeekTo(positionMs int64) {
	c.post("seek", func() { c.seekTo(positionMs) })
}

// SkipNext plays the next queue track, or ends playback after the last one.
func (c *Controller) SkipNext() {
	c.post("next", c.skipNext)
}

// SkipPrevious restarts the current track or steps back one track.
func (c *Controller) SkipPrevious() {
	c.post("previous", c.skipPrevious)
}

// Rewind seeks back by the configured step.
func (c *Controller) Rewind() {
	c.post("rewind", func() { c.stepBy(-c.config.SeekStepMs) })
}

// FastForward seeks forward by the configured step.
func (c *Controller) FastForward() {
	c.post("forward", func() { c.stepBy(c.config.SeekStepMs) })
}

// Connect attaches an engine, replacing any previous one.
func (c *Controller) Connect(e Engine) {
	c.post("connect", func() { c.connect(e) })
}

// Disconnect detaches the engine. Commands that need it become no-ops.
func (c *Controller) Disconnect() {
	c.post("disconnect", c.disconnect)
}

// Stop tears the controller down: the poller is cancelled and the engine
// stopped and released before the actor exits. Later commands are ignored.
// Stop is idempotent and blocks until teardown is complete.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		c.post("stop", c.stop)
	})
	<-c.done
}

func (c *Controller) post(name string, fn func()) bool {
	select {
	case <-c.done:
		zlog.Debug().Msgf("playback: ignoring command after stop: command=%s", name)
		return false
	default:
	}

	select {
	case c.inbox <- command{name: name, run: fn}:
		return true
	case <-c.done:
		zlog.Debug().Msgf("playback: ignoring command after stop: command=%s", name)
		return false
	}
}

func (c *Controller) run() {
	defer close(c.done)
	defer close(c.events)

	for cmd := range c.inbox {
		if cmd.name != "" {
			metrics.PlaybackCommandsTotal.WithLabelValues(cmd.name).Inc()
		}
		cmd.run()
		c.storeSnapshot()

		if c.state == StateStopped {
			zlog.Info().Msg("playback: controller stopped")
			return
		}
	}
}

func (c *Controller) storeSnapshot() {
	var now *track.Track
	if t, ok := c.queue.Current(); ok {
		now = &t
	}
	c.last.Store(&Snapshot{
		State:      c.state,
		IsPlaying:  c.isPlaying,
		PositionMs: c.positionMs,
		DurationMs: c.durationMs,
		NowPlaying: now,
		Queue:      c.queue.Snapshot(),
	})
}

func (c *Controller) playQueue(q queue.Queue) {
	if !q.InBounds(q.Index) {
		zlog.Warn().Msgf("playback: ignoring queue without a current track: tracks=%d index=%d", q.Len(), q.Index)
		return
	}
	c.queue = q
	c.play(q.Index)
}

// play loads the queue track at index. Callers check bounds.
func (c *Controller) play(index int) {
	c.queue = c.queue.WithIndex(index)
	t, ok := c.queue.Current()
	if !ok {
		return
	}

	c.disarmPoller()
	c.setState(StateLoading)
	c.positionMs = 0
	c.pub.PublishQueue(c.queue)
	c.pub.PublishNowPlaying(&t)
	c.pub.PublishPosition(0)

	metrics.PlaybackTracksStarted.Inc()
	c.emit(Event{Type: EventTrackStarted, Track: &t, State: c.state})
	c.load(t)
}

func (c *Controller) load(t track.Track) {
	eng, ok := c.engine("load")
	if !ok {
		return
	}
	zlog.Info().Msgf("playback: loading track: locator=%s title=%s", t.Locator, t.Title)

	if err := eng.LoadAndPrepare(t.Locator); err != nil {
		c.engineFailed(errors.Wrapf(err, "failed to load %s", t.Locator))
		return
	}
	if err := eng.Play(); err != nil {
		c.engineFailed(errors.Wrap(err, "failed to start playback"))
	}
}

// advance moves to the next track or ends the queue. Natural track end and
// SkipNext share it, so both use the same bounds check.
func (c *Controller) advance() {
	next := queue.Next(c.queue)
	if c.queue.InBounds(next) {
		c.play(next)
		return
	}
	c.finish()
}

func (c *Controller) finish() {
	c.disarmPoller()
	if eng, ok := c.engine("stop"); ok {
		if err := eng.Stop(); err != nil {
			zlog.Warn().Msgf("playback: failed to stop engine at end of queue: %v", err)
		}
	}

	c.queue = c.queue.WithIndex(queue.NoIndex)
	c.setState(StateEnded)
	c.clearTransport()
	c.pub.PublishQueue(c.queue)

	zlog.Info().Msgf("playback: queue ended: tracks=%d", c.queue.Len())
	c.emit(Event{Type: EventQueueEnded, State: c.state})
}

func (c *Controller) clearTransport() {
	c.isPlaying = false
	c.positionMs = 0
	c.durationMs = 0
	c.pub.PublishNowPlaying(nil)
	c.pub.PublishIsPlaying(false)
	c.pub.PublishPosition(0)
	c.pub.PublishDuration(0)
}

func (c *Controller) togglePlayPause() {
	eng, ok := c.currentEngine("toggle")
	if !ok {
		return
	}

	var err error
	if eng.IsPlaying() {
		err = eng.Pause()
	} else {
		err = eng.Play()
	}
	if err != nil {
		c.engineFailed(errors.Wrap(err, "failed to toggle playback"))
	}
}

func (c *Controller) seekTo(positionMs int64) {
	eng, ok := c.currentEngine("seek")
	if !ok {
		return
	}
	if err := eng.SeekTo(max(positionMs, 0)); err != nil {
		c.engineFailed(errors.Wrap(err, "failed to seek"))
	}
}

func (c *Controller) skipNext() {
	if _, ok := c.queue.Current(); !ok {
		zlog.Debug().Msg("playback: skip next without a current track")
		return
	}
	c.advance()
}

func (c *Controller) skipPrevious() {
	if _, ok := c.queue.Current(); !ok {
		zlog.Debug().Msg("playback: skip previous without a current track")
		return
	}

	position := c.positionMs
	if eng, ok := c.engine("position"); ok {
		position = eng.CurrentPositionMs()
	}

	action := queue.PreviousWithThreshold(c.queue, position, c.config.RestartThresholdMs)
	zlog.Debug().Msgf("playback: skip previous: action=%s position=%d index=%d", action.Kind, position, c.queue.Index)

	switch action.Kind {
	case queue.RestartCurrent:
		c.seekAndPublish(0)
	case queue.StepBack:
		c.play(action.Target)
	case queue.NoOp:
	}
}

func (c *Controller) stepBy(deltaMs int64) {
	eng, ok := c.currentEngine("step")
	if !ok {
		return
	}
	target := clamp(eng.CurrentPositionMs()+deltaMs, 0, max(eng.DurationMs(), 0))
	c.seekAndPublish(target)
}

func (c *Controller) seekAndPublish(positionMs int64) {
	eng, ok := c.engine("seek")
	if !ok {
		return
	}
	if err := eng.SeekTo(positionMs); err != nil {
		c.engineFailed(errors.Wrap(err, "failed to seek"))
		return
	}
	c.positionMs = positionMs
	c.pub.PublishPosition(positionMs)
}

func (c *Controller) connect(eng Engine) {
	if c.binding.connected() {
		if c.binding.engine == eng {
			return
		}
		c.disconnect()
	}

	c.bindGen++
	ctx, cancel := context.WithCancel(context.Background())
	c.binding = binding{engine: eng, cancel: cancel, gen: c.bindGen}
	go c.forward(ctx, c.bindGen, eng.Events())

	// Reconcile published state with engine truth.
	c.isPlaying = eng.IsPlaying()
	c.positionMs = max(eng.CurrentPositionMs(), 0)
	c.durationMs = max(eng.DurationMs(), 0)
	c.pub.PublishIsPlaying(c.isPlaying)
	c.pub.PublishPosition(c.positionMs)
	c.pub.PublishDuration(c.durationMs)
	zlog.Info().Msgf("playback: engine connected: playing=%t position=%d duration=%d",
		c.isPlaying, c.positionMs, c.durationMs)

	// A fresh engine has nothing loaded: restart the current track on it.
	if t, ok := c.queue.Current(); ok && c.state.hasTrack() {
		c.disarmPoller()
		c.setState(StateLoading)
		c.positionMs = 0
		c.pub.PublishPosition(0)
		c.load(t)
		return
	}
	if c.isPlaying {
		c.armPoller(eng)
	}
}

func (c *Controller) disconnect() {
	if !c.binding.connected() {
		return
	}
	c.disarmPoller()
	c.binding.cancel()
	c.binding = binding{}
	zlog.Info().Msg("playback: engine disconnected")
}

func (c *Controller) stop() {
	c.disarmPoller()
	if c.binding.connected() {
		eng := c.binding.engine
		if err := eng.Stop(); err != nil {
			zlog.Warn().Msgf("playback: failed to stop engine: %v", err)
		}
		eng.Release()
		c.binding.cancel()
		c.binding = binding{}
	}

	c.queue = queue.Empty()
	c.clearTransport()
	c.pub.PublishQueue(c.queue)
	c.setState(StateStopped)
	c.emit(Event{Type: EventStopped, State: c.state})
}

// forward copies engine events onto the actor inbox until ctx is cancelled.
func (c *Controller) forward(ctx context.Context, gen uint64, events <-chan EngineEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			cmd := command{run: func() { c.onEngineEvent(gen, ev) }}
			select {
			case c.inbox <- cmd:
			case <-ctx.Done():
				return
			case <-c.done:
				return
			}
		}
	}
}

func (c *Controller) onEngineEvent(gen uint64, ev EngineEvent) {
	if !c.binding.connected() || gen != c.binding.gen {
		zlog.Debug().Msgf("playback: dropping event from stale engine: event=%s", ev.Type)
		return
	}

	switch ev.Type {
	case EngineReady:
		c.onReady()
	case EngineEnded:
		c.onEnded()
	case EngineIsPlayingChanged:
		c.onIsPlayingChanged(ev.Playing)
	case EngineError:
		c.engineFailed(ev.Err)
	}
}

func (c *Controller) onReady() {
	if _, ok := c.queue.Current(); !ok {
		return
	}
	eng := c.binding.engine

	c.durationMs = max(eng.DurationMs(), 0)
	c.pub.PublishDuration(c.durationMs)
	if c.state != StateLoading {
		return
	}

	c.setState(StatePlaying)
	c.positionMs = 0
	c.pub.PublishPosition(0)
	c.armPoller(eng)
}

// onEnded advances only from Playing or Paused. While Loading, an Ended
// event belongs to the track that was replaced.
func (c *Controller) onEnded() {
	if _, ok := c.queue.Current(); !ok {
		return
	}
	if c.state != StatePlaying && c.state != StatePaused {
		zlog.Debug().Msgf("playback: dropping stale end of track: state=%s", c.state)
		return
	}
	c.advance()
}

func (c *Controller) onIsPlayingChanged(playing bool) {
	c.isPlaying = playing
	c.pub.PublishIsPlaying(playing)

	switch c.state {
	case StatePlaying, StatePaused:
		if playing {
			c.setState(StatePlaying)
		} else {
			c.setState(StatePaused)
		}
	case StateLoading:
		if playing {
			c.setState(StatePlaying)
		}
	}

	if playing && c.state == StatePlaying {
		c.armPoller(c.binding.engine)
	} else if !playing {
		c.disarmPoller()
	}
}

func (c *Controller) engineFailed(err error) {
	metrics.PlaybackEngineErrors.Inc()
	zlog.Error().Msgf("playback: engine error: state=%s error=%v", c.state, err)

	var cur *track.Track
	if t, ok := c.queue.Current(); ok {
		cur = &t
	}
	c.emit(Event{Type: EventEngineError, Track: cur, State: c.state, Err: err})
}

func (c *Controller) armPoller(eng Engine) {
	c.pollGen++
	gen := c.pollGen
	c.poller.Arm(eng, func(positionMs int64) {
		c.post("", func() { c.onTick(gen, positionMs) })
	})
}

func (c *Controller) disarmPoller() {
	c.pollGen++
	c.poller.Disarm()
}

func (c *Controller) onTick(gen uint64, positionMs int64) {
	if gen != c.pollGen {
		return
	}
	c.positionMs = max(positionMs, 0)
	c.pub.PublishPosition(c.positionMs)
}

// engine returns the bound engine, logging when disconnected.
func (c *Controller) engine(op string) (Engine, bool) {
	if !c.binding.connected() {
		zlog.Warn().Msgf("playback: no engine connected, ignoring: op=%s", op)
		return nil, false
	}
	return c.binding.engine, true
}

// currentEngine is engine for commands that also need a current track.
func (c *Controller) currentEngine(op string) (Engine, bool) {
	if _, ok := c.queue.Current(); !ok {
		zlog.Debug().Msgf("playback: no current track, ignoring: op=%s", op)
		return nil, false
	}
	return c.engine(op)
}

func (c *Controller) setState(s State) {
	if c.state == s {
		return
	}
	prev := c.state
	c.state = s
	metrics.SetPlaybackState(StateNames(), s.String())
	zlog.Debug().Msgf("playback: state changed: from=%s to=%s", prev, s)

	var cur *track.Track
	if t, ok := c.queue.Current(); ok {
		cur = &t
	}
	c.emit(Event{Type: EventStateChanged, Track: cur, State: s})
}

// emit sends an event without blocking.
// If the channel is full, the event is dropped.
func (c *Controller) emit(e Event) {
	select {
	case c.events <- e:
	default:
	}
}

func clamp(v, lo, hi int64) int64 {
	return max(lo, min(v, hi))
}
