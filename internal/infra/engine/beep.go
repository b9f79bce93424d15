package engine

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/localbox/internal/app/playback"
)

// BeepSettings configures the audio output.
type BeepSettings struct {
	SampleRate      int `mapstructure:"sample_rate" default:"44100" validate:"gte=8000,lte=192000"`
	BufferMs        int `mapstructure:"buffer_ms" default:"100" validate:"gte=10,lte=1000"`
	ResampleQuality int `mapstructure:"resample_quality" default:"4" validate:"gte=1,lte=64"`
}

type decodeFunc func(f *os.File) (beep.StreamSeekCloser, beep.Format, error)

var decoders = map[string]decodeFunc{
	".mp3": func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return mp3.Decode(f) },
	".ogg": func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return vorbis.Decode(f) },
	".flac": func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
		return flac.Decode(f)
	},
	".wav": func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
		return wav.Decode(f)
	},
}

// decoderFor returns the decoder for a file extension.
func decoderFor(locator string) (decodeFunc, error) {
	ext := strings.ToLower(filepath.Ext(locator))
	dec, ok := decoders[ext]
	if !ok {
		return nil, errors.Newf("unsupported audio format: %q", ext)
	}
	return dec, nil
}

var (
	speakerOnce sync.Once
	speakerErr  error
)

// initSpeaker opens the audio device. The device is process-wide, so only
// the first call's settings apply.
func initSpeaker(rate beep.SampleRate, buffer time.Duration) error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(rate, rate.N(buffer))
	})
	return speakerErr
}

// beepTrack bundles the resources of one loaded file.
type beepTrack struct {
	locator  string
	file     io.Closer
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
}

func (t *beepTrack) close() {
	if err := t.streamer.Close(); err != nil {
		zlog.Debug().Msgf("beep engine: failed to close streamer: locator=%s err=%v", t.locator, err)
	}
	_ = t.file.Close()
}

// BeepEngine decodes local files with beep and renders them on the speaker.
type BeepEngine struct {
	mu       sync.Mutex
	settings BeepSettings
	rate     beep.SampleRate
	events   chan playback.EngineEvent

	cur *beepTrack
	gen uint64 // Identifies cur for end-of-stream callbacks
}

// NewBeepEngine opens the audio device and creates the engine.
func NewBeepEngine(settings map[string]any) (*BeepEngine, error) {
	var s BeepSettings
	if err := decodeSettings(settings, &s); err != nil {
		return nil, err
	}
	zlog.Info().Msgf("beep engine config: %+v", s)

	rate := beep.SampleRate(s.SampleRate)
	if err := initSpeaker(rate, time.Duration(s.BufferMs)*time.Millisecond); err != nil {
		return nil, errors.Wrap(err, "failed to initialize speaker")
	}

	return &BeepEngine{
		settings: s,
		rate:     rate,
		events:   make(chan playback.EngineEvent, eventBufferSize),
	}, nil
}

func (e *BeepEngine) LoadAndPrepare(locator string) error {
	dec, err := decoderFor(locator)
	if err != nil {
		return err
	}

	f, err := os.Open(locator)
	if err != nil {
		return errors.Wrap(err, "failed to open audio file")
	}
	streamer, format, err := dec(f)
	if err != nil {
		_ = f.Close()
		return errors.Wrap(err, "failed to decode audio file")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.unloadLocked()
	e.gen++
	gen := e.gen

	var source beep.Streamer = streamer
	if format.SampleRate != e.rate {
		source = beep.Resample(e.settings.ResampleQuality, format.SampleRate, e.rate, streamer)
	}
	// The callback runs on the speaker goroutine with the speaker lock held.
	end := beep.Callback(func() { go e.onEnd(gen) })
	ctrl := &beep.Ctrl{Streamer: beep.Seq(source, end), Paused: true}

	e.cur = &beepTrack{
		locator:  locator,
		file:     f,
		streamer: streamer,
		format:   format,
		ctrl:     ctrl,
	}
	speaker.Play(ctrl)

	zlog.Debug().Msgf("beep engine: loaded: locator=%s rate=%d channels=%d", locator, format.SampleRate, format.NumChannels)
	emit(e.events, playback.EngineEvent{Type: playback.EngineReady})
	return nil
}

func (e *BeepEngine) Play() error {
	return e.setPaused(false)
}

func (e *BeepEngine) Pause() error {
	return e.setPaused(true)
}

func (e *BeepEngine) setPaused(paused bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cur == nil {
		return errors.New("beep engine: nothing loaded")
	}

	speaker.Lock()
	changed := e.cur.ctrl.Paused != paused
	e.cur.ctrl.Paused = paused
	speaker.Unlock()

	if changed {
		emit(e.events, playback.EngineEvent{Type: playback.EngineIsPlayingChanged, Playing: !paused})
	}
	return nil
}

func (e *BeepEngine) SeekTo(positionMs int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cur == nil {
		return errors.New("beep engine: nothing loaded")
	}

	t := e.cur
	n := t.format.SampleRate.N(time.Duration(positionMs) * time.Millisecond)

	speaker.Lock()
	defer speaker.Unlock()
	n = min(max(n, 0), max(t.streamer.Len()-1, 0))
	if err := t.streamer.Seek(n); err != nil {
		return errors.Wrap(err, "failed to seek")
	}
	return nil
}

func (e *BeepEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	wasPlaying := e.playingLocked()
	e.unloadLocked()
	if wasPlaying {
		emit(e.events, playback.EngineEvent{Type: playback.EngineIsPlayingChanged, Playing: false})
	}
	return nil
}

func (e *BeepEngine) Release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.unloadLocked()
}

func (e *BeepEngine) CurrentPositionMs() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cur == nil {
		return 0
	}
	speaker.Lock()
	pos := e.cur.streamer.Position()
	speaker.Unlock()
	return e.cur.format.SampleRate.D(pos).Milliseconds()
}

func (e *BeepEngine) DurationMs() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cur == nil {
		return 0
	}
	return e.cur.format.SampleRate.D(e.cur.streamer.Len()).Milliseconds()
}

func (e *BeepEngine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playingLocked()
}

func (e *BeepEngine) Events() <-chan playback.EngineEvent {
	return e.events
}

func (e *BeepEngine) playingLocked() bool {
	if e.cur == nil {
		return false
	}
	speaker.Lock()
	defer speaker.Unlock()
	return !e.cur.ctrl.Paused
}

// unloadLocked removes the current track from the speaker and closes it.
func (e *BeepEngine) unloadLocked() {
	if e.cur == nil {
		return
	}
	speaker.Clear()
	e.cur.close()
	e.cur = nil
}

func (e *BeepEngine) onEnd(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cur == nil || gen != e.gen {
		return
	}
	speaker.Lock()
	e.cur.ctrl.Paused = true
	speaker.Unlock()

	zlog.Debug().Msgf("beep engine: track ended: locator=%s", e.cur.locator)
	emit(e.events, playback.EngineEvent{Type: playback.EngineEnded})
}
