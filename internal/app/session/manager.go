// Package session provides the session manager: the facade that owns the
// library snapshot and wires indexing, grouping, queueing and playback.
package session

import (
	"context"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/localbox/internal/app/filter"
	"github.com/osa030/localbox/internal/app/grouping"
	"github.com/osa030/localbox/internal/app/indexer"
	"github.com/osa030/localbox/internal/app/notification"
	"github.com/osa030/localbox/internal/app/playback"
	"github.com/osa030/localbox/internal/app/queue"
	"github.com/osa030/localbox/internal/app/session/state"
	"github.com/osa030/localbox/internal/domain/library"
	"github.com/osa030/localbox/internal/infra/config"
	"github.com/osa030/localbox/internal/metrics"
)

var (
	ErrClosed          = errors.New("session is closed")
	ErrUnknownTrack    = errors.New("unknown track")
	ErrUnknownFolder   = errors.New("unknown folder")
	ErrInvalidFolder   = errors.New("invalid folder")
	ErrInvalidPosition = errors.New("invalid position")
)

// Preferences persists user choices across runs.
type Preferences interface {
	SortKey() (library.SortKey, error)
	SetSortKey(key library.SortKey) error
	Folders() ([]string, error)
	AddFolder(path string) error
	RemoveFolder(path string) error
}

// Deps holds the collaborators of a session.
type Deps struct {
	Source      indexer.Source
	Extractor   indexer.Extractor
	Preferences Preferences
	Engine      playback.Engine // nil starts the session disconnected
}

// Manager is the session facade.
type Manager struct {
	config *config.Config
	prefs  Preferences

	// Components
	stateMgr *state.Manager
	indexer  *indexer.Indexer
	playback *playback.Controller
	hub      *notification.Hub

	scanMu sync.Mutex // Orders scan start/finish notifications
	viewMu sync.Mutex // Serializes library view publication

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewManager creates a new session manager.
func NewManager(cfg *config.Config, deps Deps) (*Manager, error) {
	if deps.Source == nil || deps.Extractor == nil || deps.Preferences == nil {
		return nil, errors.New("session: source, extractor and preferences are required")
	}

	chain, err := BuildFilterChain(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build filter chain")
	}

	sortKey := loadSortKey(cfg, deps.Preferences)
	folders, err := loadFolders(cfg, deps.Preferences)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load music folders")
	}

	ctx, cancel := context.WithCancel(context.Background())
	hub := notification.NewHub()

	m := &Manager{
		config:   cfg,
		prefs:    deps.Preferences,
		stateMgr: state.New(sortKey, folders),
		indexer:  indexer.New(deps.Source, deps.Extractor, chain),
		playback: playback.NewController(playback.Config{
			PollInterval:       cfg.PollInterval(),
			SeekStepMs:         int64(cfg.Playback.SeekStepMs),
			RestartThresholdMs: int64(cfg.Playback.RestartThresholdMs),
		}, hub),
		hub:    hub,
		ctx:    ctx,
		cancel: cancel,
	}

	hub.PublishFolders(folders)
	if deps.Engine != nil {
		m.playback.Connect(deps.Engine)
	}

	m.wg.Add(1)
	go m.playbackLoop()

	zlog.Info().Msgf("session: created: sort=%s folders=%d filters=%d", sortKey, len(folders), len(chain.Filters()))
	return m, nil
}

// BuildFilterChain builds the candidate filter chain from the enabled filters.
func BuildFilterChain(cfg *config.Config) (*filter.Chain, error) {
	names := cfg.EnabledFilters()
	specs := make([]filter.Spec, 0, len(names))
	for _, name := range names {
		specs = append(specs, filter.Spec{Name: name, Settings: cfg.GetFilterSettings(name)})
	}
	return filter.Build(specs)
}

// loadSortKey returns the persisted sort key, or the configured default
// when nothing usable is stored.
func loadSortKey(cfg *config.Config, prefs Preferences) library.SortKey {
	key, err := prefs.SortKey()
	if err != nil {
		zlog.Warn().Msgf("session: failed to load sort key, using default: %v", err)
		return cfg.DefaultSortKey()
	}
	if key == library.SortNone {
		return cfg.DefaultSortKey()
	}
	return key
}

// loadFolders returns the persisted folders, seeding them from config on first run.
func loadFolders(cfg *config.Config, prefs Preferences) ([]string, error) {
	folders, err := prefs.Folders()
	if err != nil {
		return nil, err
	}
	if len(folders) > 0 || len(cfg.Library.Folders) == 0 {
		return folders, nil
	}

	for _, f := range cfg.Library.Folders {
		if err := prefs.AddFolder(filepath.Clean(f)); err != nil {
			return nil, errors.Wrapf(err, "failed to seed folder %s", f)
		}
	}
	zlog.Info().Msgf("session: seeded folders from config: count=%d", len(cfg.Library.Folders))
	return prefs.Folders()
}

// Start kicks off the initial library scan.
func (m *Manager) Start() error {
	return m.Rescan()
}

// Hub returns the state broadcaster.
func (m *Manager) Hub() *notification.Hub {
	return m.hub
}

// Done is closed once the playback controller has stopped.
func (m *Manager) Done() <-chan struct{} {
	return m.playback.Done()
}

func (m *Manager) closed() bool {
	return m.ctx.Err() != nil
}

// PlayTrack plays the library track with the given locator, queueing the
// rest of its album.
func (m *Manager) PlayTrack(locator string) error {
	if m.closed() {
		return ErrClosed
	}

	selected, ok := m.stateMgr.FindTrack(locator)
	if !ok {
		return errors.Wrapf(ErrUnknownTrack, "%s", locator)
	}

	q, start := queue.Derive(selected, m.stateMgr.Tracks())
	zlog.Info().Msgf("session: play: locator=%s queue_len=%d start=%d", locator, q.Len(), start)
	m.playback.PlayQueue(q)
	return nil
}

// TogglePlayPause toggles between playing and paused.
func (m *Manager) TogglePlayPause() error {
	if m.closed() {
		return ErrClosed
	}
	m.playback.TogglePlayPause()
	return nil
}

// SeekTo forwards a seek to the controller. The new position reaches
// subscribers through the next position sample.
func (m *Manager) SeekTo(positionMs int64) error {
	if m.closed() {
		return ErrClosed
	}
	if positionMs < 0 {
		return errors.Wrapf(ErrInvalidPosition, "%d", positionMs)
	}
	m.playback.SeekTo(positionMs)
	return nil
}

// SkipNext skips to the next queued track.
func (m *Manager) SkipNext() error {
	if m.closed() {
		return ErrClosed
	}
	m.playback.SkipNext()
	return nil
}

// SkipPrevious restarts the current track or steps back.
func (m *Manager) SkipPrevious() error {
	if m.closed() {
		return ErrClosed
	}
	m.playback.SkipPrevious()
	return nil
}

// Rewind steps back by the configured seek step.
func (m *Manager) Rewind() error {
	if m.closed() {
		return ErrClosed
	}
	m.playback.Rewind()
	return nil
}

// FastForward steps forward by the configured seek step.
func (m *Manager) FastForward() error {
	if m.closed() {
		return ErrClosed
	}
	m.playback.FastForward()
	return nil
}

// SetSortOrder persists the sort key and regroups the current snapshot.
func (m *Manager) SetSortOrder(key library.SortKey) error {
	if m.closed() {
		return ErrClosed
	}
	if err := m.prefs.SetSortKey(key); err != nil {
		return errors.Wrap(err, "failed to persist sort key")
	}
	m.stateMgr.SetSortKey(key)
	zlog.Info().Msgf("session: sort order changed: key=%s", key)

	// A running scan publishes with the new key when it finishes.
	if !m.stateMgr.IsScanning() {
		m.publishView()
	}
	return nil
}

// AddFolder persists a music folder and rescans.
func (m *Manager) AddFolder(path string) error {
	if m.closed() {
		return ErrClosed
	}
	path, err := cleanFolder(path)
	if err != nil {
		return err
	}
	if slices.Contains(m.stateMgr.Folders(), path) {
		zlog.Debug().Msgf("session: folder already added: path=%s", path)
		return nil
	}

	if err := m.prefs.AddFolder(path); err != nil {
		return errors.Wrap(err, "failed to persist folder")
	}
	zlog.Info().Msgf("session: folder added: path=%s", path)
	return m.reloadFolders()
}

// RemoveFolder forgets a music folder and rescans.
func (m *Manager) RemoveFolder(path string) error {
	if m.closed() {
		return ErrClosed
	}
	path, err := cleanFolder(path)
	if err != nil {
		return err
	}
	if !slices.Contains(m.stateMgr.Folders(), path) {
		return errors.Wrapf(ErrUnknownFolder, "%s", path)
	}

	if err := m.prefs.RemoveFolder(path); err != nil {
		return errors.Wrap(err, "failed to remove folder")
	}
	zlog.Info().Msgf("session: folder removed: path=%s", path)
	return m.reloadFolders()
}

func cleanFolder(path string) (string, error) {
	if path == "" {
		return "", errors.Wrap(ErrInvalidFolder, "empty path")
	}
	return filepath.Clean(path), nil
}

// reloadFolders re-reads the persisted folders, publishes them and rescans.
func (m *Manager) reloadFolders() error {
	folders, err := m.prefs.Folders()
	if err != nil {
		return errors.Wrap(err, "failed to load folders")
	}
	m.stateMgr.SetFolders(folders)
	m.hub.PublishFolders(folders)
	return m.Rescan()
}

// Folders returns the music folders.
func (m *Manager) Folders() []string {
	return m.stateMgr.Folders()
}

// Rescan starts a background scan. A request during a running scan is
// remembered and served by one more scan once the current one finishes.
func (m *Manager) Rescan() error {
	m.scanMu.Lock()
	if m.closed() {
		m.scanMu.Unlock()
		return ErrClosed
	}
	started := m.stateMgr.BeginScan()
	if started {
		m.hub.PublishScanning(true)
		m.hub.PublishLibraryView(nil)
		m.wg.Add(1)
	}
	m.scanMu.Unlock()

	if !started {
		zlog.Debug().Msg("session: scan already running, rescan pending")
		return nil
	}
	go m.scanLoop()
	return nil
}

func (m *Manager) scanLoop() {
	defer m.wg.Done()

	for {
		folders := m.stateMgr.Folders()
		zlog.Info().Msgf("session: scan started: folders=%d", len(folders))
		tracks := m.indexer.Scan(m.ctx, folders)

		if m.ctx.Err() != nil {
			m.stateMgr.FinishScan(time.Now())
			return
		}

		m.stateMgr.SetTracks(tracks)
		metrics.LibraryTracks.Set(float64(len(tracks)))
		zlog.Info().Msgf("session: scan finished: tracks=%d", len(tracks))

		m.scanMu.Lock()
		rerun := m.stateMgr.FinishScan(time.Now())
		if rerun {
			m.hub.PublishLibraryView(nil)
		} else {
			m.publishView()
			m.hub.PublishScanning(false)
		}
		m.scanMu.Unlock()

		if !rerun {
			return
		}
	}
}

// publishView regroups the current snapshot and publishes it.
func (m *Manager) publishView() {
	m.viewMu.Lock()
	defer m.viewMu.Unlock()
	m.hub.PublishLibraryView(grouping.Group(m.stateMgr.Tracks(), m.stateMgr.GetSortKey()))
}

// Status represents the current session status.
type Status struct {
	Playback    playback.Snapshot
	Library     state.Info
	Subscribers int
}

// GetStatus returns the current session status.
func (m *Manager) GetStatus() *Status {
	return &Status{
		Playback:    m.playback.Snapshot(),
		Library:     m.stateMgr.BuildInfo(),
		Subscribers: m.hub.SubscriberCount(),
	}
}

// LibraryView returns the grouped library as last published.
func (m *Manager) LibraryView() []library.Entry {
	return m.hub.LibraryView.Get()
}

// playbackLoop logs playback events until the controller stops.
func (m *Manager) playbackLoop() {
	defer m.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("session: playback loop panicked: %v", r)
		}
	}()

	for event := range m.playback.Events() {
		m.handlePlaybackEvent(event)
	}
}

// handlePlaybackEvent handles playback events.
func (m *Manager) handlePlaybackEvent(event playback.Event) {
	switch event.Type {
	case playback.EventTrackStarted:
		if event.Track != nil {
			zlog.Info().Msgf("playback event: type=%s title=%s artist=%s", event.Type, event.Track.Title, event.Track.Artist)
		}
	case playback.EventEngineError:
		zlog.Warn().Msgf("playback event: type=%s state=%s err=%v", event.Type, event.State, event.Err)
	default:
		zlog.Debug().Msgf("playback event: type=%s state=%s", event.Type, event.State)
	}
}

// Close stops playback, waits for background work and closes the broadcaster.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.scanMu.Lock()
		m.cancel()
		m.scanMu.Unlock()

		m.playback.Stop()
		m.wg.Wait()
		m.hub.Close()
		zlog.Info().Msg("session: closed")
	})
}
