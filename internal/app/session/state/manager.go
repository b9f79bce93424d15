package state

import (
	"slices"
	"sync"
	"time"

	"github.com/osa030/localbox/internal/domain/library"
	"github.com/osa030/localbox/internal/domain/track"
)

// Manager holds the library snapshot with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	// Library snapshot
	tracks  []track.Track // Raw scan result, in scan order
	sortKey library.SortKey
	folders []string

	// Scan lifecycle
	scan       ScanPhase
	lastScanAt *time.Time
}

// New creates a new state manager.
func New(sortKey library.SortKey, folders []string) *Manager {
	return &Manager{
		tracks:  make([]track.Track, 0),
		sortKey: sortKey,
		folders: slices.Clone(folders),
		scan:    ScanIdle,
	}
}

// Tracks returns a copy of the raw scan result.
func (m *Manager) Tracks() []track.Track {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.tracks)
}

// SetTracks replaces the raw scan result.
func (m *Manager) SetTracks(tracks []track.Track) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracks = slices.Clone(tracks)
	if m.tracks == nil {
		m.tracks = make([]track.Track, 0)
	}
}

// FindTrack returns the track with the given locator.
func (m *Manager) FindTrack(locator string) (track.Track, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := track.IndexOf(m.tracks, locator)
	if i < 0 {
		return track.Track{}, false
	}
	return m.tracks[i], true
}

// GetSortKey returns the current sort key.
func (m *Manager) GetSortKey() library.SortKey {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortKey
}

// SetSortKey sets the sort key.
func (m *Manager) SetSortKey(key library.SortKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sortKey = key
}

// Folders returns a copy of the music folders.
func (m *Manager) Folders() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.folders)
}

// SetFolders replaces the music folders.
func (m *Manager) SetFolders(folders []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.folders = slices.Clone(folders)
}

// BeginScan claims the scan slot. It returns false when a scan is already
// running; the request is then remembered and handed back by FinishScan.
func (m *Manager) BeginScan() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.scan {
	case ScanIdle:
		m.scan = ScanRunning
		return true
	default:
		m.scan = ScanPending
		return false
	}
}

// FinishScan records a finished scan. It returns true when another scan was
// requested meanwhile, in which case the slot stays claimed for the rerun.
func (m *Manager) FinishScan(at time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastScanAt = &at
	if m.scan == ScanPending {
		m.scan = ScanRunning
		return true
	}
	m.scan = ScanIdle
	return false
}

// GetScanPhase returns the scan phase.
func (m *Manager) GetScanPhase() ScanPhase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scan
}

// IsScanning returns true while a scan is running.
func (m *Manager) IsScanning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scan != ScanIdle
}

// Info is a summary of the library snapshot.
type Info struct {
	TrackCount int
	SortKey    library.SortKey
	Folders    []string
	ScanPhase  ScanPhase
	LastScanAt *time.Time
}

// BuildInfo creates a summary of the library snapshot.
func (m *Manager) BuildInfo() Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var last *time.Time
	if m.lastScanAt != nil {
		t := *m.lastScanAt
		last = &t
	}
	return Info{
		TrackCount: len(m.tracks),
		SortKey:    m.sortKey,
		Folders:    slices.Clone(m.folders),
		ScanPhase:  m.scan,
		LastScanAt: last,
	}
}
