package httpapi

import (
	"time"

	"github.com/osa030/localbox/internal/app/notification"
	"github.com/osa030/localbox/internal/app/queue"
	"github.com/osa030/localbox/internal/app/session"
	"github.com/osa030/localbox/internal/domain/library"
	"github.com/osa030/localbox/internal/domain/track"
)

// Track is the wire form of a track.
type Track struct {
	Locator string `json:"locator"`
	Title   string `json:"title"`
	Artist  string `json:"artist"`
	Album   string `json:"album"`
}

// Entry is one row of the library view.
type Entry struct {
	Kind  string `json:"kind"` // "header" or "track"
	Label string `json:"label,omitempty"`
	Track *Track `json:"track,omitempty"`
}

// Queue is the wire form of the play queue. Index is -1 when nothing is current.
type Queue struct {
	Tracks []Track `json:"tracks"`
	Index  int     `json:"index"`
}

// Library summarizes the library snapshot.
type Library struct {
	TrackCount int        `json:"track_count"`
	SortKey    string     `json:"sort_key"`
	Folders    []string   `json:"folders"`
	ScanPhase  string     `json:"scan_phase"`
	LastScanAt *time.Time `json:"last_scan_at,omitempty"`
}

// Status is the response of GET /api/v1/status.
type Status struct {
	State       string  `json:"state"`
	IsPlaying   bool    `json:"is_playing"`
	PositionMs  int64   `json:"position_ms"`
	DurationMs  int64   `json:"duration_ms"`
	NowPlaying  *Track  `json:"now_playing"`
	Queue       Queue   `json:"queue"`
	Library     Library `json:"library"`
	Subscribers int     `json:"subscribers"`
}

// State is one message of the event stream.
type State struct {
	SequenceNo   uint64   `json:"sequence_no"`
	LibraryView  []Entry  `json:"library_view"`
	Queue        Queue    `json:"queue"`
	NowPlaying   *Track   `json:"now_playing"`
	IsPlaying    bool     `json:"is_playing"`
	PositionMs   int64    `json:"position_ms"`
	DurationMs   int64    `json:"duration_ms"`
	IsScanning   bool     `json:"is_scanning"`
	MusicFolders []string `json:"music_folders"`
}

// Requests

type SeekRequest struct {
	PositionMs *int64 `json:"position_ms"`
}

type PlayRequest struct {
	Locator string `json:"locator"`
}

type SortRequest struct {
	Key string `json:"key"`
}

type FolderRequest struct {
	Path string `json:"path"`
}

func toTrack(t track.Track) Track {
	return Track{Locator: t.Locator, Title: t.Title, Artist: t.Artist, Album: t.Album}
}

func toTrackPtr(t *track.Track) *Track {
	if t == nil {
		return nil
	}
	out := toTrack(*t)
	return &out
}

func toEntries(entries []library.Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.IsHeader() {
			out = append(out, Entry{Kind: "header", Label: e.Label})
			continue
		}
		t := toTrack(e.Track)
		out = append(out, Entry{Kind: "track", Track: &t})
	}
	return out
}

func toQueue(q queue.Queue) Queue {
	tracks := make([]Track, 0, q.Len())
	for _, t := range q.Tracks {
		tracks = append(tracks, toTrack(t))
	}
	return Queue{Tracks: tracks, Index: q.Index}
}

func toStatus(s *session.Status) Status {
	pb := s.Playback
	lib := s.Library
	folders := lib.Folders
	if folders == nil {
		folders = []string{}
	}
	return Status{
		State:      pb.State.String(),
		IsPlaying:  pb.IsPlaying,
		PositionMs: pb.PositionMs,
		DurationMs: pb.DurationMs,
		NowPlaying: toTrackPtr(pb.NowPlaying),
		Queue:      toQueue(pb.Queue),
		Library: Library{
			TrackCount: lib.TrackCount,
			SortKey:    lib.SortKey.String(),
			Folders:    folders,
			ScanPhase:  lib.ScanPhase.String(),
			LastScanAt: lib.LastScanAt,
		},
		Subscribers: s.Subscribers,
	}
}

func toState(s notification.State) State {
	folders := s.MusicFolders
	if folders == nil {
		folders = []string{}
	}
	return State{
		SequenceNo:   s.SequenceNo,
		LibraryView:  toEntries(s.LibraryView),
		Queue:        toQueue(s.Queue),
		NowPlaying:   toTrackPtr(s.NowPlaying),
		IsPlaying:    s.IsPlaying,
		PositionMs:   s.PositionMs,
		DurationMs:   s.DurationMs,
		IsScanning:   s.IsScanning,
		MusicFolders: folders,
	}
}
