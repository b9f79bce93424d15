// Package library provides the browsable library view entities.
package library

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/osa030/localbox/internal/domain/track"
)

// ErrUnknownSortKey is returned when a sort key cannot be parsed.
var ErrUnknownSortKey = errors.New("unknown sort key")

// SortKey selects how the library view is grouped.
type SortKey int

const (
	SortNone   SortKey = iota // No key chosen yet; the view stays empty
	SortTitle                 // Group by title initial
	SortArtist                // Group by artist name
	SortAlbum                 // Group by album name
)

// String returns the persisted name of the sort key.
func (k SortKey) String() string {
	switch k {
	case SortTitle:
		return "TITLE"
	case SortArtist:
		return "ARTIST"
	case SortAlbum:
		return "ALBUM"
	default:
		return "NONE"
	}
}

// ParseSortKey parses a persisted sort key name, ignoring case.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TITLE":
		return SortTitle, nil
	case "ARTIST":
		return SortArtist, nil
	case "ALBUM":
		return SortAlbum, nil
	case "", "NONE":
		return SortNone, nil
	default:
		return SortNone, errors.Wrapf(ErrUnknownSortKey, "%q", s)
	}
}

// Kind tags an Entry as a header or a track row.
type Kind int

const (
	KindHeader Kind = iota
	KindTrack
)

// Entry is one row of the library view: either a group header or a track.
type Entry struct {
	Kind  Kind
	Label string      // Header label (KindHeader only)
	Track track.Track // Track row (KindTrack only)
}

// Header builds a header entry.
func Header(label string) Entry {
	return Entry{Kind: KindHeader, Label: label}
}

// Row builds a track entry.
func Row(t track.Track) Entry {
	return Entry{Kind: KindTrack, Track: t}
}

// IsHeader reports whether the entry is a header.
func (e Entry) IsHeader() bool {
	return e.Kind == KindHeader
}

// Tracks returns the track rows of a view in display order, dropping headers.
func Tracks(entries []Entry) []track.Track {
	tracks := make([]track.Track, 0, len(entries))
	for _, e := range entries {
		if e.Kind == KindTrack {
			tracks = append(tracks, e.Track)
		}
	}
	return tracks
}

// Headers returns the header labels of a view in display order.
func Headers(entries []Entry) []string {
	labels := make([]string, 0)
	for _, e := range entries {
		if e.Kind == KindHeader {
			labels = append(labels, e.Label)
		}
	}
	return labels
}
