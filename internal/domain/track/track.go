// Package track provides the Track domain entity.
package track

import "path"

// Fallback labels used when a file carries no usable tag.
const (
	UnknownTitle  = "Unknown Title"
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
)

// Track represents a single playable audio file in the local library.
// Values are immutable once built; compare with == for change detection
// and SameIdentity for de-duplication.
type Track struct {
	Locator string // Opaque resource locator (file path or URI)
	Title   string // Track title
	Artist  string // Artist name
	Album   string // Album name
}

// New builds a Track, filling in defaults for missing metadata.
// An empty title falls back to the file name of the locator before
// falling back to UnknownTitle.
func New(locator, title, artist, album string) Track {
	if title == "" {
		title = path.Base(locator)
		if title == "." || title == "/" {
			title = UnknownTitle
		}
	}
	if artist == "" {
		artist = UnknownArtist
	}
	if album == "" {
		album = UnknownAlbum
	}
	return Track{
		Locator: locator,
		Title:   title,
		Artist:  artist,
		Album:   album,
	}
}

// SameIdentity reports whether both tracks point at the same resource.
func (t Track) SameIdentity(other Track) bool {
	return t.Locator == other.Locator
}

// IndexOf returns the position of the track with the given locator, or -1.
func IndexOf(tracks []Track, locator string) int {
	for i, t := range tracks {
		if t.Locator == locator {
			return i
		}
	}
	return -1
}
