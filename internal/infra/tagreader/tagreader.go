// Package tagreader extracts track metadata from audio file tags.
package tagreader

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dhowden/tag"

	"github.com/osa030/localbox/internal/app/indexer"
)

// Reader reads ID3, MP4, FLAC and Vorbis comment tags.
type Reader struct{}

// New creates a tag reader.
func New() *Reader {
	return &Reader{}
}

// Extract reads the title, artist and album tags. Files without any tag
// block yield empty metadata rather than an error.
func (r *Reader) Extract(rs io.ReadSeeker) (indexer.Metadata, error) {
	m, err := tag.ReadFrom(rs)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			return indexer.Metadata{}, nil
		}
		return indexer.Metadata{}, errors.Wrap(err, "failed to read tags")
	}

	artist := m.Artist()
	if artist == "" {
		artist = m.AlbumArtist()
	}
	return indexer.Metadata{
		Title:  strings.TrimSpace(m.Title()),
		Artist: strings.TrimSpace(artist),
		Album:  strings.TrimSpace(m.Album()),
	}, nil
}
