package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_Defaults(t *testing.T) {
	tests := []struct {
		name     string
		locator  string
		title    string
		artist   string
		album    string
		expected Track
	}{
		{
			name:    "all metadata present",
			locator: "/music/a.mp3",
			title:   "Song",
			artist:  "Band",
			album:   "Record",
			expected: Track{
				Locator: "/music/a.mp3", Title: "Song", Artist: "Band", Album: "Record",
			},
		},
		{
			name:    "missing title falls back to file name",
			locator: "/music/sub/intro.flac",
			expected: Track{
				Locator: "/music/sub/intro.flac", Title: "intro.flac",
				Artist: UnknownArtist, Album: UnknownAlbum,
			},
		},
		{
			name:    "empty locator falls back to unknown title",
			locator: "",
			expected: Track{
				Locator: "", Title: UnknownTitle,
				Artist: UnknownArtist, Album: UnknownAlbum,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.locator, tt.title, tt.artist, tt.album)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestTrack_SameIdentity(t *testing.T) {
	a := New("/music/a.mp3", "Song", "Band", "Record")
	retagged := New("/music/a.mp3", "Song (Remaster)", "Band", "Record")
	other := New("/music/b.mp3", "Song", "Band", "Record")

	assert.True(t, a.SameIdentity(retagged))
	assert.False(t, a == retagged, "full-field equality must detect the retag")
	assert.False(t, a.SameIdentity(other))
}

func TestIndexOf(t *testing.T) {
	tracks := []Track{
		New("/a.mp3", "A", "", ""),
		New("/b.mp3", "B", "", ""),
	}

	assert.Equal(t, 1, IndexOf(tracks, "/b.mp3"))
	assert.Equal(t, -1, IndexOf(tracks, "/c.mp3"))
	assert.Equal(t, -1, IndexOf(nil, "/a.mp3"))
}
