package indexer

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/localbox/internal/app/filter"
	"github.com/osa030/localbox/internal/domain/track"
)

type nopCloser struct {
	io.ReadSeeker
}

func (nopCloser) Close() error { return nil }

type fakeHandle struct {
	locator string
	dir     bool
	content string
	openErr error
}

func (h fakeHandle) Name() string      { return path.Base(h.locator) }
func (h fakeHandle) Locator() string   { return h.locator }
func (h fakeHandle) IsDirectory() bool { return h.dir }
func (h fakeHandle) Size() int64       { return int64(len(h.content)) }
func (h fakeHandle) Open() (io.ReadSeekCloser, error) {
	if h.openErr != nil {
		return nil, h.openErr
	}
	return nopCloser{bytes.NewReader([]byte(h.content))}, nil
}

// fakeSource serves a static tree keyed by folder locator.
type fakeSource struct {
	tree     map[string][]FileHandle
	failing  map[string]bool
	onListed func(locator string)
}

func (s *fakeSource) Enumerate(ctx context.Context, locator string) ([]FileHandle, error) {
	if s.onListed != nil {
		s.onListed(locator)
	}
	if s.failing[locator] {
		return nil, errors.Newf("permission denied: %s", locator)
	}
	children, ok := s.tree[locator]
	if !ok {
		return nil, errors.Newf("not found: %s", locator)
	}
	return children, nil
}

// fakeExtractor parses "title|artist|album" file contents.
type fakeExtractor struct{}

func (fakeExtractor) Extract(r io.ReadSeeker) (Metadata, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Metadata{}, err
	}
	if string(raw) == "corrupt" {
		return Metadata{}, errors.New("unreadable tags")
	}
	parts := strings.Split(string(raw), "|")
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return Metadata{Title: parts[0], Artist: parts[1], Album: parts[2]}, nil
}

func file(locator, content string) FileHandle {
	return fakeHandle{locator: locator, content: content}
}

func dir(locator string) FileHandle {
	return fakeHandle{locator: locator, dir: true}
}

func locators(tracks []track.Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.Locator
	}
	return out
}

func TestScan_RecursesAndFilters(t *testing.T) {
	src := &fakeSource{tree: map[string][]FileHandle{
		"/music": {
			file("/music/one.mp3", "One|Band|Blue"),
			file("/music/cover.jpg", "x"),
			dir("/music/Disc 2"),
			file("/music/TWO.FLAC", "Two|Band|Blue"),
		},
		"/music/Disc 2": {
			file("/music/Disc 2/three.ogg", "Three|Band|Blue"),
			file("/music/Disc 2/notes.txt", "x"),
			file("/music/Disc 2/four.wav", "Four|Band|Blue"),
		},
	}}
	ix := New(src, fakeExtractor{}, nil)

	tracks := ix.Scan(context.Background(), []string{"/music"})

	assert.Equal(t, []string{
		"/music/one.mp3",
		"/music/Disc 2/three.ogg",
		"/music/Disc 2/four.wav",
		"/music/TWO.FLAC",
	}, locators(tracks))
	assert.Equal(t, track.New("/music/one.mp3", "One", "Band", "Blue"), tracks[0])
}

func TestScan_MissingTagsUseDefaults(t *testing.T) {
	src := &fakeSource{tree: map[string][]FileHandle{
		"/m": {file("/m/untagged.mp3", "")},
	}}
	ix := New(src, fakeExtractor{}, nil)

	tracks := ix.Scan(context.Background(), []string{"/m"})

	require.Len(t, tracks, 1)
	assert.Equal(t, "untagged.mp3", tracks[0].Title)
	assert.Equal(t, track.UnknownArtist, tracks[0].Artist)
	assert.Equal(t, track.UnknownAlbum, tracks[0].Album)
}

func TestScan_PerFileFailureIsIsolated(t *testing.T) {
	src := &fakeSource{tree: map[string][]FileHandle{
		"/m": {
			file("/m/a.mp3", "A||"),
			file("/m/bad.mp3", "corrupt"),
			fakeHandle{locator: "/m/locked.mp3", openErr: errors.New("locked")},
			file("/m/c.mp3", "C||"),
		},
	}}
	ix := New(src, fakeExtractor{}, nil)

	tracks := ix.Scan(context.Background(), []string{"/m"})

	assert.Equal(t, []string{"/m/a.mp3", "/m/c.mp3"}, locators(tracks))
}

func TestScan_PerRootFailureIsIsolated(t *testing.T) {
	src := &fakeSource{
		tree: map[string][]FileHandle{
			"/ok": {file("/ok/a.mp3", "A||"), dir("/ok/private")},
		},
		failing: map[string]bool{"/ok/private": true},
	}
	ix := New(src, fakeExtractor{}, nil)

	tracks := ix.Scan(context.Background(), []string{"/gone", "/ok"})

	assert.Equal(t, []string{"/ok/a.mp3"}, locators(tracks))
}

func TestScan_UsesFilterChain(t *testing.T) {
	src := &fakeSource{tree: map[string][]FileHandle{
		"/m": {
			file("/m/.hidden.mp3", "H||"),
			dir("/m/.cache"),
			file("/m/tiny.mp3", "T||"),
			file("/m/song.mp3", "Song with a long enough body||"),
		},
		"/m/.cache": {file("/m/.cache/x.mp3", "X||")},
	}}
	chain, err := filter.Build([]filter.Spec{
		{Name: "hidden_file_filter"},
		{Name: "min_size_filter", Settings: map[string]any{"min_bytes": 10}},
	})
	require.NoError(t, err)

	tracks := New(src, fakeExtractor{}, chain).Scan(context.Background(), []string{"/m"})

	assert.Equal(t, []string{"/m/song.mp3"}, locators(tracks))
}

func TestScan_CancelledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &fakeSource{
		tree: map[string][]FileHandle{
			"/a": {file("/a/1.mp3", "1||")},
			"/b": {file("/b/2.mp3", "2||")},
		},
		onListed: func(locator string) {
			if locator == "/a" {
				cancel()
			}
		},
	}

	tracks := New(src, fakeExtractor{}, nil).Scan(ctx, []string{"/a", "/b"})

	assert.Empty(t, tracks)
}

func TestScan_NoRoots(t *testing.T) {
	tracks := New(&fakeSource{}, fakeExtractor{}, nil).Scan(context.Background(), nil)

	assert.NotNil(t, tracks)
	assert.Empty(t, tracks)
}
