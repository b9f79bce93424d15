package session

import (
	"bytes"
	"context"
	"io"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/osa030/localbox/internal/app/indexer"
	"github.com/osa030/localbox/internal/domain/library"
)

type nopCloser struct {
	io.ReadSeeker
}

func (nopCloser) Close() error { return nil }

type fakeFile struct {
	locator string
	tags    string // "title|artist|album"
}

func (f fakeFile) Name() string      { return path.Base(f.locator) }
func (f fakeFile) Locator() string   { return f.locator }
func (f fakeFile) IsDirectory() bool { return false }
func (f fakeFile) Size() int64       { return int64(len(f.tags)) }
func (f fakeFile) Open() (io.ReadSeekCloser, error) {
	return nopCloser{bytes.NewReader([]byte(f.tags))}, nil
}

// fakeSource serves flat folders of files. When gate is set, listing a
// folder blocks until the gate yields.
type fakeSource struct {
	mu      sync.Mutex
	folders map[string][]indexer.FileHandle
	listed  map[string]int
	gate    chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		folders: map[string][]indexer.FileHandle{
			"/music": {
				fakeFile{locator: "/music/a.mp3", tags: "Alpha|X|One"},
				fakeFile{locator: "/music/b.mp3", tags: "Beta|Y|One"},
				fakeFile{locator: "/music/c.mp3", tags: "Gamma|X|Two"},
			},
			"/other": {
				fakeFile{locator: "/other/d.flac", tags: "Delta|Z|Three"},
			},
		},
		listed: make(map[string]int),
	}
}

func (s *fakeSource) Enumerate(ctx context.Context, locator string) ([]indexer.FileHandle, error) {
	s.mu.Lock()
	s.listed[locator]++
	gate := s.gate
	files, ok := s.folders[locator]
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return nil, errors.Newf("not found: %s", locator)
	}
	return files, nil
}

func (s *fakeSource) listCount(locator string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listed[locator]
}

type fakeExtractor struct{}

func (fakeExtractor) Extract(r io.ReadSeeker) (indexer.Metadata, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return indexer.Metadata{}, err
	}
	parts := strings.SplitN(string(data), "|", 3)
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return indexer.Metadata{Title: parts[0], Artist: parts[1], Album: parts[2]}, nil
}

type fakePrefs struct {
	mu      sync.Mutex
	sortKey library.SortKey
	folders []string
	failSet bool
}

func (p *fakePrefs) SortKey() (library.SortKey, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sortKey, nil
}

func (p *fakePrefs) SetSortKey(key library.SortKey) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failSet {
		return errors.New("disk full")
	}
	p.sortKey = key
	return nil
}

func (p *fakePrefs) Folders() ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.folders), nil
}

func (p *fakePrefs) AddFolder(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !slices.Contains(p.folders, path) {
		p.folders = append(p.folders, path)
	}
	return nil
}

func (p *fakePrefs) RemoveFolder(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.folders = slices.DeleteFunc(p.folders, func(f string) bool { return f == path })
	return nil
}
