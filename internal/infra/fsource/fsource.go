// Package fsource lists library folders on the local filesystem.
package fsource

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/localbox/internal/app/indexer"
)

// Source enumerates directories of the local filesystem. Locators are
// absolute-or-relative file paths as given by the caller.
type Source struct{}

// New creates a filesystem source.
func New() *Source {
	return &Source{}
}

// Enumerate lists the direct children of a directory in name order.
func (s *Source) Enumerate(ctx context.Context, locator string) ([]indexer.FileHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(locator)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read directory %s", locator)
	}

	handles := make([]indexer.FileHandle, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			// Removed between listing and stat
			zlog.Debug().Msgf("fsource: skipping entry: path=%s err=%v", filepath.Join(locator, entry.Name()), err)
			continue
		}
		handles = append(handles, fileHandle{
			path: filepath.Join(locator, entry.Name()),
			info: info,
		})
	}
	return handles, nil
}

type fileHandle struct {
	path string
	info os.FileInfo
}

func (h fileHandle) Name() string      { return h.info.Name() }
func (h fileHandle) Locator() string   { return h.path }
func (h fileHandle) IsDirectory() bool { return h.info.IsDir() }
func (h fileHandle) Size() int64       { return h.info.Size() }

func (h fileHandle) Open() (io.ReadSeekCloser, error) {
	f, err := os.Open(h.path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", h.path)
	}
	return f, nil
}
