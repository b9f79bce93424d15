// Package indexer walks library folders and turns audio files into tracks.
package indexer

import (
	"context"
	"io"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/localbox/internal/app/filter"
	"github.com/osa030/localbox/internal/domain/track"
	"github.com/osa030/localbox/internal/metrics"
)

// FileHandle is one entry of a listed folder.
type FileHandle interface {
	Name() string
	Locator() string
	IsDirectory() bool
	Size() int64
	Open() (io.ReadSeekCloser, error)
}

// Source lists the direct children of a folder.
type Source interface {
	Enumerate(ctx context.Context, locator string) ([]FileHandle, error)
}

// Metadata holds the tags read from an audio file. Empty fields are missing tags.
type Metadata struct {
	Title  string
	Artist string
	Album  string
}

// Extractor reads tags from an audio stream.
type Extractor interface {
	Extract(r io.ReadSeeker) (Metadata, error)
}

// Indexer scans folder trees. It holds no scan state, so one Indexer may
// serve concurrent scans.
type Indexer struct {
	source    Source
	extractor Extractor
	chain     *filter.Chain
}

// New creates an indexer. A nil chain means the extension filter alone.
func New(source Source, extractor Extractor, chain *filter.Chain) *Indexer {
	if chain == nil {
		chain = filter.NewChain()
		chain.Add(filter.NewExtensionFilter())
	}
	return &Indexer{
		source:    source,
		extractor: extractor,
		chain:     chain,
	}
}

// Scan walks every root and returns the tracks found, in enumeration order.
// Failures never abort the scan: an unreadable root or file is logged and
// skipped. A cancelled context stops the walk and returns what was found so far.
func (ix *Indexer) Scan(ctx context.Context, roots []string) []track.Track {
	start := time.Now()
	metrics.IndexerRunsTotal.Inc()
	metrics.IndexerIsRunning.Set(1)
	defer func() {
		metrics.IndexerIsRunning.Set(0)
		metrics.IndexerLastRunDuration.Set(time.Since(start).Seconds())
	}()

	tracks := make([]track.Track, 0)
	for _, root := range roots {
		if ctx.Err() != nil {
			break
		}
		handles, err := ix.source.Enumerate(ctx, root)
		if err != nil {
			metrics.IndexerErrors.WithLabelValues("root").Inc()
			zlog.Warn().Msgf("indexer: skipping root: root=%s error=%v", root, err)
			continue
		}
		tracks = ix.walk(ctx, handles, tracks)
	}

	zlog.Info().Msgf("indexer: scan finished: roots=%d tracks=%d elapsed=%v",
		len(roots), len(tracks), time.Since(start))
	return tracks
}

func (ix *Indexer) walk(ctx context.Context, handles []FileHandle, tracks []track.Track) []track.Track {
	for _, h := range handles {
		if ctx.Err() != nil {
			return tracks
		}

		cand := filter.Candidate{
			Name:        h.Name(),
			Locator:     h.Locator(),
			Size:        h.Size(),
			IsDirectory: h.IsDirectory(),
		}
		if result := ix.chain.Execute(ctx, cand); !result.Accepted {
			metrics.IndexerFilesSkipped.WithLabelValues(result.Code).Inc()
			zlog.Debug().Msgf("indexer: skipped: locator=%s code=%s", cand.Locator, result.Code)
			continue
		}

		if cand.IsDirectory {
			children, err := ix.source.Enumerate(ctx, cand.Locator)
			if err != nil {
				metrics.IndexerErrors.WithLabelValues("directory").Inc()
				zlog.Warn().Msgf("indexer: skipping directory: locator=%s error=%v", cand.Locator, err)
				continue
			}
			tracks = ix.walk(ctx, children, tracks)
			continue
		}

		t, err := ix.read(h)
		if err != nil {
			metrics.IndexerErrors.WithLabelValues("extract").Inc()
			zlog.Warn().Msgf("indexer: skipping file: locator=%s error=%v", cand.Locator, err)
			continue
		}
		metrics.IndexerFilesIndexed.Inc()
		tracks = append(tracks, t)
	}
	return tracks
}

func (ix *Indexer) read(h FileHandle) (track.Track, error) {
	rc, err := h.Open()
	if err != nil {
		return track.Track{}, err
	}
	defer rc.Close()

	md, err := ix.extractor.Extract(rc)
	if err != nil {
		return track.Track{}, err
	}

	title := md.Title
	if title == "" {
		title = h.Name()
	}
	return track.New(h.Locator(), title, md.Artist, md.Album), nil
}
