// Package watch triggers library rescans when music folders change on disk.
package watch

import (
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	zlog "github.com/rs/zerolog/log"
)

const relevantOps = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

// Watcher watches folder trees and calls onChange once per burst of
// changes, after debounce has passed without further events.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	onChange func()

	mu      sync.Mutex
	watched map[string]struct{}

	closeOnce sync.Once
	closed    chan struct{}
	wg        sync.WaitGroup
}

// New creates a watcher. It watches nothing until SetFolders is called.
func New(debounce time.Duration, onChange func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	w := &Watcher{
		fs:       fw,
		debounce: debounce,
		onChange: onChange,
		watched:  make(map[string]struct{}),
		closed:   make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// SetFolders replaces the watched folder trees.
func (w *Watcher) SetFolders(folders []string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for dir := range w.watched {
		_ = w.fs.Remove(dir)
		delete(w.watched, dir)
	}
	for _, root := range folders {
		w.addTreeLocked(root)
	}
	zlog.Info().Msgf("watch: folders set: roots=%d dirs=%d", len(folders), len(w.watched))
}

// addTreeLocked watches root and every directory below it.
func (w *Watcher) addTreeLocked(root string) {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			zlog.Warn().Msgf("watch: cannot walk: path=%s err=%v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fs.Add(path); err != nil {
			zlog.Warn().Msgf("watch: cannot watch: path=%s err=%v", path, err)
			return nil
		}
		w.watched[path] = struct{}{}
		return nil
	})
	if err != nil {
		zlog.Warn().Msgf("watch: walk failed: root=%s err=%v", root, err)
	}
}

// WatchedCount returns the number of watched directories.
func (w *Watcher) WatchedCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.watched)
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-w.closed:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&relevantOps == 0 {
				continue
			}
			zlog.Debug().Msgf("watch: event: op=%s path=%s", event.Op, event.Name)
			w.mu.Lock()
			switch {
			case event.Has(fsnotify.Create):
				w.addTreeLocked(event.Name)
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				delete(w.watched, event.Name)
			}
			w.mu.Unlock()

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			zlog.Info().Msg("watch: change detected, triggering rescan")
			w.onChange()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			zlog.Warn().Msgf("watch: watcher error: %v", err)
		}
	}
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.closed)
		w.wg.Wait()
		err = w.fs.Close()
	})
	return err
}
