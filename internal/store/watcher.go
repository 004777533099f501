package store

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

const reloadDebounce = 500 * time.Millisecond

// Watcher reloads a Store when its document changes on disk, so edits
// made by other processes show up without a restart.
type Watcher struct {
	fsw    *fsnotify.Watcher
	done   chan struct{}
	logger *logrus.Logger
}

// Watch starts watching the store's document. The parent directory is
// watched rather than the file itself so the watch survives the
// rename-over-save pattern.
func Watch(s *Store, logger *logrus.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("store: creating watcher: %w", err)
	}
	dir := filepath.Dir(s.Path())
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("store: watching %s: %w", dir, err)
	}

	w := &Watcher{fsw: fsw, done: make(chan struct{}), logger: logger}
	name := filepath.Base(s.Path())

	go func() {
		var pending *time.Timer
		for {
			select {
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != name {
					continue
				}
				if event.Op&fsnotify.Write == fsnotify.Write ||
					event.Op&fsnotify.Create == fsnotify.Create ||
					event.Op&fsnotify.Rename == fsnotify.Rename {
					// Debounce: editors and atomic saves fire event bursts.
					if pending != nil {
						pending.Stop()
					}
					pending = time.AfterFunc(reloadDebounce, func() {
						if err := s.Reload(); err != nil {
							logger.WithError(err).Warn("store: reload after external change failed")
						}
					})
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				logger.WithError(err).Warn("store: watcher error")
			case <-w.done:
				return
			}
		}
	}()

	return w, nil
}

// Stop ends watching.
func (w *Watcher) Stop() {
	close(w.done)
	w.fsw.Close()
}
