// Package watcher signals when the credential file changes on disk, so a
// refreshed cookie is verified without waiting for the next interval.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a single file. Events is buffered by one and coalesces
// bursts: editors emit several events for a single save.
type Watcher struct {
	Events chan struct{}

	w    *fsnotify.Watcher
	log  *slog.Logger
	path string
}

// TryWatch attempts to watch the given file asynchronously. It only logs a
// warning if the watch cannot be established.
func TryWatch(ctx context.Context, path string, log *slog.Logger) *Watcher {
	w := newWatcher(path, log)

	go func() {
		if err := w.init(); err != nil {
			w.log.Warn("not watching credentials file", "path", path, "error", err.Error())
			return
		}

		w.watch(ctx)
	}()

	return w
}

// NewWatcher watches the given file until ctx is cancelled.
func NewWatcher(ctx context.Context, path string, log *slog.Logger) (*Watcher, error) {
	w := newWatcher(path, log)
	if err := w.init(); err != nil {
		return nil, err
	}

	go w.watch(ctx)
	return w, nil
}

func newWatcher(path string, log *slog.Logger) *Watcher {
	if log == nil {
		log = slog.Default()
	}

	return &Watcher{
		Events: make(chan struct{}, 1),
		log:    log.With("component", "watcher"),
		path:   filepath.Clean(path),
	}
}

func (w *Watcher) init() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	// Watch the directory: editors and `sed -i` replace the file by rename,
	// which drops a watch placed on the file itself.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch dir: %w", err)
	}

	w.w = watcher
	return nil
}

func (w *Watcher) watch(ctx context.Context) {
	defer w.w.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			w.log.Warn("inotify error", "error", err.Error())

		case evt, ok := <-w.w.Events:
			if !ok {
				return
			}
			if !w.relevant(evt) {
				continue
			}

			select {
			case w.Events <- struct{}{}:
			default:
			}
		}
	}
}

func (w *Watcher) relevant(evt fsnotify.Event) bool {
	if filepath.Clean(evt.Name) != w.path {
		return false
	}
	return evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}
