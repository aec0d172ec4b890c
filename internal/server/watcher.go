package server

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow lets a burst of filesystem events settle before one
// refresh runs for all of them.
const debounceWindow = 500 * time.Millisecond

// watch observes the project tree and calls refresh after each debounced
// burst of create/write/remove events. Refreshes run sequentially, so a
// slow one naturally gates the next.
func watch(ctx context.Context, root string, refresh func()) (func(), error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := addWatches(w, root); err != nil {
		w.Close()
		return nil, err
	}

	go func() {
		var timer *time.Timer
		var fire <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				// New directories must be watched as they appear.
				if event.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						addWatches(w, event.Name)
					}
				}
				if timer == nil {
					timer = time.NewTimer(debounceWindow)
					fire = timer.C
				} else {
					timer.Reset(debounceWindow)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("watcher error", "error", err)
			case <-fire:
				timer = nil
				fire = nil
				slog.Debug("file change detected, refreshing index")
				refresh()
			}
		}
	}()

	return func() { w.Close() }, nil
}

// addWatches registers path and every directory below it. fsnotify has no
// recursive mode, so the tree is walked once here.
func addWatches(w *fsnotify.Watcher, path string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if name := d.Name(); name == ".git" || name == ".maharajah" || name == "node_modules" {
			return filepath.SkipDir
		}
		if err := w.Add(p); err != nil {
			slog.Debug("cannot watch directory", "path", p, "error", err)
		}
		return nil
	})
}
