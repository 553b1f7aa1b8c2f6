package fscache

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// invalidator is what the watcher needs from a DirCache.
type invalidator interface {
	Invalidate(prefix string)
}

// Watcher listens for filesystem changes in the data directories and
// invalidates cached state so out-of-band edits become visible before
// the TTLs expire. Newly created subdirectories are added to the watch
// set, which keeps category folders under the library covered.
type Watcher struct {
	fsw      *fsnotify.Watcher
	dirCache invalidator
	onChange func()
	logger   *slog.Logger
	done     chan struct{}
}

// NewWatcher watches the given root directories. onChange is called on
// every relevant event, after the directory cache has been invalidated
// for the affected directory; pass the search cache's Invalidate.
func NewWatcher(dirCache invalidator, onChange func(), logger *slog.Logger, roots ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fsw:      fsw,
		dirCache: dirCache,
		onChange: onChange,
		logger:   logger,
		done:     make(chan struct{}),
	}

	for _, root := range roots {
		if err := w.addTree(root); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	go w.loop()
	return w, nil
}

// addTree watches root and every directory below it.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	w.logger.Debug("file change detected", "path", event.Name, "op", event.Op.String())

	// A new subdirectory (e.g. a category folder) needs its own watch.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
		}
	}

	w.dirCache.Invalidate(filepath.Dir(event.Name))
	if w.onChange != nil {
		w.onChange()
	}
}

// Close stops the watcher. Safe to call once.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
