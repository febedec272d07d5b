package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docsync/internal/core/ports/driven"
	"github.com/custodia-labs/docsync/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.ChangeNotifier = (*Watcher)(nil)

// DefaultDebounce is how long the tree must be quiet before a change is signalled.
const DefaultDebounce = 250 * time.Millisecond

// Watcher signals changes under a root directory. Bursts of events are
// coalesced into one signal once the tree has been quiet for the debounce period.
type Watcher struct {
	rootPath string
	debounce time.Duration
}

// NewWatcher creates a watcher for rootPath. A non-positive debounce uses DefaultDebounce.
func NewWatcher(rootPath string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{rootPath: rootPath, debounce: debounce}
}

// Changes starts watching. The returned channel is closed when ctx is done.
func (w *Watcher) Changes(ctx context.Context) (<-chan struct{}, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.addTree(fsw, w.rootPath); err != nil {
		fsw.Close()
		return nil, err
	}

	out := make(chan struct{}, 1)
	go w.loop(ctx, fsw, out)
	return out, nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, out chan<- struct{}) {
	defer close(out)
	defer fsw.Close()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if w.handleEvent(fsw, event) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("watch error under %s: %v", w.rootPath, err)

		case <-timer.C:
			select {
			case out <- struct{}{}:
			default:
				// A signal is already pending.
			}
		}
	}
}

// handleEvent reports whether event should trigger a sync, adding watches
// for newly created directories.
func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event) bool {
	if w.hidden(event.Name) {
		return false
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(fsw, event.Name); err != nil {
				logger.Warn("watching new directory %s: %v", event.Name, err)
			}
		}
	}
	return true
}

func (w *Watcher) hidden(path string) bool {
	rel, err := filepath.Rel(w.rootPath, path)
	if err != nil {
		return isHidden(path)
	}
	return isHidden(rel)
}

// addTree watches dir and every visible directory beneath it.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("watching %s: %w", path, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.rootPath && w.hidden(path) {
			return fs.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}
