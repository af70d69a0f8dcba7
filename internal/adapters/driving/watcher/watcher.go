// Package watcher re-runs a callback when the work directory changes.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-docs/internal/logger"
)

// DefaultDebounce is the quiet period after the last event before onChange runs.
const DefaultDebounce = 2 * time.Second

// ErrNoCallback is returned when no change callback is given.
var ErrNoCallback = errors.New("watcher: change callback is required")

// Watcher watches a work directory and its document directories.
type Watcher struct {
	root     string
	debounce time.Duration
	onChange func(ctx context.Context) error
}

// New creates a watcher over root. A debounce of zero or less uses DefaultDebounce.
func New(root string, debounce time.Duration, onChange func(ctx context.Context) error) (*Watcher, error) {
	if onChange == nil {
		return nil, ErrNoCallback
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{root: root, debounce: debounce, onChange: onChange}, nil
}

// Run blocks until ctx is cancelled. Bursts of relevant events collapse
// into a single onChange call. Errors from onChange are logged, not returned.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addTree(fsw); err != nil {
		return err
	}
	logger.Info("watching %s", w.root)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			logger.Debug("watch event: %s", event)
			// New document directories need their own watch.
			if event.Has(fsnotify.Create) && w.isDocumentDir(event.Name) {
				if err := fsw.Add(event.Name); err != nil {
					logger.Warn("watching %s: %v", event.Name, err)
				}
			}
			timer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)

		case <-timer.C:
			if err := w.onChange(ctx); err != nil {
				logger.Error("sync after change: %v", err)
			}
		}
	}
}

// addTree watches the root and every document directory directly under it.
func (w *Watcher) addTree(fsw *fsnotify.Watcher) error {
	if err := fsw.Add(w.root); err != nil {
		return fmt.Errorf("watching %s: %w", w.root, err)
	}
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return fmt.Errorf("reading %s: %w", w.root, err)
	}
	for _, e := range entries {
		if !e.IsDir() || isHidden(e.Name()) {
			continue
		}
		if err := fsw.Add(filepath.Join(w.root, e.Name())); err != nil {
			return fmt.Errorf("watching %s: %w", e.Name(), err)
		}
	}
	return nil
}

// relevant reports whether an event can change what the index holds.
// Chmod-only events and hidden files are ignored.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if isHidden(part) {
			return false
		}
	}
	return true
}

func (w *Watcher) isDocumentDir(path string) bool {
	if filepath.Dir(path) != filepath.Clean(w.root) {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
