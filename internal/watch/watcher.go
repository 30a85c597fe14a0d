// Package watch monitors a figure source tree and emits debounced rebuild
// triggers.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors a source tree recursively and coalesces rapid file changes
// into single rebuild triggers.
type Watcher struct {
	root         string
	extensions   []string
	watcher      *fsnotify.Watcher
	triggers     chan struct{}
	debounceTime time.Duration
}

// NewWatcher creates a watcher for the given source root. Only events on
// files carrying one of the extensions produce triggers; directory creation
// is tracked so new subtrees are picked up.
func NewWatcher(root string, extensions []string, debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to resolve source root: %w", err)
	}

	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	return &Watcher{
		root:         absRoot,
		extensions:   extensions,
		watcher:      fsWatcher,
		triggers:     make(chan struct{}, 1),
		debounceTime: debounce,
	}, nil
}

// Start registers the source tree and begins delivering triggers until ctx is
// canceled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(w.root); err != nil {
		return err
	}

	slog.Info("Watching source tree", "root", w.root, "extensions", w.extensions)
	go w.watchLoop(ctx)
	return nil
}

// Triggers returns the channel delivering debounced rebuild triggers.
func (w *Watcher) Triggers() <-chan struct{} {
	return w.triggers
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// addTree registers every directory under root with the watcher.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) watchLoop(ctx context.Context) {
	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			slog.Debug("Source tree changed", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounceTime)
				timerCh = timer.C
			} else {
				resetDebounce(timer, w.debounceTime)
			}

		case <-timerCh:
			select {
			case w.triggers <- struct{}{}:
			default: // a trigger is already pending
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("File watcher error", "error", err)
		}
	}
}

// resetDebounce restarts the timer, discarding a tick that already fired but
// was not consumed. Without the drain a stale tick would end the new window
// immediately.
func resetDebounce(timer *time.Timer, d time.Duration) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(d)
}

// relevant reports whether the event concerns a recognized source file. New
// directories are registered here so nested changes are seen.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				slog.Warn("Failed to watch new directory", "path", event.Name, "error", err)
			}
			return false
		}
	}

	ext := filepath.Ext(event.Name)
	for _, want := range w.extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}
