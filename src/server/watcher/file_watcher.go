// Package watcher reports out-of-editor changes to Bismut source files so
// open workspaces stay analyzed even when files change on disk.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"bismut-lsp/src/internal/common"
	"bismut-lsp/src/internal/constants"
)

// ChangeEvent represents a single debounced file change.
type ChangeEvent struct {
	Path      string
	Operation string // "write", "create", "remove", "rename"
	Timestamp time.Time
}

// SourceWatcher watches workspace directories for Bismut source changes
// and delivers them in debounced batches.
type SourceWatcher struct {
	watcher       *fsnotify.Watcher
	onChange      func([]ChangeEvent)
	debounceDelay time.Duration

	// Debouncing
	pendingEvents map[string]*ChangeEvent
	eventMutex    sync.Mutex
	debounceTimer *time.Timer

	// Control
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSourceWatcher creates a watcher that reports batches of changed
// Bismut files to onChange.
func NewSourceWatcher(onChange func([]ChangeEvent)) (*SourceWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &SourceWatcher{
		watcher:       watcher,
		onChange:      onChange,
		debounceDelay: constants.FileWatchDebounceDelay,
		pendingEvents: make(map[string]*ChangeEvent),
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
	}, nil
}

// AddPath adds a file or directory (recursively) to the watch set.
func (w *SourceWatcher) AddPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	if err := w.watcher.Add(absPath); err != nil {
		return err
	}
	common.ServerLogger.Debug("SourceWatcher: watching %s", absPath)

	if err := w.addSubdirectories(absPath); err != nil {
		common.ServerLogger.Warn("Failed to add subdirectories for %s: %v", absPath, err)
	}
	return nil
}

// addSubdirectories recursively adds subdirectories to the watch set,
// skipping tool and VCS directories.
func (w *SourceWatcher) addSubdirectories(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip unreadable entries
		}

		base := filepath.Base(path)
		if constants.SkipDirectories[base] || (strings.HasPrefix(base, ".") && path != root) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() && path != root {
			if err := w.watcher.Add(path); err != nil {
				common.ServerLogger.Warn("Failed to watch directory %s: %v", path, err)
			}
		}
		return nil
	})
}

// Start begins watching for file changes.
func (w *SourceWatcher) Start() {
	go w.watchLoop()
}

func (w *SourceWatcher) watchLoop() {
	defer close(w.done)

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.shouldProcess(event.Name) {
				continue
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			common.ServerLogger.Error("SourceWatcher error: %v", err)
		}
	}
}

// shouldProcess filters events down to Bismut source files; newly created
// directories get added to the watch set as a side effect.
func (w *SourceWatcher) shouldProcess(path string) bool {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		if err := w.addSubdirectories(path); err != nil {
			common.ServerLogger.Warn("Failed to add new directory %s: %v", path, err)
		}
		return false
	}
	return filepath.Ext(path) == constants.FileExtension
}

// handleEvent records a file system event and resets the debounce timer.
func (w *SourceWatcher) handleEvent(event fsnotify.Event) {
	w.eventMutex.Lock()
	defer w.eventMutex.Unlock()

	var operation string
	switch {
	case event.Op&fsnotify.Write == fsnotify.Write:
		operation = "write"
	case event.Op&fsnotify.Create == fsnotify.Create:
		operation = "create"
	case event.Op&fsnotify.Remove == fsnotify.Remove:
		operation = "remove"
	case event.Op&fsnotify.Rename == fsnotify.Rename:
		operation = "rename"
	default:
		return
	}

	w.pendingEvents[event.Name] = &ChangeEvent{
		Path:      event.Name,
		Operation: operation,
		Timestamp: time.Now(),
	}

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, w.flushEvents)
}

// flushEvents delivers all pending events to the callback.
func (w *SourceWatcher) flushEvents() {
	w.eventMutex.Lock()
	defer w.eventMutex.Unlock()

	if len(w.pendingEvents) == 0 {
		return
	}

	events := make([]ChangeEvent, 0, len(w.pendingEvents))
	for _, event := range w.pendingEvents {
		events = append(events, *event)
	}
	w.pendingEvents = make(map[string]*ChangeEvent)

	if w.onChange != nil {
		common.ServerLogger.Debug("SourceWatcher: flushing %d change events", len(events))
		go w.onChange(events)
	}
}

// Stop stops the watcher, flushing any pending events first.
func (w *SourceWatcher) Stop() error {
	w.cancel()
	w.flushEvents()
	err := w.watcher.Close()
	<-w.done
	return err
}

// SetDebounceDelay overrides the event batching delay.
func (w *SourceWatcher) SetDebounceDelay(delay time.Duration) {
	w.debounceDelay = delay
}
