package tokenstore

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"ghnotifier/pkg/logging"
)

const (
	// DefaultDebounceInterval is how long the watcher waits after the last
	// change before calling OnChange.
	DefaultDebounceInterval = 500 * time.Millisecond

	// DefaultWatchInterval is the polling interval used when fsnotify is not
	// available.
	DefaultWatchInterval = 5 * time.Second
)

// WatcherConfig holds configuration for the token file watcher.
type WatcherConfig struct {
	// Path is the token file to watch. It may not exist yet.
	Path string

	// WatchInterval is the fallback polling interval.
	WatchInterval time.Duration

	// Debounce defaults to DefaultDebounceInterval.
	Debounce time.Duration

	// OnChange is called when the token file was written, replaced or removed.
	OnChange func()
}

// Watcher notices when the token file changes outside the running process,
// for example when `auth logout` removes it while `watch` is running.
// It uses fsnotify on the token's directory and falls back to polling the
// file's modification time when fsnotify cannot be used.
type Watcher struct {
	mu sync.Mutex

	config WatcherConfig

	fsWatcher *fsnotify.Watcher
	stopCh    chan struct{}
	running   bool

	// fallback polling state
	lastModTime time.Time
	lastExists  bool

	debounceTimer *time.Timer
	debounceMu    sync.Mutex
}

// NewWatcher creates a watcher for the token file.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.WatchInterval <= 0 {
		config.WatchInterval = DefaultWatchInterval
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounceInterval
	}
	return &Watcher{config: config}
}

// Start begins watching. Calling Start on a running watcher is a no-op.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.stopCh = make(chan struct{})
	w.running = true

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Warn("TokenWatcher", "fsnotify not available, falling back to polling: %v", err)
		w.startPolling()
		return nil
	}

	dir := filepath.Dir(w.config.Path)
	if err := watcher.Add(dir); err != nil {
		logging.Warn("TokenWatcher", "Failed to watch directory %s, falling back to polling: %v", dir, err)
		watcher.Close()
		w.startPolling()
		return nil
	}
	w.fsWatcher = watcher

	go w.processEvents(watcher.Events, watcher.Errors, w.stopCh)

	logging.Debug("TokenWatcher", "Watching %s for token changes", w.config.Path)
	return nil
}

func (w *Watcher) startPolling() {
	w.lastModTime, w.lastExists = w.stat()
	go w.pollForChanges(w.stopCh)
}

// processEvents receives its channels as parameters so Stop can clear
// w.fsWatcher without racing with this goroutine.
func (w *Watcher) processEvents(eventsCh <-chan fsnotify.Event, errorsCh <-chan error, stopCh <-chan struct{}) {
	for {
		select {
		case <-stopCh:
			return

		case event, ok := <-eventsCh:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-errorsCh:
			if !ok {
				return
			}
			logging.Error("TokenWatcher", err, "fsnotify error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(w.config.Path) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	logging.Debug("TokenWatcher", "Token file event: %s", event.Op)
	w.triggerDebounced()
}

// triggerDebounced collapses a burst of events (truncate, then write) into
// one OnChange call.
func (w *Watcher) triggerDebounced() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.debounceTimer = time.AfterFunc(w.config.Debounce, func() {
		w.mu.Lock()
		running := w.running
		callback := w.config.OnChange
		w.mu.Unlock()

		if running && callback != nil {
			callback()
		}
	})
}

func (w *Watcher) pollForChanges(stopCh <-chan struct{}) {
	ticker := time.NewTicker(w.config.WatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return

		case <-ticker.C:
			if w.checkForChanges() {
				logging.Debug("TokenWatcher", "Token file change detected via polling")
				w.triggerDebounced()
			}
		}
	}
}

func (w *Watcher) stat() (time.Time, bool) {
	info, err := os.Stat(w.config.Path)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

func (w *Watcher) checkForChanges() bool {
	modTime, exists := w.stat()
	changed := exists != w.lastExists || (exists && !modTime.Equal(w.lastModTime))
	w.lastModTime, w.lastExists = modTime, exists
	return changed
}

// Stop stops the watcher. Pending debounced callbacks are dropped.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	close(w.stopCh)

	w.debounceMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.debounceMu.Unlock()

	if w.fsWatcher != nil {
		if err := w.fsWatcher.Close(); err != nil {
			logging.Warn("TokenWatcher", "Error closing fsnotify watcher: %v", err)
		}
		w.fsWatcher = nil
	}
	return nil
}

// IsRunning returns whether the watcher is currently active.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
