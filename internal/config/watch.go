package config

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher holds an immutable, atomically-swapped Config snapshot and
// refreshes it when the backing file (or one of its $include targets)
// changes on disk. Reloads are debounced since editors frequently emit a
// burst of events for one logical save (write-then-rename, temp-file
// shuffle). A reload that fails to parse or fails validation is logged and
// discarded; the last-known-good snapshot keeps serving requests.
type Watcher struct {
	path     string
	current  atomic.Pointer[Config]
	debounce time.Duration
	onReload func(*Config)
	onError  func(error)

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// WatcherOption customises NewWatcher.
type WatcherOption func(*Watcher)

// WithDebounce overrides the default 250ms debounce window.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithReloadHook registers a callback invoked after each successful reload
// with the newly active configuration.
func WithReloadHook(fn func(*Config)) WatcherOption {
	return func(w *Watcher) { w.onReload = fn }
}

// WithErrorHook registers a callback invoked when a reload attempt fails.
func WithErrorHook(fn func(error)) WatcherOption {
	return func(w *Watcher) { w.onError = fn }
}

// NewWatcher loads path once synchronously and returns a Watcher serving
// that snapshot. Call Start to begin watching for on-disk changes.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	w := &Watcher{path: path, debounce: 250 * time.Millisecond}
	for _, opt := range opts {
		opt(w)
	}
	w.current.Store(cfg)
	return w, nil
}

// Get returns the currently active configuration snapshot. The returned
// pointer is never mutated in place; callers may retain it across a reload.
func (w *Watcher) Get() *Config {
	return w.current.Load()
}

// Start begins watching the config file's directory for changes. It is a
// no-op if already started. The watch stops when ctx is cancelled or Close
// is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watcher != nil {
		w.mu.Unlock()
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		w.mu.Unlock()
		return err
	}
	w.watcher = fsw
	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.mu.Unlock()

	w.wg.Add(1)
	go w.loop(watchCtx)
	return nil
}

// Close stops the watch goroutine and releases the underlying OS watch.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	fsw := w.watcher
	w.watcher = nil
	w.mu.Unlock()

	if fsw != nil {
		_ = fsw.Close()
	}
	w.wg.Wait()
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	w.mu.Lock()
	fsw := w.watcher
	w.mu.Unlock()
	if fsw == nil {
		return
	}

	absPath, err := filepath.Abs(w.path)
	if err != nil {
		absPath = w.path
	}

	var mu sync.Mutex
	var timer *time.Timer
	scheduleReload := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.debounce, w.reload)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			eventPath, err := filepath.Abs(event.Name)
			if err != nil || eventPath != absPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				scheduleReload()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		if w.onError != nil {
			w.onError(err)
		}
		return
	}
	w.current.Store(cfg)
	if w.onReload != nil {
		w.onReload(cfg)
	}
}
