package am

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/teranos/storygraph/errors"
	"github.com/teranos/storygraph/logger"
)

// reloadDebounce collapses editor write bursts into one reload.
const reloadDebounce = 500 * time.Millisecond

// ReloadFunc receives the freshly loaded config after an external edit.
type ReloadFunc func(*Config)

// Watcher follows the user config file and re-reads it when something
// other than storygraph writes it. Writes made through UpdateSetting are
// suppressed, so a running watcher never reloads its own persistence.
type Watcher struct {
	path      string
	fs        *fsnotify.Watcher
	debounce  time.Duration
	callbacks []ReloadFunc

	mu        sync.Mutex
	timer     *time.Timer
	selfWrite bool
}

// activeWatcher lets saveUserConfig flag its own writes without the
// command layer threading the watcher through every call site.
var activeWatcher atomic.Pointer[Watcher]

// Watch starts following the config file at path. Callbacks run on the
// watcher goroutine after each debounced external edit. Close stops the
// watcher and releases the inotify handle.
func Watch(path string, callbacks ...ReloadFunc) (*Watcher, error) {
	return newWatcher(path, reloadDebounce, callbacks...)
}

func newWatcher(path string, debounce time.Duration, callbacks ...ReloadFunc) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating file watcher")
	}

	// Watch the directory rather than the file itself: editors that
	// replace the file on save (write-to-temp, rename-over) would
	// otherwise drop the watch after the first edit.
	dir := filepath.Dir(path)
	if err := fs.Add(dir); err != nil {
		fs.Close()
		return nil, errors.Wrapf(err, "watching %s", dir)
	}

	w := &Watcher{
		path:      path,
		fs:        fs,
		debounce:  debounce,
		callbacks: callbacks,
	}
	activeWatcher.Store(w)
	go w.loop()
	return w, nil
}

// Close stops the watcher. Safe to call once; pending debounce timers
// are cancelled.
func (w *Watcher) Close() error {
	activeWatcher.CompareAndSwap(w, nil)
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fs.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			// Directory watch sees sibling files too (backups, temp
			// files); only the config file itself matters.
			if filepath.Base(ev.Name) != filepath.Base(w.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if w.consumeSelfWrite() {
				logger.Debugw("config watcher skipping own write", "file", ev.Name)
				continue
			}
			logger.Infow("config file changed", "file", ev.Name, "op", ev.Op.String())
			w.scheduleReload()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logger.Warnw("config watcher error", "error", err)
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	// Drop the cached merged config so the next am.Load / am.Get sees
	// the edit, then read the watched file directly for the callbacks.
	Reset()
	cfg, err := LoadFromFile(w.path)
	if err != nil {
		logger.Errorw("config reload failed", "path", w.path, "error", err)
		return
	}
	logger.Infow("config reloaded", "path", w.path)
	for _, cb := range w.callbacks {
		cb(cfg)
	}
}

// noteOwnWrite flags the next config-file event as one of ours.
func noteOwnWrite() {
	w := activeWatcher.Load()
	if w == nil {
		return
	}
	w.mu.Lock()
	w.selfWrite = true
	w.mu.Unlock()
}

func (w *Watcher) consumeSelfWrite() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	was := w.selfWrite
	w.selfWrite = false
	return was
}
