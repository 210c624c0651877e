package refresher

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ignitero/ignitero/internal/config"
	"github.com/ignitero/ignitero/internal/errdefs"
	"github.com/ignitero/ignitero/internal/log"
)

// debounceDelay coalesces event bursts (an app install touches hundreds of
// files) into a single refresh.
const debounceDelay = 2 * time.Second

// Watcher watches application roots and registered directories and
// schedules a debounced refresh when their contents change.
type Watcher struct {
	cfg       *config.Config
	refresher *Refresher

	watcher *fsnotify.Watcher
	running bool
	mu      sync.Mutex
	done    chan struct{}

	debounceMu sync.Mutex
	debounce   *time.Timer
}

func NewWatcher(cfg *config.Config, r *Refresher) *Watcher {
	return &Watcher{cfg: cfg, refresher: r}
}

func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return errdefs.NewCustomError(errdefs.ErrTypeWatcherFailed, "failed to create watcher", err)
	}
	w.watcher = watcher
	w.done = make(chan struct{})
	w.running = true
	w.mu.Unlock()

	watchCount := 0
	for _, root := range w.watchRoots() {
		if err := watcher.Add(root); err != nil {
			log.Warnf("failed to watch %s: %v", root, err)
			continue
		}
		watchCount++
	}
	log.Infof("watching %d roots for changes", watchCount)

	go w.eventLoop(watcher, w.done)
	return nil
}

func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	close(w.done)
	err := w.watcher.Close()
	w.watcher = nil

	w.debounceMu.Lock()
	if w.debounce != nil {
		w.debounce.Stop()
		w.debounce = nil
	}
	w.debounceMu.Unlock()

	log.Infof("watcher stopped")
	return err
}

func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// watchRoots returns the existing directories worth watching: configured
// app roots and registered directory parents.
func (w *Watcher) watchRoots() []string {
	var roots []string
	add := func(path string) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			roots = append(roots, path)
		}
	}

	for _, dir := range w.cfg.AppDirs {
		add(dir.Path)
	}
	for _, dir := range w.cfg.Directories {
		add(dir.Path)
	}
	return roots
}

func (w *Watcher) eventLoop(watcher *fsnotify.Watcher, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Errorf("watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	// Only structural changes matter for the catalog. Bundle-internal
	// writes during app updates get picked up once the bundle itself
	// changes, and watching inside bundles would blow inotify limits.
	if strings.Contains(event.Name, ".app/") {
		return
	}

	log.Debugf("filesystem change: %s (%s)", event.Name, event.Op)
	w.scheduleRefresh()
}

func (w *Watcher) scheduleRefresh() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounce != nil {
		w.debounce.Reset(debounceDelay)
		return
	}

	w.debounce = time.AfterFunc(debounceDelay, func() {
		w.debounceMu.Lock()
		w.debounce = nil
		w.debounceMu.Unlock()

		if !w.IsRunning() {
			return
		}
		if err := w.refresher.Refresh(context.Background()); err != nil {
			log.Errorf("watcher-triggered refresh failed: %v", err)
		}
	})
}
