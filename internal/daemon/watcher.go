package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/buildcontrol/internal/logfields"
)

// ConfigWatcher monitors the configuration document and every included
// subfile, triggering a debounced reload when any of them change.
type ConfigWatcher struct {
	configPath   string
	reload       func(ctx context.Context)
	watcher      *fsnotify.Watcher
	log          *slog.Logger
	mu           sync.RWMutex
	watched      map[string]bool // absolute file paths in the watch set
	dirs         map[string]bool // directories added to fsnotify
	stopChan     chan struct{}
	reloadChan   chan struct{}
	debounceTime time.Duration
}

// NewConfigWatcher creates a watcher for the given configuration file. reload
// is invoked after the debounce window; it must handle its own error
// reporting.
func NewConfigWatcher(configPath string, reload func(ctx context.Context), log *slog.Logger) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}

	cw := &ConfigWatcher{
		configPath:   absPath,
		reload:       reload,
		watcher:      watcher,
		log:          log,
		watched:      map[string]bool{absPath: true},
		dirs:         make(map[string]bool),
		stopChan:     make(chan struct{}),
		reloadChan:   make(chan struct{}, 1),
		debounceTime: 2 * time.Second,
	}
	return cw, nil
}

// Start begins monitoring. Watches the containing directories rather than the
// files themselves; editors that replace files on save would otherwise detach
// the watch.
func (cw *ConfigWatcher) Start(ctx context.Context) error {
	if err := cw.watchDirsLocked(); err != nil {
		return err
	}

	cw.log.Info("starting configuration watcher", logfields.Path(cw.configPath))

	go cw.watchLoop(ctx)
	go cw.reloadLoop(ctx)

	return nil
}

// Stop stops the configuration watcher.
func (cw *ConfigWatcher) Stop(ctx context.Context) error {
	cw.log.Info("stopping configuration watcher")

	close(cw.stopChan)

	if cw.watcher != nil {
		if err := cw.watcher.Close(); err != nil {
			cw.log.Error("error closing file watcher", logfields.Error(err))
		}
	}
	return nil
}

// SetSubfiles replaces the set of included subfiles to watch alongside the
// main document. Called after each successful load with the paths the
// resolver reported.
func (cw *ConfigWatcher) SetSubfiles(paths []string) {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.watched = map[string]bool{cw.configPath: true}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		cw.watched[abs] = true
	}
	if err := cw.watchDirsLocked(); err != nil {
		cw.log.Error("failed to extend watch set", logfields.Error(err))
	}
}

// watchDirsLocked ensures every directory containing a watched file is
// registered with fsnotify. Directories are never removed; a stale watch on a
// directory that no longer holds config files is harmless.
func (cw *ConfigWatcher) watchDirsLocked() error {
	for path := range cw.watched {
		dir := filepath.Dir(path)
		if cw.dirs[dir] {
			continue
		}
		if err := cw.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		cw.dirs[dir] = true
	}
	return nil
}

func (cw *ConfigWatcher) isWatched(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	cw.mu.RLock()
	defer cw.mu.RUnlock()
	return cw.watched[abs]
}

func (cw *ConfigWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.stopChan:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if !cw.isWatched(event.Name) {
				continue
			}

			switch {
			case event.Op&fsnotify.Write == fsnotify.Write:
				cw.log.Debug("config file write detected", logfields.File(event.Name))
				cw.triggerReload()
			case event.Op&fsnotify.Create == fsnotify.Create:
				cw.log.Debug("config file create detected", logfields.File(event.Name))
				cw.triggerReload()
			case event.Op&fsnotify.Rename == fsnotify.Rename:
				cw.log.Debug("config file rename detected", logfields.File(event.Name))
				cw.triggerReload()
			case event.Op&fsnotify.Remove == fsnotify.Remove:
				cw.log.Warn("config file removed", logfields.File(event.Name))
			}

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.log.Error("config watcher error", logfields.Error(err))
		}
	}
}

// reloadLoop handles debounced configuration reloads.
func (cw *ConfigWatcher) reloadLoop(ctx context.Context) {
	var reloadTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			return
		case <-cw.stopChan:
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			return
		case <-cw.reloadChan:
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			reloadTimer = time.AfterFunc(cw.debounceTime, func() {
				cw.reload(ctx)
			})
		}
	}
}

// triggerReload coalesces rapid change bursts into one pending reload.
func (cw *ConfigWatcher) triggerReload() {
	select {
	case cw.reloadChan <- struct{}{}:
	default:
	}
}
