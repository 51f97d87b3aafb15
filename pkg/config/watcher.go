package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the configuration file when it changes on disk, so the
// active provider can be switched without restarting. Writes are debounced:
// editors commonly produce several events per save.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewWatcher creates a watcher for the given configuration file.
func NewWatcher(path string) *Watcher {
	return &Watcher{
		path:     path,
		debounce: 100 * time.Millisecond,
		logger:   slog.Default().With("component", "config.watcher"),
	}
}

// Watch blocks, invoking onReload with each successfully reloaded
// configuration until ctx is cancelled. Reload failures are logged and the
// previous configuration stays active.
func (w *Watcher) Watch(ctx context.Context, onReload func(*Config)) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors replace files on save and
	// the inode-level watch would be lost.
	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}

	w.logger.Info("watching configuration", "path", w.path)

	var timer *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case <-reload:
			cfg, err := LoadWithEnv(w.path)
			if err != nil {
				w.logger.Error("configuration reload failed, keeping previous", "error", err)
				continue
			}
			w.logger.Info("configuration reloaded", "provider", cfg.Provider.Provider)
			onReload(cfg)
		}
	}
}
