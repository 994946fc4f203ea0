package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yourusername/tiler/internal/logging"
)

// Store holds the live configuration. Readers get a consistent snapshot;
// writers clone, modify and swap.
type Store struct {
	current atomic.Pointer[Config]
}

// NewStore creates a store holding cfg (or the defaults when nil)
func NewStore(cfg *Config) *Store {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Store{}
	s.current.Store(cfg)
	return s
}

// Load returns the current configuration. Callers must not modify it.
func (s *Store) Load() *Config {
	return s.current.Load()
}

// Replace swaps in a new configuration
func (s *Store) Replace(cfg *Config) {
	s.current.Store(cfg)
}

// Update applies fn to a copy of the current configuration and publishes
// the result.
func (s *Store) Update(fn func(*Config)) *Config {
	for {
		old := s.current.Load()
		next := old.Clone()
		fn(next)
		if s.current.CompareAndSwap(old, next) {
			return next
		}
	}
}

// DefaultWatchDebounce is how long Watch waits for a burst of file
// events to settle before reloading
const DefaultWatchDebounce = 200 * time.Millisecond

// Watch reloads path whenever it is written or replaced and calls
// onReload with each newly parsed configuration. Parse failures are
// logged and the previous configuration stays in effect. Watch returns
// when ctx is done.
func Watch(ctx context.Context, path string, debounce time.Duration, onReload func(*Config)) error {
	if path == "" {
		return nil
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer w.Close()
	// watch the directory: saving by rename replaces the file's inode
	dir := filepath.Dir(abs)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	logging.Debug().Str("path", abs).Msg("watching config file")

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) == abs && ev.Has(fsnotify.Write|fsnotify.Create) {
				timer.Reset(debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logging.Warn().Err(err).Str("path", abs).Msg("config watcher error")
		case <-timer.C:
			cfg, err := LoadConfig(abs)
			if err != nil {
				logging.Error().Err(err).Str("path", abs).Msg("config reload failed")
				continue
			}
			logging.Info().Str("path", abs).Msg("config reloaded")
			onReload(cfg)
		}
	}
}
