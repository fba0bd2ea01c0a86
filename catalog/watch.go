package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/spektr-org/catalogdash/lookup"
)

// WatchSource serves a loaded catalog and swaps in a fresh one after the CSV
// changes on disk. Bursts of events within Delay collapse into one reload.
// A reload that fails keeps the previous catalog.
type WatchSource struct {
	path    string
	tables  *lookup.Tables
	logger  zerolog.Logger
	delay   time.Duration
	watcher *fsnotify.Watcher
	current atomic.Pointer[Catalog]
	reloads atomic.Int64
}

// NewWatchSource loads path once and starts watching its directory. The
// file itself is not watched so that editors replacing it by rename are
// still seen. Call Run to process events.
func NewWatchSource(path string, tables *lookup.Tables, delay time.Duration, logger zerolog.Logger) (*WatchSource, error) {
	cat, err := Load(path, tables, logger)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("catalog: create watcher: %w", err)
	}
	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("catalog: watch %s: %w", path, err)
	}

	s := &WatchSource{
		path:    path,
		tables:  tables,
		logger:  logger.With().Str("component", "watcher").Logger(),
		delay:   delay,
		watcher: watcher,
	}
	s.current.Store(cat)
	return s, nil
}

// Catalog returns the most recently loaded catalog.
func (s *WatchSource) Catalog(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.current.Load(), nil
}

// Reloads returns how many reloads have succeeded.
func (s *WatchSource) Reloads() int64 { return s.reloads.Load() }

// Run processes file events until ctx is done, then closes the watcher.
func (s *WatchSource) Run(ctx context.Context) error {
	defer s.watcher.Close()

	timer := time.NewTimer(s.delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return nil
			}
			if s.affects(ev) {
				timer.Reset(s.delay)
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn().Err(err).Msg("watch error")
		case <-timer.C:
			s.reload()
		}
	}
}

func (s *WatchSource) affects(ev fsnotify.Event) bool {
	return filepath.Clean(ev.Name) == s.path && ev.Op&(fsnotify.Write|fsnotify.Create) != 0
}

func (s *WatchSource) reload() {
	cat, err := Load(s.path, s.tables, s.logger)
	if err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("reload failed, keeping previous catalog")
		return
	}
	s.current.Store(cat)
	s.reloads.Add(1)
	s.logger.Info().Str("path", s.path).Int("titles", cat.Len()).Msg("catalog reloaded")
}
