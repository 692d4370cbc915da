// Package watch caches loaded indexes in memory and drops a cached index as
// soon as its file changes on disk.
//
// Long-running surfaces (TUI, HTTP API) answer many questions against the same
// index; the cache saves a full decode per question while still picking up a
// re-ingest performed by another process. Cached indexes are shared between
// callers and must be treated as read-only.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/rockybot/internal/core/ports/driven"
	"github.com/custodia-labs/rockybot/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.IndexStore = (*Store)(nil)

// Store is a caching IndexStore decorator.
type Store struct {
	inner   driven.IndexStore
	watcher *fsnotify.Watcher

	mu    sync.Mutex
	cache map[string]driven.VectorIndex
	gen   map[string]uint64
	dirs  map[string]bool

	done      chan struct{}
	closeOnce sync.Once
}

// New wraps inner with a cache. Close must be called to stop watching.
func New(inner driven.IndexStore) (*Store, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	s := &Store{
		inner:   inner,
		watcher: w,
		cache:   make(map[string]driven.VectorIndex),
		gen:     make(map[string]uint64),
		dirs:    make(map[string]bool),
		done:    make(chan struct{}),
	}
	go s.handleEvents()
	return s, nil
}

// Load returns the cached index for path, loading it on a miss.
// Errors are never cached, and neither is a load that an invalidation
// overtook while it was in flight.
func (s *Store) Load(ctx context.Context, path string) (driven.VectorIndex, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving index path: %w", err)
	}

	s.mu.Lock()
	if index, ok := s.cache[abs]; ok {
		s.mu.Unlock()
		logger.Debug("watch: cache hit for %s", abs)
		return index, nil
	}
	gen := s.gen[abs]
	s.mu.Unlock()

	if err := s.watchDir(filepath.Dir(abs)); err != nil {
		logger.Warn("watch: %v; caching disabled for %s", err, abs)
		return s.inner.Load(ctx, path)
	}

	index, err := s.inner.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.gen[abs] == gen {
		s.cache[abs] = index
	} else {
		logger.Debug("watch: %s changed during load; not caching", abs)
	}
	s.mu.Unlock()
	return index, nil
}

// Save writes through to the inner store and drops the cached copy.
func (s *Store) Save(ctx context.Context, path string, index driven.VectorIndex) error {
	abs, absErr := filepath.Abs(path)
	if absErr == nil {
		s.invalidate(abs)
	}
	err := s.inner.Save(ctx, path, index)
	if absErr == nil {
		s.invalidate(abs)
	}
	return err
}

// Cached reports whether path currently has a cached index.
func (s *Store) Cached(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.cache[abs]
	return ok
}

// Close stops the watcher and clears the cache.
func (s *Store) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		close(s.done)
		if err := s.watcher.Close(); err != nil {
			closeErr = fmt.Errorf("closing watcher: %w", err)
		}
		s.mu.Lock()
		s.cache = make(map[string]driven.VectorIndex)
		s.mu.Unlock()
	})
	return closeErr
}

// watchDir watches the directory rather than the file: saves replace the
// file by rename, which would silently end a watch on the file itself.
func (s *Store) watchDir(dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dirs[dir] {
		return nil
	}
	if err := s.watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	s.dirs[dir] = true
	return nil
}

// invalidate drops the cached index for abs and bumps its generation so
// loads already in flight do not cache what they read.
func (s *Store) invalidate(abs string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen[abs]++
	if _, ok := s.cache[abs]; ok {
		delete(s.cache, abs)
		logger.Debug("watch: invalidated %s", abs)
	}
}

func (s *Store) handleEvents() {
	for {
		select {
		case <-s.done:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				s.invalidate(filepath.Clean(event.Name))
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			if err != nil && !errors.Is(err, fsnotify.ErrClosed) {
				logger.Warn("watch: %v", err)
			}
		}
	}
}
