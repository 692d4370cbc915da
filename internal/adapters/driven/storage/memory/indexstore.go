package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// IndexStore keeps saved indexes in memory, keyed by path. Saved indexes
// are rebuilt through the factory so later changes to the caller's index
// are not visible.
type IndexStore struct {
	mu       sync.RWMutex
	newIndex driven.IndexFactory
	indexes  map[string]driven.VectorIndex
	loads    int
}

// NewIndexStore creates an empty index store.
func NewIndexStore(newIndex driven.IndexFactory) *IndexStore {
	return &IndexStore{newIndex: newIndex, indexes: make(map[string]driven.VectorIndex)}
}

// Save stores a copy of index under path.
func (s *IndexStore) Save(ctx context.Context, path string, index driven.VectorIndex) error {
	c, err := s.copyIndex(ctx, index)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes[path] = c
	return nil
}

// Load returns a copy of the index stored under path.
func (s *IndexStore) Load(ctx context.Context, path string) (driven.VectorIndex, error) {
	s.mu.Lock()
	s.loads++
	index, ok := s.indexes[path]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: no index at %s", domain.ErrNotFound, path)
	}
	return s.copyIndex(ctx, index)
}

// Loads returns how many times Load was called.
func (s *IndexStore) Loads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loads
}

func (s *IndexStore) copyIndex(ctx context.Context, index driven.VectorIndex) (driven.VectorIndex, error) {
	c, err := s.newIndex(index.Meta())
	if err != nil {
		return nil, err
	}
	if err := c.Add(ctx, index.Entries()...); err != nil {
		return nil, err
	}
	return c, nil
}
