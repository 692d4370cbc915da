// Package flat provides an exact brute-force vector index.
//
// Every search scans all entries, so results are exact and ordering is
// fully deterministic: nearest first, equal distances in insertion order.
package flat

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is an in-memory exact nearest-neighbour index.
type Index struct {
	mu       sync.RWMutex
	meta     domain.IndexMeta
	entries  []domain.IndexEntry
	distance func(a, b []float32) float64
}

// New creates an empty index for the given metadata.
func New(meta domain.IndexMeta) (*Index, error) {
	if err := meta.Validate(); err != nil {
		return nil, fmt.Errorf("flat index: %w", err)
	}
	return &Index{
		meta:     meta,
		distance: distanceFunc(meta.Metric),
	}, nil
}

// Factory adapts New to driven.IndexFactory.
func Factory(meta domain.IndexMeta) (driven.VectorIndex, error) {
	return New(meta)
}

// Meta returns the index metadata.
func (x *Index) Meta() domain.IndexMeta {
	x.mu.RLock()
	defer x.mu.RUnlock()
	meta := x.meta
	meta.Sources = append([]string(nil), x.meta.Sources...)
	return meta
}

// Add appends entries. The whole call fails if any vector has the wrong length.
func (x *Index) Add(_ context.Context, entries ...domain.IndexEntry) error {
	for i := range entries {
		if len(entries[i].Vector) != x.meta.Dimensions {
			return fmt.Errorf("%w: entry %q has %d dimensions, index has %d",
				domain.ErrDimensionMismatch, entries[i].ChunkID, len(entries[i].Vector), x.meta.Dimensions)
		}
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	for _, e := range entries {
		e.Vector = append([]float32(nil), e.Vector...)
		x.entries = append(x.entries, e)
	}
	return nil
}

// Search returns the min(k, Len()) nearest entries.
func (x *Index) Search(ctx context.Context, query []float32, k int) ([]domain.SearchHit, error) {
	if len(query) != x.meta.Dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(query), x.meta.Dimensions)
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if k <= 0 || len(x.entries) == 0 {
		return []domain.SearchHit{}, nil
	}
	if k > len(x.entries) {
		k = len(x.entries)
	}

	type scored struct {
		idx  int
		dist float64
	}
	scores := make([]scored, len(x.entries))
	for i := range x.entries {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		scores[i] = scored{idx: i, dist: x.distance(query, x.entries[i].Vector)}
	}

	// Stable sort keeps insertion order among equal distances.
	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].dist < scores[b].dist
	})

	hits := make([]domain.SearchHit, k)
	for rank := 0; rank < k; rank++ {
		e := x.entries[scores[rank].idx]
		e.Vector = append([]float32(nil), e.Vector...)
		hits[rank] = domain.SearchHit{Entry: e, Distance: scores[rank].dist, Rank: rank}
	}
	return hits, nil
}

// Entries returns a copy of all entries in insertion order.
func (x *Index) Entries() []domain.IndexEntry {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]domain.IndexEntry, len(x.entries))
	for i, e := range x.entries {
		e.Vector = append([]float32(nil), e.Vector...)
		out[i] = e
	}
	return out
}

// Len returns the number of entries.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}
