package driven

import (
	"context"

	"github.com/custodia-labs/rockybot/internal/core/domain"
)

// VectorIndex stores index entries and performs nearest-neighbour search.
// The metric and dimensionality are fixed by the index metadata.
type VectorIndex interface {
	// Meta returns the metadata the index was created with.
	Meta() domain.IndexMeta

	// Add appends entries in order. Every vector must have Meta().Dimensions
	// elements, otherwise domain.ErrDimensionMismatch is returned and no
	// entry is added.
	Add(ctx context.Context, entries ...domain.IndexEntry) error

	// Search returns the min(k, Len()) nearest entries, nearest first.
	// Ties are broken by insertion order. An empty index returns no hits.
	Search(ctx context.Context, query []float32, k int) ([]domain.SearchHit, error)

	// Entries returns all entries in insertion order.
	Entries() []domain.IndexEntry

	// Len returns the number of entries.
	Len() int
}

// IndexFactory creates an empty index for the given metadata.
type IndexFactory func(meta domain.IndexMeta) (VectorIndex, error)
