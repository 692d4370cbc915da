package driven

import "context"

// IndexStore persists a VectorIndex as a single snapshot.
//
// Save fully replaces any previous snapshot at path and never leaves a
// partially written one behind. Load fails with domain.ErrNotFound when
// nothing exists at path and with domain.ErrIndexCorrupt when the snapshot
// cannot be decoded into a valid index.
type IndexStore interface {
	// Save writes the full index state to path.
	Save(ctx context.Context, path string, index VectorIndex) error

	// Load reads the index stored at path.
	Load(ctx context.Context, path string) (VectorIndex, error)
}
