package driving

import (
	"context"

	"github.com/custodia-labs/rockybot/internal/core/domain"
)

// IngestService builds and persists an index from a list of URLs.
type IngestService interface {
	// Ingest runs Loading, Chunking, Embedding and Indexing, then saves the
	// index. On failure the report's state is Failed and the error carries
	// the failing stage. A previously saved index is left untouched.
	Ingest(ctx context.Context, urls []string, opts domain.IngestOptions) (*domain.IngestReport, error)

	// State returns the state of the current or last run.
	State() domain.IngestionState
}
