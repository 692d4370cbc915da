package driven

import "context"

// IngestLocker serialises ingestion runs against one index path.
type IngestLocker interface {
	// TryLock takes the lock for path without waiting. If another run holds
	// it, domain.ErrIngestInProgress is returned. The returned function
	// releases the lock.
	TryLock(ctx context.Context, path string) (unlock func() error, err error)
}
