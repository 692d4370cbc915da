// Package lock provides cross-process ingestion locks backed by lock files.
package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/core/ports/driven"
	"github.com/custodia-labs/rockybot/internal/logger"
)

// Ensure FileLocker implements the interface.
var _ driven.IngestLocker = (*FileLocker)(nil)

// FileLocker takes an exclusive flock on "<index path>.lock".
type FileLocker struct{}

// NewFileLocker creates a file locker.
func NewFileLocker() *FileLocker {
	return &FileLocker{}
}

// LockPath returns the lock file used for an index path.
func LockPath(indexPath string) string {
	return indexPath + ".lock"
}

// TryLock takes the lock without waiting.
func (l *FileLocker) TryLock(ctx context.Context, path string) (func() error, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	fl := flock.New(LockPath(path))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", fl.Path(), err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s is locked", domain.ErrIngestInProgress, path)
	}

	logger.Debug("lock: acquired %s", fl.Path())
	return fl.Unlock, nil
}
