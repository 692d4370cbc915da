package driven

import (
	"context"

	"github.com/custodia-labs/rockybot/internal/core/domain"
)

// SessionStore persists chat sessions by name.
type SessionStore interface {
	// Get returns the session with the given name, or domain.ErrNotFound.
	Get(ctx context.Context, name string) (*domain.Session, error)

	// Save stores or replaces a session.
	Save(ctx context.Context, session *domain.Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, name string) error
}
