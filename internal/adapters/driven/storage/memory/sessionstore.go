package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/core/ports/driven"
)

// Ensure SessionStore implements the interface.
var _ driven.SessionStore = (*SessionStore)(nil)

// SessionStore keeps sessions in a map keyed by name.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]domain.Session)}
}

// Get returns a copy of the named session.
func (s *SessionStore) Get(_ context.Context, name string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[name]
	if !ok {
		return nil, fmt.Errorf("%w: session %q", domain.ErrNotFound, name)
	}
	c := cloneSession(session)
	return &c, nil
}

// Save stores a copy of the session.
func (s *SessionStore) Save(_ context.Context, session *domain.Session) error {
	if session == nil || session.Name == "" {
		return fmt.Errorf("%w: session must have a name", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Name] = cloneSession(*session)
	return nil
}

// Delete removes a session.
func (s *SessionStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, name)
	return nil
}

func cloneSession(s domain.Session) domain.Session {
	s.History = append([]domain.ChatMessage(nil), s.History...)
	s.Goals = append([]domain.Goal(nil), s.Goals...)
	s.TrainingLog = append([]domain.TrainingEntry(nil), s.TrainingLog...)
	return s
}
