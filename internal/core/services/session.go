package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/core/ports/driven"
	"github.com/custodia-labs/rockybot/internal/core/ports/driving"
)

// Ensure SessionService implements the interface.
var _ driving.SessionService = (*SessionService)(nil)

// SessionService manages named sessions: chat history, daily goals and
// the training log.
type SessionService struct {
	store driven.SessionStore
	now   func() time.Time
}

// NewSessionService creates a new session service.
func NewSessionService(store driven.SessionStore) *SessionService {
	return &SessionService{store: store, now: time.Now}
}

// SetClock replaces the time source.
func (s *SessionService) SetClock(now func() time.Time) {
	s.now = now
}

// Open returns the named session, creating an unsaved one if needed.
// An empty name opens the default session.
func (s *SessionService) Open(ctx context.Context, name string) (*domain.Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = domain.DefaultSessionName
	}

	session, err := s.store.Get(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewSession(uuid.NewString(), name, s.now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open session %q: %w", name, err)
	}
	return session, nil
}

// Save persists a session.
func (s *SessionService) Save(ctx context.Context, session *domain.Session) error {
	return s.store.Save(ctx, session)
}

// ResetChat clears the chat history of the named session.
func (s *SessionService) ResetChat(ctx context.Context, name string) error {
	return s.update(ctx, name, func(session *domain.Session) error {
		session.ResetChat()
		return nil
	})
}

// AddGoal adds a goal for today.
func (s *SessionService) AddGoal(ctx context.Context, name, text string) error {
	return s.update(ctx, name, func(session *domain.Session) error {
		return session.AddGoal(text, s.now())
	})
}

// CompleteGoal marks today's goal at index as done.
func (s *SessionService) CompleteGoal(ctx context.Context, name string, index int) error {
	return s.update(ctx, name, func(session *domain.Session) error {
		return session.CompleteGoal(index, s.now())
	})
}

// Goals returns today's goals. Goals from an earlier day are cleared.
func (s *SessionService) Goals(ctx context.Context, name string) ([]domain.Goal, error) {
	session, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	if session.RollGoals(s.now()) {
		if err := s.store.Save(ctx, session); err != nil {
			return nil, err
		}
	}
	return append([]domain.Goal(nil), session.Goals...), nil
}

// LogTraining appends a training entry. A zero date means today.
func (s *SessionService) LogTraining(ctx context.Context, name string, entry domain.TrainingEntry) error {
	if entry.Date.IsZero() {
		entry.Date = s.now()
	}
	return s.update(ctx, name, func(session *domain.Session) error {
		return session.LogTraining(entry)
	})
}

// TrainingLog returns all training entries.
func (s *SessionService) TrainingLog(ctx context.Context, name string) ([]domain.TrainingEntry, error) {
	session, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return append([]domain.TrainingEntry(nil), session.TrainingLog...), nil
}

// update opens the session, applies fn and saves it if fn succeeds.
func (s *SessionService) update(ctx context.Context, name string, fn func(*domain.Session) error) error {
	session, err := s.Open(ctx, name)
	if err != nil {
		return err
	}
	if err := fn(session); err != nil {
		return err
	}
	return s.store.Save(ctx, session)
}
