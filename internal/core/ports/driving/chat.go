package driving

import (
	"context"

	"github.com/custodia-labs/rockybot/internal/core/domain"
)

// ChatService runs a topic-guarded conversation within a session.
type ChatService interface {
	// Send sends message and returns the reply. Off-topic messages return
	// the refusal text together with domain.ErrOffTopic.
	Send(ctx context.Context, session *domain.Session, message string) (string, error)
}

// SessionService manages named user sessions.
type SessionService interface {
	// Open returns the named session, creating it if needed.
	Open(ctx context.Context, name string) (*domain.Session, error)

	// Save persists a session.
	Save(ctx context.Context, session *domain.Session) error

	// ResetChat clears the chat history of the named session.
	ResetChat(ctx context.Context, name string) error

	// AddGoal adds a goal for today.
	AddGoal(ctx context.Context, name, text string) error

	// CompleteGoal marks today's goal at index (zero-based) as done.
	CompleteGoal(ctx context.Context, name string, index int) error

	// Goals returns today's goals.
	Goals(ctx context.Context, name string) ([]domain.Goal, error)

	// LogTraining appends a training entry.
	LogTraining(ctx context.Context, name string, entry domain.TrainingEntry) error

	// TrainingLog returns all training entries.
	TrainingLog(ctx context.Context, name string) ([]domain.TrainingEntry, error)
}
