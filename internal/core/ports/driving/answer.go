package driving

import (
	"context"

	"github.com/custodia-labs/rockybot/internal/core/domain"
)

// AnswerService answers questions against the persisted index.
type AnswerService interface {
	// Answer retrieves the nearest chunks and asks the LLM.
	Answer(ctx context.Context, question string, opts domain.AskOptions) (*domain.Answer, error)

	// Info describes the persisted index at path, or the configured path
	// when path is empty.
	Info(ctx context.Context, path string) (*domain.IndexInfo, error)
}
