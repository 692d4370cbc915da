package driven

import (
	"context"

	"github.com/custodia-labs/rockybot/internal/core/domain"
)

// AIConfigValidator checks that configured AI providers are reachable.
type AIConfigValidator interface {
	// ValidateEmbedding pings the embedding provider.
	// Returns nil if the configuration is valid or not configured.
	ValidateEmbedding(ctx context.Context, config *domain.EmbeddingSettings) error

	// ValidateLLM pings the LLM provider.
	// Returns nil if the configuration is valid or not configured.
	ValidateLLM(ctx context.Context, config *domain.LLMSettings) error
}
