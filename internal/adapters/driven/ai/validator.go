package ai

import (
	"context"
	"fmt"

	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator validates AI provider configurations by pinging them.
type ConfigValidator struct{}

// NewConfigValidator creates a new AI config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding pings the embedding provider.
func (v *ConfigValidator) ValidateEmbedding(ctx context.Context, config *domain.EmbeddingSettings) error {
	if config == nil {
		return nil
	}
	if !config.IsConfigured() {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, errNotConfigured)
	}
	svc, err := CreateAndValidateEmbedder(ctx, config)
	if err != nil {
		return err
	}
	return svc.Close()
}

// ValidateLLM pings the LLM provider.
func (v *ConfigValidator) ValidateLLM(ctx context.Context, config *domain.LLMSettings) error {
	if config == nil {
		return nil
	}
	if !config.IsConfigured() {
		return fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, errNotConfigured)
	}
	svc, err := CreateAndValidateLLMService(ctx, config)
	if err != nil {
		return err
	}
	return svc.Close()
}
