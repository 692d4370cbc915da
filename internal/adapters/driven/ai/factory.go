// Package ai builds embedding and LLM adapters from settings.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/rockybot/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/rockybot/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/rockybot/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/rockybot/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/rockybot/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/rockybot/internal/adapters/driven/retry"
	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// fixHint tells the user how to repair a provider configuration.
const fixHint = "Run 'rockybot settings show' to check the configuration"

// InitResult holds the AI services built from settings.
type InitResult struct {
	Embedder   driven.Embedder
	LLMService driven.LLMService
	Warnings   []string // Non-fatal issues; the affected service is nil.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.Embedder != nil {
		r.Embedder.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Initialise builds both services and wraps them with the retry policy.
// A service that cannot be built is left nil with a warning, so commands that
// do not need it keep working. With validate set, each service is pinged.
func Initialise(ctx context.Context, settings *domain.AppSettings, validate bool) *InitResult {
	result := &InitResult{}
	policy := retry.Policy{Attempts: uint64(max(settings.Retry.Attempts, 0))}

	embedder, err := createEmbedder(ctx, &settings.Embedding, validate)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	}
	result.Embedder = retry.WrapEmbedder(embedder, policy)

	llm, err := createLLM(ctx, &settings.LLM, validate)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	}
	result.LLMService = retry.WrapLLM(llm, policy)

	return result
}

func createEmbedder(ctx context.Context, settings *domain.EmbeddingSettings, validate bool) (driven.Embedder, error) {
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: %s is not configured. %s",
			domain.ErrEmbeddingUnavailable, settings.Provider, fixHint)
	}
	if validate {
		return CreateAndValidateEmbedder(ctx, settings)
	}
	svc, err := CreateEmbedder(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrEmbeddingUnavailable, err, fixHint)
	}
	return svc, nil
}

func createLLM(ctx context.Context, settings *domain.LLMSettings, validate bool) (driven.LLMService, error) {
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: %s is not configured. %s",
			domain.ErrLLMUnavailable, settings.Provider, fixHint)
	}
	if validate {
		return CreateAndValidateLLMService(ctx, settings)
	}
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrLLMUnavailable, err, fixHint)
	}
	return svc, nil
}

// CreateAndValidateEmbedder creates an embedder and validates connectivity.
func CreateAndValidateEmbedder(ctx context.Context, settings *domain.EmbeddingSettings) (driven.Embedder, error) {
	svc, err := CreateEmbedder(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrEmbeddingUnavailable, err, fixHint)
	}
	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrEmbeddingUnavailable, err, fixHint)
	}
	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
func CreateAndValidateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrLLMUnavailable, err, fixHint)
	}
	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrLLMUnavailable, err, fixHint)
	}
	return svc, nil
}

// CreateEmbedder creates the embedder selected by settings.
// Returns nil if the provider is not configured.
func CreateEmbedder(settings *domain.EmbeddingSettings) (driven.Embedder, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbedder(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: domain.EmbeddingDimensions()[settings.Model],
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbedder(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderGroq, domain.AIProviderAnthropic:
		return nil, fmt.Errorf("%s does not provide embeddings, use ollama or openai", settings.Provider)

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the LLM service selected by settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderGroq:
		baseURL := settings.BaseURL
		if baseURL == "" {
			baseURL = domain.GroqBaseURL
		}
		return openaillm.NewLLMService(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: baseURL,
			Model:   settings.Model,
			Service: "groq",
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// errNotConfigured is reported by the validator for providers missing a key.
var errNotConfigured = errors.New("provider is not configured")
