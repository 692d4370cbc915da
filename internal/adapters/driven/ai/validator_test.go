package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/rockybot/internal/core/domain"
)

func TestConfigValidator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()
	v := NewConfigValidator()
	ctx := context.Background()

	assert.NoError(t, v.ValidateEmbedding(ctx, nil))
	assert.NoError(t, v.ValidateLLM(ctx, nil))

	assert.NoError(t, v.ValidateEmbedding(ctx, &domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama, Model: "nomic-embed-text", BaseURL: srv.URL,
	}))
	assert.NoError(t, v.ValidateLLM(ctx, &domain.LLMSettings{
		Provider: domain.AIProviderOllama, Model: "llama3.2", BaseURL: srv.URL,
	}))

	assert.ErrorIs(t, v.ValidateLLM(ctx, &domain.LLMSettings{Provider: domain.AIProviderGroq, Model: "m"}),
		domain.ErrLLMUnavailable)
	assert.ErrorIs(t, v.ValidateEmbedding(ctx, &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, Model: "m"}),
		domain.ErrEmbeddingUnavailable)
}
