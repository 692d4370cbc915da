package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/core/ports/driven"
)

func reply(w http.ResponseWriter, content string) {
	_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":` + quote(content) + `},"finish_reason":"stop"}]}`))
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestNewLLMService_RequiresAPIKey(t *testing.T) {
	_, err := NewLLMService(Config{Service: "groq"})

	assert.EqualError(t, err, "groq: API key is required")
}

func TestLLMService_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer gsk-test", r.Header.Get("Authorization"))
		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3-8b-8192", req.Model)
		assert.Equal(t, []chatCompletionMsg{{Role: "user", Content: "What happened?"}}, req.Messages)
		assert.Equal(t, 200, req.MaxTokens)
		reply(w, "The central bank cut rates.")
	}))
	defer srv.Close()
	s, err := NewLLMService(Config{APIKey: "gsk-test", BaseURL: srv.URL + "/openai/v1", Model: "llama3-8b-8192", Service: "groq"})
	require.NoError(t, err)

	out, err := s.Generate(context.Background(), "What happened?", driven.GenerateOptions{MaxTokens: 200})

	require.NoError(t, err)
	assert.Equal(t, "The central bank cut rates.", out)
	assert.Equal(t, "llama3-8b-8192", s.ModelName())
}

func TestLLMService_Chat_SendsHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 3)
		assert.Equal(t, "assistant", req.Messages[1].Role)
		reply(w, "Try a front kick.")
	}))
	defer srv.Close()
	s, err := NewLLMService(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := s.Chat(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "Teach me a kick"},
		{Role: domain.RoleAssistant, Content: "Which style?"},
		{Role: domain.RoleUser, Content: "Karate"},
	}, driven.ChatOptions{Temperature: 0.7})

	require.NoError(t, err)
	assert.Equal(t, "Try a front kick.", out)
}

func TestLLMService_Errors(t *testing.T) {
	tests := []struct {
		name   string
		code   int
		body   string
		status int
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, 429},
		{"no choices", http.StatusOK, `{"choices":[]}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()
			s, err := NewLLMService(Config{APIKey: "k", BaseURL: srv.URL})
			require.NoError(t, err)

			_, err = s.Generate(context.Background(), "p", driven.GenerateOptions{})

			assert.ErrorIs(t, err, domain.ErrUpstream)
			var se *domain.StatusError
			if tt.status != 0 {
				require.True(t, errors.As(err, &se))
				assert.Equal(t, tt.status, se.StatusCode)
			}
		})
	}
}

func TestLLMService_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()
	s, err := NewLLMService(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	assert.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, s.Close())
}
