package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrFetch", ErrFetch},
		{"ErrEmptyInput", ErrEmptyInput},
		{"ErrEmbedding", ErrEmbedding},
		{"ErrIndexCorrupt", ErrIndexCorrupt},
		{"ErrUpstream", ErrUpstream},
		{"ErrNoResults", ErrNoResults},
		{"ErrModelMismatch", ErrModelMismatch},
		{"ErrDimensionMismatch", ErrDimensionMismatch},
		{"ErrIngestInProgress", ErrIngestInProgress},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrOffTopic", ErrOffTopic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestStageError_WrapsAndUnwraps(t *testing.T) {
	err := NewStageError(StageEmbedding, "chunk-1", fmt.Errorf("%w: connection refused", ErrEmbedding))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmbedding))
	assert.Equal(t, `embedding "chunk-1": embedding failed: connection refused`, err.Error())

	stage, ok := StageOf(fmt.Errorf("ingest: %w", err))
	assert.True(t, ok)
	assert.Equal(t, StageEmbedding, stage)
}

func TestStageError_NoInput(t *testing.T) {
	err := NewStageError(StageIndexing, "", ErrIndexCorrupt)

	assert.Equal(t, "indexing: index corrupt", err.Error())
}

func TestNewStageError_NilIsNil(t *testing.T) {
	assert.NoError(t, NewStageError(StageLoading, "x", nil))
}

func TestStageOf_PlainError(t *testing.T) {
	_, ok := StageOf(errors.New("plain"))

	assert.False(t, ok)
}

func TestFetchError_IsErrFetch(t *testing.T) {
	err := &FetchError{URL: "https://example.com/a", Err: errors.New("status 404")}

	assert.True(t, errors.Is(err, ErrFetch))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "fetch https://example.com/a: status 404", err.Error())
}

func TestFetchError_JoinedStillMatches(t *testing.T) {
	joined := errors.Join(
		&FetchError{URL: "a", Err: errors.New("x")},
		&FetchError{URL: "b", Err: errors.New("y")},
	)
	err := fmt.Errorf("%w: %w", ErrEmptyInput, joined)

	assert.True(t, errors.Is(err, ErrEmptyInput))
	assert.True(t, errors.Is(err, ErrFetch))
}

func TestStatusError(t *testing.T) {
	tests := []struct {
		code      int
		body      string
		temporary bool
		msg       string
	}{
		{400, "bad model", false, "groq: status 400: bad model"},
		{401, "", false, "groq: status 401"},
		{429, "slow down", true, "groq: status 429: slow down"},
		{503, "", true, "groq: status 503"},
	}
	for _, tt := range tests {
		err := &StatusError{Service: "groq", StatusCode: tt.code, Body: tt.body}
		assert.Equal(t, tt.temporary, err.Temporary(), "status %d", tt.code)
		assert.Equal(t, tt.msg, err.Error())
	}
}

func TestStatusError_WrappedWithSentinel(t *testing.T) {
	err := fmt.Errorf("%w: %w", ErrUpstream, &StatusError{Service: "openai", StatusCode: 500})

	var se *StatusError
	assert.True(t, errors.As(err, &se))
	assert.True(t, errors.Is(err, ErrUpstream))
	assert.Equal(t, 500, se.StatusCode)
}
