package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	// Returned when a query is issued and no persisted index is present.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrFetch indicates a URL could not be loaded.
	ErrFetch = errors.New("fetch failed")

	// ErrEmptyInput indicates no documents or chunks were produced.
	ErrEmptyInput = errors.New("empty input")

	// ErrEmbedding indicates the embedding model was unreachable
	// or returned malformed output.
	ErrEmbedding = errors.New("embedding failed")

	// ErrIndexCorrupt indicates a persisted index is unreadable
	// or has inconsistent dimensionality.
	ErrIndexCorrupt = errors.New("index corrupt")

	// ErrUpstream indicates the LLM call failed.
	ErrUpstream = errors.New("upstream LLM error")

	// ErrNoResults indicates the index is empty or search returned nothing.
	ErrNoResults = errors.New("no results")

	// ErrModelMismatch indicates the query embedder is not the model
	// the index was built with.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrDimensionMismatch indicates a vector with the wrong length.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrIngestInProgress indicates another ingestion holds the index lock.
	ErrIngestInProgress = errors.New("ingestion in progress")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Ingestion and retrieval are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrOffTopic indicates a chat message outside the configured topics.
	ErrOffTopic = errors.New("off topic")
)

// StageError wraps a failure with the pipeline stage it happened in
// and the input that caused it.
type StageError struct {
	// Stage is where the error happened.
	Stage Stage

	// Input is the offending URL, chunk or query, if any.
	Input string

	// Err is the underlying error.
	Err error
}

// Error implements error.
func (e *StageError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Stage, e.Input, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with stage context. Returns nil if err is nil.
func NewStageError(stage Stage, input string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Input: input, Err: err}
}

// StageOf returns the stage recorded in err, if any.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}

// FetchError reports a URL that could not be loaded.
type FetchError struct {
	// URL is the offending URL.
	URL string

	// Err is the reason.
	Err error
}

// Error implements error.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports FetchError as ErrFetch.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// StatusError reports a non-success HTTP status from a model provider.
type StatusError struct {
	// Service names the provider, e.g. "ollama".
	Service string

	// StatusCode is the HTTP status returned.
	StatusCode int

	// Body is the (possibly truncated) response body.
	Body string
}

// Error implements error.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Service, e.StatusCode, e.Body)
}

// Temporary reports whether retrying the request may succeed:
// rate limiting and server-side failures.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
