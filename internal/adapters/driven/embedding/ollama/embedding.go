// Package ollama provides an embedding adapter for a local Ollama server.
package ollama

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/rockybot/internal/adapters/driven/ai/transport"
	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/core/ports/driven"
)

// Ensure Embedder implements the interface.
var _ driven.Embedder = (*Embedder)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultModel      = "nomic-embed-text"
	DefaultTimeout    = 60 * time.Second
	DefaultDimensions = 768 // nomic-embed-text
)

// Config holds configuration for the Ollama embedder.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the embedding model to use (default: nomic-embed-text).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// Dimensions is the expected vector size (model-dependent).
	Dimensions int
}

// Embedder generates embeddings using Ollama's batch /api/embed endpoint.
type Embedder struct {
	client     *transport.Client
	model      string
	dimensions int
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewEmbedder creates a new Ollama embedder.
func NewEmbedder(cfg Config) *Embedder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}
	return &Embedder{
		client:     transport.New("ollama", cfg.BaseURL, cfg.Timeout, nil),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

// Embed generates a vector embedding for the given text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds all texts in one request.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	var resp embedResponse
	if err := e.client.PostJSON(ctx, "/api/embed", embedRequest{Model: e.model, Input: texts}, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: ollama returned %d embeddings for %d inputs",
			domain.ErrEmbedding, len(resp.Embeddings), len(texts))
	}
	for i, v := range resp.Embeddings {
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: ollama returned an empty embedding for input %d", domain.ErrEmbedding, i)
		}
	}
	return resp.Embeddings, nil
}

// Dimensions returns the expected embedding vector size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// ModelName returns the name of the embedding model being used.
func (e *Embedder) ModelName() string {
	return e.model
}

// Ping checks the /api/tags endpoint, which does not load a model.
func (e *Embedder) Ping(ctx context.Context) error {
	if err := e.client.Get(ctx, "/api/tags"); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
	}
	return nil
}

// Close releases resources.
func (e *Embedder) Close() error {
	return nil
}
