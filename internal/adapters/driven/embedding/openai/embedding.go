// Package openai provides an embedding adapter for the OpenAI API and
// compatible servers.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/rockybot/internal/adapters/driven/ai/transport"
	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/core/ports/driven"
)

// Ensure Embedder implements the interface.
var _ driven.Embedder = (*Embedder)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second

	// maxBatch bounds the inputs sent in one request.
	maxBatch = 256
)

// modelDimensions lists the native vector size of known models.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config holds configuration for the OpenAI embedder.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-3-small).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// Dimensions requests shortened vectors from text-embedding-3 models.
	// Zero uses the model's native size.
	Dimensions int
}

// Embedder generates embeddings using the /embeddings endpoint.
type Embedder struct {
	client     *transport.Client
	model      string
	dimensions int
	shorten    bool
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// NewEmbedder creates a new OpenAI embedder.
func NewEmbedder(cfg Config) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	native := modelDimensions[cfg.Model]
	dimensions := cfg.Dimensions
	if dimensions == 0 {
		dimensions = native
	}
	shorten := cfg.Dimensions != 0 && cfg.Dimensions != native && strings.HasPrefix(cfg.Model, "text-embedding-3-")

	return &Embedder{
		client: transport.New("openai", cfg.BaseURL, cfg.Timeout, map[string]string{
			"Authorization": "Bearer " + cfg.APIKey,
		}),
		model:      cfg.Model,
		dimensions: dimensions,
		shorten:    shorten,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in batches, preserving input order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		end := min(start+maxBatch, len(texts))
		vectors, err := e.embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (e *Embedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	req := embeddingRequest{Model: e.model, Input: texts}
	if e.shorten {
		req.Dimensions = e.dimensions
	}

	var resp embeddingResponse
	if err := e.client.PostJSON(ctx, "/embeddings", req, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: openai returned %d embeddings for %d inputs",
			domain.ErrEmbedding, len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) || vectors[d.Index] != nil || len(d.Embedding) == 0 {
			return nil, fmt.Errorf("%w: openai returned a malformed embedding at index %d", domain.ErrEmbedding, d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// Dimensions returns the expected embedding vector size.
// Zero means unknown until the first embedding is returned.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// ModelName returns the name of the embedding model being used.
func (e *Embedder) ModelName() string {
	return e.model
}

// Ping lists models, which costs no tokens.
func (e *Embedder) Ping(ctx context.Context) error {
	if err := e.client.Get(ctx, "/models"); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
	}
	return nil
}

// Close releases resources.
func (e *Embedder) Close() error {
	return nil
}
