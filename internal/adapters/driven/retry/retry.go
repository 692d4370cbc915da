// Package retry decorates model clients with exponential backoff.
//
// Only transient failures are retried: transport errors, rate limiting and
// 5xx responses. Cancellation and client errors surface immediately.
package retry

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/core/ports/driven"
	"github.com/custodia-labs/rockybot/internal/logger"
)

// Default backoff bounds.
const (
	DefaultBase = 250 * time.Millisecond
	DefaultMax  = 5 * time.Second
)

// Policy configures the backoff.
type Policy struct {
	// Attempts is the number of retries after the first call.
	Attempts uint64

	// Base is the first backoff interval.
	Base time.Duration

	// Max caps the total time spent backing off.
	Max time.Duration
}

func (p Policy) backoff() retry.Backoff {
	base, maxDur := p.Base, p.Max
	if base <= 0 {
		base = DefaultBase
	}
	if maxDur <= 0 {
		maxDur = DefaultMax
	}
	b := retry.NewExponential(base)
	b = retry.WithMaxDuration(maxDur, b)
	return retry.WithMaxRetries(p.Attempts, b)
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var status *domain.StatusError
	if errors.As(err, &status) {
		return status.Temporary()
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func do(ctx context.Context, p Policy, op string, fn func(ctx context.Context) error) error {
	attempt := 0
	return retry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err != nil && IsRetryable(err) {
			logger.Debug("retry: %s attempt %d failed: %v", op, attempt, err)
			return retry.RetryableError(err)
		}
		return err
	})
}

// Ensure Embedder implements the interface.
var _ driven.Embedder = (*Embedder)(nil)

// Embedder retries an inner embedder.
type Embedder struct {
	driven.Embedder
	policy Policy
}

// WrapEmbedder returns inner unchanged when p.Attempts is zero.
func WrapEmbedder(inner driven.Embedder, p Policy) driven.Embedder {
	if inner == nil || p.Attempts == 0 {
		return inner
	}
	return &Embedder{Embedder: inner, policy: p}
}

// Embed retries the inner Embed.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := do(ctx, e.policy, "embed", func(ctx context.Context) error {
		var err error
		out, err = e.Embedder.Embed(ctx, text)
		return err
	})
	return out, err
}

// EmbedBatch retries the inner EmbedBatch as a whole.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := do(ctx, e.policy, "embed batch", func(ctx context.Context) error {
		var err error
		out, err = e.Embedder.EmbedBatch(ctx, texts)
		return err
	})
	return out, err
}

// Ensure LLM implements the interface.
var _ driven.LLMService = (*LLM)(nil)

// LLM retries an inner LLM service.
type LLM struct {
	driven.LLMService
	policy Policy
}

// WrapLLM returns inner unchanged when p.Attempts is zero.
func WrapLLM(inner driven.LLMService, p Policy) driven.LLMService {
	if inner == nil || p.Attempts == 0 {
		return inner
	}
	return &LLM{LLMService: inner, policy: p}
}

// Generate retries the inner Generate.
func (l *LLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	var out string
	err := do(ctx, l.policy, "generate", func(ctx context.Context) error {
		var err error
		out, err = l.LLMService.Generate(ctx, prompt, opts)
		return err
	})
	return out, err
}

// Chat retries the inner Chat.
func (l *LLM) Chat(ctx context.Context, messages []domain.ChatMessage, opts driven.ChatOptions) (string, error) {
	var out string
	err := do(ctx, l.policy, "chat", func(ctx context.Context) error {
		var err error
		out, err = l.LLMService.Chat(ctx, messages, opts)
		return err
	})
	return out, err
}
