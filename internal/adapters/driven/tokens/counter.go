// Package tokens counts model tokens for the answerer's context budget.
//
// The tiktoken counter needs its BPE ranks, which tiktoken-go fetches and
// caches on first use. When they cannot be loaded, New falls back to an
// approximation of four runes per token.
package tokens

import (
	"context"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/custodia-labs/rockybot/internal/core/ports/driven"
	"github.com/custodia-labs/rockybot/internal/logger"
)

// DefaultEncoding is used when no encoding is requested.
const DefaultEncoding = "cl100k_base"

// ApproximateEncoding names the fallback counter.
const ApproximateEncoding = "approx-4-runes"

// Ensure both counters implement the interface.
var (
	_ driven.TokenCounter = (*TiktokenCounter)(nil)
	_ driven.TokenCounter = Approximate{}
	_ driven.TokenCounter = (*Lazy)(nil)
)

// TiktokenCounter counts tokens with a tiktoken encoding.
type TiktokenCounter struct {
	encoding string
	mu       sync.Mutex
	tke      *tiktoken.Tiktoken
}

// NewTiktoken loads the named encoding, or DefaultEncoding when empty.
// Model names such as "gpt-4o" are accepted too.
func NewTiktoken(encoding string) (*TiktokenCounter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		var modelErr error
		tke, modelErr = tiktoken.EncodingForModel(encoding)
		if modelErr != nil {
			return nil, fmt.Errorf("loading encoding %q: %w", encoding, err)
		}
	}
	return &TiktokenCounter{encoding: encoding, tke: tke}, nil
}

// CountTokens returns the number of tokens in text.
func (c *TiktokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tke.Encode(text, nil, nil)), nil
}

// Encoding returns the encoding name.
func (c *TiktokenCounter) Encoding() string {
	return c.encoding
}

// Approximate estimates one token per four runes, rounding up.
type Approximate struct{}

// CountTokens returns the estimated number of tokens in text.
func (Approximate) CountTokens(_ context.Context, text string) (int, error) {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4, nil
}

// Encoding returns ApproximateEncoding.
func (Approximate) Encoding() string {
	return ApproximateEncoding
}

// New returns a tiktoken counter for encoding, or Approximate if the
// encoding cannot be loaded.
func New(encoding string) driven.TokenCounter {
	c, err := NewTiktoken(encoding)
	if err != nil {
		logger.Warn("token counter: %v; using approximation", err)
		return Approximate{}
	}
	return c
}

// Lazy defers building its counter until the first call, so commands that
// never count tokens never fetch BPE ranks.
type Lazy struct {
	encoding string
	load     func(encoding string) driven.TokenCounter
	once     sync.Once
	counter  driven.TokenCounter
}

// NewLazy returns a counter that calls New(encoding) on first use.
func NewLazy(encoding string) *Lazy {
	return &Lazy{encoding: encoding, load: New}
}

func (l *Lazy) get() driven.TokenCounter {
	l.once.Do(func() { l.counter = l.load(l.encoding) })
	return l.counter
}

// CountTokens loads the counter if needed and counts text with it.
func (l *Lazy) CountTokens(ctx context.Context, text string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return l.get().CountTokens(ctx, text)
}

// Encoding returns the encoding of the loaded counter.
func (l *Lazy) Encoding() string {
	return l.get().Encoding()
}
