package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/core/ports/driven"
)

// fakeLoader serves fixed content per URL; unknown URLs fail with 404.
type fakeLoader struct {
	pages map[string]string
	err   error
	calls int
}

func (l *fakeLoader) Load(ctx context.Context, urls []string) (driven.LoadResult, error) {
	l.calls++
	var result driven.LoadResult
	if l.err != nil {
		return result, l.err
	}
	for _, u := range urls {
		text, ok := l.pages[u]
		if !ok {
			result.Failures = append(result.Failures, domain.FetchError{URL: u, Err: errors.New("status 404")})
			continue
		}
		result.Documents = append(result.Documents, domain.Document{Source: u, Content: text})
	}
	return result, nil
}

// fakeEmbedder returns vectors from a lookup table, or a deterministic
// vector derived from the text.
type fakeEmbedder struct {
	model   string
	dims    int
	vectors map[string][]float32
	err     error
	short   bool // EmbedBatch drops the last vector

	mu         sync.Mutex
	calls      int
	batchCalls int
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{model: "fake-embed", dims: 3}
}

func (e *fakeEmbedder) vector(text string) []float32 {
	if v, ok := e.vectors[text]; ok {
		return v
	}
	v := make([]float32, e.dims)
	for i, r := range text {
		v[i%e.dims] += float32(r%7) + 1
	}
	return v
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	return e.vector(text), nil
}

func (e *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.batchCalls++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		out = append(out, e.vector(t))
	}
	if e.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (e *fakeEmbedder) totalCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls + e.batchCalls
}

func (e *fakeEmbedder) Dimensions() int              { return e.dims }
func (e *fakeEmbedder) ModelName() string            { return e.model }
func (e *fakeEmbedder) Ping(_ context.Context) error { return nil }
func (e *fakeEmbedder) Close() error                 { return nil }

// fakeLLM records prompts and returns a canned reply.
type fakeLLM struct {
	reply   string
	err     error
	prompts []string
	chats   [][]domain.ChatMessage
}

func (l *fakeLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	l.prompts = append(l.prompts, prompt)
	return l.reply, l.err
}

func (l *fakeLLM) Chat(_ context.Context, messages []domain.ChatMessage, _ driven.ChatOptions) (string, error) {
	l.chats = append(l.chats, append([]domain.ChatMessage(nil), messages...))
	return l.reply, l.err
}

func (l *fakeLLM) calls() int                   { return len(l.prompts) + len(l.chats) }
func (l *fakeLLM) ModelName() string            { return "fake-llm" }
func (l *fakeLLM) Ping(_ context.Context) error { return nil }
func (l *fakeLLM) Close() error                 { return nil }

// fakeLocker is an in-process IngestLocker.
type fakeLocker struct {
	held map[string]bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]bool)}
}

func (l *fakeLocker) TryLock(_ context.Context, path string) (func() error, error) {
	if l.held[path] {
		return nil, fmt.Errorf("%w: %s is locked", domain.ErrIngestInProgress, path)
	}
	l.held[path] = true
	return func() error {
		delete(l.held, path)
		return nil
	}, nil
}

// wordCounter counts whitespace-separated words as tokens.
type wordCounter struct {
	err error
}

func (c wordCounter) CountTokens(_ context.Context, text string) (int, error) {
	return len(strings.Fields(text)), c.err
}

func (c wordCounter) Encoding() string { return "words" }

// fakePrompts serves fixed templates.
type fakePrompts map[string]string

func (p fakePrompts) Load(name string) (string, error) {
	if prompt, ok := p[name]; ok {
		return prompt, nil
	}
	return "", fmt.Errorf("no prompt %q", name)
}

func (p fakePrompts) Reload() {}
