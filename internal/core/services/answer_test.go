package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rockybot/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/rockybot/internal/adapters/driven/vectorindex/flat"
	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/core/ports/driven"
)

const question = "what happened?"

type answerFixture struct {
	store    *memory.IndexStore
	embedder *fakeEmbedder
	llm      *fakeLLM
	service  *AnswerService
}

// fiveEntries are ordered by increasing cosine distance to the question,
// except "c" and "e" which tie and must keep insertion order.
var fiveEntries = []domain.IndexEntry{
	{ChunkID: "a", Source: "https://one.example", Text: "alpha", Vector: []float32{1, 0, 0}},
	{ChunkID: "c", Source: "https://two.example", Text: "gamma", Vector: []float32{0, 1, 0}},
	{ChunkID: "b", Source: "https://one.example", Text: "beta", Vector: []float32{0.9, 0.1, 0}},
	{ChunkID: "d", Source: "https://three.example", Text: "delta", Vector: []float32{0.5, 0.5, 0}},
	{ChunkID: "e", Source: "https://four.example", Text: "epsilon", Vector: []float32{0, 0, 1}},
}

func newAnswerFixture(t *testing.T, entries []domain.IndexEntry) *answerFixture {
	t.Helper()
	f := &answerFixture{
		store:    memory.NewIndexStore(flat.Factory),
		embedder: newFakeEmbedder(),
		llm:      &fakeLLM{reply: "  The answer.  "},
	}
	f.embedder.vectors = map[string][]float32{question: {1, 0, 0}}

	if entries != nil {
		index, err := flat.New(domain.IndexMeta{Model: "fake-embed", Dimensions: 3, Metric: domain.MetricCosine})
		require.NoError(t, err)
		require.NoError(t, index.Add(context.Background(), entries...))
		require.NoError(t, f.store.Save(context.Background(), testIndexPath, index))
	}

	f.service = NewAnswerService(f.store, f.embedder, f.llm, AnswerConfig{Path: testIndexPath, K: 4})
	return f
}

func TestAnswerService_Answer_Success(t *testing.T) {
	f := newAnswerFixture(t, fiveEntries)

	answer, err := f.service.Answer(context.Background(), question, domain.AskOptions{K: 10})

	require.NoError(t, err)
	assert.Equal(t, "The answer.", answer.Text)
	require.Len(t, answer.Hits, 5)
	ids := make([]string, len(answer.Hits))
	for i, h := range answer.Hits {
		ids[i] = h.Entry.ChunkID
	}
	assert.Equal(t, []string{"a", "b", "d", "c", "e"}, ids)
	assert.Equal(t, []string{
		"https://one.example", "https://three.example", "https://two.example", "https://four.example",
	}, answer.Sources)
	assert.False(t, answer.Degraded())

	require.Len(t, f.llm.prompts, 1)
	assert.Contains(t, f.llm.prompts[0], "Context:\nalpha\n\nbeta\n\ndelta\n\ngamma\n\nepsilon\n\nQuestion:\nwhat happened?")
}

func TestAnswerService_Answer_UsesConfiguredK(t *testing.T) {
	f := newAnswerFixture(t, fiveEntries)

	answer, err := f.service.Answer(context.Background(), question, domain.AskOptions{})

	require.NoError(t, err)
	assert.Len(t, answer.Hits, 4)
}

func TestAnswerService_Answer_NoIndex(t *testing.T) {
	f := newAnswerFixture(t, nil)

	_, err := f.service.Answer(context.Background(), question, domain.AskOptions{})

	require.ErrorIs(t, err, domain.ErrNotFound)
	stage, _ := domain.StageOf(err)
	assert.Equal(t, domain.StageRetrieval, stage)
	assert.Zero(t, f.embedder.totalCalls())
	assert.Zero(t, f.llm.calls())
}

func TestAnswerService_Answer_EmptyIndex(t *testing.T) {
	f := newAnswerFixture(t, []domain.IndexEntry{})

	_, err := f.service.Answer(context.Background(), question, domain.AskOptions{})

	assert.ErrorIs(t, err, domain.ErrNoResults)
	assert.NotErrorIs(t, err, domain.ErrUpstream)
	assert.Zero(t, f.llm.calls())
}

func TestAnswerService_Answer_EmptyQuestion(t *testing.T) {
	f := newAnswerFixture(t, fiveEntries)

	_, err := f.service.Answer(context.Background(), "   ", domain.AskOptions{})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, f.store.Loads())
}

func TestAnswerService_Answer_EmbedderMismatch(t *testing.T) {
	tests := []struct {
		name  string
		setup func(e *fakeEmbedder)
		want  error
		calls int
	}{
		{name: "model", setup: func(e *fakeEmbedder) { e.model = "other-model" }, want: domain.ErrModelMismatch},
		{name: "dimensions", setup: func(e *fakeEmbedder) { e.dims = 4 }, want: domain.ErrDimensionMismatch},
		{
			name:  "query vector",
			setup: func(e *fakeEmbedder) { e.vectors[question] = []float32{1, 0} },
			want:  domain.ErrDimensionMismatch,
			calls: 1,
		},
		{
			name:  "embedding error",
			setup: func(e *fakeEmbedder) { e.err = errors.New("timeout") },
			want:  domain.ErrEmbedding,
			calls: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAnswerFixture(t, fiveEntries)
			tt.setup(f.embedder)

			_, err := f.service.Answer(context.Background(), question, domain.AskOptions{})

			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.calls, f.embedder.totalCalls())
			assert.Zero(t, f.llm.calls())
		})
	}
}

func TestAnswerService_Answer_NoEmbedder(t *testing.T) {
	f := newAnswerFixture(t, fiveEntries)
	service := NewAnswerService(f.store, nil, f.llm, AnswerConfig{Path: testIndexPath})

	_, err := service.Answer(context.Background(), question, domain.AskOptions{})

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestAnswerService_Answer_LLMFailure(t *testing.T) {
	f := newAnswerFixture(t, fiveEntries)
	f.llm.err = errors.New("503 from provider")

	_, err := f.service.Answer(context.Background(), question, domain.AskOptions{})

	require.ErrorIs(t, err, domain.ErrUpstream)
	stage, _ := domain.StageOf(err)
	assert.Equal(t, domain.StageGeneration, stage)
}

func TestAnswerService_Answer_Degrade(t *testing.T) {
	f := newAnswerFixture(t, fiveEntries)
	f.llm.err = errors.New("503 from provider")

	answer, err := f.service.Answer(context.Background(), question, domain.AskOptions{Degrade: true})

	require.NoError(t, err)
	assert.Empty(t, answer.Text)
	assert.True(t, answer.Degraded())
	assert.Len(t, answer.Hits, 4)
	assert.NotEmpty(t, answer.Sources)
	require.Len(t, answer.Warnings, 1)
	assert.Contains(t, answer.Warnings[0], "503")
}

func TestAnswerService_Answer_NoLLM(t *testing.T) {
	f := newAnswerFixture(t, fiveEntries)
	service := NewAnswerService(f.store, f.embedder, nil, AnswerConfig{Path: testIndexPath})

	_, err := service.Answer(context.Background(), question, domain.AskOptions{})
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)

	answer, err := service.Answer(context.Background(), question, domain.AskOptions{Degrade: true})
	require.NoError(t, err)
	assert.True(t, answer.Degraded())

	degradeByDefault := NewAnswerService(f.store, f.embedder, nil, AnswerConfig{Path: testIndexPath, Degrade: true})
	answer, err = degradeByDefault.Answer(context.Background(), question, domain.AskOptions{})
	require.NoError(t, err)
	assert.True(t, answer.Degraded())
}

func TestAnswerService_Answer_ContextBudget(t *testing.T) {
	ten := strings.TrimSpace(strings.Repeat("word ", 10))
	entries := []domain.IndexEntry{
		{ChunkID: "1", Source: "https://one.example", Text: ten, Vector: []float32{1, 0, 0}},
		{ChunkID: "2", Source: "https://two.example", Text: ten, Vector: []float32{0.9, 0.1, 0}},
		{ChunkID: "3", Source: "https://three.example", Text: ten, Vector: []float32{0.5, 0.5, 0}},
	}

	tests := []struct {
		name    string
		budget  int
		counter driven.TokenCounter
		want    int
	}{
		{name: "fits two", budget: 25, counter: wordCounter{}, want: 2},
		{name: "fits all", budget: 30, counter: wordCounter{}, want: 3},
		{name: "first chunk always kept", budget: 5, counter: wordCounter{}, want: 1},
		{name: "disabled", budget: 0, counter: wordCounter{}, want: 3},
		{name: "no counter", budget: 5, counter: nil, want: 3},
		{name: "counter error keeps all", budget: 5, counter: wordCounter{err: errors.New("boom")}, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAnswerFixture(t, entries)
			service := NewAnswerService(f.store, f.embedder, f.llm, AnswerConfig{
				Path: testIndexPath, K: 10, MaxContextTokens: tt.budget,
			})
			if tt.counter != nil {
				service.SetTokenCounter(tt.counter)
			}

			answer, err := service.Answer(context.Background(), question, domain.AskOptions{})

			require.NoError(t, err)
			assert.Len(t, answer.Hits, tt.want)
			assert.Len(t, answer.Sources, tt.want)
		})
	}
}

func TestAnswerService_Answer_PromptStore(t *testing.T) {
	f := newAnswerFixture(t, fiveEntries[:1])
	f.service.SetPromptStore(fakePrompts{driven.PromptAnswer: "CTX=%s Q=%s"})

	_, err := f.service.Answer(context.Background(), question, domain.AskOptions{})

	require.NoError(t, err)
	assert.Equal(t, []string{"CTX=alpha Q=what happened?"}, f.llm.prompts)
}

func TestAnswerService_Answer_PromptStoreErrorUsesDefault(t *testing.T) {
	f := newAnswerFixture(t, fiveEntries[:1])
	f.service.SetPromptStore(fakePrompts{})

	_, err := f.service.Answer(context.Background(), question, domain.AskOptions{})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(f.llm.prompts[0], "Answer the question using only the given context."))
}

func TestAnswerService_Info(t *testing.T) {
	f := newAnswerFixture(t, fiveEntries)

	info, err := f.service.Info(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, testIndexPath, info.Path)
	assert.Equal(t, 5, info.Entries)
	assert.Equal(t, "fake-embed", info.Meta.Model)

	_, err = f.service.Info(context.Background(), "/nowhere.rkb")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
