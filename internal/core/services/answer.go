package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/core/ports/driven"
	"github.com/custodia-labs/rockybot/internal/core/ports/driving"
	"github.com/custodia-labs/rockybot/internal/logger"
)

// Ensure AnswerService implements the interfaces.
var (
	_ driving.AnswerService   = (*AnswerService)(nil)
	_ driven.PromptStoreAware = (*AnswerService)(nil)
)

// defaultAnswerPrompt is used when no prompt store is set.
const defaultAnswerPrompt = "Answer the question using only the given context. " +
	"If the answer is not in the context, say you don't know.\n\n" +
	"Context:\n%s\n\nQuestion:\n%s\n\nAnswer:"

// contextSeparator joins chunk texts in the LLM context.
const contextSeparator = "\n\n"

// AnswerConfig holds the defaults for questions.
type AnswerConfig struct {
	// Path is the index file location.
	Path string

	// K is the number of chunks to retrieve.
	K int

	// Degrade returns retrieval results when the LLM fails.
	Degrade bool

	// MaxContextTokens bounds the context sent to the LLM. Zero disables.
	MaxContextTokens int
}

// AnswerService answers questions with retrieval-augmented generation.
type AnswerService struct {
	store    driven.IndexStore
	embedder driven.Embedder
	llm      driven.LLMService
	counter  driven.TokenCounter
	prompts  driven.PromptStore
	cfg      AnswerConfig
}

// NewAnswerService creates a new answer service.
// The embedder and llm may be nil; questions then fail, or degrade when
// the caller allows it.
func NewAnswerService(
	store driven.IndexStore, embedder driven.Embedder, llm driven.LLMService, cfg AnswerConfig,
) *AnswerService {
	if cfg.K <= 0 {
		cfg.K = 4
	}
	return &AnswerService{
		store:    store,
		embedder: embedder,
		llm:      llm,
		cfg:      cfg,
	}
}

// SetTokenCounter enables the context token budget.
func (s *AnswerService) SetTokenCounter(counter driven.TokenCounter) {
	s.counter = counter
}

// SetPromptStore sets the prompt store for the answer template.
func (s *AnswerService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// Answer retrieves the nearest chunks for question and asks the LLM.
//
//nolint:gocyclo // Sequential pipeline with one check per step.
func (s *AnswerService) Answer(
	ctx context.Context, question string, opts domain.AskOptions,
) (*domain.Answer, error) {
	logger.Section("Answer")
	defer logger.Timed("Answer")()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.NewStageError(domain.StageRetrieval, "",
			fmt.Errorf("%w: question cannot be empty", domain.ErrInvalidInput))
	}
	path := s.path(opts.Path)
	k := s.cfg.K
	if opts.K > 0 {
		k = opts.K
	}
	degrade := opts.Degrade || s.cfg.Degrade
	logger.Debug("Question: %q (k=%d, degrade=%t)", question, k, degrade)

	// Load before touching any model so a missing index costs nothing.
	index, err := s.store.Load(ctx, path)
	if err != nil {
		return nil, domain.NewStageError(domain.StageRetrieval, path, err)
	}
	if index.Len() == 0 {
		return nil, domain.NewStageError(domain.StageRetrieval, path,
			fmt.Errorf("%w: index is empty", domain.ErrNoResults))
	}

	vector, err := s.embedQuery(ctx, index.Meta(), question)
	if err != nil {
		return nil, domain.NewStageError(domain.StageRetrieval, question, err)
	}

	hits, err := index.Search(ctx, vector, k)
	if err != nil {
		return nil, domain.NewStageError(domain.StageRetrieval, question, err)
	}
	if len(hits) == 0 {
		return nil, domain.NewStageError(domain.StageRetrieval, question, domain.ErrNoResults)
	}
	hits = s.fitBudget(ctx, hits)
	logger.Debug("Retrieved %d chunks", len(hits))

	answer := &domain.Answer{
		Question: question,
		Sources:  domain.DistinctSources(hits),
		Hits:     hits,
	}

	text, err := s.generate(ctx, question, hits)
	if err != nil {
		if !degrade {
			return nil, domain.NewStageError(domain.StageGeneration, question, err)
		}
		logger.Warn("Returning retrieval results only: %v", err)
		answer.Warnings = append(answer.Warnings, err.Error())
		return answer, nil
	}

	answer.Text = text
	return answer, nil
}

// Info describes the persisted index.
func (s *AnswerService) Info(ctx context.Context, path string) (*domain.IndexInfo, error) {
	path = s.path(path)
	index, err := s.store.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return &domain.IndexInfo{
		Path:    path,
		Meta:    index.Meta(),
		Entries: index.Len(),
	}, nil
}

func (s *AnswerService) path(override string) string {
	if override != "" {
		return override
	}
	return s.cfg.Path
}

// embedQuery checks the embedder matches the index and embeds the question.
func (s *AnswerService) embedQuery(ctx context.Context, meta domain.IndexMeta, question string) ([]float32, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: questions need the embedding provider the index was built with",
			domain.ErrEmbeddingUnavailable)
	}
	if model := s.embedder.ModelName(); model != meta.Model {
		return nil, fmt.Errorf("%w: index was built with %q, embedder is %q",
			domain.ErrModelMismatch, meta.Model, model)
	}
	if dims := s.embedder.Dimensions(); dims > 0 && dims != meta.Dimensions {
		return nil, fmt.Errorf("%w: index has %d dimensions, embedder produces %d",
			domain.ErrDimensionMismatch, meta.Dimensions, dims)
	}

	vector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		if !errors.Is(err, domain.ErrEmbedding) {
			err = fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
		}
		return nil, err
	}
	if len(vector) != meta.Dimensions {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(vector), meta.Dimensions)
	}
	return vector, nil
}

// fitBudget drops chunks from the tail until the context fits the token
// budget. The first chunk is always kept.
func (s *AnswerService) fitBudget(ctx context.Context, hits []domain.SearchHit) []domain.SearchHit {
	if s.counter == nil || s.cfg.MaxContextTokens <= 0 {
		return hits
	}

	total := 0
	for i, hit := range hits {
		n, err := s.counter.CountTokens(ctx, hit.Entry.Text)
		if err != nil {
			logger.Warn("Token count failed, sending full context: %v", err)
			return hits
		}
		total += n
		if i > 0 && total > s.cfg.MaxContextTokens {
			logger.Debug("Context budget %d tokens reached, dropping %d chunks",
				s.cfg.MaxContextTokens, len(hits)-i)
			return hits[:i]
		}
	}
	return hits
}

func (s *AnswerService) generate(ctx context.Context, question string, hits []domain.SearchHit) (string, error) {
	if s.llm == nil {
		return "", fmt.Errorf("%w: %w", domain.ErrUpstream, domain.ErrLLMUnavailable)
	}

	texts := make([]string, len(hits))
	for i, hit := range hits {
		texts[i] = hit.Entry.Text
	}
	prompt := fmt.Sprintf(s.template(), strings.Join(texts, contextSeparator), question)

	text, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{})
	if err != nil {
		if !errors.Is(err, domain.ErrUpstream) {
			err = fmt.Errorf("%w: %w", domain.ErrUpstream, err)
		}
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (s *AnswerService) template() string {
	if s.prompts == nil {
		return defaultAnswerPrompt
	}
	prompt, err := s.prompts.Load(driven.PromptAnswer)
	if err != nil {
		logger.Warn("Using built-in answer prompt: %v", err)
		return defaultAnswerPrompt
	}
	return prompt
}
