package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/core/ports/driven"
	"github.com/custodia-labs/rockybot/internal/core/ports/driving"
	"github.com/custodia-labs/rockybot/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// embedBatchSize bounds the number of chunks sent per EmbedBatch call.
const embedBatchSize = 64

// IngestConfig holds the defaults for ingestion runs.
type IngestConfig struct {
	// Path is the index file location.
	Path string

	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int

	// Metric is the distance metric for new indexes.
	Metric domain.DistanceMetric
}

// IngestService turns a list of URLs into a persisted index.
type IngestService struct {
	loader   driven.Loader
	chunker  driven.Chunker
	embedder driven.Embedder
	newIndex driven.IndexFactory
	store    driven.IndexStore
	locker   driven.IngestLocker
	cfg      IngestConfig
	now      func() time.Time

	mu      sync.Mutex
	state   domain.IngestionState
	running bool
}

// NewIngestService creates a new ingest service.
// The embedder may be nil, in which case Ingest fails with
// domain.ErrEmbeddingUnavailable.
func NewIngestService(
	loader driven.Loader,
	chunker driven.Chunker,
	embedder driven.Embedder,
	newIndex driven.IndexFactory,
	store driven.IndexStore,
	cfg IngestConfig,
) *IngestService {
	if cfg.Metric == "" {
		cfg.Metric = domain.MetricCosine
	}
	return &IngestService{
		loader:   loader,
		chunker:  chunker,
		embedder: embedder,
		newIndex: newIndex,
		store:    store,
		cfg:      cfg,
		now:      time.Now,
	}
}

// SetLocker sets the lock used to serialise runs across processes.
func (s *IngestService) SetLocker(locker driven.IngestLocker) {
	s.locker = locker
}

// SetClock replaces the time source.
func (s *IngestService) SetClock(now func() time.Time) {
	s.now = now
}

// State returns the state of the current or last run.
func (s *IngestService) State() domain.IngestionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ingest runs one ingestion from Idle to Saved or Failed.
func (s *IngestService) Ingest(
	ctx context.Context, urls []string, opts domain.IngestOptions,
) (*domain.IngestReport, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: ingestion needs an embedding provider", domain.ErrEmbeddingUnavailable)
	}

	path := s.cfg.Path
	if opts.Path != "" {
		path = opts.Path
	}
	chunkSize := s.cfg.ChunkSize
	if opts.ChunkSize > 0 {
		chunkSize = opts.ChunkSize
	}
	if chunkSize <= 0 {
		chunkSize = s.chunker.ChunkSize()
	}

	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	if s.locker != nil {
		unlock, err := s.locker.TryLock(ctx, path)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := unlock(); err != nil {
				logger.Warn("Failed to release ingest lock: %v", err)
			}
		}()
	}

	run := &ingestRun{
		svc:      s,
		observer: opts.Observer,
		report: &domain.IngestReport{
			ID:        uuid.NewString(),
			URLs:      urls,
			Path:      path,
			StartedAt: s.now(),
		},
	}

	logger.Section("Ingest")
	defer logger.Timed("Ingest")()
	logger.Info("Ingesting %d URLs into %s", len(urls), path)

	// Restart, never resume: a previous Saved or Failed run goes back to Idle.
	run.reset()

	docs, err := run.load(ctx, urls)
	if err != nil {
		return run.report, err
	}
	chunks, err := run.chunk(docs, chunkSize)
	if err != nil {
		return run.report, err
	}
	vectors, err := run.embed(ctx, chunks)
	if err != nil {
		return run.report, err
	}
	if err := run.index(ctx, docs, chunks, vectors, chunkSize); err != nil {
		return run.report, err
	}
	if err := run.advance(domain.StageSaved); err != nil {
		return run.report, err
	}

	run.report.FinishedAt = s.now()
	logger.Info("Saved %d chunks from %d documents", run.report.Chunks, run.report.Documents)
	return run.report, nil
}

func (s *IngestService) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("%w: another run is active", domain.ErrIngestInProgress)
	}
	s.running = true
	return nil
}

func (s *IngestService) end() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// ingestRun carries one run's report and observer through the stages.
type ingestRun struct {
	svc      *IngestService
	observer func(domain.IngestionState)
	report   *domain.IngestReport
}

func (r *ingestRun) reset() {
	r.set(domain.IngestionState{})
}

func (r *ingestRun) advance(to domain.Stage) error {
	r.svc.mu.Lock()
	next, err := r.svc.state.Advance(to)
	r.svc.mu.Unlock()
	if err != nil {
		return err
	}
	logger.Debug("Stage: %s", to)
	r.set(next)
	return nil
}

// fail moves the run to Failed and returns err tagged with the stage.
func (r *ingestRun) fail(input string, err error) error {
	r.svc.mu.Lock()
	stage := r.svc.state.Current()
	failed, ferr := r.svc.state.Fail(err)
	r.svc.mu.Unlock()
	if ferr == nil {
		r.set(failed)
	}
	r.report.FinishedAt = r.svc.now()
	logger.Warn("Ingest failed in %s: %v", stage, err)
	return domain.NewStageError(stage, input, err)
}

func (r *ingestRun) set(state domain.IngestionState) {
	r.svc.mu.Lock()
	r.svc.state = state
	r.svc.mu.Unlock()
	r.report.State = state
	if r.observer != nil {
		r.observer(state)
	}
}

func (r *ingestRun) load(ctx context.Context, urls []string) ([]domain.Document, error) {
	if err := r.advance(domain.StageLoading); err != nil {
		return nil, err
	}

	result, err := r.svc.loader.Load(ctx, urls)
	r.report.Failures = result.Failures
	r.report.Documents = len(result.Documents)
	if err != nil {
		return nil, r.fail("", err)
	}
	for _, f := range result.Failures {
		logger.Warn("Skipped %s: %v", f.URL, f.Err)
	}

	if len(result.Documents) == 0 {
		if len(result.Failures) == 0 {
			return nil, r.fail("", fmt.Errorf("%w: no URLs given", domain.ErrEmptyInput))
		}
		fetchErrs := make([]error, len(result.Failures))
		for i := range result.Failures {
			fetchErrs[i] = &result.Failures[i]
		}
		return nil, r.fail(strings.Join(urls, ", "), fmt.Errorf("%w: no document could be loaded: %w",
			domain.ErrEmptyInput, errors.Join(fetchErrs...)))
	}

	logger.Debug("Loaded %d of %d URLs", len(result.Documents), len(urls))
	return result.Documents, nil
}

func (r *ingestRun) chunk(docs []domain.Document, chunkSize int) ([]domain.Chunk, error) {
	if err := r.advance(domain.StageChunking); err != nil {
		return nil, err
	}

	chunks := r.svc.chunker.Split(docs, chunkSize)
	if len(chunks) == 0 {
		return nil, r.fail("", fmt.Errorf("%w: documents produced no chunks", domain.ErrEmptyInput))
	}

	r.report.Chunks = len(chunks)
	logger.Debug("Split %d documents into %d chunks (max %d)", len(docs), len(chunks), chunkSize)
	return chunks, nil
}

func (r *ingestRun) embed(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	if err := r.advance(domain.StageEmbedding); err != nil {
		return nil, err
	}

	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))
		texts := make([]string, end-start)
		for i, c := range chunks[start:end] {
			texts[i] = c.Content
		}

		batch, err := r.svc.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			if !errors.Is(err, domain.ErrEmbedding) {
				err = fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
			}
			return nil, r.fail(chunks[start].Source, err)
		}
		if len(batch) != len(texts) {
			return nil, r.fail(chunks[start].Source, fmt.Errorf("%w: got %d vectors for %d chunks",
				domain.ErrEmbedding, len(batch), len(texts)))
		}
		vectors = append(vectors, batch...)
		logger.Debug("Embedded %d/%d chunks", len(vectors), len(chunks))
	}

	dims := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 || len(v) != dims {
			return nil, r.fail(chunks[i].Source, fmt.Errorf("%w: chunk %d has %d dimensions, want %d",
				domain.ErrEmbedding, i, len(v), dims))
		}
	}

	r.report.Model = r.svc.embedder.ModelName()
	r.report.Dimensions = dims
	return vectors, nil
}

func (r *ingestRun) index(
	ctx context.Context, docs []domain.Document, chunks []domain.Chunk, vectors [][]float32, chunkSize int,
) error {
	if err := r.advance(domain.StageIndexing); err != nil {
		return err
	}

	sources := make([]string, len(docs))
	for i, d := range docs {
		sources[i] = d.Source
	}
	meta := domain.IndexMeta{
		Model:      r.report.Model,
		Dimensions: r.report.Dimensions,
		Metric:     r.svc.cfg.Metric,
		ChunkSize:  chunkSize,
		Sources:    sources,
		CreatedAt:  r.svc.now().UTC(),
	}

	index, err := r.svc.newIndex(meta)
	if err != nil {
		return r.fail("", err)
	}
	entries := make([]domain.IndexEntry, len(chunks))
	for i, c := range chunks {
		entries[i] = domain.IndexEntry{
			ChunkID: c.ID,
			Source:  c.Source,
			Text:    c.Content,
			Vector:  vectors[i],
		}
	}
	if err := index.Add(ctx, entries...); err != nil {
		return r.fail("", err)
	}
	if err := r.svc.store.Save(ctx, r.report.Path, index); err != nil {
		return r.fail(r.report.Path, err)
	}
	return nil
}
