package domain

import (
	"fmt"
	"time"
)

// Stage is a step of the ingestion lifecycle or of a query.
type Stage string

// Ingestion stages, in order.
const (
	StageIdle      Stage = "idle"
	StageLoading   Stage = "loading"
	StageChunking  Stage = "chunking"
	StageEmbedding Stage = "embedding"
	StageIndexing  Stage = "indexing"
	StageSaved     Stage = "saved"
	StageFailed    Stage = "failed"
)

// Query stages. These never appear in an IngestionState.
const (
	StageRetrieval  Stage = "retrieval"
	StageGeneration Stage = "generation"
)

// String returns the string representation.
func (s Stage) String() string {
	return string(s)
}

// IsWorking returns true for stages where ingestion is in flight.
func (s Stage) IsWorking() bool {
	switch s {
	case StageLoading, StageChunking, StageEmbedding, StageIndexing:
		return true
	default:
		return false
	}
}

// IsTerminal returns true for stages that end a run.
func (s Stage) IsTerminal() bool {
	return s == StageSaved || s == StageFailed
}

// nextStage maps each stage to its successful successor.
var nextStage = map[Stage]Stage{
	StageIdle:      StageLoading,
	StageLoading:   StageChunking,
	StageChunking:  StageEmbedding,
	StageEmbedding: StageIndexing,
	StageIndexing:  StageSaved,
	StageSaved:     StageIdle,
	StageFailed:    StageIdle,
}

// IngestionState is the state of one ingestion run.
// The zero value is Idle.
type IngestionState struct {
	// Stage is the current stage.
	Stage Stage

	// FailedStage is the stage that failed. Only set when Stage is StageFailed.
	FailedStage Stage

	// Reason describes the failure. Only set when Stage is StageFailed.
	Reason string
}

// Current returns the stage, treating the zero value as Idle.
func (s IngestionState) Current() Stage {
	if s.Stage == "" {
		return StageIdle
	}
	return s.Stage
}

// CanTransition reports whether moving to the given stage is allowed.
func (s IngestionState) CanTransition(to Stage) bool {
	from := s.Current()
	if to == StageFailed {
		return from.IsWorking()
	}
	return nextStage[from] == to
}

// Advance moves to the given stage.
func (s IngestionState) Advance(to Stage) (IngestionState, error) {
	if !s.CanTransition(to) || to == StageFailed {
		return s, fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidInput, s.Current(), to)
	}
	return IngestionState{Stage: to}, nil
}

// Fail moves to Failed, recording the current stage and reason.
func (s IngestionState) Fail(reason error) (IngestionState, error) {
	from := s.Current()
	if !from.IsWorking() {
		return s, fmt.Errorf("%w: cannot fail from %s", ErrInvalidInput, from)
	}
	msg := ""
	if reason != nil {
		msg = reason.Error()
	}
	return IngestionState{Stage: StageFailed, FailedStage: from, Reason: msg}, nil
}

// String returns a human-readable form, e.g. "failed(embedding): timeout".
func (s IngestionState) String() string {
	if s.Current() == StageFailed {
		return fmt.Sprintf("failed(%s): %s", s.FailedStage, s.Reason)
	}
	return s.Current().String()
}

// IngestReport summarises one ingestion run.
type IngestReport struct {
	// ID uniquely identifies the run.
	ID string

	// URLs are the requested URLs.
	URLs []string

	// Documents is the number of documents loaded.
	Documents int

	// Chunks is the number of chunks indexed.
	Chunks int

	// Failures lists URLs that could not be loaded.
	Failures []FetchError

	// Path is where the index was saved.
	Path string

	// Model is the embedding model used.
	Model string

	// Dimensions is the embedding vector length.
	Dimensions int

	// State is the final state of the run.
	State IngestionState

	// StartedAt is when the run began.
	StartedAt time.Time

	// FinishedAt is when the run ended.
	FinishedAt time.Time
}

// Succeeded returns true if the index was saved.
func (r IngestReport) Succeeded() bool {
	return r.State.Current() == StageSaved
}

// IngestOptions configures one ingestion run.
type IngestOptions struct {
	// ChunkSize overrides the configured maximum chunk length when positive.
	ChunkSize int

	// Path overrides the configured index path when set.
	Path string

	// Observer, if set, is called after every state transition.
	Observer func(IngestionState)
}
