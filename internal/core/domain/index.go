package domain

import (
	"fmt"
	"time"
)

// DistanceMetric identifies how vector distance is measured.
type DistanceMetric string

// Available distance metrics.
const (
	// MetricCosine uses 1 - cosine similarity.
	MetricCosine DistanceMetric = "cosine"

	// MetricEuclidean uses L2 distance.
	MetricEuclidean DistanceMetric = "euclidean"
)

// IsValid returns true if the metric is recognised.
func (m DistanceMetric) IsValid() bool {
	switch m {
	case MetricCosine, MetricEuclidean:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m DistanceMetric) String() string {
	return string(m)
}

// IndexEntry is one searchable item: a chunk and its embedding vector.
type IndexEntry struct {
	// ChunkID identifies the chunk the vector was computed from.
	ChunkID string

	// Source is the originating document's URL.
	Source string

	// Text is the chunk text.
	Text string

	// Vector is the embedding of Text.
	Vector []float32
}

// IndexMeta describes how an index was built.
// A query must be embedded with the same model and dimensionality.
type IndexMeta struct {
	// Model is the embedding model name used at build time.
	Model string

	// Dimensions is the length of every vector in the index.
	Dimensions int

	// Metric is the distance metric used for search.
	Metric DistanceMetric

	// ChunkSize is the maximum chunk length used by the chunker.
	ChunkSize int

	// Sources lists the ingested URLs in ingestion order.
	Sources []string

	// CreatedAt is when the index was built.
	CreatedAt time.Time
}

// Validate checks that the metadata is usable for search.
func (m IndexMeta) Validate() error {
	if m.Dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive, got %d", ErrInvalidInput, m.Dimensions)
	}
	if !m.Metric.IsValid() {
		return fmt.Errorf("%w: unknown metric %q", ErrInvalidInput, m.Metric)
	}
	return nil
}

// SearchHit is one search result.
type SearchHit struct {
	// Entry is the matched index entry.
	Entry IndexEntry

	// Distance is the distance to the query vector (lower is nearer).
	Distance float64

	// Rank is the zero-based position in the result list.
	Rank int
}

// DistinctSources returns the source identifiers of hits in first-seen order.
func DistinctSources(hits []SearchHit) []string {
	seen := make(map[string]struct{}, len(hits))
	sources := make([]string, 0, len(hits))
	for _, hit := range hits {
		if _, ok := seen[hit.Entry.Source]; ok {
			continue
		}
		seen[hit.Entry.Source] = struct{}{}
		sources = append(sources, hit.Entry.Source)
	}
	return sources
}

// Answer is the result of a retrieval-augmented question.
type Answer struct {
	// Question is the query as asked.
	Question string

	// Text is the generated answer. Empty when the LLM was skipped.
	Text string

	// Sources are the distinct source URLs used, in first-seen order.
	Sources []string

	// Hits are the retrieved chunks that made it into the context.
	Hits []SearchHit

	// Warnings lists recoverable problems, such as an unavailable LLM.
	Warnings []string
}

// Degraded returns true if the answer carries no generated text.
func (a Answer) Degraded() bool {
	return a.Text == "" && len(a.Warnings) > 0
}

// AskOptions configures one question.
type AskOptions struct {
	// K overrides the configured number of chunks to retrieve when positive.
	K int

	// Degrade returns retrieval results with a warning instead of an error
	// when the LLM is unavailable or fails.
	Degrade bool

	// Path overrides the configured index path when set.
	Path string
}

// IndexInfo describes a persisted index.
type IndexInfo struct {
	// Path is where the index is stored.
	Path string

	// Meta is the index metadata.
	Meta IndexMeta

	// Entries is the number of entries.
	Entries int
}
