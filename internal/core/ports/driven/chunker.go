package driven

import "github.com/custodia-labs/rockybot/internal/core/domain"

// Chunker splits documents into chunks no longer than a maximum length.
type Chunker interface {
	// Split returns the chunks of docs in document order. A non-positive
	// maxLen uses the implementation's default. An empty docs slice yields
	// no chunks.
	Split(docs []domain.Document, maxLen int) []domain.Chunk

	// ChunkSize returns the maximum length Split uses for a non-positive maxLen.
	ChunkSize() int
}
