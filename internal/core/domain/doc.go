// Package domain defines the core business entities for rockybot.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: Text fetched from a news article URL
//   - Chunk: A bounded slice of a document's text
//   - IndexEntry: A chunk paired with its embedding vector
//   - IndexMeta: Everything needed to reproduce search behaviour
//   - IngestionState: The ingestion lifecycle state machine
//   - Session: Chat history, daily goals and training log of one user
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
