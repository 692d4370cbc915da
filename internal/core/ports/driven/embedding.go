package driven

import "context"

// Embedder generates vector embeddings from text.
//
// Errors are reported wrapped in domain.ErrEmbedding.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
type Embedder interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, one per input,
	// in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the expected embedding vector size.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	// An index built with one model must be queried with the same model.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
