// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for ingestion and question answering:
//
//   - Loader: Fetches document text for a list of URLs
//   - Chunker: Splits documents into bounded chunks
//   - Embedder: Maps text to fixed-dimension vectors
//   - VectorIndex: Stores vectors and performs nearest-neighbour search
//   - IndexStore: Persists and reloads a VectorIndex as one snapshot
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Answer generation. Without it, ask returns retrieval results only
//     when degradation is enabled.
//   - TokenCounter: Context budgeting. Without it, the full context is sent.
//   - IngestLocker: Serialises ingestion runs on one index path.
//   - SessionStore: Chat session persistence. Without it, sessions live in memory.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
