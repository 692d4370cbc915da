package domain

import "path/filepath"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderGroq is the Groq cloud API (OpenAI-compatible).
	AIProviderGroq AIProvider = "groq"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// GroqBaseURL is the OpenAI-compatible endpoint of Groq.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderGroq, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderGroq || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// APIKeyEnv returns the environment variable holding this provider's key.
func (p AIProvider) APIKeyEnv() string {
	switch p {
	case AIProviderOpenAI:
		return "OPENAI_API_KEY"
	case AIProviderGroq:
		return "GROQ_API_KEY"
	case AIProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderGroq:
		return "Groq (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider `validate:"required,oneof=ollama openai"`

	// Model is the embedding model name.
	Model string `validate:"required"`

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string `validate:"omitempty,url"`

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider `validate:"required,oneof=ollama openai groq anthropic"`

	// Model is the LLM model name.
	Model string `validate:"required"`

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string `validate:"omitempty,url"`

	// APIKey is the API key (for OpenAI/Groq/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// IndexBackend selects how the persisted index is stored.
type IndexBackend string

// Available index backends.
const (
	// IndexBackendFile stores a checksummed binary snapshot file.
	IndexBackendFile IndexBackend = "file"

	// IndexBackendSQLite stores the snapshot in a SQLite database file.
	IndexBackendSQLite IndexBackend = "sqlite"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	return b == IndexBackendFile || b == IndexBackendSQLite
}

// String returns the string representation.
func (b IndexBackend) String() string {
	return string(b)
}

// IndexSettings holds persisted index configuration.
type IndexSettings struct {
	// Path is the index file location.
	Path string `validate:"required"`

	// Backend is the storage format.
	Backend IndexBackend `validate:"required,oneof=file sqlite"`

	// Metric is the distance metric for new indexes.
	Metric DistanceMetric `validate:"required,oneof=cosine euclidean"`
}

// ChunkerSettings holds text splitting configuration.
type ChunkerSettings struct {
	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int `validate:"min=1"`
}

// RetrieverSettings holds question answering configuration.
type RetrieverSettings struct {
	// K is the number of chunks to retrieve.
	K int `validate:"min=1,max=100"`

	// Degrade returns retrieval results without an answer when the LLM fails.
	Degrade bool

	// MaxContextTokens bounds the context sent to the LLM. Zero disables.
	MaxContextTokens int `validate:"min=0"`
}

// LoaderSettings holds URL fetching configuration.
type LoaderSettings struct {
	// TimeoutSeconds bounds each request.
	TimeoutSeconds int `validate:"min=1"`

	// RatePerSecond limits request rate. Zero disables the limit.
	RatePerSecond float64 `validate:"min=0"`

	// UserAgent is sent with every request.
	UserAgent string

	// MaxBytes bounds the response body size.
	MaxBytes int64 `validate:"min=1"`
}

// RetrySettings holds the caller-side retry policy for AI services.
type RetrySettings struct {
	// Attempts is the number of retries after the first call. Zero disables.
	Attempts int `validate:"min=0,max=10"`
}

// ChatSettings holds chatbot configuration.
type ChatSettings struct {
	// Topics are the keywords a message must mention. Empty allows everything.
	Topics []string

	// Refusal is the reply to off-topic messages.
	Refusal string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Index     IndexSettings
	Chunker   ChunkerSettings
	Retriever RetrieverSettings
	Loader    LoaderSettings
	Retry     RetrySettings
	Chat      ChatSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// dataDir is where the index lives, usually ~/.rockybot/data.
func DefaultAppSettings(dataDir string) AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModels()[AIProviderOllama],
		},
		LLM: LLMSettings{
			Provider: AIProviderOllama,
			Model:    DefaultLLMModels()[AIProviderOllama],
		},
		Index: IndexSettings{
			Path:    filepath.Join(dataDir, "index.rkb"),
			Backend: IndexBackendFile,
			Metric:  MetricCosine,
		},
		Chunker: ChunkerSettings{
			ChunkSize: 1000,
		},
		Retriever: RetrieverSettings{
			K:                4,
			MaxContextTokens: 3000,
		},
		Loader: LoaderSettings{
			TimeoutSeconds: 30,
			RatePerSecond:  2,
			UserAgent:      "rockybot/1.0 (+news research)",
			MaxBytes:       5 << 20,
		},
		Chat: ChatSettings{
			Topics:  DefaultTopicKeywords(),
			Refusal: DefaultRefusal,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGroq,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderGroq:      "llama3-8b-8192",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// Setting is one configuration key and its current value, for display.
type Setting struct {
	// Key is the dotted configuration key, e.g. "retriever.k".
	Key string

	// Value is the formatted value.
	Value string

	// Secret is true for values that must be masked when shown.
	Secret bool
}
