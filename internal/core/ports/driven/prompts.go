package driven

// PromptStore provides access to LLM prompt templates.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Implementations fall back to a built-in default for well-known names.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswer frames a retrieval-augmented question.
	// The template expects two %s placeholders: the context, then the question.
	PromptAnswer = "answer"

	// PromptChatSystem is the system message that opens every chat.
	// This prompt has no format placeholders.
	PromptChatSystem = "chat_system"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service uses its built-in prompts.
	SetPromptStore(store PromptStore)
}
