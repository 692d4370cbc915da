package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/rockybot/internal/core/ports/driven"
	"github.com/custodia-labs/rockybot/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// DefaultAnswerPrompt frames the retrieved context and the question.
const DefaultAnswerPrompt = "Answer the question using only the given context. " +
	"If the answer is not in the context, say you don't know.\n\n" +
	"Context:\n%s\n\nQuestion:\n%s\n\nAnswer:"

// DefaultChatSystemPrompt opens every chat conversation.
const DefaultChatSystemPrompt = "You are RockyBot, a friendly martial arts coach. " +
	"Answer questions about martial arts, training and fitness concisely and safely."

// defaultPrompts holds the built-in templates, also written out as the
// initial content of the prompt files.
var defaultPrompts = map[string]string{
	driven.PromptAnswer:     DefaultAnswerPrompt,
	driven.PromptChatSystem: DefaultChatSystemPrompt,
}

// placeholders is the number of %s verbs each template must keep.
var placeholders = map[string]int{
	driven.PromptAnswer:     2,
	driven.PromptChatSystem: 0,
}

// PromptStore loads prompts from <name>.txt files in a directory, falling
// back to the built-in default when a file is missing or has lost its
// placeholders.
//
// Nothing touches the disk until the first Load.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// NewPromptStore creates a prompt store.
// If promptDir is empty, defaults to ~/.rockybot/prompts.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".rockybot", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	prompt, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return prompt, nil
	}

	prompt, err := s.loadFromFile(name)
	if err != nil {
		def, ok := defaultPrompts[name]
		if !ok {
			return "", fmt.Errorf("load prompt %q: %w", name, err)
		}
		logger.Warn("Using built-in %s prompt: %v", name, err)
		prompt = def
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the directory and writes any missing default files.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}
	for name, content := range defaultPrompts {
		path := s.path(name)
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := os.WriteFile(path, []byte(content+"\n"), 0600); err != nil {
			s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
			return
		}
	}
}

// loadFromFile reads a prompt and checks it kept its placeholders.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return "", err
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", errors.New("prompt file is empty")
	}
	if want, ok := placeholders[name]; ok {
		if got := strings.Count(prompt, "%s"); got != want {
			return "", fmt.Errorf("expected %d %%s placeholders, found %d", want, got)
		}
	}
	return prompt, nil
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.promptDir, name+".txt")
}
