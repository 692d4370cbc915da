package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rockybot/internal/core/ports/driven"
)

func writePrompt(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".txt"), []byte(content), 0600))
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	store, err := NewPromptStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".rockybot", "prompts"), store.Dir())
}

func TestNewPromptStore_NoIOUntilLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")

	_, err := NewPromptStore(dir)

	require.NoError(t, err)
	assert.NoDirExists(t, dir)
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswer)

	require.NoError(t, err)
	assert.Equal(t, DefaultAnswerPrompt, prompt)
	assert.FileExists(t, filepath.Join(dir, "answer.txt"))
	assert.FileExists(t, filepath.Join(dir, "chat_system.txt"))
}

func TestPromptStore_DefaultAnswerPromptFormats(t *testing.T) {
	got := fmt.Sprintf(DefaultAnswerPrompt, "CTX", "Q?")

	assert.Equal(t, "Answer the question using only the given context. "+
		"If the answer is not in the context, say you don't know.\n\n"+
		"Context:\nCTX\n\nQuestion:\nQ?\n\nAnswer:", got)
}

func TestPromptStore_Load_CustomContent(t *testing.T) {
	dir := t.TempDir()
	writePrompt(t, dir, driven.PromptAnswer, "  Use %s to answer %s  \n")
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswer)

	require.NoError(t, err)
	assert.Equal(t, "Use %s to answer %s", prompt)
}

func TestPromptStore_Load_FallsBackToDefault(t *testing.T) {
	tests := []struct {
		name    string
		prompt  string
		content string
		want    string
	}{
		{name: "lost placeholder", prompt: driven.PromptAnswer, content: "Answer: %s", want: DefaultAnswerPrompt},
		{name: "empty file", prompt: driven.PromptChatSystem, content: "   \n", want: DefaultChatSystemPrompt},
		{name: "system prompt with verb", prompt: driven.PromptChatSystem, content: "Hi %s", want: DefaultChatSystemPrompt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writePrompt(t, dir, tt.prompt, tt.content)
			store, err := NewPromptStore(dir)
			require.NoError(t, err)

			prompt, err := store.Load(tt.prompt)

			require.NoError(t, err)
			assert.Equal(t, tt.want, prompt)
		})
	}
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nonexistent")

	assert.Error(t, err)
}

func TestPromptStore_Load_InitFailureUsesDefaults(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))
	store, err := NewPromptStore(filepath.Join(blocker, "prompts"))
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptChatSystem)
	require.NoError(t, err)
	assert.Equal(t, DefaultChatSystemPrompt, prompt)

	_, err = store.Load("custom")
	assert.ErrorContains(t, err, "init failed")
}

func TestPromptStore_CacheAndReload(t *testing.T) {
	dir := t.TempDir()
	writePrompt(t, dir, driven.PromptChatSystem, "first")
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	first, err := store.Load(driven.PromptChatSystem)
	require.NoError(t, err)
	writePrompt(t, dir, driven.PromptChatSystem, "second")

	cached, err := store.Load(driven.PromptChatSystem)
	require.NoError(t, err)
	store.Reload()
	reloaded, err := store.Load(driven.PromptChatSystem)
	require.NoError(t, err)

	assert.Equal(t, "first", first)
	assert.Equal(t, "first", cached)
	assert.Equal(t, "second", reloaded)
}

func TestPromptStore_DoesNotOverwriteExistingFiles(t *testing.T) {
	dir := t.TempDir()
	writePrompt(t, dir, driven.PromptChatSystem, "mine")
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptAnswer)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "chat_system.txt"))
	require.NoError(t, err)
	assert.Equal(t, "mine", string(data))
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prompt, err := store.Load(driven.PromptAnswer)
			assert.NoError(t, err)
			assert.Equal(t, DefaultAnswerPrompt, prompt)
		}()
	}
	wg.Wait()
}
