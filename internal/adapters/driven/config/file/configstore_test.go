package file

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfigStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
	_, statErr := os.Stat(store.Path())
	assert.True(t, os.IsNotExist(statErr), "nothing is written until a value is set")
}

func TestNewConfigStore_WithNestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	store, err := NewConfigStore(dir)

	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
}

func TestOpenConfigFile_ExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")

	store, err := OpenConfigFile(path)
	require.NoError(t, err)
	require.NoError(t, store.Set("retriever.k", 7))

	assert.Equal(t, path, store.Path())
	assert.FileExists(t, path)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set("llm.model", "llama3.2"))
	require.NoError(t, store.Set("retriever.k", 4))
	require.NoError(t, store.Set("loader.rate_per_second", 1.5))
	require.NoError(t, store.Set("retriever.degrade", true))
	require.NoError(t, store.Set("chat.topics", []string{"judo", "karate"}))

	assert.Equal(t, "llama3.2", store.GetString("llm.model"))
	assert.Equal(t, 4, store.GetInt("retriever.k"))
	assert.InDelta(t, 1.5, store.GetFloat("loader.rate_per_second"), 1e-9)
	assert.InDelta(t, 4.0, store.GetFloat("retriever.k"), 1e-9)
	assert.True(t, store.GetBool("retriever.degrade"))
	assert.Equal(t, []string{"judo", "karate"}, store.GetStringSlice("chat.topics"))

	assert.Empty(t, store.GetString("missing"))
	assert.Zero(t, store.GetInt("llm.model"))
	assert.Zero(t, store.GetFloat("llm.model"))
	assert.False(t, store.GetBool("llm.model"))
	assert.Nil(t, store.GetStringSlice("retriever.k"))
}

func TestConfigStore_WritesTables(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set("retriever.k", 4))
	require.NoError(t, store.Set("llm.provider", "ollama"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, "[retriever]")
	assert.Contains(t, text, "[llm]")
	assert.NotContains(t, text, `"retriever.k"`)
}

func TestConfigStore_Persistence(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("index.path", "/tmp/index.rkb"))
	require.NoError(t, store.Set("retriever.k", 9))
	require.NoError(t, store.Set("loader.rate_per_second", 2.0))
	require.NoError(t, store.Set("chat.topics", []string{"boxing"}))

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/index.rkb", reopened.GetString("index.path"))
	assert.Equal(t, 9, reopened.GetInt("retriever.k"))
	assert.InDelta(t, 2.0, reopened.GetFloat("loader.rate_per_second"), 1e-9)
	assert.Equal(t, []string{"boxing"}, reopened.GetStringSlice("chat.topics"))
}

func TestConfigStore_LoadsHandWrittenFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[embedding]
provider = "openai"
model = "text-embedding-3-small"

[loader]
rate_per_second = 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "openai", store.GetString("embedding.provider"))
	assert.InDelta(t, 3.0, store.GetFloat("loader.rate_per_second"), 1e-9)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not enforced on windows")
	}
	store := newTestConfigStore(t)
	require.NoError(t, store.Set("k", "v"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestNewConfigStore_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[[[ not toml"), 0600))

	_, err := NewConfigStore(dir)

	assert.ErrorContains(t, err, "parse")
}

func TestNewConfigStore_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), nil, 0600))

	store, err := NewConfigStore(dir)

	require.NoError(t, err)
	_, ok := store.Get("anything")
	assert.False(t, ok)
}

func TestConfigStore_Set_RollsBackOnWriteError(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set("a", "1"))

	// Replacing the target with a directory makes the rename fail.
	require.NoError(t, os.Remove(store.Path()))
	require.NoError(t, os.Mkdir(store.Path(), 0700))

	err := store.Set("a", "2")

	require.Error(t, err)
	assert.Equal(t, "1", store.GetString("a"))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := newTestConfigStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Set("retriever.k", i)
			_ = store.GetInt("retriever.k")
		}(i)
	}
	wg.Wait()

	_, ok := store.Get("retriever.k")
	assert.True(t, ok)
}

func TestNestAndFlattenKeys(t *testing.T) {
	flat := map[string]any{
		"a.b":   int64(1),
		"a.c.d": "x",
		"e":     true,
	}

	nested := nestKeys(flat)

	assert.Equal(t, map[string]any{
		"a": map[string]any{"b": int64(1), "c": map[string]any{"d": "x"}},
		"e": true,
	}, nested)
	assert.Equal(t, flat, flattenKeys(nested, ""))
}

func TestNestKeys_ConflictStaysQuoted(t *testing.T) {
	nested := nestKeys(map[string]any{"a": "plain", "a.b": "child"})

	assert.Equal(t, "plain", nested["a"])
	assert.Equal(t, "child", nested["a.b"])

	data, err := toml.Marshal(nested)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, `'a.b'`) || strings.Contains(text, `"a.b"`))
}
