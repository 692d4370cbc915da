package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/rockybot/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// configFileName is the name of the config file inside the config directory.
const configFileName = "config.toml"

// ConfigStore is a TOML-backed driven.ConfigStore.
//
// Values are addressed by dot-separated keys ("retriever.k"); on disk each
// prefix becomes a TOML table:
//
//	[retriever]
//	k = 4
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]any
}

// NewConfigStore opens the config in configDir, creating the directory.
// If configDir is empty, defaults to ~/.rockybot.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".rockybot")
	}
	return OpenConfigFile(filepath.Join(configDir, configFileName))
}

// OpenConfigFile opens the config at an explicit file path.
func OpenConfigFile(path string) (*ConfigStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	s := &ConfigStore{
		filePath: path,
		data:     make(map[string]any),
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[key]
	return val, ok
}

// GetString retrieves a string configuration value.
func (s *ConfigStore) GetString(key string) string {
	val, _ := s.Get(key)
	str, _ := val.(string)
	return str
}

// GetInt retrieves an integer configuration value.
func (s *ConfigStore) GetInt(key string) int {
	val, _ := s.Get(key)

	// TOML integers decode as int64.
	switch v := val.(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

// GetFloat retrieves a numeric configuration value. Integers are widened,
// so "rate_per_second = 2" reads as 2.0.
func (s *ConfigStore) GetFloat(key string) float64 {
	val, _ := s.Get(key)

	switch v := val.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

// GetBool retrieves a boolean configuration value.
func (s *ConfigStore) GetBool(key string) bool {
	val, _ := s.Get(key)
	b, _ := val.(bool)
	return b
}

// GetStringSlice retrieves a string slice configuration value.
func (s *ConfigStore) GetStringSlice(key string) []string {
	val, _ := s.Get(key)

	// TOML arrays decode as []any.
	switch v := val.(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				result = append(result, str)
			}
		}
		return result
	default:
		return nil
	}
}

// Set stores a configuration value and persists immediately.
// If the write fails the in-memory value is rolled back.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.data[key]
	s.data[key] = value
	if err := s.save(); err != nil {
		if had {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		return err
	}
	return nil
}

// Save persists the current configuration to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save writes the config through a temp file and rename (caller must hold lock).
func (s *ConfigStore) save() error {
	data, err := toml.Marshal(nestKeys(s.data))
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, s.filePath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load reads configuration from the TOML file. A missing file is an empty config.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		s.data = make(map[string]any)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var loaded map[string]any
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parse %s: %w", s.filePath, err)
	}
	s.data = flattenKeys(loaded, "")
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// flattenKeys turns nested tables into dot-separated keys:
// {"a": {"b": 1}} becomes {"a.b": 1}.
func flattenKeys(m map[string]any, prefix string) map[string]any {
	result := make(map[string]any)
	for key, value := range m {
		if prefix != "" {
			key = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			for k, v := range flattenKeys(nested, key) {
				result[k] = v
			}
			continue
		}
		result[key] = value
	}
	return result
}

// nestKeys is the inverse of flattenKeys. A key whose prefix is already a
// plain value is written quoted at the top level.
func nestKeys(flat map[string]any) map[string]any {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	root := make(map[string]any)
	for _, key := range keys {
		parts := strings.Split(key, ".")
		table := root
		for _, part := range parts[:len(parts)-1] {
			next, ok := table[part].(map[string]any)
			if !ok {
				if _, taken := table[part]; taken {
					table = nil
					break
				}
				next = make(map[string]any)
				table[part] = next
			}
			table = next
		}
		if table == nil {
			root[key] = flat[key]
			continue
		}
		table[parts[len(parts)-1]] = flat[key]
	}
	return root
}
