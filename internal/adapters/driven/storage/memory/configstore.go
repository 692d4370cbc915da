// Package memory provides in-memory implementations of driven ports, used by
// tests and by commands that must not touch the user's files.
package memory

import (
	"sync"

	"github.com/custodia-labs/rockybot/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps configuration values in a map.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewConfigStore creates a config store, optionally seeded with values.
func NewConfigStore(seed ...map[string]any) *ConfigStore {
	values := make(map[string]any)
	for _, m := range seed {
		for k, v := range m {
			values[k] = v
		}
	}
	return &ConfigStore{values: values}
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

// GetString retrieves a string configuration value.
func (s *ConfigStore) GetString(key string) string {
	str, _ := s.lookup(key).(string)
	return str
}

// GetInt retrieves an integer configuration value.
func (s *ConfigStore) GetInt(key string) int {
	switch v := s.lookup(key).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// GetFloat retrieves a numeric configuration value.
func (s *ConfigStore) GetFloat(key string) float64 {
	switch v := s.lookup(key).(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// GetBool retrieves a boolean configuration value.
func (s *ConfigStore) GetBool(key string) bool {
	b, _ := s.lookup(key).(bool)
	return b
}

// GetStringSlice retrieves a string slice configuration value.
func (s *ConfigStore) GetStringSlice(key string) []string {
	switch v := s.lookup(key).(type) {
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

// Set stores a configuration value.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Save is a no-op.
func (s *ConfigStore) Save() error {
	return nil
}

// Load is a no-op.
func (s *ConfigStore) Load() error {
	return nil
}

// Path returns ":memory:".
func (s *ConfigStore) Path() string {
	return ":memory:"
}

func (s *ConfigStore) lookup(key string) any {
	val, _ := s.Get(key)
	return val
}
