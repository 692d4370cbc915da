package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/core/ports/driven"
	"github.com/custodia-labs/rockybot/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyIndexPath        = "index.path"
	keyIndexBackend     = "index.backend"
	keyIndexMetric      = "index.metric"
	keyChunkSize        = "chunker.chunk_size"
	keyRetrieverK       = "retriever.k"
	keyRetrieverDegrade = "retriever.degrade"
	keyMaxContext       = "retriever.max_context_tokens"
	keyLoaderTimeout    = "loader.timeout_seconds"
	keyLoaderRate       = "loader.rate_per_second"
	keyLoaderUserAgent  = "loader.user_agent"
	keyLoaderMaxBytes   = "loader.max_bytes"
	keyRetryAttempts    = "retry.attempts"
	keyChatTopics       = "chat.topics"
	keyChatRefusal      = "chat.refusal"
)

// setting binds a config key to the settings field it populates.
// field returns a pointer into the settings struct.
type setting struct {
	key    string
	secret bool
	field  func(s *domain.AppSettings) any
}

var settingsTable = []setting{
	{key: keyEmbedProvider, field: func(s *domain.AppSettings) any { return &s.Embedding.Provider }},
	{key: keyEmbedModel, field: func(s *domain.AppSettings) any { return &s.Embedding.Model }},
	{key: keyEmbedBaseURL, field: func(s *domain.AppSettings) any { return &s.Embedding.BaseURL }},
	{key: keyEmbedAPIKey, secret: true, field: func(s *domain.AppSettings) any { return &s.Embedding.APIKey }},
	{key: keyLLMProvider, field: func(s *domain.AppSettings) any { return &s.LLM.Provider }},
	{key: keyLLMModel, field: func(s *domain.AppSettings) any { return &s.LLM.Model }},
	{key: keyLLMBaseURL, field: func(s *domain.AppSettings) any { return &s.LLM.BaseURL }},
	{key: keyLLMAPIKey, secret: true, field: func(s *domain.AppSettings) any { return &s.LLM.APIKey }},
	{key: keyIndexPath, field: func(s *domain.AppSettings) any { return &s.Index.Path }},
	{key: keyIndexBackend, field: func(s *domain.AppSettings) any { return &s.Index.Backend }},
	{key: keyIndexMetric, field: func(s *domain.AppSettings) any { return &s.Index.Metric }},
	{key: keyChunkSize, field: func(s *domain.AppSettings) any { return &s.Chunker.ChunkSize }},
	{key: keyRetrieverK, field: func(s *domain.AppSettings) any { return &s.Retriever.K }},
	{key: keyRetrieverDegrade, field: func(s *domain.AppSettings) any { return &s.Retriever.Degrade }},
	{key: keyMaxContext, field: func(s *domain.AppSettings) any { return &s.Retriever.MaxContextTokens }},
	{key: keyLoaderTimeout, field: func(s *domain.AppSettings) any { return &s.Loader.TimeoutSeconds }},
	{key: keyLoaderRate, field: func(s *domain.AppSettings) any { return &s.Loader.RatePerSecond }},
	{key: keyLoaderUserAgent, field: func(s *domain.AppSettings) any { return &s.Loader.UserAgent }},
	{key: keyLoaderMaxBytes, field: func(s *domain.AppSettings) any { return &s.Loader.MaxBytes }},
	{key: keyRetryAttempts, field: func(s *domain.AppSettings) any { return &s.Retry.Attempts }},
	{key: keyChatTopics, field: func(s *domain.AppSettings) any { return &s.Chat.Topics }},
	{key: keyChatRefusal, field: func(s *domain.AppSettings) any { return &s.Chat.Refusal }},
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	dataDir     string
	validate    *validator.Validate
	lookupEnv   func(string) string
}

// NewSettingsService creates a new settings service.
// dataDir is where the default index path points. aiValidator may be nil.
func NewSettingsService(
	configStore driven.ConfigStore, aiValidator driven.AIConfigValidator, dataDir string,
) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		dataDir:     dataDir,
		validate:    validator.New(),
		lookupEnv:   os.Getenv,
	}
}

// SetEnvLookup replaces the environment lookup used for API keys.
func (s *SettingsService) SetEnvLookup(lookup func(string) string) {
	s.lookupEnv = lookup
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := s.load()
	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = s.envKey(settings.Embedding.Provider)
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = s.envKey(settings.LLM.Provider)
	}
	return settings, nil
}

// Save validates and persists application settings.
// Empty API keys are not written, so keys held in the environment stay there.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := s.Validate(settings); err != nil {
		return err
	}
	for _, st := range settingsTable {
		ptr := st.field(settings)
		if st.secret && *(ptr.(*string)) == "" {
			continue
		}
		if err := s.configStore.Set(st.key, storedValue(ptr)); err != nil {
			return fmt.Errorf("save %s: %w", st.key, err)
		}
	}
	return nil
}

// Set updates a single setting by its dotted key.
func (s *SettingsService) Set(key, value string) error {
	st, ok := lookupSetting(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	settings := s.load()
	ptr := st.field(settings)
	if err := parseValue(ptr, value); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}

	// Switching provider resets the model to the provider default.
	switch key {
	case keyEmbedProvider:
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	case keyLLMProvider:
		settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
	}

	if err := s.Validate(settings); err != nil {
		return err
	}

	if err := s.configStore.Set(key, storedValue(ptr)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	switch key {
	case keyEmbedProvider:
		return s.configStore.Set(keyEmbedModel, settings.Embedding.Model)
	case keyLLMProvider:
		return s.configStore.Set(keyLLMModel, settings.LLM.Model)
	}
	return nil
}

// Validate checks settings against their struct constraints.
func (s *SettingsService) Validate(settings *domain.AppSettings) error {
	if settings == nil {
		return fmt.Errorf("%w: settings are nil", domain.ErrInvalidInput)
	}
	err := s.validate.Struct(settings)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", e.Namespace(), e.Tag()))
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(msgs, "; "))
}

// Check pings the configured embedding and LLM providers.
func (s *SettingsService) Check(ctx context.Context) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return errors.Join(
		s.aiValidator.ValidateEmbedding(ctx, &settings.Embedding),
		s.aiValidator.ValidateLLM(ctx, &settings.LLM),
	)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings(s.dataDir)
}

// Keys lists the settable keys in display order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingsTable))
	for i, st := range settingsTable {
		keys[i] = st.key
	}
	return keys
}

// Values lists every key of settings with its formatted value.
func (s *SettingsService) Values(settings *domain.AppSettings) []domain.Setting {
	values := make([]domain.Setting, len(settingsTable))
	for i, st := range settingsTable {
		values[i] = domain.Setting{
			Key:    st.key,
			Value:  formatValue(st.field(settings)),
			Secret: st.secret,
		}
	}
	return values
}

// load returns the stored settings over the defaults, without environment
// overrides.
func (s *SettingsService) load() *domain.AppSettings {
	settings := s.GetDefaults()
	for _, st := range settingsTable {
		if _, exists := s.configStore.Get(st.key); !exists {
			continue
		}
		loadValue(s.configStore, st.key, st.field(&settings))
	}
	return &settings
}

func (s *SettingsService) envKey(provider domain.AIProvider) string {
	env := provider.APIKeyEnv()
	if env == "" || s.lookupEnv == nil {
		return ""
	}
	return s.lookupEnv(env)
}

func lookupSetting(key string) (setting, bool) {
	for _, st := range settingsTable {
		if st.key == key {
			return st, true
		}
	}
	return setting{}, false
}

// loadValue reads key from the store into ptr. Unknown enum values and
// empty strings keep the default.
func loadValue(store driven.ConfigStore, key string, ptr any) {
	switch p := ptr.(type) {
	case *string:
		if v := store.GetString(key); v != "" {
			*p = v
		}
	case *domain.AIProvider:
		if v := domain.AIProvider(store.GetString(key)); v.IsValid() {
			*p = v
		}
	case *domain.IndexBackend:
		if v := domain.IndexBackend(store.GetString(key)); v.IsValid() {
			*p = v
		}
	case *domain.DistanceMetric:
		if v := domain.DistanceMetric(store.GetString(key)); v.IsValid() {
			*p = v
		}
	case *int:
		*p = store.GetInt(key)
	case *int64:
		*p = int64(store.GetInt(key))
	case *float64:
		*p = store.GetFloat(key)
	case *bool:
		*p = store.GetBool(key)
	case *[]string:
		*p = store.GetStringSlice(key)
	}
}

// parseValue parses a command-line value into ptr.
func parseValue(ptr any, value string) error {
	value = strings.TrimSpace(value)
	switch p := ptr.(type) {
	case *string:
		*p = value
	case *domain.AIProvider:
		*p = domain.AIProvider(strings.ToLower(value))
	case *domain.IndexBackend:
		*p = domain.IndexBackend(strings.ToLower(value))
	case *domain.DistanceMetric:
		*p = domain.DistanceMetric(strings.ToLower(value))
	case *int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("expected an integer, got %q", value)
		}
		*p = n
	case *int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("expected an integer, got %q", value)
		}
		*p = n
	case *float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("expected a number, got %q", value)
		}
		*p = f
	case *bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("expected true or false, got %q", value)
		}
		*p = b
	case *[]string:
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		*p = items
	default:
		return fmt.Errorf("unsupported setting type %T", ptr)
	}
	return nil
}

// storedValue converts ptr into the value written to the config store.
func storedValue(ptr any) any {
	switch p := ptr.(type) {
	case *string:
		return *p
	case *domain.AIProvider:
		return p.String()
	case *domain.IndexBackend:
		return p.String()
	case *domain.DistanceMetric:
		return p.String()
	case *int:
		return *p
	case *int64:
		return *p
	case *float64:
		return *p
	case *bool:
		return *p
	case *[]string:
		return append([]string(nil), (*p)...)
	default:
		return nil
	}
}

func formatValue(ptr any) string {
	switch p := ptr.(type) {
	case *[]string:
		return strings.Join(*p, ", ")
	default:
		return fmt.Sprint(storedValue(ptr))
	}
}
