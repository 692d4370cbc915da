package driving

import (
	"context"

	"github.com/custodia-labs/rockybot/internal/core/domain"
)

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings. API keys missing from the
	// config file are taken from the provider's environment variable.
	Get() (*domain.AppSettings, error)

	// Save validates and persists application settings.
	Save(settings *domain.AppSettings) error

	// Set updates a single setting by its dotted key, e.g. "retriever.k".
	Set(key, value string) error

	// Validate checks settings without saving them.
	Validate(settings *domain.AppSettings) error

	// Check pings the configured embedding and LLM providers.
	Check(ctx context.Context) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// Keys lists the settable keys.
	Keys() []string

	// Values lists every key of settings with its formatted value.
	Values(settings *domain.AppSettings) []domain.Setting
}
