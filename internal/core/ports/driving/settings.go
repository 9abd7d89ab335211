package driving

import "github.com/vegvisr/graphvec/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set updates a single dot-notation key, e.g. "embedding.provider".
	Set(key, value string) error

	// Validate checks the current settings are usable.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig validates the embedding configuration by pinging the provider.
	ValidateEmbeddingConfig() error
}
