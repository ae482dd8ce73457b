package driving

import "github.com/custodia-labs/sercha-rag/internal/core/domain"

// SettingsService resolves the layered application configuration.
type SettingsService interface {
	// Get returns the effective settings.
	Get() (*domain.Settings, error)

	// Save persists settings to the config file.
	Save(settings *domain.Settings) error

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings

	// Validate checks the effective settings.
	Validate() error
}
