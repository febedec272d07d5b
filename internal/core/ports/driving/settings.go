package driving

import "github.com/custodia-labs/docsync/internal/core/domain"

// SettingsService manages CLI settings.
type SettingsService interface {
	// Get retrieves current settings.
	Get() (domain.Settings, error)

	// Set updates a single dotted key (e.g. "index.cleanup") and saves.
	Set(key, value string) error

	// Path returns where settings are stored.
	Path() string
}
