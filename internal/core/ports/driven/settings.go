package driven

import "github.com/custodia-labs/docsync/internal/core/domain"

// SettingsStore persists CLI settings.
type SettingsStore interface {
	// Load reads settings, falling back to defaults for a missing file.
	Load() (domain.Settings, error)

	// Save writes settings.
	Save(settings domain.Settings) error

	// Path returns the configuration file path.
	Path() string
}
