package driven

import "github.com/custodia-labs/sercha-docs/internal/core/domain"

// SettingsStore provides access to the user configuration.
// Implementations handle persistence (e.g., TOML files).
type SettingsStore interface {
	// Load reads the settings. A missing file yields the defaults.
	Load() (domain.Settings, error)

	// Save persists the settings.
	Save(settings domain.Settings) error

	// Path returns the configuration file path.
	Path() string
}
