package driving

import "github.com/custodia-labs/sercha-docs/internal/core/domain"

// SettingsService manages the user configuration.
type SettingsService interface {
	// Get returns the current settings.
	Get() (domain.Settings, error)

	// Set changes one setting by key and persists the result.
	Set(key, value string) error

	// Keys returns the settable keys in display order.
	Keys() []string

	// Path returns where the settings are persisted.
	Path() string
}
