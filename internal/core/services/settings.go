package services

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
	"github.com/custodia-labs/sercha-docs/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-docs/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Setting keys, matching the TOML layout of the settings file.
const (
	keyWorkDir          = "workdir"
	keyDataDir          = "datadir"
	keyVerbose          = "verbose"
	keyFuzzyMaxDistance = "search.fuzzy_max_distance"
	keyDefaultLimit     = "search.default_limit"
)

// SettingsService manages application settings. Changes apply to the
// next run of the program.
type SettingsService struct {
	store driven.SettingsStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(store driven.SettingsStore) *SettingsService {
	return &SettingsService{store: store}
}

// Get retrieves the current settings.
func (s *SettingsService) Get() (domain.Settings, error) {
	return s.store.Load()
}

// Keys returns the settable keys.
func (s *SettingsService) Keys() []string {
	return []string{keyWorkDir, keyDataDir, keyVerbose, keyFuzzyMaxDistance, keyDefaultLimit}
}

// Path returns the settings file path.
func (s *SettingsService) Path() string {
	return s.store.Path()
}

// Set parses value for key, validates the result and saves it.
func (s *SettingsService) Set(key, value string) error {
	settings, err := s.store.Load()
	if err != nil {
		return err
	}

	switch key {
	case keyWorkDir:
		settings.WorkDir, err = absPath(value)
	case keyDataDir:
		settings.DataDir, err = absPath(value)
	case keyVerbose:
		settings.Verbose, err = strconv.ParseBool(value)
	case keyFuzzyMaxDistance:
		settings.Search.FuzzyMaxDistance, err = strconv.Atoi(value)
	case keyDefaultLimit:
		settings.Search.DefaultLimit, err = strconv.Atoi(value)
	default:
		return fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
	}
	if err != nil {
		return fmt.Errorf("setting %s to %q: %w", key, value, domain.ErrInvalidInput)
	}

	if err := settings.Validate(); err != nil {
		return fmt.Errorf("setting %s to %q: %w", key, value, err)
	}
	return s.store.Save(settings)
}

func absPath(p string) (string, error) {
	if p == "" {
		return "", domain.ErrInvalidInput
	}
	return filepath.Abs(p)
}
