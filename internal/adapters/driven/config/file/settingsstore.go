package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
	"github.com/custodia-labs/sercha-docs/internal/core/ports/driven"
)

// Environment variables overriding the settings file.
const (
	EnvWorkDir = "SERCHA_DOCS_WORKDIR"
	EnvDataDir = "SERCHA_DOCS_DATADIR"
	EnvVerbose = "SERCHA_DOCS_VERBOSE"
	// EnvConfigDir moves the settings file out of ~/.sercha-docs.
	EnvConfigDir = "SERCHA_DOCS_CONFIG_DIR"
)

// Ensure SettingsStore implements the interface.
var _ driven.SettingsStore = (*SettingsStore)(nil)

// SettingsStore is a file-based implementation of driven.SettingsStore using TOML.
type SettingsStore struct {
	mu       sync.Mutex
	filePath string
	home     string
	getenv   func(string) string
}

// NewSettingsStore creates a new TOML-based settings store.
// If configDir is empty, defaults to ~/.sercha-docs.
func NewSettingsStore(configDir string) (*SettingsStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}
	if configDir == "" {
		configDir = filepath.Join(home, ".sercha-docs")
	}

	// Ensure directory exists
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	return &SettingsStore{
		filePath: filepath.Join(configDir, "config.toml"),
		home:     home,
		getenv:   os.Getenv,
	}, nil
}

// Load reads the settings file, applies environment overrides and fills
// missing values with defaults. A missing file is not an error.
func (s *SettingsStore) Load() (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := domain.DefaultSettings(s.home)
	data, err := os.ReadFile(s.filePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// No settings file yet - defaults apply
	case err != nil:
		return domain.Settings{}, fmt.Errorf("reading settings: %w", err)
	default:
		if err := toml.Unmarshal(data, &settings); err != nil {
			return domain.Settings{}, fmt.Errorf("parsing settings %s: %w", s.filePath, err)
		}
	}

	applyEnv(&settings, s.getenv)
	if err := settings.Validate(); err != nil {
		return domain.Settings{}, fmt.Errorf("validating settings %s: %w", s.filePath, err)
	}
	return settings, nil
}

// Save writes the settings file.
func (s *SettingsStore) Save(settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	// Write with restricted permissions
	if err := os.WriteFile(s.filePath, data, 0600); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

// Path returns the configuration file path.
func (s *SettingsStore) Path() string {
	return s.filePath
}

func applyEnv(settings *domain.Settings, getenv func(string) string) {
	if v := getenv(EnvWorkDir); v != "" {
		settings.WorkDir = v
	}
	if v := getenv(EnvDataDir); v != "" {
		settings.DataDir = v
	}
	if v := getenv(EnvVerbose); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.Verbose = b
		}
	}
}
