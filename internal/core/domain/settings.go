package domain

import (
	"path/filepath"
	"time"
)

// Settings is the user configuration of sercha-docs.
type Settings struct {
	// WorkDir holds one directory per document.
	WorkDir string `toml:"workdir"`
	// DataDir holds the index, the classifier models and the metadata database.
	DataDir string         `toml:"datadir"`
	Verbose bool           `toml:"verbose"`
	Search  SearchSettings `toml:"search"`
}

// SearchSettings configures the query engine.
type SearchSettings struct {
	// FuzzyMaxDistance is the edit distance allowed by fuzzy search.
	FuzzyMaxDistance int `toml:"fuzzy_max_distance"`
	// DefaultLimit caps results when the caller does not choose a limit.
	DefaultLimit int `toml:"default_limit"`
}

// Default values.
const (
	DefaultFuzzyMaxDistance = 1
	DefaultSearchLimit      = 50
	// SyncDebounce is how long the watcher waits for the work directory
	// to settle before syncing.
	SyncDebounce = 2 * time.Second
)

// DefaultSettings returns the settings used when no file exists, rooted
// at the given home directory.
func DefaultSettings(home string) Settings {
	base := filepath.Join(home, ".sercha-docs")
	return Settings{
		WorkDir: filepath.Join(base, "papers"),
		DataDir: filepath.Join(base, "data"),
		Search: SearchSettings{
			FuzzyMaxDistance: DefaultFuzzyMaxDistance,
			DefaultLimit:     DefaultSearchLimit,
		},
	}
}

// Validate checks the settings and fills zero values with defaults.
func (s *Settings) Validate() error {
	if s.WorkDir == "" || s.DataDir == "" {
		return ErrInvalidInput
	}
	if s.Search.FuzzyMaxDistance < 0 {
		return ErrInvalidInput
	}
	if s.Search.FuzzyMaxDistance == 0 {
		s.Search.FuzzyMaxDistance = DefaultFuzzyMaxDistance
	}
	if s.Search.DefaultLimit <= 0 {
		s.Search.DefaultLimit = DefaultSearchLimit
	}
	return nil
}

// IndexDir returns the directory of the full-text index.
func (s Settings) IndexDir() string {
	return filepath.Join(s.DataDir, "index")
}

// ModelsDir returns the directory of the label classifier models.
func (s Settings) ModelsDir() string {
	return filepath.Join(s.DataDir, "label_guessing")
}

// SyncReport summarises a reconciliation of the index with the work directory.
type SyncReport struct {
	New       int
	Modified  int
	Deleted   int
	Unchanged int
	Duration  time.Duration
}

// Changed reports whether the sync touched the index.
func (r SyncReport) Changed() bool {
	return r.New+r.Modified+r.Deleted > 0
}
