package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-docs/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sercha-docs/internal/core/domain"
	"github.com/custodia-labs/sercha-docs/internal/core/ports/driven"
)

// dsnPragmas enables WAL mode and waits on locks instead of failing.
const dsnPragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// Store is the SQLite metadata database.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.sercha-docs/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sercha-docs", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	db, err := sql.Open("sqlite", dbPath+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// PageCounter returns a PageCounter interface backed by this store.
func (s *Store) PageCounter() driven.PageCounter {
	return &pageCounter{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_page_counters.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Page Counter ====================

// pageCounter implements driven.PageCounter.
type pageCounter struct {
	store *Store
}

var _ driven.PageCounter = (*pageCounter)(nil)

// Target reserves pages pages under label and returns the first one.
func (c *pageCounter) Target(ctx context.Context, label string, pages int) (int, error) {
	if pages < 0 {
		return 0, fmt.Errorf("reserving %d pages: %w", pages, domain.ErrInvalidInput)
	}
	key := domain.NewLabel(label, "").Key()

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var base int
	err = tx.QueryRowContext(ctx, `
		INSERT INTO page_counters (label, next_page) VALUES (?, 1)
		ON CONFLICT(label) DO UPDATE SET label = excluded.label
		RETURNING next_page
	`, key).Scan(&base)
	if err != nil {
		return 0, fmt.Errorf("reading page counter: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE page_counters SET next_page = next_page + ?, updated_at = CURRENT_TIMESTAMP
		WHERE label = ?
	`, pages, key)
	if err != nil {
		return 0, fmt.Errorf("advancing page counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing page counter: %w", err)
	}
	return base, nil
}

// Current returns the next page that Target would hand out.
func (c *pageCounter) Current(ctx context.Context, label string) (int, error) {
	key := domain.NewLabel(label, "").Key()
	var next int
	err := c.store.db.QueryRowContext(ctx,
		"SELECT next_page FROM page_counters WHERE label = ?", key).Scan(&next)
	if err == sql.ErrNoRows {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading page counter: %w", err)
	}
	return next, nil
}
