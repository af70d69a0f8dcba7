package driven

import (
	"context"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
)

// IndexStore owns the full-text index files.
type IndexStore interface {
	// OpenWriter starts the single write transaction. A second call while
	// a writer is open fails with domain.ErrIndexLocked.
	OpenWriter(ctx context.Context) (IndexWriter, error)

	// OpenSearcher opens a read-only snapshot of the committed index.
	OpenSearcher(ctx context.Context) (IndexSearcher, error)

	// Destroy removes the index files. The store is unusable afterwards.
	Destroy() error

	// Close releases resources.
	Close() error
}

// IndexWriter stages changes until Commit. Changes are invisible to
// searchers until then.
type IndexWriter interface {
	// Delete removes the record of a document. Unknown ids are ignored.
	Delete(ctx context.Context, docID string) error

	// Insert adds a record. Callers delete any previous record first.
	Insert(ctx context.Context, record domain.IndexRecord) error

	// Commit publishes the staged changes and releases the writer.
	Commit() error

	// Cancel drops the staged changes and releases the writer.
	Cancel() error
}

// IndexSearcher reads a consistent snapshot of the index.
type IndexSearcher interface {
	// Search returns the documents matching query, best first. With sorted
	// set, ties in relevance are broken by date, newest first.
	// A limit of zero or less means no limit.
	Search(ctx context.Context, query domain.Query, limit int, sorted bool) ([]domain.SearchHit, error)

	// All returns the reconciliation entry of every record.
	All(ctx context.Context) ([]domain.IndexEntry, error)

	// Terms returns the vocabulary of a field with document frequencies.
	Terms(ctx context.Context, field domain.Field) ([]domain.TermStat, error)

	// HasFileHash reports whether a record carries the given hash.
	HasFileHash(ctx context.Context, hash string) (bool, error)

	// Count returns the number of records.
	Count(ctx context.Context) (int, error)

	// Close releases the snapshot.
	Close() error
}
