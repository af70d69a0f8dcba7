package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
)

// DocumentService provides document management to external actors.
type DocumentService interface {
	// List returns every indexed document, newest first.
	List() []domain.Document

	// Get returns a document by id.
	Get(id string) (domain.Document, error)

	// GuessLabels returns the known labels the classifiers predict for a document.
	GuessLabels(ctx context.Context, id string) ([]domain.Label, error)

	// Delete removes a document from the index and from disk.
	Delete(ctx context.Context, id string) error

	// SetExtraText replaces the free-form text of a document and reindexes it.
	SetExtraText(ctx context.Context, id, text string) error

	// SetDate moves a document to a new date-based id and reindexes it.
	// Returns the new id.
	SetDate(ctx context.Context, id string, date time.Time) (string, error)
}
