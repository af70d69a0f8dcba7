package driving

import (
	"context"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
)

// SearchService provides search capabilities to external actors.
type SearchService interface {
	// FindDocuments returns the documents matching sentence. An empty
	// sentence returns every document.
	FindDocuments(ctx context.Context, sentence string, opts domain.SearchOptions) ([]domain.Document, error)

	// FindSuggestions returns spelling-corrected variants of sentence that
	// match at least one document, sorted.
	FindSuggestions(ctx context.Context, sentence string) ([]string, error)
}
