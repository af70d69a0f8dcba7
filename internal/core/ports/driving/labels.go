package driving

import (
	"context"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
)

// LabelService manages the labels known to the engine.
type LabelService interface {
	// Labels returns every known label, sorted.
	Labels() []domain.Label

	// CreateLabel registers a new label, optionally attaching it to doc.
	CreateLabel(ctx context.Context, label domain.Label, doc domain.Document) error

	// AddLabel attaches a known label to doc, reindexing it if asked.
	AddLabel(ctx context.Context, doc domain.Document, label domain.Label, reindex bool) error

	// RemoveLabel detaches a label from doc, reindexing it if asked.
	RemoveLabel(ctx context.Context, doc domain.Document, label domain.Label, reindex bool) error

	// UpdateLabel renames or recolours a label on every document.
	UpdateLabel(ctx context.Context, old, updated domain.Label, progress domain.ProgressFunc) error

	// DestroyLabel removes a label from every document.
	DestroyLabel(ctx context.Context, label domain.Label, progress domain.ProgressFunc) error
}
