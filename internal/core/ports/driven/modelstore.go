package driven

import (
	"context"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
)

// ModelStore persists one classifier model per label.
type ModelStore interface {
	// Load returns the model of a label, or an empty model if none was saved.
	Load(ctx context.Context, label string) (*domain.ClassifierModel, error)

	// Save persists the model of a label.
	Save(ctx context.Context, label string, model *domain.ClassifierModel) error

	// Delete removes the model of a label. Missing models are ignored.
	Delete(ctx context.Context, label string) error

	// DeleteAll removes every model.
	DeleteAll(ctx context.Context) error
}
