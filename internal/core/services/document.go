package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
	"github.com/custodia-labs/sercha-docs/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-docs/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService provides document management over the engine registry.
type DocumentService struct {
	engine *Engine
}

// NewDocumentService creates a new document service.
func NewDocumentService(engine *Engine) *DocumentService {
	return &DocumentService{engine: engine}
}

// List returns every indexed document, newest first.
func (s *DocumentService) List() []domain.Document {
	docs := s.engine.Documents()
	slices.Reverse(docs)
	return docs
}

// Get returns a document by id.
func (s *DocumentService) Get(id string) (domain.Document, error) {
	doc, ok := s.engine.Document(id)
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return doc, nil
}

// GuessLabels returns the known labels predicted for a document.
func (s *DocumentService) GuessLabels(_ context.Context, id string) ([]domain.Label, error) {
	doc, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return s.engine.GuessLabels(doc), nil
}

// Delete removes a document from the index, then from disk.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	doc, err := s.Get(id)
	if err != nil {
		return err
	}
	err = withUpdater(ctx, s.engine, func(u *IndexUpdater) error {
		return u.Delete(ctx, doc)
	})
	if err != nil {
		return err
	}
	if err := doc.Destroy(); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	logger.Info("deleted document %s", id)
	return nil
}

// SetExtraText replaces the free-form text of a document and reindexes it.
func (s *DocumentService) SetExtraText(ctx context.Context, id, text string) error {
	doc, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := doc.SetExtraText(text); err != nil {
		return fmt.Errorf("set extra text of %s: %w", id, err)
	}
	return withUpdater(ctx, s.engine, func(u *IndexUpdater) error {
		return u.Update(ctx, doc)
	})
}

// SetDate moves a document to the id of date and reindexes it under the
// new id. Returns the new id.
func (s *DocumentService) SetDate(ctx context.Context, id string, date time.Time) (string, error) {
	doc, err := s.Get(id)
	if err != nil {
		return "", err
	}
	err = withUpdater(ctx, s.engine, func(u *IndexUpdater) error {
		if err := u.DeleteByID(ctx, id); err != nil {
			return err
		}
		if err := doc.SetDate(date); err != nil {
			return fmt.Errorf("set date of %s: %w", id, err)
		}
		return u.Update(ctx, doc)
	})
	if err != nil {
		return "", err
	}
	logger.Info("document %s moved to %s", id, doc.ID())
	return doc.ID(), nil
}
