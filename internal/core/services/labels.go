package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
	"github.com/custodia-labs/sercha-docs/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-docs/internal/logger"
)

// Ensure LabelService implements the interface.
var _ driving.LabelService = (*LabelService)(nil)

// LabelService manages the labels known to the engine and their
// attachment to documents.
type LabelService struct {
	engine *Engine
}

// NewLabelService creates a new label service.
func NewLabelService(engine *Engine) *LabelService {
	return &LabelService{engine: engine}
}

// Labels returns every known label, sorted.
func (s *LabelService) Labels() []domain.Label {
	return s.engine.Labels()
}

// CreateLabel registers a new label and loads its classifier. When doc is
// not nil the label is attached to it and the document reindexed.
func (s *LabelService) CreateLabel(ctx context.Context, label domain.Label, doc domain.Document) error {
	if !s.engine.trackLabel(label) {
		return fmt.Errorf("create label %q: %w", label.Name, domain.ErrLabelExists)
	}
	if err := s.engine.bank.Load(ctx, label); err != nil {
		return err
	}
	logger.Info("created label %q", label.Name)
	if doc == nil {
		return nil
	}
	if err := doc.AddLabel(label); err != nil {
		return fmt.Errorf("label %s: %w", doc.ID(), err)
	}
	return s.reindex(ctx, doc)
}

// AddLabel attaches a known label to doc.
func (s *LabelService) AddLabel(ctx context.Context, doc domain.Document, label domain.Label, reindex bool) error {
	if !s.engine.IsTracked(label) {
		return fmt.Errorf("add label %q: %w", label.Name, domain.ErrLabelNotFound)
	}
	if err := doc.AddLabel(label); err != nil {
		return fmt.Errorf("label %s: %w", doc.ID(), err)
	}
	if !reindex {
		return nil
	}
	return s.reindex(ctx, doc)
}

// RemoveLabel detaches a label from doc.
func (s *LabelService) RemoveLabel(ctx context.Context, doc domain.Document, label domain.Label, reindex bool) error {
	if err := doc.RemoveLabel(label); err != nil {
		return fmt.Errorf("unlabel %s: %w", doc.ID(), err)
	}
	if !reindex {
		return nil
	}
	return s.reindex(ctx, doc)
}

func (s *LabelService) reindex(ctx context.Context, doc domain.Document) error {
	return withUpdater(ctx, s.engine, func(u *IndexUpdater) error {
		return u.Update(ctx, doc)
	})
}

// labelUndo remembers the labels of a document before a bulk label change.
type labelUndo struct {
	doc     domain.Document
	labels  domain.LabelSet
	storage *domain.StorageBinding
}

func saveLabels(doc domain.Document) labelUndo {
	return labelUndo{doc: doc, labels: doc.Labels(), storage: doc.Storage()}
}

// restoreLabels writes back the label files of a failed bulk change.
func restoreLabels(undo []labelUndo) {
	for _, u := range undo {
		if err := u.doc.RestoreLabels(u.labels, u.storage); err != nil {
			logger.Warn("restoring labels of %s: %v", u.doc.ID(), err)
		}
	}
}

// UpdateLabel replaces old by updated on every document carrying it, and
// reindexes those documents in a single transaction. A renamed label
// keeps the classifier of the old one. On failure the label files and
// the tracked labels are put back.
func (s *LabelService) UpdateLabel(
	ctx context.Context,
	old, updated domain.Label,
	progress domain.ProgressFunc,
) error {
	progress = domain.OrNoProgress(progress)
	if !s.engine.IsTracked(old) {
		return fmt.Errorf("update label %q: %w", old.Name, domain.ErrLabelNotFound)
	}
	renamed := old.Key() != updated.Key()
	if renamed && s.engine.IsTracked(updated) {
		return fmt.Errorf("rename label to %q: %w", updated.Name, domain.ErrLabelExists)
	}

	s.engine.untrackLabel(old)
	s.engine.trackLabel(updated)
	if err := s.engine.bank.Load(ctx, updated); err != nil {
		s.engine.untrackLabel(updated)
		s.engine.trackLabel(old)
		return err
	}

	var undo []labelUndo
	docs := s.engine.Documents()
	err := withUpdater(ctx, s.engine, func(u *IndexUpdater) error {
		if renamed {
			if err := u.RenameLabel(ctx, old, updated); err != nil {
				return err
			}
		}
		for i, doc := range docs {
			progress(i, len(docs), domain.StepLabelUpdating, doc)
			before := saveLabels(doc)
			had, err := doc.ReplaceLabel(old, updated)
			if err != nil {
				return fmt.Errorf("relabel %s: %w", doc.ID(), err)
			}
			if !had {
				continue
			}
			undo = append(undo, before)
			if err := u.Update(ctx, doc); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		restoreLabels(undo)
		s.engine.untrackLabel(updated)
		s.engine.trackLabel(old)
		if renamed {
			if forgetErr := s.engine.bank.Forget(ctx, updated); forgetErr != nil {
				logger.Warn("%v", forgetErr)
			}
		}
		return err
	}
	progress(1, 1, domain.StepLabelUpdating, nil)

	if renamed {
		if err := s.engine.bank.Forget(ctx, old); err != nil {
			logger.Warn("%v", err)
		}
	}
	logger.Info("label %q updated to %q", old.Name, updated.Name)
	return nil
}

// DestroyLabel removes a label from every document and forgets its
// classifier. The label stays known, and the label files are put back,
// when the transaction fails.
func (s *LabelService) DestroyLabel(ctx context.Context, label domain.Label, progress domain.ProgressFunc) error {
	progress = domain.OrNoProgress(progress)

	var undo []labelUndo
	docs := s.engine.Documents()
	err := withUpdater(ctx, s.engine, func(u *IndexUpdater) error {
		for i, doc := range docs {
			progress(i, len(docs), domain.StepLabelDestroying, doc)
			if !doc.HasLabel(label) {
				continue
			}
			undo = append(undo, saveLabels(doc))
			if err := doc.RemoveLabel(label); err != nil {
				return fmt.Errorf("unlabel %s: %w", doc.ID(), err)
			}
			if err := u.Update(ctx, doc); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		restoreLabels(undo)
		return err
	}
	s.engine.untrackLabel(label)
	progress(1, 1, domain.StepLabelDestroying, nil)

	if err := s.engine.bank.Forget(ctx, label); err != nil {
		logger.Warn("%v", err)
	}
	logger.Info("label %q destroyed", label.Name)
	return nil
}
