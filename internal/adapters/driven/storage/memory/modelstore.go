package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
	"github.com/custodia-labs/sercha-docs/internal/core/ports/driven"
)

// Ensure ModelStore implements the interface.
var _ driven.ModelStore = (*ModelStore)(nil)

// ModelStore is an in-memory implementation of driven.ModelStore.
// Models are copied on the way in and out, as a file store would.
type ModelStore struct {
	mu     sync.RWMutex
	models map[string]*domain.ClassifierModel
}

// NewModelStore creates a new in-memory model store.
func NewModelStore() *ModelStore {
	return &ModelStore{
		models: make(map[string]*domain.ClassifierModel),
	}
}

// Load returns a copy of the saved model, or an empty model.
func (s *ModelStore) Load(_ context.Context, label string) (*domain.ClassifierModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.models[label]
	if !ok {
		return domain.NewClassifierModel(), nil
	}
	return m.Clone(), nil
}

// Save stores a copy of the model.
func (s *ModelStore) Save(_ context.Context, label string, model *domain.ClassifierModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models[label] = model.Clone()
	return nil
}

// Delete removes the model of a label.
func (s *ModelStore) Delete(_ context.Context, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.models, label)
	return nil
}

// DeleteAll removes every model.
func (s *ModelStore) DeleteAll(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models = make(map[string]*domain.ClassifierModel)
	return nil
}

// Labels returns the labels with a saved model.
func (s *ModelStore) Labels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	labels := make([]string, 0, len(s.models))
	for l := range s.models {
		labels = append(labels, l)
	}
	return labels
}
