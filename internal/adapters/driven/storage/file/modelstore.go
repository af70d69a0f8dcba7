// Package file provides the on-disk implementation of driven.ModelStore.
// Each label gets a directory named after a hash of its name, holding the
// model as JSON.
package file

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
	"github.com/custodia-labs/sercha-docs/internal/core/ports/driven"
)

const modelFileName = "model.json"

// Ensure ModelStore implements the interface.
var _ driven.ModelStore = (*ModelStore)(nil)

// ModelStore persists classifier models under a directory.
type ModelStore struct {
	dir string
}

// modelFile is the JSON layout of a model file.
type modelFile struct {
	Label string `json:"label"`
	*domain.ClassifierModel
}

// NewModelStore creates a model store rooted at dir.
func NewModelStore(dir string) *ModelStore {
	return &ModelStore{dir: dir}
}

// Dir returns the root directory of the store.
func (s *ModelStore) Dir() string {
	return s.dir
}

func (s *ModelStore) labelDir(label string) string {
	sum := sha256.Sum256([]byte(label))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])[:16])
}

// Load reads the model of a label. A label without a saved model gets an
// empty one.
func (s *ModelStore) Load(_ context.Context, label string) (*domain.ClassifierModel, error) {
	data, err := os.ReadFile(filepath.Join(s.labelDir(label), modelFileName))
	if errors.Is(err, os.ErrNotExist) {
		return domain.NewClassifierModel(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading model of %q: %w", label, err)
	}

	mf := modelFile{ClassifierModel: domain.NewClassifierModel()}
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("decoding model of %q: %w", label, err)
	}
	if mf.Categories == nil {
		mf.Categories = make(map[string]*domain.CategoryCounts)
	}
	return mf.ClassifierModel, nil
}

// Save writes the model of a label, replacing the file atomically.
func (s *ModelStore) Save(_ context.Context, label string, model *domain.ClassifierModel) error {
	dir := s.labelDir(label)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating model directory: %w", err)
	}

	data, err := json.Marshal(modelFile{Label: label, ClassifierModel: model})
	if err != nil {
		return fmt.Errorf("encoding model of %q: %w", label, err)
	}

	tmp, err := os.CreateTemp(dir, modelFileName+".*")
	if err != nil {
		return fmt.Errorf("writing model of %q: %w", label, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing model of %q: %w", label, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing model of %q: %w", label, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, modelFileName)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing model of %q: %w", label, err)
	}
	return nil
}

// Delete removes the model of a label.
func (s *ModelStore) Delete(_ context.Context, label string) error {
	if err := os.RemoveAll(s.labelDir(label)); err != nil {
		return fmt.Errorf("deleting model of %q: %w", label, err)
	}
	return nil
}

// DeleteAll removes every model.
func (s *ModelStore) DeleteAll(context.Context) error {
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("deleting models: %w", err)
	}
	return nil
}
