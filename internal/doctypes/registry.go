// Package doctypes holds the ordered registry of document types.
package doctypes

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
	"github.com/custodia-labs/sercha-docs/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-docs/internal/doctypes/img"
	"github.com/custodia-labs/sercha-docs/internal/doctypes/pdf"
	"github.com/custodia-labs/sercha-docs/internal/logger"
)

// Registry maps doctype tags to document types. Recognition probes the
// types in registration order.
type Registry struct {
	types       []driven.DocumentType
	byName      map[string]driven.DocumentType
	placeholder driven.DocumentType
}

var _ driven.DocumentTypeRegistry = (*Registry)(nil)

// NewRegistry creates a registry. The last type also opens placeholders
// for documents whose directory is gone.
func NewRegistry(types ...driven.DocumentType) *Registry {
	r := &Registry{byName: make(map[string]driven.DocumentType)}
	for _, t := range types {
		r.Register(t)
	}
	return r
}

// Default returns the registry of built-in types: PDF first, then images.
func Default(counter driven.PageCounter) *Registry {
	return NewRegistry(pdf.NewType(counter), img.NewType(counter))
}

// Register appends a document type.
func (r *Registry) Register(t driven.DocumentType) {
	r.types = append(r.types, t)
	r.byName[t.Name()] = t
	r.placeholder = t
}

// Has returns true if a type with the given tag is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Names returns the registered tags in priority order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.types))
	for i, t := range r.types {
		names[i] = t.Name()
	}
	return names
}

// Open instantiates the document stored under root/docID.
func (r *Registry) Open(root, docID, typeName string) (domain.Document, error) {
	dir := filepath.Join(root, docID)
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("opening %s: %w", docID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", docID, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("opening %s: %w", docID, domain.ErrUnknownDocType)
	}

	if typeName != "" {
		if t, ok := r.byName[typeName]; ok {
			return t.New(dir, docID), nil
		}
		logger.Warn("unknown document type %q for %s, probing", typeName, docID)
	}
	for _, t := range r.types {
		if t.Recognize(dir) {
			return t.New(dir, docID), nil
		}
	}
	return nil, fmt.Errorf("opening %s: %w", docID, domain.ErrUnknownDocType)
}

// Placeholder returns a document for an id whose directory is gone. It
// has no pages and no labels.
func (r *Registry) Placeholder(root, docID string) domain.Document {
	return r.placeholder.New(filepath.Join(root, docID), docID)
}
