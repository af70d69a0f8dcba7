package services

import (
	"slices"
	"sync"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
)

// DocumentRegistry maps document ids to the live document instances of
// the index. It is only mutated by index updater commits and reloads.
type DocumentRegistry struct {
	mu   sync.RWMutex
	docs map[string]domain.Document
}

// NewDocumentRegistry creates an empty registry.
func NewDocumentRegistry() *DocumentRegistry {
	return &DocumentRegistry{docs: make(map[string]domain.Document)}
}

// Get returns the document with the given id.
func (r *DocumentRegistry) Get(docID string) (domain.Document, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[docID]
	return doc, ok
}

// Put registers doc under its id, replacing any previous instance.
func (r *DocumentRegistry) Put(doc domain.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID()] = doc
}

// Remove forgets the document with the given id.
func (r *DocumentRegistry) Remove(docID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, docID)
}

// Reset replaces the whole content of the registry.
func (r *DocumentRegistry) Reset(docs []domain.Document) {
	m := make(map[string]domain.Document, len(docs))
	for _, doc := range docs {
		m[doc.ID()] = doc
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = m
}

// Len returns the number of registered documents.
func (r *DocumentRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}

// All returns the registered documents ordered by id.
func (r *DocumentRegistry) All() []domain.Document {
	r.mu.RLock()
	docs := make([]domain.Document, 0, len(r.docs))
	for _, doc := range r.docs {
		docs = append(docs, doc)
	}
	r.mu.RUnlock()

	slices.SortFunc(docs, func(a, b domain.Document) int {
		return domain.CompareDocIDs(a.ID(), b.ID())
	})
	return docs
}
