package driven

import "github.com/custodia-labs/sercha-docs/internal/core/domain"

// DocumentType recognises and opens one kind of document directory.
type DocumentType interface {
	// Name is the tag stored in the index doctype field.
	Name() string

	// Recognize reports whether the directory holds a document of this type.
	Recognize(path string) bool

	// New opens the directory as a document of this type without checking it.
	New(path, docID string) domain.Document
}

// DocumentTypeRegistry resolves document directories to documents.
type DocumentTypeRegistry interface {
	// Open instantiates the document stored under root/docID. A known type
	// name is tried first; otherwise the types are probed in priority order.
	// Returns domain.ErrNotFound for a missing directory and
	// domain.ErrUnknownDocType when no type recognises it.
	Open(root, docID, typeName string) (domain.Document, error)

	// Placeholder returns a document for an id whose directory is gone.
	Placeholder(root, docID string) domain.Document
}
