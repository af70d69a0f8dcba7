package domain

import (
	"context"
	"time"
)

// Document is a document directory on disk seen through its capabilities.
// Implementations cache what they read from disk; every persisted mutation
// invalidates the cache.
type Document interface {
	// ID returns the document id, which is also its directory name.
	ID() string
	// Path returns the document directory.
	Path() string
	// Type returns the document type tag stored in the index.
	Type() string

	// PageCount returns the number of pages, 0 for a missing directory.
	PageCount() int
	// PageText returns the extracted text of page n (0-based).
	PageText(n int) (string, error)
	// Text returns the page texts joined by newlines, followed by the extra text.
	Text() string
	// IndexText returns the text stored in the content field of the index.
	IndexText() string
	// IndexLabels returns the label names, comma-joined.
	IndexLabels() string
	// CanEdit reports whether page text can be edited page by page.
	CanEdit() bool

	Labels() LabelSet
	// PreviousLabels returns the label set last acknowledged by the classifiers.
	PreviousLabels() LabelSet
	// AcknowledgeLabels makes the current labels the new baseline.
	AcknowledgeLabels()
	HasLabel(l Label) bool
	AddLabel(l Label) error
	RemoveLabel(l Label) error
	// ReplaceLabel swaps old for new and reports whether old was present.
	ReplaceLabel(old, new Label) (bool, error)
	SetLabels(labels LabelSet) error
	// RestoreLabels writes back labels and storage as returned earlier by
	// Labels and Storage.
	RestoreLabels(labels LabelSet, storage *StorageBinding) error

	// LastModified returns the newest modification time of the files
	// the index record is built from.
	LastModified() (time.Time, error)
	// FileHash returns the sha256 of the primary file.
	FileHash() (FileHash, error)

	Date() time.Time
	// SetDate renames the document directory to an id built from date.
	SetDate(date time.Time) error

	ExtraText() string
	SetExtraText(text string) error

	Storage() *StorageBinding
	// SetStorage allocates a page range under label. An existing binding
	// is kept unless force is set.
	SetStorage(ctx context.Context, label Label, force bool) error
	// UpdateStorage grows the page range after pagesAdded pages were added.
	UpdateStorage(ctx context.Context, pagesAdded int) error

	// DropCache forgets everything read from disk.
	DropCache()
	// Destroy removes the document directory.
	Destroy() error
	// Clone returns a fresh instance over the same directory.
	Clone() Document
}

// Step names a phase of a long-running operation.
type Step string

// Progress steps.
const (
	StepLoading         Step = "loading"
	StepChecking        Step = "checking"
	StepCommit          Step = "commit"
	StepLabelUpdating   Step = "label updating"
	StepLabelDestroying Step = "label deletion"
)

// ProgressFunc receives progress notifications. doc may be nil.
type ProgressFunc func(current, total int, step Step, doc Document)

// NoProgress discards progress notifications.
func NoProgress(int, int, Step, Document) {}

// OrNoProgress returns fn, or NoProgress when fn is nil.
func OrNoProgress(fn ProgressFunc) ProgressFunc {
	if fn == nil {
		return NoProgress
	}
	return fn
}
