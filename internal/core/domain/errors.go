package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSyncInProgress indicates a sync is already running.
	ErrSyncInProgress = errors.New("sync in progress")

	// Index Errors.

	// ErrIndexLocked indicates another index writer is already open.
	ErrIndexLocked = errors.New("index is locked by another writer")

	// ErrTransactionClosed indicates an index updater was already committed or cancelled.
	ErrTransactionClosed = errors.New("transaction already closed")

	// Label Errors.

	// ErrLabelExists indicates a label with the same key is already known.
	ErrLabelExists = errors.New("label already exists")

	// ErrLabelNotFound indicates the label is not known to the engine.
	ErrLabelNotFound = errors.New("label not found")

	// Document Errors.

	// ErrUnknownDocType indicates no document type recognised a document directory.
	ErrUnknownDocType = errors.New("unknown document type")

	// ErrInvalidDocID indicates a document id does not follow the YYYYMMDD_HHMM_SS[_N] layout.
	ErrInvalidDocID = errors.New("invalid document id")
)
