package driving

import (
	"context"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
)

// SyncService reconciles the index with the work directory.
type SyncService interface {
	// Sync indexes new and modified documents and drops deleted ones.
	Sync(ctx context.Context, progress domain.ProgressFunc) (*domain.SyncReport, error)

	// Status returns the current sync state.
	Status() SyncStatus
}

// SyncStatus represents the current state of the sync service.
type SyncStatus struct {
	// Running indicates if sync is currently in progress.
	Running bool

	// LastReport is the report of the last successful sync, if any.
	LastReport *domain.SyncReport

	// LastError is the error of the last failed sync, if any.
	LastError error
}
