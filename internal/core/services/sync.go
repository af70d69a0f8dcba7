package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
	"github.com/custodia-labs/sercha-docs/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-docs/internal/logger"
)

// Ensure SyncService implements the interface.
var _ driving.SyncService = (*SyncService)(nil)

// SyncService brings the index in line with the work directory.
type SyncService struct {
	engine *Engine

	mu         sync.Mutex
	running    bool
	lastReport *domain.SyncReport
	lastErr    error
}

// NewSyncService creates a new sync service.
func NewSyncService(engine *Engine) *SyncService {
	return &SyncService{engine: engine}
}

// Sync examines the work directory and, in one index transaction, adds
// new documents, reindexes modified ones and drops deleted ones. Any
// failure cancels the transaction.
func (s *SyncService) Sync(ctx context.Context, progress domain.ProgressFunc) (*domain.SyncReport, error) {
	progress = domain.OrNoProgress(progress)

	// 1. Claim the sync slot
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, domain.ErrSyncInProgress
	}
	s.running = true
	s.mu.Unlock()

	start := time.Now()
	report, err := s.run(ctx, progress)

	m := s.engine.metrics
	m.SyncDuration.Observe(time.Since(start).Seconds())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	if err != nil {
		s.lastErr = err
		m.SyncsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	report.Duration = time.Since(start)
	s.lastReport, s.lastErr = report, nil
	m.SyncsTotal.WithLabelValues("ok").Inc()
	return report, nil
}

func (s *SyncService) run(ctx context.Context, progress domain.ProgressFunc) (_ *domain.SyncReport, err error) {
	logger.Section("Sync")
	logger.Info("examining %s", s.engine.RootDir())

	// 2. Open the index transaction
	updater, err := s.engine.IndexUpdater(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if cancelErr := updater.Cancel(ctx); cancelErr != nil {
				err = errors.Join(err, fmt.Errorf("cancel index update: %w", cancelErr))
			}
		}
	}()

	// 3. Feed every change to the updater
	report := &domain.SyncReport{}
	cb := ExamineCallbacks{
		OnNew: func(doc domain.Document) error {
			report.New++
			return updater.Add(ctx, doc)
		},
		OnModified: func(doc domain.Document) error {
			report.Modified++
			return updater.Update(ctx, doc)
		},
		OnDeleted: func(doc domain.Document) error {
			report.Deleted++
			return updater.Delete(ctx, doc)
		},
		OnUnchanged: func(domain.Document) error {
			report.Unchanged++
			return nil
		},
	}
	if err := s.engine.Examiner().Examine(ctx, cb, progress); err != nil {
		return nil, fmt.Errorf("examine work directory: %w", err)
	}

	// 4. Commit
	progress(0, 1, domain.StepCommit, nil)
	if err := updater.Commit(ctx); err != nil {
		return nil, err
	}
	progress(1, 1, domain.StepCommit, nil)

	m := s.engine.metrics
	m.SyncChangesTotal.WithLabelValues("new").Add(float64(report.New))
	m.SyncChangesTotal.WithLabelValues("modified").Add(float64(report.Modified))
	m.SyncChangesTotal.WithLabelValues("deleted").Add(float64(report.Deleted))
	m.SyncChangesTotal.WithLabelValues("unchanged").Add(float64(report.Unchanged))

	logger.Info("Sync complete: %d new, %d modified, %d deleted, %d unchanged",
		report.New, report.Modified, report.Deleted, report.Unchanged)
	return report, nil
}

// Status returns the current sync state.
func (s *SyncService) Status() driving.SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := driving.SyncStatus{Running: s.running, LastError: s.lastErr}
	if s.lastReport != nil {
		report := *s.lastReport
		status.LastReport = &report
	}
	return status
}
