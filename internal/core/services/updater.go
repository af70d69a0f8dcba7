package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
	"github.com/custodia-labs/sercha-docs/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-docs/internal/logger"
)

// IndexUpdater is one index write transaction. Index changes stay
// invisible until Commit; classifier training is applied in memory and
// persisted on Commit. Registry changes are queued and applied on Commit.
type IndexUpdater struct {
	id     string
	engine *Engine
	writer driven.IndexWriter
	bank   *BankUpdater

	mu      sync.Mutex
	closed  bool
	ops     []registryOp
	labels  domain.LabelSet
	written int
	deleted int
}

// registryOp is a queued registry change: add holds the document to
// register, otherwise removeID names the document to forget.
type registryOp struct {
	add      domain.Document
	removeID string
}

// ID returns the transaction id used in logs.
func (u *IndexUpdater) ID() string {
	return u.id
}

// Add indexes a new document and trains the classifiers with it.
func (u *IndexUpdater) Add(ctx context.Context, doc domain.Document) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return domain.ErrTransactionClosed
	}

	logger.Debug("[%s] indexing new document %s", u.id, doc.ID())
	if err := u.writeRecordLocked(ctx, doc); err != nil {
		return err
	}
	if err := u.bank.AddDoc(ctx, doc); err != nil {
		return fmt.Errorf("train classifiers with %s: %w", doc.ID(), err)
	}
	u.ops = append(u.ops, registryOp{add: doc})
	return nil
}

// Update reindexes a document and moves it between classifier categories
// for the labels it gained or lost. Unregistered documents get registered.
func (u *IndexUpdater) Update(ctx context.Context, doc domain.Document) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return domain.ErrTransactionClosed
	}

	logger.Debug("[%s] updating document %s", u.id, doc.ID())
	if err := u.writeRecordLocked(ctx, doc); err != nil {
		return err
	}
	if err := u.bank.UpdateDoc(ctx, doc); err != nil {
		return fmt.Errorf("retrain classifiers with %s: %w", doc.ID(), err)
	}
	u.ops = append(u.ops, registryOp{add: doc})
	return nil
}

// Delete removes a document from the index and untrains the classifiers
// using the labels it had when last acknowledged.
func (u *IndexUpdater) Delete(ctx context.Context, doc domain.Document) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return domain.ErrTransactionClosed
	}

	logger.Debug("[%s] removing document %s", u.id, doc.ID())
	if err := u.writer.Delete(ctx, doc.ID()); err != nil {
		return err
	}
	if err := u.bank.DeleteDoc(ctx, doc); err != nil {
		return fmt.Errorf("untrain classifiers with %s: %w", doc.ID(), err)
	}
	u.ops = append(u.ops, registryOp{removeID: doc.ID()})
	u.deleted++
	return nil
}

// DeleteByID removes a document from the index by id only. Without the
// document its labels are unknown, so the classifiers keep its training.
func (u *IndexUpdater) DeleteByID(ctx context.Context, docID string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return domain.ErrTransactionClosed
	}

	logger.Debug("[%s] removing document %s by id, classifiers left untouched", u.id, docID)
	if err := u.writer.Delete(ctx, docID); err != nil {
		return err
	}
	u.ops = append(u.ops, registryOp{removeID: docID})
	u.deleted++
	return nil
}

// RenameLabel starts the classifier of updated from the one of old.
func (u *IndexUpdater) RenameLabel(ctx context.Context, old, updated domain.Label) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return domain.ErrTransactionClosed
	}
	if err := u.bank.Rename(ctx, old, updated); err != nil {
		return fmt.Errorf("rename classifier of %s: %w", old.Name, err)
	}
	return nil
}

func (u *IndexUpdater) writeRecordLocked(ctx context.Context, doc domain.Document) error {
	lastMod, err := doc.LastModified()
	if err != nil {
		return fmt.Errorf("index %s: %w", doc.ID(), err)
	}
	hash, err := doc.FileHash()
	if err != nil {
		return fmt.Errorf("index %s: %w", doc.ID(), err)
	}

	rec := domain.IndexRecord{
		DocID:    doc.ID(),
		DocType:  doc.Type(),
		FileHash: hash.Hex(),
		Content:  domain.StripAccents(doc.IndexText()),
		Label:    domain.StripAccents(doc.IndexLabels()),
		Date:     doc.Date(),
		LastRead: lastMod,
	}
	if err := u.writer.Delete(ctx, rec.DocID); err != nil {
		return err
	}
	if err := u.writer.Insert(ctx, rec); err != nil {
		return err
	}

	for _, l := range doc.Labels() {
		u.labels = u.labels.Add(l)
	}
	u.written++
	return nil
}

// Commit persists the classifiers, publishes the index changes, applies
// the queued registry changes and swaps the engine searcher. When either
// the classifiers or the index fail to commit, the whole transaction is
// cancelled.
func (u *IndexUpdater) Commit(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return domain.ErrTransactionClosed
	}
	u.closed = true

	start := time.Now()
	m := u.engine.metrics

	if err := u.bank.Persist(ctx); err != nil {
		logger.Error("[%s] persisting classifiers failed, cancelling: %v", u.id, err)
		m.CommitsTotal.WithLabelValues("failed").Inc()
		return errors.Join(fmt.Errorf("commit index: %w", err), u.rollback(ctx))
	}
	if err := u.writer.Commit(); err != nil {
		logger.Error("[%s] committing index failed, restoring classifiers: %v", u.id, err)
		m.CommitsTotal.WithLabelValues("failed").Inc()
		u.ops = nil
		u.labels = nil
		return errors.Join(
			fmt.Errorf("commit index: %w", err),
			u.bank.Cancel(context.WithoutCancel(ctx)),
		)
	}
	u.bank.Acknowledge()

	for _, op := range u.ops {
		if op.add != nil {
			u.engine.registry.Put(op.add)
		} else {
			u.engine.registry.Remove(op.removeID)
		}
	}
	u.ops = nil

	// Labels found on documents but never created, as when the index is
	// rebuilt from scratch.
	for _, l := range u.labels {
		if u.engine.trackLabel(l) {
			logger.Info("[%s] new label %q", u.id, l.Name)
			if err := u.engine.bank.Load(ctx, l); err != nil {
				logger.Warn("[%s] %v", u.id, err)
			}
		}
	}

	if err := u.engine.ReloadSearcher(ctx); err != nil {
		return err
	}

	m.CommitsTotal.WithLabelValues("committed").Inc()
	m.CommitDuration.Observe(time.Since(start).Seconds())
	m.DocsIndexedTotal.Add(float64(u.written))
	m.DocsDeletedTotal.Add(float64(u.deleted))
	m.IndexedDocuments.Set(float64(u.engine.registry.Len()))
	logger.Info("[%s] committed: %d written, %d deleted", u.id, u.written, u.deleted)
	return nil
}

// Cancel drops the index changes, reloads the classifiers touched by the
// transaction and forgets the queued registry changes. Cancelling a
// closed transaction does nothing.
func (u *IndexUpdater) Cancel(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return nil
	}
	u.closed = true
	u.engine.metrics.CommitsTotal.WithLabelValues("cancelled").Inc()
	logger.Info("[%s] cancelled", u.id)
	return u.rollback(ctx)
}

func (u *IndexUpdater) rollback(ctx context.Context) error {
	u.ops = nil
	u.labels = nil
	return errors.Join(
		u.writer.Cancel(),
		u.bank.Cancel(context.WithoutCancel(ctx)),
	)
}

// withUpdater runs fn inside a fresh index transaction, committing it when
// fn succeeds and cancelling it otherwise.
func withUpdater(ctx context.Context, e *Engine, fn func(u *IndexUpdater) error) (err error) {
	u, err := e.IndexUpdater(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if cancelErr := u.Cancel(ctx); cancelErr != nil {
				err = errors.Join(err, cancelErr)
			}
		}
	}()
	if err := fn(u); err != nil {
		return err
	}
	return u.Commit(ctx)
}
