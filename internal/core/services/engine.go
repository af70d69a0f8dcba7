package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
	"github.com/custodia-labs/sercha-docs/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-docs/internal/logger"
	"github.com/custodia-labs/sercha-docs/internal/metrics"
)

// EngineConfig configures an Engine.
type EngineConfig struct {
	// RootDir is the work directory holding one sub-directory per document.
	RootDir string

	// Metrics receives the engine collectors. Nil gets a private registry.
	Metrics *metrics.Metrics
}

// Engine ties the full-text index, the document registry, the labels and
// the classifier bank together. Searches read the current searcher
// snapshot, which is swapped after every commit.
type Engine struct {
	rootDir  string
	store    driven.IndexStore
	types    driven.DocumentTypeRegistry
	bank     *ClassifierBank
	registry *DocumentRegistry
	metrics  *metrics.Metrics

	searchMu sync.RWMutex
	searcher driven.IndexSearcher

	labelsMu sync.RWMutex
	labels   map[string]domain.Label
}

// NewEngine creates the work directory if needed, opens the current
// searcher and loads the registry from the index.
func NewEngine(
	ctx context.Context,
	cfg EngineConfig,
	store driven.IndexStore,
	models driven.ModelStore,
	types driven.DocumentTypeRegistry,
	progress domain.ProgressFunc,
) (*Engine, error) {
	if cfg.RootDir == "" {
		return nil, fmt.Errorf("engine root dir: %w", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(cfg.RootDir, 0700); err != nil {
		return nil, fmt.Errorf("create work directory: %w", err)
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.New(nil)
	}

	e := &Engine{
		rootDir:  cfg.RootDir,
		store:    store,
		types:    types,
		bank:     NewClassifierBank(models),
		registry: NewDocumentRegistry(),
		metrics:  m,
		labels:   make(map[string]domain.Label),
	}
	if err := e.ReloadSearcher(ctx); err != nil {
		return nil, err
	}
	if err := e.ReloadIndex(ctx, progress); err != nil {
		_ = e.closeSearcher()
		return nil, err
	}
	return e, nil
}

// RootDir returns the work directory.
func (e *Engine) RootDir() string {
	return e.rootDir
}

// Metrics returns the engine collectors.
func (e *Engine) Metrics() *metrics.Metrics {
	return e.metrics
}

// Bank returns the classifier bank.
func (e *Engine) Bank() *ClassifierBank {
	return e.bank
}

// ==================== Searcher ====================

// WithSearcher runs fn against the current searcher snapshot. The
// snapshot is not swapped while fn runs. fn must not commit an updater.
func (e *Engine) WithSearcher(fn func(driven.IndexSearcher) error) error {
	e.searchMu.RLock()
	defer e.searchMu.RUnlock()
	if e.searcher == nil {
		return fmt.Errorf("index searcher: %w", domain.ErrTransactionClosed)
	}
	return fn(e.searcher)
}

// Snapshot opens a searcher independent from the current one. The caller
// closes it.
func (e *Engine) Snapshot(ctx context.Context) (driven.IndexSearcher, error) {
	s, err := e.store.OpenSearcher(ctx)
	if err != nil {
		return nil, fmt.Errorf("open index snapshot: %w", err)
	}
	return s, nil
}

// ReloadSearcher replaces the current searcher with a snapshot of the
// last commit.
func (e *Engine) ReloadSearcher(ctx context.Context) error {
	s, err := e.store.OpenSearcher(ctx)
	if err != nil {
		return fmt.Errorf("reload index searcher: %w", err)
	}

	e.searchMu.Lock()
	old := e.searcher
	e.searcher = s
	e.searchMu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			logger.Warn("closing previous searcher: %v", err)
		}
	}
	return nil
}

func (e *Engine) closeSearcher() error {
	e.searchMu.Lock()
	defer e.searchMu.Unlock()
	if e.searcher == nil {
		return nil
	}
	err := e.searcher.Close()
	e.searcher = nil
	return err
}

// ==================== Registry ====================

// ReloadIndex rebuilds the document registry and the label list from the
// index, and reloads the classifier of every label found.
func (e *Engine) ReloadIndex(ctx context.Context, progress domain.ProgressFunc) error {
	progress = domain.OrNoProgress(progress)
	defer logger.Timed("reload index")()

	for _, doc := range e.registry.All() {
		doc.DropCache()
	}

	var entries []domain.IndexEntry
	err := e.WithSearcher(func(s driven.IndexSearcher) error {
		var err error
		entries, err = s.All(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("reload index: %w", err)
	}

	docs := make([]domain.Document, 0, len(entries))
	var labels domain.LabelSet
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc, err := e.Instantiate(entry.DocID, entry.DocType)
		if err != nil {
			logger.Warn("skipping indexed document %s: %v", entry.DocID, err)
			continue
		}
		progress(i, len(entries), domain.StepLoading, doc)
		docs = append(docs, doc)
		for _, l := range doc.Labels() {
			labels = labels.Add(l)
		}
	}
	progress(1, 1, domain.StepLoading, nil)

	e.registry.Reset(docs)

	e.labelsMu.Lock()
	e.labels = labels.Keys()
	e.labelsMu.Unlock()

	if err := e.bank.Reset(ctx, labels); err != nil {
		return fmt.Errorf("reload classifiers: %w", err)
	}

	e.metrics.IndexedDocuments.Set(float64(len(docs)))
	e.metrics.TrackedLabels.Set(float64(len(labels)))
	logger.Info("loaded %d documents and %d labels from the index", len(docs), len(labels))
	return nil
}

// Document returns the registered document with the given id.
func (e *Engine) Document(docID string) (domain.Document, bool) {
	return e.registry.Get(docID)
}

// Instantiate opens the document stored under docID without registering
// it. An empty typeName makes the document types probe the directory.
func (e *Engine) Instantiate(docID, typeName string) (domain.Document, error) {
	return e.types.Open(e.rootDir, docID, typeName)
}

// Documents returns every registered document ordered by id.
func (e *Engine) Documents() []domain.Document {
	return e.registry.All()
}

// Len returns the number of registered documents.
func (e *Engine) Len() int {
	return e.registry.Len()
}

// ==================== Labels ====================

// Labels returns every tracked label, sorted.
func (e *Engine) Labels() domain.LabelSet {
	e.labelsMu.RLock()
	defer e.labelsMu.RUnlock()
	out := make(domain.LabelSet, 0, len(e.labels))
	for _, l := range e.labels {
		out = append(out, l)
	}
	return out.Sorted()
}

// IsTracked reports whether a label with the same key is known.
func (e *Engine) IsTracked(l domain.Label) bool {
	e.labelsMu.RLock()
	defer e.labelsMu.RUnlock()
	_, ok := e.labels[l.Key()]
	return ok
}

// trackLabel registers l and reports whether it was unknown.
func (e *Engine) trackLabel(l domain.Label) bool {
	e.labelsMu.Lock()
	defer e.labelsMu.Unlock()
	if _, ok := e.labels[l.Key()]; ok {
		return false
	}
	e.labels[l.Key()] = l
	e.metrics.TrackedLabels.Set(float64(len(e.labels)))
	return true
}

func (e *Engine) untrackLabel(l domain.Label) {
	e.labelsMu.Lock()
	defer e.labelsMu.Unlock()
	delete(e.labels, l.Key())
	e.metrics.TrackedLabels.Set(float64(len(e.labels)))
}

// GuessLabels returns the tracked labels the classifiers predict for doc.
func (e *Engine) GuessLabels(doc domain.Document) domain.LabelSet {
	if doc.PageCount() <= 0 {
		return nil
	}
	guessed := e.bank.Guess(doc)

	e.labelsMu.RLock()
	defer e.labelsMu.RUnlock()
	var out domain.LabelSet
	for _, l := range guessed {
		if tracked, ok := e.labels[l.Key()]; ok {
			out = out.Add(tracked)
		}
	}
	e.metrics.ClassifierGuesses.Add(float64(len(out)))
	return out.Sorted()
}

// ==================== Index ====================

// IndexUpdater opens the single index write transaction. It fails with
// domain.ErrIndexLocked while another updater is open.
func (e *Engine) IndexUpdater(ctx context.Context) (*IndexUpdater, error) {
	w, err := e.store.OpenWriter(ctx)
	if err != nil {
		return nil, fmt.Errorf("open index updater: %w", err)
	}
	u := &IndexUpdater{
		id:     uuid.NewString(),
		engine: e,
		writer: w,
		bank:   e.bank.NewUpdater(),
	}
	logger.Debug("index transaction %s opened", u.id)
	return u, nil
}

// Examiner returns a reconciler of the work directory against the index.
func (e *Engine) Examiner() *DirectoryExaminer {
	return &DirectoryExaminer{engine: e}
}

// IsHashInIndex reports whether a document with the given primary file
// hash is indexed.
func (e *Engine) IsHashInIndex(ctx context.Context, hash domain.FileHash) (bool, error) {
	var found bool
	err := e.WithSearcher(func(s driven.IndexSearcher) error {
		var err error
		found, err = s.HasFileHash(ctx, hash.Hex())
		return err
	})
	return found, err
}

// DestroyIndex removes the index files and every classifier model. The
// engine must not be used afterwards; the next one rebuilds from scratch.
func (e *Engine) DestroyIndex(ctx context.Context) error {
	logger.Info("destroying the index")
	var errs []error
	if err := e.closeSearcher(); err != nil {
		errs = append(errs, err)
	}
	if err := e.store.Destroy(); err != nil {
		errs = append(errs, fmt.Errorf("destroy index: %w", err))
	}
	if err := e.bank.Destroy(ctx); err != nil {
		errs = append(errs, err)
	}
	e.registry.Reset(nil)
	return errors.Join(errs...)
}

// Close releases the searcher and the index store.
func (e *Engine) Close() error {
	return errors.Join(e.closeSearcher(), e.store.Close())
}
