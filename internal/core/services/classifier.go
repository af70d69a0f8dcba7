package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
	"github.com/custodia-labs/sercha-docs/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-docs/internal/logger"
)

// ClassifierBank holds one yes/no classifier per label. Models are loaded
// on demand, persisted when an updater commits and reloaded from the
// store when it cancels.
type ClassifierBank struct {
	store driven.ModelStore

	mu     sync.Mutex
	models map[string]*labelModel
}

type labelModel struct {
	label domain.Label
	model *domain.ClassifierModel
	dirty bool
}

// NewClassifierBank creates an empty bank backed by store.
func NewClassifierBank(store driven.ModelStore) *ClassifierBank {
	return &ClassifierBank{
		store:  store,
		models: make(map[string]*labelModel),
	}
}

// Load makes sure the model of label is in memory. Already loaded models
// are left untouched, including their uncommitted training.
func (b *ClassifierBank) Load(ctx context.Context, label domain.Label) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := b.modelLocked(ctx, label)
	return err
}

// Reload replaces the in-memory model of label with the persisted one.
func (b *ClassifierBank) Reload(ctx context.Context, label domain.Label) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reloadLocked(ctx, label)
}

// Reset forgets every model and loads the ones of labels.
func (b *ClassifierBank) Reset(ctx context.Context, labels domain.LabelSet) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.models = make(map[string]*labelModel, len(labels))
	for _, l := range labels {
		if _, err := b.modelLocked(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

// Forget drops the model of label from memory and from the store.
func (b *ClassifierBank) Forget(ctx context.Context, label domain.Label) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.models, label.Key())
	if err := b.store.Delete(ctx, label.Key()); err != nil {
		return fmt.Errorf("delete model of %s: %w", label.Name, err)
	}
	return nil
}

// Destroy drops every model from memory and from the store.
func (b *ClassifierBank) Destroy(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.models = make(map[string]*labelModel)
	if err := b.store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("delete models: %w", err)
	}
	return nil
}

// Names returns the names of the loaded labels, sorted.
func (b *ClassifierBank) Names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.models))
	for _, m := range b.models {
		names = append(names, m.label.Name)
	}
	slices.Sort(names)
	return names
}

// Guess returns the loaded labels whose classifier votes yes for doc.
// Documents without pages or text get no guess.
func (b *ClassifierBank) Guess(doc domain.Document) domain.LabelSet {
	if doc.PageCount() <= 0 {
		return nil
	}
	text := doc.Text()
	if text == "" {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	var guessed domain.LabelSet
	for _, m := range b.models {
		if m.model.Empty() {
			continue
		}
		if m.model.Predicts(text) {
			guessed = guessed.Add(m.label)
		}
	}
	return guessed.Sorted()
}

// NewUpdater starts a training batch.
func (b *ClassifierBank) NewUpdater() *BankUpdater {
	return &BankUpdater{
		bank:      b,
		touched:   make(map[string]domain.Label),
		originals: make(map[string]*domain.ClassifierModel),
		saved:     make(map[string]bool),
		renames:   make(map[string]domain.Label),
		docs:      make(map[string]domain.Document),
	}
}

func (b *ClassifierBank) modelLocked(ctx context.Context, label domain.Label) (*labelModel, error) {
	if m, ok := b.models[label.Key()]; ok {
		return m, nil
	}
	if err := b.reloadLocked(ctx, label); err != nil {
		return nil, err
	}
	return b.models[label.Key()], nil
}

func (b *ClassifierBank) reloadLocked(ctx context.Context, label domain.Label) error {
	model, err := b.store.Load(ctx, label.Key())
	if err != nil {
		return fmt.Errorf("load model of %s: %w", label.Name, err)
	}
	if model == nil {
		model = domain.NewClassifierModel()
	}
	b.models[label.Key()] = &labelModel{label: label, model: model}
	return nil
}

// BankUpdater batches classifier training for one index transaction.
// Training is applied in memory right away; Commit persists it and
// Cancel puts back the models as they were before the first training,
// in memory and in the store.
type BankUpdater struct {
	bank *ClassifierBank

	touched   map[string]domain.Label
	originals map[string]*domain.ClassifierModel
	saved     map[string]bool
	renames   map[string]domain.Label
	docs      map[string]domain.Document
}

// trainingText returns the text a document is learnt from. Documents that
// come with all their pages at once use their full text. Editable ones
// are classified when their first page arrives, so only that page counts.
func trainingText(doc domain.Document) string {
	if doc.PageCount() <= 0 {
		return ""
	}
	if !doc.CanEdit() {
		return strings.TrimSpace(doc.Text())
	}
	text, err := doc.PageText(0)
	if err != nil {
		logger.Warn("reading first page of %s: %v", doc.ID(), err)
		return ""
	}
	return strings.TrimSpace(text)
}

// AddDoc trains every loaded model with doc: yes for its labels, no for
// the others.
func (u *BankUpdater) AddDoc(ctx context.Context, doc domain.Document) error {
	text := trainingText(doc)
	if text == "" {
		return nil
	}
	return u.trainAll(ctx, doc, doc.Labels(), func(m *domain.ClassifierModel, category string) {
		m.Train(category, text)
	})
}

// UpdateDoc moves doc between categories for the labels it gained or
// lost since its labels were last acknowledged.
func (u *BankUpdater) UpdateDoc(ctx context.Context, doc domain.Document) error {
	text := trainingText(doc)
	if text == "" {
		return nil
	}

	current := doc.Labels()
	previous := u.renamed(doc.PreviousLabels())

	u.bank.mu.Lock()
	defer u.bank.mu.Unlock()

	for _, l := range current {
		if previous.Contains(l) {
			continue
		}
		m, err := u.bank.modelLocked(ctx, l)
		if err != nil {
			return err
		}
		u.touch(m)
		m.model.Untrain(domain.CategoryNo, text)
		m.model.Train(domain.CategoryYes, text)
	}
	for _, l := range previous {
		if current.Contains(l) {
			continue
		}
		m, err := u.bank.modelLocked(ctx, l)
		if err != nil {
			return err
		}
		u.touch(m)
		m.model.Untrain(domain.CategoryYes, text)
		m.model.Train(domain.CategoryNo, text)
	}
	u.docs[doc.ID()] = doc
	return nil
}

// DeleteDoc reverts what AddDoc did, using the labels doc had when it
// was last acknowledged.
func (u *BankUpdater) DeleteDoc(ctx context.Context, doc domain.Document) error {
	text := trainingText(doc)
	if text == "" {
		return nil
	}
	return u.trainAll(ctx, doc, u.renamed(doc.PreviousLabels()), func(m *domain.ClassifierModel, category string) {
		m.Untrain(category, text)
	})
}

// Rename gives updated a copy of the model of old. Documents acknowledged
// with old then count as acknowledged with updated, so moving them to the
// new label does not train them a second time.
func (u *BankUpdater) Rename(ctx context.Context, old, updated domain.Label) error {
	u.bank.mu.Lock()
	defer u.bank.mu.Unlock()
	src, err := u.bank.modelLocked(ctx, old)
	if err != nil {
		return err
	}
	dst, err := u.bank.modelLocked(ctx, updated)
	if err != nil {
		return err
	}
	u.touch(dst)
	dst.model = src.model.Clone()
	u.renames[old.Key()] = updated
	return nil
}

func (u *BankUpdater) renamed(labels domain.LabelSet) domain.LabelSet {
	if len(u.renames) == 0 {
		return labels
	}
	out := make(domain.LabelSet, 0, len(labels))
	for _, l := range labels {
		if to, ok := u.renames[l.Key()]; ok {
			l = to
		}
		out = out.Add(l)
	}
	return out
}

func (u *BankUpdater) trainAll(
	ctx context.Context,
	doc domain.Document,
	labels domain.LabelSet,
	apply func(m *domain.ClassifierModel, category string),
) error {
	u.bank.mu.Lock()
	defer u.bank.mu.Unlock()

	for _, l := range labels {
		if _, err := u.bank.modelLocked(ctx, l); err != nil {
			return err
		}
	}
	keys := labels.Keys()
	for key, m := range u.bank.models {
		category := domain.CategoryNo
		if _, ok := keys[key]; ok {
			category = domain.CategoryYes
		}
		u.touch(m)
		apply(m.model, category)
	}
	u.docs[doc.ID()] = doc
	return nil
}

// touch must run before the model is trained: the first touch keeps a
// copy of the untrained model for Cancel.
func (u *BankUpdater) touch(m *labelModel) {
	key := m.label.Key()
	if _, ok := u.originals[key]; !ok {
		u.originals[key] = m.model.Clone()
	}
	m.dirty = true
	u.touched[key] = m.label
}

// Persist saves every touched model. It stops at the first failure; the
// models saved until then are put back by Cancel.
func (u *BankUpdater) Persist(ctx context.Context) error {
	u.bank.mu.Lock()
	defer u.bank.mu.Unlock()
	for key := range u.touched {
		m, ok := u.bank.models[key]
		if !ok || !m.dirty {
			continue
		}
		if err := u.bank.store.Save(ctx, key, m.model); err != nil {
			return fmt.Errorf("save model of %s: %w", m.label.Name, err)
		}
		u.saved[key] = true
		m.dirty = false
	}
	return nil
}

// Acknowledge makes the current labels of every touched document their
// new baseline.
func (u *BankUpdater) Acknowledge() {
	for _, doc := range u.docs {
		doc.AcknowledgeLabels()
	}
	u.reset()
}

func (u *BankUpdater) reset() {
	u.docs = make(map[string]domain.Document)
	u.touched = make(map[string]domain.Label)
	u.originals = make(map[string]*domain.ClassifierModel)
	u.saved = make(map[string]bool)
	u.renames = make(map[string]domain.Label)
}

// Commit persists the training, then acknowledges the document labels.
// Nothing is acknowledged when persisting fails.
func (u *BankUpdater) Commit(ctx context.Context) error {
	if err := u.Persist(ctx); err != nil {
		return err
	}
	u.Acknowledge()
	return nil
}

// Cancel discards the training. Every touched model goes back to its
// state before the first training, and models already saved by Persist
// are saved again in that state.
func (u *BankUpdater) Cancel(ctx context.Context) error {
	u.bank.mu.Lock()
	defer u.bank.mu.Unlock()
	var errs []error
	for key, l := range u.touched {
		original := u.originals[key]
		if u.saved[key] {
			if err := u.bank.store.Save(ctx, key, original); err != nil {
				errs = append(errs, fmt.Errorf("restore model of %s: %w", l.Name, err))
			}
		}
		if _, loaded := u.bank.models[key]; loaded {
			u.bank.models[key] = &labelModel{label: l, model: original.Clone()}
		}
	}
	u.reset()
	return errors.Join(errs...)
}
