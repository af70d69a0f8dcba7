package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-docs/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-docs/internal/core/domain"
)

// failingModelStore fails every Save.
type failingModelStore struct {
	*memory.ModelStore
}

func (s failingModelStore) Save(context.Context, string, *domain.ClassifierModel) error {
	return errors.New("disk full")
}

// keyFailingModelStore fails Save for one label key once failKey is set.
type keyFailingModelStore struct {
	*memory.ModelStore
	failKey string
}

func (s *keyFailingModelStore) Save(ctx context.Context, label string, model *domain.ClassifierModel) error {
	if s.failKey != "" && label == s.failKey {
		return errors.New("disk full")
	}
	return s.ModelStore.Save(ctx, label, model)
}

func countRecords(t *testing.T, e *Engine) int {
	t.Helper()
	snap, err := e.Snapshot(context.Background())
	require.NoError(t, err)
	defer snap.Close()
	n, err := snap.Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestIndexUpdater_AddCommitDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	search := NewSearchService(f.engine, 1)
	doc := f.writeDoc("20240301_0900_00", "invoice march", finance)

	f.index(doc)

	found, err := search.FindDocuments(ctx, "invoice", domain.DefaultSearchOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{doc.ID()}, ids(found))

	found, err = search.FindDocuments(ctx, "invioce", domain.DefaultSearchOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{doc.ID()}, ids(found))

	u, err := f.engine.IndexUpdater(ctx)
	require.NoError(t, err)
	require.NoError(t, u.Delete(ctx, doc))
	require.NoError(t, u.Commit(ctx))

	found, err = search.FindDocuments(ctx, "invoice", domain.DefaultSearchOptions())
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.Equal(t, 0, f.engine.Len())
}

func TestIndexUpdater_ReaddingConverges(t *testing.T) {
	f := newFixture(t)
	doc := f.writeDoc("20240301_0900_00", "invoice march")

	f.index(doc)
	f.index(doc)

	assert.Equal(t, 1, countRecords(t, f.engine))
	assert.Equal(t, 1, f.engine.Len())
}

func TestIndexUpdater_CommitVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.writeDoc("20240301_0900_00", "invoice march")

	before, err := f.engine.Snapshot(ctx)
	require.NoError(t, err)
	defer before.Close()

	u, err := f.engine.IndexUpdater(ctx)
	require.NoError(t, err)
	require.NoError(t, u.Add(ctx, doc))

	assert.Equal(t, 0, countRecords(t, f.engine), "uncommitted changes are invisible")
	_, registered := f.engine.Document(doc.ID())
	assert.False(t, registered, "registry changes wait for commit")

	require.NoError(t, u.Commit(ctx))

	n, err := before.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "old snapshot keeps pre-commit state")
	hits, err := before.Search(ctx, exactQuery([]string{"invoice"}), 0, true)
	require.NoError(t, err)
	assert.Empty(t, hits)

	assert.Equal(t, 1, countRecords(t, f.engine))
	_, registered = f.engine.Document(doc.ID())
	assert.True(t, registered)
}

func TestIndexUpdater_CancelLeavesNoTrace(t *testing.T) {
	models := memory.NewModelStore()
	f := newFixtureWithModels(t, models)
	ctx := context.Background()
	kept := f.writeDoc("20240301_0900_00", "invoice march", finance)
	f.index(kept)

	saved, err := models.Load(ctx, finance.Key())
	require.NoError(t, err)

	u, err := f.engine.IndexUpdater(ctx)
	require.NoError(t, err)
	require.NoError(t, u.Add(ctx, f.writeDoc("20240302_0900_00", "receipt april", finance)))
	require.NoError(t, kept.RemoveLabel(finance))
	require.NoError(t, u.Update(ctx, kept))
	require.NoError(t, u.Cancel(ctx))

	assert.Equal(t, 1, countRecords(t, f.engine))
	assert.Equal(t, 1, f.engine.Len())
	after, err := models.Load(ctx, finance.Key())
	require.NoError(t, err)
	assert.Equal(t, saved, after)

	f.engine.bank.mu.Lock()
	inMemory := f.engine.bank.models[finance.Key()].model
	f.engine.bank.mu.Unlock()
	assert.Equal(t, saved, inMemory, "in-memory training is reloaded from the store")

	search := NewSearchService(f.engine, 1)
	found, err := search.FindDocuments(ctx, "receipt", domain.DefaultSearchOptions())
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestIndexUpdater_ClosedTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.writeDoc("20240301_0900_00", "invoice")

	u, err := f.engine.IndexUpdater(ctx)
	require.NoError(t, err)
	require.NoError(t, u.Commit(ctx))

	assert.ErrorIs(t, u.Commit(ctx), domain.ErrTransactionClosed)
	assert.ErrorIs(t, u.Add(ctx, doc), domain.ErrTransactionClosed)
	assert.ErrorIs(t, u.Update(ctx, doc), domain.ErrTransactionClosed)
	assert.ErrorIs(t, u.Delete(ctx, doc), domain.ErrTransactionClosed)
	assert.ErrorIs(t, u.DeleteByID(ctx, doc.ID()), domain.ErrTransactionClosed)
	assert.NoError(t, u.Cancel(ctx), "cancel after close is a no-op")
}

func TestIndexUpdater_SingleWriter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.engine.IndexUpdater(ctx)
	require.NoError(t, err)

	_, err = f.engine.IndexUpdater(ctx)
	assert.ErrorIs(t, err, domain.ErrIndexLocked)

	require.NoError(t, first.Cancel(ctx))
	second, err := f.engine.IndexUpdater(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), second.ID())
	require.NoError(t, second.Cancel(ctx))
}

func TestIndexUpdater_PersistFailureCancelsCommit(t *testing.T) {
	f := newFixtureWithModels(t, failingModelStore{memory.NewModelStore()})
	ctx := context.Background()
	doc := f.writeDoc("20240301_0900_00", "invoice", finance)

	u, err := f.engine.IndexUpdater(ctx)
	require.NoError(t, err)
	require.NoError(t, u.Add(ctx, doc))

	err = u.Commit(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	assert.Equal(t, 0, countRecords(t, f.engine))
	assert.Equal(t, 0, f.engine.Len())
	assert.Empty(t, f.engine.Labels())

	// The writer was released.
	again, err := f.engine.IndexUpdater(ctx)
	require.NoError(t, err)
	require.NoError(t, again.Cancel(ctx))
}

func TestIndexUpdater_FailedCommitRestoresSavedModels(t *testing.T) {
	store := &keyFailingModelStore{ModelStore: memory.NewModelStore()}
	f := newFixtureWithModels(t, store)
	ctx := context.Background()
	f.index(f.writeDoc("20240301_0900_00", "invoice march", finance, tax))

	before, err := store.Load(ctx, finance.Key())
	require.NoError(t, err)
	require.False(t, before.Empty())

	store.failKey = tax.Key()
	u, err := f.engine.IndexUpdater(ctx)
	require.NoError(t, err)
	require.NoError(t, u.Add(ctx, f.writeDoc("20240402_0900_00", "receipt april", finance)))
	require.Error(t, u.Commit(ctx))

	after, err := store.Load(ctx, finance.Key())
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 1, countRecords(t, f.engine))
	assert.Equal(t, 1, f.engine.Len())

	// Once the store works again the same document trains exactly once.
	store.failKey = ""
	f.index(f.writeDoc("20240402_0900_00", "receipt april", finance))
	trained, err := store.Load(ctx, finance.Key())
	require.NoError(t, err)
	assert.NotContains(t, before.Categories[domain.CategoryYes].Tokens, "receipt")
	assert.Equal(t, 1, trained.Categories[domain.CategoryYes].Tokens["receipt"])
}

func TestIndexUpdater_TracksLabelsFoundOnDocuments(t *testing.T) {
	f := newFixture(t)

	f.index(f.writeDoc("20240301_0900_00", "invoice", finance, tax))

	assert.Equal(t, []string{"Finance", "Tax"}, f.engine.Labels().Names())
}

func TestIndexUpdater_DeleteByIDKeepsTraining(t *testing.T) {
	models := memory.NewModelStore()
	f := newFixtureWithModels(t, models)
	ctx := context.Background()
	doc := f.writeDoc("20240301_0900_00", "invoice", finance)
	f.index(doc)
	saved, err := models.Load(ctx, finance.Key())
	require.NoError(t, err)

	u, err := f.engine.IndexUpdater(ctx)
	require.NoError(t, err)
	require.NoError(t, u.DeleteByID(ctx, doc.ID()))
	require.NoError(t, u.Commit(ctx))

	assert.Equal(t, 0, countRecords(t, f.engine))
	assert.Equal(t, 0, f.engine.Len())
	after, err := models.Load(ctx, finance.Key())
	require.NoError(t, err)
	assert.Equal(t, saved, after)
}
