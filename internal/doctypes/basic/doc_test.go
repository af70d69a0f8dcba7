package basic

import (
	"context"
	"crypto/sha256"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-docs/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-docs/internal/core/domain"
)

// textBackend treats every paper.N.txt file as a page.
type textBackend struct {
	editable bool
}

func (textBackend) TypeName() string { return "TXT" }

func (b textBackend) CanEdit() bool { return b.editable }

func (textBackend) PrimaryFile(dir string) string { return filepath.Join(dir, "doc.bin") }

func (textBackend) CountPages(dir string) (int, error) { return CountPageFiles(dir, "txt"), nil }

func (textBackend) ReadPage(dir string, n int) (string, error) {
	text, _, err := ReadTextFile(dir, n)
	return text, err
}

func (textBackend) PageFiles(dir string, n int) []string { return []string{TextFile(dir, n)} }

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func newTestDoc(t *testing.T, id string, pages ...string) (*Doc, *memory.PageCounter) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), id)
	writeFile(t, filepath.Join(dir, "doc.bin"), "primary "+id)
	for i, p := range pages {
		writeFile(t, TextFile(dir, i), p)
	}
	counter := memory.NewPageCounter()
	return New(dir, id, textBackend{}, counter), counter
}

var (
	finance = domain.NewLabel("Finance", "#ff0000")
	taxes   = domain.NewLabel("Taxes", "#00ff00")
)

func TestNewDocID(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2024, time.March, 5, 14, 7, 9, 0, time.Local)

	first := NewDocID(root, now)
	assert.Equal(t, "20240305_1407_09", first)

	require.NoError(t, os.Mkdir(filepath.Join(root, first), 0700))
	second := NewDocID(root, now)
	assert.Equal(t, "20240305_1407_09_1", second)

	require.NoError(t, os.Mkdir(filepath.Join(root, second), 0700))
	assert.Equal(t, "20240305_1407_09_2", NewDocID(root, now))
}

func TestDoc_Identity(t *testing.T) {
	doc, _ := newTestDoc(t, "20240305_1407_09")

	assert.Equal(t, "20240305_1407_09", doc.ID())
	assert.Equal(t, "TXT", doc.Type())
	assert.False(t, doc.CanEdit())
	assert.True(t, time.Date(2024, time.March, 5, 0, 0, 0, 0, time.Local).Equal(doc.Date()))
	assert.Equal(t, "20240305_1407_09", doc.String())
}

func TestDoc_Text(t *testing.T) {
	doc, _ := newTestDoc(t, "20240305_1407_09", "invoice march", "total 120")

	assert.Equal(t, 2, doc.PageCount())
	page, err := doc.PageText(1)
	require.NoError(t, err)
	assert.Equal(t, "total 120", page)

	_, err = doc.PageText(2)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, "invoice march\ntotal 120", doc.Text())

	require.NoError(t, doc.SetExtraText("paid by card"))
	assert.Equal(t, "paid by card", doc.ExtraText())
	assert.Equal(t, "invoice march\ntotal 120\npaid by card", doc.Text(), "extra text invalidates the cache")

	require.NoError(t, doc.SetExtraText(""))
	assert.NoFileExists(t, filepath.Join(doc.Path(), ExtraFile))
	assert.Equal(t, "invoice march\ntotal 120", doc.Text())
}

func TestDoc_IndexTextNeverEmpty(t *testing.T) {
	doc, _ := newTestDoc(t, "20240305_1407_09")

	assert.Equal(t, "", doc.Text())
	assert.Equal(t, emptyIndexText, doc.IndexText())
}

func TestDoc_MissingDirectory(t *testing.T) {
	doc := New(filepath.Join(t.TempDir(), "gone"), "gone", textBackend{}, memory.NewPageCounter())

	assert.Zero(t, doc.PageCount())
	assert.Empty(t, doc.Labels())
	_, err := doc.LastModified()
	assert.Error(t, err)
}

func TestDoc_CacheInvalidation(t *testing.T) {
	doc, _ := newTestDoc(t, "20240305_1407_09", "first")
	assert.Equal(t, "first", doc.Text())

	writeFile(t, TextFile(doc.Path(), 1), "second")
	assert.Equal(t, "first", doc.Text(), "cached until dropped")

	doc.DropCache()
	assert.Equal(t, 2, doc.PageCount())
	assert.Equal(t, "first\nsecond", doc.Text())
}

func TestDoc_Labels(t *testing.T) {
	doc, _ := newTestDoc(t, "20240305_1407_09")

	require.NoError(t, doc.AddLabel(finance))
	require.NoError(t, doc.AddLabel(taxes))
	require.NoError(t, doc.AddLabel(domain.NewLabel("finance", "#0000ff")))

	assert.Equal(t, []string{"Finance", "Taxes"}, doc.Labels().Names(), "re-adding is a no-op")
	assert.True(t, doc.HasLabel(domain.NewLabel("TAXES", "#000000")))
	assert.Equal(t, "Finance,Taxes", doc.IndexLabels())

	reopened := doc.Clone()
	assert.Equal(t, []string{"Finance", "Taxes"}, reopened.Labels().Names(), "labels are persisted")
	assert.Equal(t, "#ff0000", reopened.Labels()[0].ColorString())

	require.NoError(t, doc.RemoveLabel(finance))
	require.NoError(t, doc.RemoveLabel(finance))
	assert.Equal(t, []string{"Taxes"}, doc.Labels().Names())
}

func TestDoc_ReplaceLabel(t *testing.T) {
	doc, _ := newTestDoc(t, "20240305_1407_09")
	require.NoError(t, doc.SetLabels(domain.LabelSet{finance, taxes}))

	accounting := domain.NewLabel("Accounting", "#123456")
	found, err := doc.ReplaceLabel(finance, accounting)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"Accounting", "Taxes"}, doc.Labels().Names(), "position is kept")

	found, err = doc.ReplaceLabel(finance, accounting)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = doc.ReplaceLabel(taxes, accounting)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"Accounting"}, doc.Labels().Names(), "no duplicate when the new label is present")
}

func TestDoc_PreviousLabels(t *testing.T) {
	doc, _ := newTestDoc(t, "20240305_1407_09")
	require.NoError(t, doc.AddLabel(finance))

	fresh := doc.Clone()
	assert.Equal(t, []string{"Finance"}, fresh.PreviousLabels().Names(), "baseline is read on open")

	require.NoError(t, fresh.AddLabel(taxes))
	assert.Equal(t, []string{"Finance"}, fresh.PreviousLabels().Names())

	fresh.AcknowledgeLabels()
	assert.Equal(t, []string{"Finance", "Taxes"}, fresh.PreviousLabels().Names())
}

func TestDoc_SetStorage(t *testing.T) {
	doc, counter := newTestDoc(t, "20240305_1407_09", "p1", "p2", "p3")
	ctx := context.Background()
	archive := domain.NewLabel("Archive", "#000000")

	require.NoError(t, doc.SetStorage(ctx, archive, false))
	storage := doc.Storage()
	require.NotNil(t, storage)
	assert.Equal(t, 1, storage.Base)
	assert.True(t, doc.HasLabel(archive))

	current, _ := counter.Current(ctx, "Archive")
	assert.Equal(t, 4, current)

	require.NoError(t, doc.SetStorage(ctx, archive, false))
	assert.Equal(t, 1, doc.Storage().Base, "kept without force")

	data, err := os.ReadFile(filepath.Join(doc.Path(), LabelFile))
	require.NoError(t, err)
	assert.Equal(t, "Archive::1,#000000\n", string(data))

	reopened := doc.Clone()
	require.NotNil(t, reopened.Storage())
	assert.Equal(t, 1, reopened.Storage().Base)
}

func TestDoc_SetStorage_OtherLabelRebinds(t *testing.T) {
	doc, counter := newTestDoc(t, "20240305_1407_09", "p1", "p2", "p3")
	ctx := context.Background()
	archive := domain.NewLabel("Archive", "#000000")
	invoices := domain.NewLabel("Invoices", "#00ff00")

	require.NoError(t, doc.SetStorage(ctx, archive, false))
	require.NoError(t, doc.SetStorage(ctx, invoices, false))

	storage := doc.Storage()
	require.NotNil(t, storage)
	assert.Equal(t, "Invoices", storage.Label.Name)
	assert.Equal(t, 1, storage.Base)
	assert.True(t, doc.HasLabel(archive))
	assert.True(t, doc.HasLabel(invoices))

	current, _ := counter.Current(ctx, "Invoices")
	assert.Equal(t, 4, current)

	data, err := os.ReadFile(filepath.Join(doc.Path(), LabelFile))
	require.NoError(t, err)
	assert.Equal(t, "Archive,#000000\nInvoices::1,#00ff00\n", string(data))
}

func TestDoc_UpdateStorage_Extends(t *testing.T) {
	doc, counter := newTestDoc(t, "20240305_1407_09", "p1", "p2", "p3")
	ctx := context.Background()
	require.NoError(t, doc.SetStorage(ctx, domain.NewLabel("Archive", "#000000"), false))

	writeFile(t, TextFile(doc.Path(), 3), "p4")
	writeFile(t, TextFile(doc.Path(), 4), "p5")
	require.NoError(t, doc.UpdateStorage(ctx, 2))

	assert.Equal(t, 1, doc.Storage().Base, "last range is extended in place")
	current, _ := counter.Current(ctx, "Archive")
	assert.Equal(t, 6, current)
}

func TestDoc_UpdateStorage_Reallocates(t *testing.T) {
	doc, counter := newTestDoc(t, "20240305_1407_09", "p1", "p2", "p3")
	ctx := context.Background()
	require.NoError(t, doc.SetStorage(ctx, domain.NewLabel("Archive", "#000000"), false))

	// Another document takes the next range.
	_, err := counter.Target(ctx, "Archive", 5)
	require.NoError(t, err)

	writeFile(t, TextFile(doc.Path(), 3), "p4")
	require.NoError(t, doc.UpdateStorage(ctx, 1))

	assert.Equal(t, 9, doc.Storage().Base)
	current, _ := counter.Current(ctx, "Archive")
	assert.Equal(t, 13, current)
	assert.Equal(t, 9, doc.Clone().Storage().Base, "new base is persisted")
}

func TestDoc_UpdateStorage_WithoutBinding(t *testing.T) {
	doc, counter := newTestDoc(t, "20240305_1407_09", "p1")
	ctx := context.Background()

	require.NoError(t, doc.UpdateStorage(ctx, 1))
	assert.Nil(t, doc.Storage())
	current, _ := counter.Current(ctx, "Archive")
	assert.Equal(t, 1, current)
}

func TestDoc_SetDate(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "20240305_1407_09", "doc.bin"), "a")
	writeFile(t, filepath.Join(root, "20240306_0900_00", "doc.bin"), "b")
	writeFile(t, filepath.Join(root, "20200101_0000_01", "doc.bin"), "taken")
	counter := memory.NewPageCounter()
	date := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.Local)

	first := New(filepath.Join(root, "20240305_1407_09"), "20240305_1407_09", textBackend{}, counter)
	require.NoError(t, first.SetDate(date))
	assert.Equal(t, "20200101_0000_01_01", first.ID())
	assert.Equal(t, filepath.Join(root, "20200101_0000_01_01"), first.Path())
	assert.NoDirExists(t, filepath.Join(root, "20240305_1407_09"))
	assert.True(t, date.Equal(first.Date()))

	second := New(filepath.Join(root, "20240306_0900_00"), "20240306_0900_00", textBackend{}, counter)
	require.NoError(t, second.SetDate(date))
	assert.Equal(t, "20200101_0000_01_02", second.ID())

	require.NoError(t, first.SetDate(date))
	assert.Equal(t, "20200101_0000_01_01", first.ID(), "same date keeps the id")
}

func TestDoc_LastModified(t *testing.T) {
	doc, _ := newTestDoc(t, "20240305_1407_09", "p1")
	old := time.Now().Add(-time.Hour).Truncate(time.Second)
	newer := old.Add(30 * time.Minute)
	require.NoError(t, os.Chtimes(filepath.Join(doc.Path(), "doc.bin"), old, old))
	require.NoError(t, os.Chtimes(TextFile(doc.Path(), 0), old, old))

	lastMod, err := doc.LastModified()
	require.NoError(t, err)
	assert.True(t, old.Equal(lastMod))

	require.NoError(t, doc.AddLabel(finance))
	require.NoError(t, os.Chtimes(filepath.Join(doc.Path(), LabelFile), newer, newer))

	lastMod, err = doc.LastModified()
	require.NoError(t, err)
	assert.True(t, newer.Equal(lastMod), "label file counts")
}

func TestDoc_FileHash(t *testing.T) {
	doc, _ := newTestDoc(t, "20240305_1407_09")

	h, err := doc.FileHash()
	require.NoError(t, err)
	assert.Equal(t, domain.FileHash(sha256.Sum256([]byte("primary 20240305_1407_09"))), h)
}

func TestDoc_Destroy(t *testing.T) {
	doc, _ := newTestDoc(t, "20240305_1407_09", "p1")

	require.NoError(t, doc.Destroy())
	assert.NoDirExists(t, doc.Path())
	assert.Zero(t, doc.PageCount())
}
