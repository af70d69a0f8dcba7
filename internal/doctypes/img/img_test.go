package img

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-docs/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-docs/internal/doctypes/basic"
)

func writePages(t *testing.T, exts []string, texts map[int]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "20240305_1407_09")
	require.NoError(t, os.MkdirAll(dir, 0700))
	for i, ext := range exts {
		require.NoError(t, os.WriteFile(basic.PageFile(dir, i, ext), []byte("image"), 0600))
	}
	for i, text := range texts {
		require.NoError(t, os.WriteFile(basic.TextFile(dir, i), []byte(text), 0600))
	}
	return dir
}

func TestType_Recognize(t *testing.T) {
	typ := NewType(memory.NewPageCounter())

	assert.Equal(t, TypeName, typ.Name())
	assert.True(t, typ.Recognize(writePages(t, []string{"jpg"}, nil)))
	assert.True(t, typ.Recognize(writePages(t, []string{"png"}, nil)))
	assert.False(t, typ.Recognize(writePages(t, nil, map[int]string{0: "text"})))
}

func TestDoc_Pages(t *testing.T) {
	dir := writePages(t, []string{"jpg", "png", "jpeg"}, map[int]string{0: "invoice", 2: "total"})
	doc := NewType(memory.NewPageCounter()).New(dir, "20240305_1407_09")

	assert.True(t, doc.CanEdit())
	assert.Equal(t, 3, doc.PageCount())

	page, err := doc.PageText(1)
	require.NoError(t, err)
	assert.Empty(t, page, "no OCR in the core")
	assert.Equal(t, "invoice\n\ntotal", doc.Text())
}

func TestDoc_GapEndsPages(t *testing.T) {
	dir := writePages(t, []string{"jpg"}, nil)
	require.NoError(t, os.WriteFile(basic.PageFile(dir, 2, "jpg"), []byte("image"), 0600))
	doc := NewType(memory.NewPageCounter()).New(dir, "20240305_1407_09")

	assert.Equal(t, 1, doc.PageCount())
}

func TestDoc_LastModifiedIncludesPageImages(t *testing.T) {
	dir := writePages(t, []string{"jpg", "jpg"}, nil)
	doc := NewType(memory.NewPageCounter()).New(dir, "20240305_1407_09")
	old := time.Now().Add(-2 * time.Hour).Truncate(time.Second)
	newer := old.Add(time.Hour)
	require.NoError(t, os.Chtimes(basic.PageFile(dir, 0, "jpg"), old, old))
	require.NoError(t, os.Chtimes(basic.PageFile(dir, 1, "jpg"), newer, newer))

	lastMod, err := doc.LastModified()
	require.NoError(t, err)
	assert.True(t, newer.Equal(lastMod))
}

func TestDoc_HashesFirstPage(t *testing.T) {
	dir := writePages(t, []string{"png"}, nil)

	assert.Equal(t, basic.PageFile(dir, 0, "png"), backend{}.PrimaryFile(dir))

	empty := filepath.Join(t.TempDir(), "x")
	assert.Equal(t, basic.PageFile(empty, 0, "jpg"), backend{}.PrimaryFile(empty))
}
