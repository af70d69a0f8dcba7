// Package basic implements the parts of domain.Document shared by every
// document type: label file, extra text, storage binding, date and id
// handling, hashing and cache invalidation. Concrete types plug in a
// Backend describing their pages.
package basic

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
	"github.com/custodia-labs/sercha-docs/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-docs/internal/logger"
)

// File names inside a document directory.
const (
	LabelFile = "labels"
	ExtraFile = "extra.txt"
)

// emptyIndexText is indexed for documents without any text, so that the
// content field is never blank.
const emptyIndexText = "empty"

// Backend describes the pages of one document type.
type Backend interface {
	// TypeName is the doctype tag stored in the index.
	TypeName() string
	// CanEdit reports whether page text can be edited page by page.
	CanEdit() bool
	// PrimaryFile is the file hashed to detect duplicates.
	PrimaryFile(dir string) string
	// CountPages returns the number of pages.
	CountPages(dir string) (int, error)
	// ReadPage returns the text of page n (0-based).
	ReadPage(dir string, n int) (string, error)
	// PageFiles returns the files of page n whose modification changes the
	// indexed data.
	PageFiles(dir string, n int) []string
}

// Doc is a document directory handled through a Backend.
type Doc struct {
	backend Backend
	counter driven.PageCounter

	mu       sync.Mutex
	id       string
	dir      string
	previous domain.LabelSet
	storage  *domain.StorageBinding

	// cache, reset by DropCache
	labels    domain.LabelSet
	labelsOK  bool
	pageCount int
	pagesOK   bool
	pageTexts map[int]string
	text      string
	textOK    bool
}

var _ domain.Document = (*Doc)(nil)

// New opens the document directory dir with the given id. The label set
// found on disk becomes the classifier baseline.
func New(dir, docID string, backend Backend, counter driven.PageCounter) *Doc {
	d := &Doc{
		backend:   backend,
		counter:   counter,
		id:        docID,
		dir:       dir,
		pageTexts: make(map[int]string),
	}
	d.previous = d.Labels().Clone()
	return d
}

// NewDocID returns an unused document id under root for a document
// created at now. Colliding ids get a "_N" suffix.
func NewDocID(root string, now time.Time) string {
	base := domain.FormatDocID(now)
	id := base
	for n := 1; exists(filepath.Join(root, id)); n++ {
		id = domain.SuffixDocID(base, n)
	}
	return id
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ID returns the document id.
func (d *Doc) ID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.id
}

// Path returns the document directory.
func (d *Doc) Path() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dir
}

// Type returns the doctype tag.
func (d *Doc) Type() string {
	return d.backend.TypeName()
}

// CanEdit reports whether page text can be edited page by page.
func (d *Doc) CanEdit() bool {
	return d.backend.CanEdit()
}

func (d *Doc) String() string {
	return d.ID()
}

// ==================== Pages and text ====================

// PageCount returns the number of pages. A missing directory or an
// unreadable document has no pages.
func (d *Doc) PageCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pageCountLocked()
}

func (d *Doc) pageCountLocked() int {
	if d.pagesOK {
		return d.pageCount
	}
	n := 0
	if exists(d.dir) {
		var err error
		n, err = d.backend.CountPages(d.dir)
		if err != nil {
			logger.Warn("counting pages of %s: %v", d.id, err)
			n = 0
		}
	}
	d.pageCount, d.pagesOK = n, true
	return n
}

// PageText returns the text of page n (0-based).
func (d *Doc) PageText(n int) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pageTextLocked(n)
}

func (d *Doc) pageTextLocked(n int) (string, error) {
	if n < 0 || n >= d.pageCountLocked() {
		return "", fmt.Errorf("page %d of %s: %w", n, d.id, domain.ErrNotFound)
	}
	if text, ok := d.pageTexts[n]; ok {
		return text, nil
	}
	text, err := d.backend.ReadPage(d.dir, n)
	if err != nil {
		return "", fmt.Errorf("reading page %d of %s: %w", n, d.id, err)
	}
	d.pageTexts[n] = text
	return text, nil
}

// Text returns the page texts joined by newlines, followed by the extra
// text. Unreadable pages count as empty.
func (d *Doc) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.textOK {
		return d.text
	}
	var parts []string
	for i := 0; i < d.pageCountLocked(); i++ {
		text, err := d.pageTextLocked(i)
		if err != nil {
			logger.Warn("%v", err)
		}
		parts = append(parts, text)
	}
	if extra := d.extraTextLocked(); extra != "" {
		parts = append(parts, extra)
	}
	d.text = strings.TrimSpace(strings.Join(parts, "\n"))
	d.textOK = true
	return d.text
}

// IndexText returns the text stored in the content field of the index.
func (d *Doc) IndexText() string {
	if text := d.Text(); text != "" {
		return text
	}
	return emptyIndexText
}

// ==================== Labels ====================

// Labels returns the labels read from the label file. A missing file
// means no labels.
func (d *Doc) Labels() domain.LabelSet {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.labelsLocked().Clone()
}

func (d *Doc) labelsLocked() domain.LabelSet {
	if d.labelsOK {
		return d.labels
	}
	labels, storage, err := d.readLabelFile()
	if err != nil {
		logger.Warn("reading labels of %s: %v", d.id, err)
	}
	d.labels, d.labelsOK = labels, true
	if d.storage == nil {
		d.storage = storage
	}
	return d.labels
}

func (d *Doc) readLabelFile() (domain.LabelSet, *domain.StorageBinding, error) {
	f, err := os.Open(filepath.Join(d.dir, LabelFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return domain.ParseLabelFile(f)
}

func (d *Doc) writeLabelsLocked(labels domain.LabelSet) error {
	if err := os.MkdirAll(d.dir, 0700); err != nil {
		return fmt.Errorf("creating document directory: %w", err)
	}
	var buf bytes.Buffer
	if err := domain.WriteLabelFile(&buf, labels, d.storage); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(d.dir, LabelFile), buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("writing labels of %s: %w", d.id, err)
	}
	d.dropCacheLocked()
	return nil
}

// IndexLabels returns the label names, comma-joined.
func (d *Doc) IndexLabels() string {
	return strings.Join(d.Labels().Names(), ",")
}

// PreviousLabels returns the label set last acknowledged by the classifiers.
func (d *Doc) PreviousLabels() domain.LabelSet {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.previous.Clone()
}

// AcknowledgeLabels makes the current labels the new baseline.
func (d *Doc) AcknowledgeLabels() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.previous = d.labelsLocked().Clone()
}

// HasLabel reports whether a label with the same key is attached.
func (d *Doc) HasLabel(l domain.Label) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.labelsLocked().Contains(l)
}

// AddLabel attaches l. Adding a label twice is a no-op.
func (d *Doc) AddLabel(l domain.Label) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	labels := d.labelsLocked()
	if labels.Contains(l) {
		return nil
	}
	return d.writeLabelsLocked(labels.Add(l))
}

// RemoveLabel detaches l. Removing a missing label is a no-op.
func (d *Doc) RemoveLabel(l domain.Label) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	labels := d.labelsLocked()
	if !labels.Contains(l) {
		return nil
	}
	if d.storage != nil && d.storage.Label.Equal(l) {
		d.storage = nil
	}
	return d.writeLabelsLocked(labels.Remove(l))
}

// ReplaceLabel swaps old for updated in place and reports whether old
// was attached.
func (d *Doc) ReplaceLabel(old, updated domain.Label) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	labels := d.labelsLocked().Clone()
	i := labels.Index(old)
	if i < 0 {
		return false, nil
	}
	labels = append(labels[:i], labels[i+1:]...)
	if j := labels.Index(updated); j < 0 {
		labels = append(labels[:i], append(domain.LabelSet{updated}, labels[i:]...)...)
	}
	if d.storage != nil && d.storage.Label.Equal(old) {
		d.storage = &domain.StorageBinding{Label: updated, Base: d.storage.Base}
	}
	return true, d.writeLabelsLocked(labels)
}

// SetLabels replaces every label.
func (d *Doc) SetLabels(labels domain.LabelSet) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var unique domain.LabelSet
	for _, l := range labels {
		unique = unique.Add(l)
	}
	if d.storage != nil && !unique.Contains(d.storage.Label) {
		d.storage = nil
	}
	return d.writeLabelsLocked(unique)
}

// RestoreLabels writes back a label set and storage binding saved before
// a change. No page range is allocated.
func (d *Doc) RestoreLabels(labels domain.LabelSet, storage *domain.StorageBinding) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.labelsLocked()
	d.storage = nil
	if storage != nil && labels.Contains(storage.Label) {
		s := *storage
		d.storage = &s
	}
	return d.writeLabelsLocked(labels.Clone())
}

// ==================== Storage binding ====================

// Storage returns the storage binding, if any.
func (d *Doc) Storage() *domain.StorageBinding {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.labelsLocked()
	if d.storage == nil {
		return nil
	}
	s := *d.storage
	return &s
}

// SetStorage allocates a page range for the document under label and
// attaches the label. An existing binding to the same label is kept
// unless force is set.
func (d *Doc) SetStorage(ctx context.Context, label domain.Label, force bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	labels := d.labelsLocked()
	if d.storage != nil && d.storage.Label.Equal(label) && !force {
		return nil
	}
	base, err := d.counter.Target(ctx, label.Name, d.pageCountLocked())
	if err != nil {
		return fmt.Errorf("allocating storage for %s: %w", d.id, err)
	}
	d.storage = &domain.StorageBinding{Label: label, Base: base}
	return d.writeLabelsLocked(labels.Add(label))
}

// UpdateStorage grows the page range after pagesAdded pages were added.
// When the range is still the last one handed out for its label it is
// extended in place; otherwise a new range is allocated.
func (d *Doc) UpdateStorage(ctx context.Context, pagesAdded int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	labels := d.labelsLocked()
	if d.storage == nil || pagesAdded <= 0 {
		return nil
	}
	// Page files may have changed since the count was cached.
	d.pagesOK = false
	pages := d.pageCountLocked()

	name := d.storage.Label.Name
	current, err := d.counter.Current(ctx, name)
	if err != nil {
		return fmt.Errorf("reading storage counter for %s: %w", d.id, err)
	}
	if current == d.storage.Base+pages-pagesAdded {
		if _, err := d.counter.Target(ctx, name, pagesAdded); err != nil {
			return fmt.Errorf("extending storage for %s: %w", d.id, err)
		}
		return nil
	}
	base, err := d.counter.Target(ctx, name, pages)
	if err != nil {
		return fmt.Errorf("reallocating storage for %s: %w", d.id, err)
	}
	d.storage = &domain.StorageBinding{Label: d.storage.Label, Base: base}
	return d.writeLabelsLocked(labels)
}

// ==================== Dates and ids ====================

// Date returns the date encoded in the id.
func (d *Doc) Date() time.Time {
	return domain.DocIDDate(d.ID())
}

// SetDate renames the document directory to YYYYMMDD_0000_01, or the next
// free "_NN" variant.
func (d *Doc) SetDate(date time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	root := filepath.Dir(d.dir)
	base := domain.DocIDForDate(date)
	if d.id == base {
		return nil
	}
	id := base
	for n := 1; exists(filepath.Join(root, id)); n++ {
		id = fmt.Sprintf("%s_%02d", base, n)
		if id == d.id {
			return nil
		}
	}
	dir := filepath.Join(root, id)
	if err := os.Rename(d.dir, dir); err != nil {
		return fmt.Errorf("moving %s to %s: %w", d.id, id, err)
	}
	logger.Info("document %s moved to %s", d.id, id)
	d.id, d.dir = id, dir
	d.dropCacheLocked()
	return nil
}

// ==================== Extra text ====================

// ExtraText returns the free-form text attached to the document.
func (d *Doc) ExtraText() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.extraTextLocked()
}

func (d *Doc) extraTextLocked() string {
	data, err := os.ReadFile(filepath.Join(d.dir, ExtraFile))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("reading extra text of %s: %v", d.id, err)
		}
		return ""
	}
	return string(data)
}

// SetExtraText replaces the free-form text. Empty text removes the file.
func (d *Doc) SetExtraText(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	path := filepath.Join(d.dir, ExtraFile)
	if strings.TrimSpace(text) == "" {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing extra text of %s: %w", d.id, err)
		}
	} else if err := os.WriteFile(path, []byte(text), 0600); err != nil {
		return fmt.Errorf("writing extra text of %s: %w", d.id, err)
	}
	d.dropCacheLocked()
	return nil
}

// ==================== Files ====================

// LastModified returns the newest modification time among the primary
// file, the page files, the label file and the extra text.
func (d *Doc) LastModified() (time.Time, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	info, err := os.Stat(d.backend.PrimaryFile(d.dir))
	if err != nil {
		return time.Time{}, fmt.Errorf("reading modification time of %s: %w", d.id, err)
	}
	latest := info.ModTime()

	files := []string{filepath.Join(d.dir, LabelFile), filepath.Join(d.dir, ExtraFile)}
	for i := 0; i < d.pageCountLocked(); i++ {
		files = append(files, d.backend.PageFiles(d.dir, i)...)
	}
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		if info.ModTime().After(latest) {
			latest = info.ModTime()
		}
	}
	return latest, nil
}

// FileHash returns the sha256 of the primary file.
func (d *Doc) FileHash() (domain.FileHash, error) {
	d.mu.Lock()
	path := d.backend.PrimaryFile(d.dir)
	id := d.id
	d.mu.Unlock()

	var h domain.FileHash
	f, err := os.Open(path)
	if err != nil {
		return h, fmt.Errorf("hashing %s: %w", id, err)
	}
	defer f.Close()

	sum := sha256.New()
	if _, err := io.Copy(sum, f); err != nil {
		return h, fmt.Errorf("hashing %s: %w", id, err)
	}
	copy(h[:], sum.Sum(nil))
	return h, nil
}

// DropCache forgets everything read from disk.
func (d *Doc) DropCache() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dropCacheLocked()
}

func (d *Doc) dropCacheLocked() {
	d.labels, d.labelsOK = nil, false
	d.pageCount, d.pagesOK = 0, false
	d.pageTexts = make(map[int]string)
	d.text, d.textOK = "", false
}

// Destroy removes the document directory.
func (d *Doc) Destroy() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := os.RemoveAll(d.dir); err != nil {
		return fmt.Errorf("destroying %s: %w", d.id, err)
	}
	d.dropCacheLocked()
	return nil
}

// Clone returns a fresh instance over the same directory.
func (d *Doc) Clone() domain.Document {
	return New(d.Path(), d.ID(), d.backend, d.counter)
}
