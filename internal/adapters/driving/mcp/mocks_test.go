package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	docs        []domain.Document
	suggestions []string
	err         error

	lastOpts domain.SearchOptions
}

func (m *mockSearchService) FindDocuments(
	_ context.Context,
	_ string,
	opts domain.SearchOptions,
) ([]domain.Document, error) {
	m.lastOpts = opts
	return m.docs, m.err
}

func (m *mockSearchService) FindSuggestions(_ context.Context, _ string) ([]string, error) {
	return m.suggestions, m.err
}

// mockLabelService is a mock implementation of driving.LabelService.
type mockLabelService struct {
	labels []domain.Label
	err    error
}

func (m *mockLabelService) Labels() []domain.Label {
	return m.labels
}

func (m *mockLabelService) CreateLabel(_ context.Context, _ domain.Label, _ domain.Document) error {
	return m.err
}

func (m *mockLabelService) AddLabel(_ context.Context, _ domain.Document, _ domain.Label, _ bool) error {
	return m.err
}

func (m *mockLabelService) RemoveLabel(_ context.Context, _ domain.Document, _ domain.Label, _ bool) error {
	return m.err
}

func (m *mockLabelService) UpdateLabel(_ context.Context, _, _ domain.Label, _ domain.ProgressFunc) error {
	return m.err
}

func (m *mockLabelService) DestroyLabel(_ context.Context, _ domain.Label, _ domain.ProgressFunc) error {
	return m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	docs   map[string]domain.Document
	guess  []domain.Label
	err    error
	getErr error
}

func (m *mockDocumentService) List() []domain.Document {
	docs := make([]domain.Document, 0, len(m.docs))
	for _, d := range m.docs {
		docs = append(docs, d)
	}
	return docs
}

func (m *mockDocumentService) Get(id string) (domain.Document, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (m *mockDocumentService) GuessLabels(_ context.Context, id string) ([]domain.Label, error) {
	if _, err := m.Get(id); err != nil {
		return nil, err
	}
	return m.guess, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockDocumentService) SetExtraText(_ context.Context, _, _ string) error {
	return m.err
}

func (m *mockDocumentService) SetDate(_ context.Context, id string, _ time.Time) (string, error) {
	return id, m.err
}

// stubDoc implements the parts of domain.Document the server reads.
type stubDoc struct {
	domain.Document
	id     string
	text   string
	pages  int
	labels domain.LabelSet
}

func (d *stubDoc) ID() string              { return d.id }
func (d *stubDoc) Path() string            { return "/docs/" + d.id }
func (d *stubDoc) Type() string            { return "img" }
func (d *stubDoc) PageCount() int          { return d.pages }
func (d *stubDoc) Text() string            { return d.text }
func (d *stubDoc) Labels() domain.LabelSet { return d.labels }
func (d *stubDoc) Date() time.Time         { return domain.DocIDDate(d.id) }
