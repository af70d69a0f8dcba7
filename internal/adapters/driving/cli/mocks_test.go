package cli

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
	"github.com/custodia-labs/sercha-docs/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-docs/internal/logger"
)

var (
	finance = domain.NewLabel("Finance", "#00ff00")
	tax     = domain.NewLabel("Tax", "#ff0000")
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	docs        []domain.Document
	suggestions []string
	err         error

	lastQuery string
	lastOpts  domain.SearchOptions
}

func (m *mockSearchService) FindDocuments(
	_ context.Context,
	sentence string,
	opts domain.SearchOptions,
) ([]domain.Document, error) {
	m.lastQuery = sentence
	m.lastOpts = opts
	return m.docs, m.err
}

func (m *mockSearchService) FindSuggestions(_ context.Context, sentence string) ([]string, error) {
	m.lastQuery = sentence
	return m.suggestions, m.err
}

// mockLabelService is a mock implementation of driving.LabelService.
type mockLabelService struct {
	labels []domain.Label
	err    error

	created   domain.Label
	createdOn domain.Document
	added     domain.Label
	removed   domain.Label
	renamed   [2]domain.Label
	destroyed domain.Label
}

func (m *mockLabelService) Labels() []domain.Label {
	return m.labels
}

func (m *mockLabelService) CreateLabel(_ context.Context, label domain.Label, doc domain.Document) error {
	m.created, m.createdOn = label, doc
	return m.err
}

func (m *mockLabelService) AddLabel(_ context.Context, _ domain.Document, label domain.Label, _ bool) error {
	m.added = label
	return m.err
}

func (m *mockLabelService) RemoveLabel(_ context.Context, _ domain.Document, label domain.Label, _ bool) error {
	m.removed = label
	return m.err
}

func (m *mockLabelService) UpdateLabel(_ context.Context, old, updated domain.Label, _ domain.ProgressFunc) error {
	m.renamed = [2]domain.Label{old, updated}
	return m.err
}

func (m *mockLabelService) DestroyLabel(_ context.Context, label domain.Label, _ domain.ProgressFunc) error {
	m.destroyed = label
	return m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	docs  []domain.Document
	guess []domain.Label
	err   error

	deleted   string
	extraText string
	date      time.Time
}

func (m *mockDocumentService) List() []domain.Document {
	return m.docs
}

func (m *mockDocumentService) Get(id string) (domain.Document, error) {
	for _, d := range m.docs {
		if d.ID() == id {
			return d, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) GuessLabels(_ context.Context, id string) ([]domain.Label, error) {
	if _, err := m.Get(id); err != nil {
		return nil, err
	}
	return m.guess, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, id string) error {
	m.deleted = id
	return m.err
}

func (m *mockDocumentService) SetExtraText(_ context.Context, _, text string) error {
	m.extraText = text
	return m.err
}

func (m *mockDocumentService) SetDate(_ context.Context, _ string, date time.Time) (string, error) {
	m.date = date
	return domain.DocIDForDate(date), m.err
}

// mockSyncService is a mock implementation of driving.SyncService.
type mockSyncService struct {
	report domain.SyncReport
	err    error
	calls  int
}

func (m *mockSyncService) Sync(_ context.Context, progress domain.ProgressFunc) (*domain.SyncReport, error) {
	m.calls++
	progress(1, 1, domain.StepChecking, nil)
	if m.err != nil {
		return nil, m.err
	}
	report := m.report
	return &report, nil
}

func (m *mockSyncService) Status() driving.SyncStatus {
	return driving.SyncStatus{}
}

// stubDoc implements the parts of domain.Document the commands read.
type stubDoc struct {
	domain.Document
	id     string
	text   string
	extra  string
	pages  int
	labels domain.LabelSet
}

func (d *stubDoc) ID() string              { return d.id }
func (d *stubDoc) Path() string            { return "/docs/" + d.id }
func (d *stubDoc) Type() string            { return "img" }
func (d *stubDoc) PageCount() int          { return d.pages }
func (d *stubDoc) Text() string            { return d.text }
func (d *stubDoc) ExtraText() string       { return d.extra }
func (d *stubDoc) Labels() domain.LabelSet { return d.labels }
func (d *stubDoc) Date() time.Time         { return domain.DocIDDate(d.id) }

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings domain.Settings
	err      error
	set      [2]string
}

func (m *mockSettingsService) Get() (domain.Settings, error) {
	return m.settings, m.err
}

func (m *mockSettingsService) Set(key, value string) error {
	m.set = [2]string{key, value}
	return m.err
}

func (m *mockSettingsService) Keys() []string {
	return []string{"workdir", "datadir", "verbose", "search.fuzzy_max_distance", "search.default_limit"}
}

func (m *mockSettingsService) Path() string {
	return "/home/user/.sercha-docs/config.toml"
}

type testServices struct {
	search    *mockSearchService
	labels    *mockLabelService
	documents *mockDocumentService
	sync      *mockSyncService
	config    *mockSettingsService
}

// setupTestServices installs mocks holding two documents and restores
// the previous services when the test ends.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	invoice := &stubDoc{
		id:     "20240315_0930_00",
		text:   "electricity invoice",
		pages:  1,
		labels: domain.LabelSet{finance},
	}
	taxes := &stubDoc{id: "20230110_0800_00", text: "tax return", pages: 3}

	ts := &testServices{
		search:    &mockSearchService{},
		labels:    &mockLabelService{labels: []domain.Label{finance, tax}},
		documents: &mockDocumentService{docs: []domain.Document{invoice, taxes}},
		sync:      &mockSyncService{},
		config:    &mockSettingsService{settings: domain.DefaultSettings("/home/user")},
	}

	oldSearch, oldLabels, oldDocs, oldSync := searchService, labelService, documentService, syncService
	oldConfig := settingsService
	oldMetrics, oldSettings := metricsHandler, settings

	s := domain.DefaultSettings(t.TempDir())
	s.WorkDir = t.TempDir()
	SetServices(Services{
		Search:    ts.search,
		Labels:    ts.labels,
		Documents: ts.documents,
		Sync:      ts.sync,
		Config:    ts.config,
		Metrics:   http.NotFoundHandler(),
		Settings:  s,
	})

	t.Cleanup(func() {
		searchService, labelService, documentService, syncService = oldSearch, oldLabels, oldDocs, oldSync
		metricsHandler, settings, settingsService = oldMetrics, oldSettings, oldConfig
	})
	return ts
}

// execute runs the root command with args and returns its output.
// Flags are reset afterwards since cobra keeps them between runs.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeContext(context.Background(), t, args...)
}

func executeContext(ctx context.Context, t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
		logger.SetVerbose(false)
	})

	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}
