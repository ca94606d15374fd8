package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/connectors/filesystem"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
)

type mockRetrievalService struct {
	results  []domain.Result
	mode     domain.QueryMode
	err      error
	lastReq  domain.QueryRequest
	lastOpts domain.SearchOptions
	lastCat  string
	expected [][]string
}

func (m *mockRetrievalService) Query(_ context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	mode := m.mode
	if mode == "" {
		mode = domain.QueryModeVector
	}
	return &domain.QueryResponse{Results: m.results, Mode: mode}, nil
}

func (m *mockRetrievalService) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.Result, error) {
	m.lastReq = domain.QueryRequest{Query: query}
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockRetrievalService) ByCategory(_ context.Context, category, folder string) ([]domain.Result, error) {
	m.lastCat = category
	m.lastOpts = domain.SearchOptions{FolderFilter: folder}
	return m.results, m.err
}

func (m *mockRetrievalService) Evaluate(
	_ context.Context, req domain.QueryRequest, expected []string,
) (*domain.Evaluation, error) {
	m.lastReq = req
	m.expected = append(m.expected, expected)
	if m.err != nil {
		return nil, m.err
	}
	if strings.Contains(req.Query, "miss") {
		return &domain.Evaluation{Query: req.Query, Expected: expected, Retrieved: []string{"other"}}, nil
	}
	return &domain.Evaluation{
		Query:     req.Query,
		Expected:  expected,
		Retrieved: expected,
		Matched:   len(expected),
		Precision: 1,
		Recall:    1,
		F1:        1,
	}, nil
}

type mockIngestService struct {
	documents   []domain.Document
	requests    []driving.IngestRequest
	recordCalls int
	records     []domain.Record
	removed     []string
	err         error
}

func (m *mockIngestService) Ingest(_ context.Context, req driving.IngestRequest) (*driving.IngestResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.requests = append(m.requests, req)
	doc := &domain.Document{ID: "id-" + req.Filename, Filename: req.Filename, Folder: req.Folder}
	return &driving.IngestResult{Document: doc, Chunks: 2}, nil
}

func (m *mockIngestService) IngestRecords(
	_ context.Context, filename, folder string, records []domain.Record,
) (*driving.IngestResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.recordCalls++
	m.records = records
	doc := &domain.Document{ID: "id-" + filename, Filename: filename, Folder: folder}
	return &driving.IngestResult{Document: doc, Chunks: len(records), Replaced: true}, nil
}

func (m *mockIngestService) Remove(_ context.Context, id string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.removed = append(m.removed, id)
	return 3, nil
}

func (m *mockIngestService) List(context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

type mockSettingsService struct {
	settings    domain.AppSettings
	setCalls    map[string]string
	setErr      error
	validateErr error
	provider    domain.AIProvider
	model       string
	apiKey      string
	pingErr     error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings(), setCalls: map[string]string{}}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.setCalls[key] = value
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(p domain.AIProvider, model, apiKey string) error {
	m.provider, m.model, m.apiKey = p, model, apiKey
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return m.pingErr }

type mockRecordsLoader struct {
	stats    filesystem.LoadStats
	err      error
	rebuilds []filesystem.Rebuild
}

func (m *mockRecordsLoader) RootPath() string { return "/records" }

func (m *mockRecordsLoader) Rebuild(context.Context) (filesystem.LoadStats, error) {
	return m.stats, m.err
}

func (m *mockRecordsLoader) Watch(context.Context) (<-chan filesystem.Rebuild, error) {
	if m.err != nil {
		return nil, m.err
	}
	ch := make(chan filesystem.Rebuild, len(m.rebuilds))
	for _, r := range m.rebuilds {
		ch <- r
	}
	close(ch)
	return ch, nil
}

type testServices struct {
	retrieval *mockRetrievalService
	ingest    *mockIngestService
	settings  *mockSettingsService
	records   *mockRecordsLoader
}

// setupTestServices installs mock services and returns them.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()
	ts := &testServices{
		retrieval: &mockRetrievalService{},
		ingest:    &mockIngestService{},
		settings:  newMockSettingsService(),
		records:   &mockRecordsLoader{},
	}
	SetServices(&Services{
		Retrieval: ts.retrieval,
		Ingest:    ts.ingest,
		Settings:  ts.settings,
		Records:   ts.records,
	})
	t.Cleanup(func() { SetServices(nil) })
	return ts
}

// execute runs the root command with args and returns its combined output.
// Flag values are reset first since commands share package-level state.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func executeWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	ingestMeta = nil
	reset := func(f *pflag.Flag) {
		switch v := f.Value.(type) {
		case pflag.SliceValue:
			_ = v.Replace(nil)
		default:
			if f.Value.Type() != "stringToString" {
				_ = f.Value.Set(f.DefValue)
			}
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func requireNoError(t *testing.T, out string, err error) {
	t.Helper()
	require.NoError(t, err, out)
}
