package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vegvisr/graphvec/internal/core/domain"
)

// mockSearchService implements driving.SearchService for testing.
type mockSearchService struct {
	resp    *domain.SearchResponse
	err     error
	lastReq domain.SearchRequest
}

func (m *mockSearchService) Search(_ context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	if m.resp != nil {
		return m.resp, nil
	}
	return &domain.SearchResponse{
		Query:        req.Query,
		SearchType:   domain.SearchTypeHybrid,
		TotalResults: 1,
		Results: []domain.SearchResult{{
			GraphID:        "g1",
			RelevanceScore: 0.87,
			MatchType:      domain.MatchHybrid,
			MatchedContent: []domain.MatchedContent{
				{NodeID: "n1", ContentType: "node_content", Snippet: "Odin is the Allfather", Score: 0.87},
			},
		}},
	}, nil
}

// mockIndexService implements driving.IndexService for testing.
type mockIndexService struct {
	summary *domain.IndexSummary
	err     error
	lastReq domain.IndexRequest
}

func (m *mockIndexService) IndexGraph(_ context.Context, req domain.IndexRequest) (*domain.IndexSummary, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	if m.summary != nil {
		return m.summary, nil
	}
	return &domain.IndexSummary{
		Success:        true,
		Message:        "Successfully indexed 3 content chunks",
		GraphID:        req.GraphID,
		ContentChunks:  3,
		VectorsCreated: 3,
		MetadataStored: 3,
	}, nil
}

// mockReindexService implements driving.ReindexService for testing.
type mockReindexService struct {
	allCalls    int
	sampleCalls int
	lastCount   int
	err         error
}

func (m *mockReindexService) summary() *domain.ReindexSummary {
	return &domain.ReindexSummary{
		Success:            true,
		Message:            "Batch reindexing completed",
		Processed:          2,
		Skipped:            1,
		TotalConsidered:    3,
		SuccessRatePercent: 67,
		Duration:           1500 * time.Millisecond,
	}
}

func (m *mockReindexService) ReindexAll(_ context.Context) (*domain.ReindexSummary, error) {
	m.allCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.summary(), nil
}

func (m *mockReindexService) ReindexSample(_ context.Context, count int) (*domain.ReindexSummary, error) {
	m.sampleCalls++
	m.lastCount = count
	if m.err != nil {
		return nil, m.err
	}
	return m.summary(), nil
}

// mockStatusService implements driving.StatusService for testing.
type mockStatusService struct {
	lastIDs        []string
	lastSampleSize int
}

func (m *mockStatusService) VectorizationStatus(_ context.Context, ids []string) (*domain.VectorizationStatus, error) {
	m.lastIDs = ids
	status := &domain.VectorizationStatus{StatusMap: map[string]domain.GraphVectorStatus{}}
	for _, id := range ids {
		if id == "g1" {
			status.StatusMap[id] = domain.GraphVectorStatus{IsVectorized: true, VectorCount: 3}
			status.VectorizedCount++
		} else {
			status.StatusMap[id] = domain.GraphVectorStatus{}
		}
	}
	status.TotalGraphs = len(status.StatusMap)
	return status, nil
}

func (m *mockStatusService) AnalyzeContent(_ context.Context, sampleSize int) (*domain.ContentAnalysis, error) {
	m.lastSampleSize = sampleSize
	return &domain.ContentAnalysis{
		TotalGraphs:           10,
		SampleSize:            5,
		SampledNodes:          20,
		ContentTypes:          map[string]int{"fulltext": 15, "image": 5},
		EstimatedVectors:      40,
		EstimatedTotalNodes:   40,
		EstimatedTotalVectors: 80,
		SampleContent: []domain.ContentSample{
			{GraphID: "g1", NodeID: "n1", ContentPreview: "Odin is the Allfather", ContentType: "fulltext"},
		},
	}, nil
}

func (m *mockStatusService) Health(_ context.Context) domain.HealthStatus {
	return domain.HealthStatus{Status: "healthy", Service: "graphvec", Timestamp: "2026-01-01T00:00:00Z"}
}

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings      domain.AppSettings
	values        map[string]string
	setErr        error
	validateErr   error
	embedCheckErr error
	embedChecks   int
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings(), values: map[string]string{}}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) ValidateEmbeddingConfig() error {
	m.embedChecks++
	return m.embedCheckErr
}

// mockSearchHistory implements SearchHistory for testing.
type mockSearchHistory struct {
	records []domain.SearchAnalytics
	err     error
}

func (m *mockSearchHistory) Recent(_ context.Context, limit int) ([]domain.SearchAnalytics, error) {
	if m.err != nil {
		return nil, m.err
	}
	if limit < len(m.records) {
		return m.records[:limit], nil
	}
	return m.records, nil
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	search   *mockSearchService
	index    *mockIndexService
	reindex  *mockReindexService
	status   *mockStatusService
	settings *mockSettingsService
	history  *mockSearchHistory
}

// setupTestServices installs fresh mocks and returns a cleanup function.
func setupTestServices() (*testServices, func()) {
	mocks := &testServices{
		search:   &mockSearchService{},
		index:    &mockIndexService{},
		reindex:  &mockReindexService{},
		status:   &mockStatusService{},
		settings: newMockSettingsService(),
		history:  &mockSearchHistory{},
	}
	SetServices(&Services{
		Search:   mocks.search,
		Index:    mocks.index,
		Reindex:  mocks.reindex,
		Status:   mocks.status,
		Settings: mocks.settings,
		History:  mocks.history,
	})
	oldBootstrap := bootstrap
	bootstrap = nil

	return mocks, func() {
		SetServices(nil)
		bootstrap = oldBootstrap
	}
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag to its default so tests stay independent.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
