package rest

import (
	"context"
	"sync"

	"github.com/vegvisr/graphvec/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	resp    *domain.SearchResponse
	err     error
	lastReq domain.SearchRequest
}

func (m *mockSearchService) Search(_ context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	m.lastReq = req
	return m.resp, m.err
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	summary *domain.IndexSummary
	err     error
	lastReq domain.IndexRequest
}

func (m *mockIndexService) IndexGraph(_ context.Context, req domain.IndexRequest) (*domain.IndexSummary, error) {
	m.lastReq = req
	return m.summary, m.err
}

// mockReindexService is a mock implementation of driving.ReindexService.
type mockReindexService struct {
	mu        sync.Mutex
	summary   *domain.ReindexSummary
	err       error
	allCalls  int
	lastCount int
}

func (m *mockReindexService) ReindexAll(_ context.Context) (*domain.ReindexSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allCalls++
	return m.summary, m.err
}

func (m *mockReindexService) ReindexSample(_ context.Context, count int) (*domain.ReindexSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastCount = count
	return m.summary, m.err
}

// mockStatusService is a mock implementation of driving.StatusService.
type mockStatusService struct {
	status         *domain.VectorizationStatus
	analysis       *domain.ContentAnalysis
	err            error
	lastIDs        []string
	lastSampleSize int
}

func (m *mockStatusService) VectorizationStatus(_ context.Context, ids []string) (*domain.VectorizationStatus, error) {
	m.lastIDs = ids
	return m.status, m.err
}

func (m *mockStatusService) AnalyzeContent(_ context.Context, sampleSize int) (*domain.ContentAnalysis, error) {
	m.lastSampleSize = sampleSize
	return m.analysis, m.err
}

func (m *mockStatusService) Health(_ context.Context) domain.HealthStatus {
	return domain.HealthStatus{Status: "healthy", Service: "graphvec", Timestamp: "2026-01-01T00:00:00Z"}
}
