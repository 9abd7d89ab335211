package mcp

import (
	"context"

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
	if m.err != nil {
		return nil, m.err
	}
	if m.resp == nil {
		return &domain.SearchResponse{Query: req.Query, SearchType: domain.SearchTypeHybrid}, nil
	}
	return m.resp, nil
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
	summary     *domain.ReindexSummary
	err         error
	allCalls    int
	sampleCalls int
	lastCount   int
}

func (m *mockReindexService) ReindexAll(_ context.Context) (*domain.ReindexSummary, error) {
	m.allCalls++
	return m.summary, m.err
}

func (m *mockReindexService) ReindexSample(_ context.Context, count int) (*domain.ReindexSummary, error) {
	m.sampleCalls++
	m.lastCount = count
	return m.summary, m.err
}

// mockStatusService is a mock implementation of driving.StatusService.
type mockStatusService struct {
	status   *domain.VectorizationStatus
	analysis *domain.ContentAnalysis
	err      error
	lastIDs  []string
}

func (m *mockStatusService) VectorizationStatus(_ context.Context, ids []string) (*domain.VectorizationStatus, error) {
	m.lastIDs = ids
	return m.status, m.err
}

func (m *mockStatusService) AnalyzeContent(_ context.Context, _ int) (*domain.ContentAnalysis, error) {
	return m.analysis, m.err
}

func (m *mockStatusService) Health(_ context.Context) domain.HealthStatus {
	return domain.HealthStatus{Status: "healthy", Service: "graphvec"}
}
