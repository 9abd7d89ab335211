package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegvisr/graphvec/internal/core/domain"
)

type testPorts struct {
	search  *mockSearchService
	index   *mockIndexService
	reindex *mockReindexService
	status  *mockStatusService
}

func newTestServer(t *testing.T) (*Server, *testPorts) {
	t.Helper()
	mocks := &testPorts{
		search:  &mockSearchService{resp: &domain.SearchResponse{Query: "odin", Results: []domain.SearchResult{}}},
		index:   &mockIndexService{summary: &domain.IndexSummary{Success: true, GraphID: "g1"}},
		reindex: &mockReindexService{summary: &domain.ReindexSummary{Success: true, Processed: 2}},
		status:  &mockStatusService{},
	}
	srv, err := NewServer(&Ports{
		Search:  mocks.search,
		Index:   mocks.index,
		Reindex: mocks.reindex,
		Status:  mocks.status,
	})
	require.NoError(t, err)
	return srv, mocks
}

func do(t *testing.T, srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestNewServer(t *testing.T) {
	t.Run("nil ports returns error", func(t *testing.T) {
		srv, err := NewServer(nil)
		assert.ErrorIs(t, err, ErrMissingService)
		assert.Nil(t, srv)
	})

	t.Run("missing service returns error", func(t *testing.T) {
		_, err := NewServer(&Ports{Search: &mockSearchService{}})
		assert.ErrorIs(t, err, ErrMissingService)
	})
}

func TestServer_Routing(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("preflight", func(t *testing.T) {
		rec := do(t, srv, http.MethodOptions, "/search", "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-API-Token")
	})

	t.Run("unknown path", func(t *testing.T) {
		rec := do(t, srv, http.MethodGet, "/nope", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Endpoint not found", decodeError(t, rec))
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := do(t, srv, http.MethodGet, "/search", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Equal(t, "Method not allowed", decodeError(t, rec))
		assert.Contains(t, rec.Header().Get("Allow"), http.MethodPost)
	})

	t.Run("health", func(t *testing.T) {
		rec := do(t, srv, http.MethodGet, "/health", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var health domain.HealthStatus
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
		assert.Equal(t, "healthy", health.Status)
	})
}

func TestServer_Search(t *testing.T) {
	srv, mocks := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/search", `{"query":"odin","searchType":"hybrid","limit":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "odin", mocks.search.lastReq.Query)
	assert.Equal(t, domain.SearchTypeHybrid, mocks.search.lastReq.SearchType)
	assert.Equal(t, 3, mocks.search.lastReq.Limit)

	var resp domain.SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "odin", resp.Query)
}

func TestServer_BodyErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"invalid json", "/search", `{"query":`},
		{"missing body", "/search", ""},
		{"wrong field type", "/index-graph", `{"graphId": 42}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decodeError(t, rec))
		})
	}
}

func TestServer_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("%w: query is required", domain.ErrValidation), http.StatusBadRequest},
		{"not found", fmt.Errorf("graph g9: %w", domain.ErrNotFound), http.StatusNotFound},
		{"upstream", fmt.Errorf("%w: status 503", domain.ErrUpstreamFetch), http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, mocks := newTestServer(t)
			mocks.index.err = tt.err

			rec := do(t, srv, http.MethodPost, "/index-graph", `{"graphId":"g1"}`)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, tt.err.Error(), decodeError(t, rec))
		})
	}
}

func TestServer_IndexGraph(t *testing.T) {
	srv, mocks := newTestServer(t)

	body := `{"graphId":"g1","action":"force","graphData":{"metadata":{"title":"Norse"},"nodes":[]}}`
	rec := do(t, srv, http.MethodPost, "/index-graph", body)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "g1", mocks.index.lastReq.GraphID)
	assert.Equal(t, domain.IndexActionForce, mocks.index.lastReq.Action)
	require.NotNil(t, mocks.index.lastReq.Graph)
	assert.Equal(t, "Norse", mocks.index.lastReq.Graph.Metadata.Title)

	var summary domain.IndexSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.True(t, summary.Success)
}

func TestServer_Reindex(t *testing.T) {
	t.Run("all", func(t *testing.T) {
		srv, mocks := newTestServer(t)
		rec := do(t, srv, http.MethodPost, "/reindex-all", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, mocks.reindex.allCalls)

		var summary domain.ReindexSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
		assert.Equal(t, 2, summary.Processed)
	})

	t.Run("sample with count", func(t *testing.T) {
		srv, mocks := newTestServer(t)
		rec := do(t, srv, http.MethodPost, "/reindex-sample", `{"count": 3}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 3, mocks.reindex.lastCount)
	})

	t.Run("sample without body uses service default", func(t *testing.T) {
		srv, mocks := newTestServer(t)
		mocks.reindex.lastCount = -1
		rec := do(t, srv, http.MethodPost, "/reindex-sample", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, mocks.reindex.lastCount)
	})
}

func TestServer_VectorizationStatus(t *testing.T) {
	srv, mocks := newTestServer(t)
	mocks.status.status = &domain.VectorizationStatus{
		StatusMap: map[string]domain.GraphVectorStatus{
			"g1": {IsVectorized: true, VectorCount: 3},
		},
		TotalGraphs:     1,
		VectorizedCount: 1,
	}

	rec := do(t, srv, http.MethodPost, "/vectorization-status", `{"graphIds":["g1"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"g1"}, mocks.status.lastIDs)

	var status domain.VectorizationStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 3, status.StatusMap["g1"].VectorCount)
}

func TestServer_AnalyzeContent(t *testing.T) {
	t.Run("default sample size", func(t *testing.T) {
		srv, mocks := newTestServer(t)
		mocks.status.analysis = &domain.ContentAnalysis{TotalGraphs: 4}

		rec := do(t, srv, http.MethodGet, "/analyze-content", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, mocks.status.lastSampleSize)
	})

	t.Run("explicit sample size", func(t *testing.T) {
		srv, mocks := newTestServer(t)
		mocks.status.analysis = &domain.ContentAnalysis{}

		rec := do(t, srv, http.MethodGet, "/analyze-content?sampleSize=7", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 7, mocks.status.lastSampleSize)
	})

	t.Run("invalid sample size", func(t *testing.T) {
		srv, _ := newTestServer(t)
		rec := do(t, srv, http.MethodGet, "/analyze-content?sampleSize=abc", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_Serve(t *testing.T) {
	srv, _ := newTestServer(t)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, listener) }()

	url := "http://" + listener.Addr().String() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url) //nolint:noctx
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(6 * time.Second):
		t.Fatal("server did not shut down")
	}
}
