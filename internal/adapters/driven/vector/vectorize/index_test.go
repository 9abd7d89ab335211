package vectorize

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegvisr/graphvec/internal/core/domain"
	"github.com/vegvisr/graphvec/internal/core/ports/driven"
)

func newTestIndex(t *testing.T, handler http.HandlerFunc) *SimilarityIndex {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	idx, err := New(Config{AccountID: "acct", APIToken: "cf", Index: "knowledge-graphs", BaseURL: server.URL})
	require.NoError(t, err)
	return idx
}

func record(id string) domain.VectorRecord {
	return domain.VectorRecord{
		ID:     id,
		Values: []float32{0.1, 0.2},
		Metadata: domain.VectorMetadata{
			GraphID:     "g1",
			NodeID:      "n1",
			ContentType: domain.ChunkNodeLabel,
			Snippet:     "Odin",
			CreatedAt:   time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC),
		},
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{AccountID: "a", APIToken: "t"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSimilarityIndex_Upsert(t *testing.T) {
	var lines []ndjsonVector
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/acct/vectorize/v2/indexes/knowledge-graphs/upsert", r.URL.Path)
		assert.Equal(t, "application/x-ndjson", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer cf", r.Header.Get("Authorization"))

		scanner := bufio.NewScanner(r.Body)
		for scanner.Scan() {
			var v ndjsonVector
			require.NoError(t, json.Unmarshal(scanner.Bytes(), &v))
			lines = append(lines, v)
		}
		_, _ = w.Write([]byte(`{"success":true,"errors":[],"result":{"mutationId":"m1"}}`))
	})

	err := idx.Upsert(context.Background(), []domain.VectorRecord{record("g1_node_label_n1"), record("g1_node_content_n1")})
	require.NoError(t, err)

	require.Len(t, lines, 2)
	assert.Equal(t, "g1_node_label_n1", lines[0].ID)
	assert.Equal(t, []float32{0.1, 0.2}, lines[0].Values)
	assert.Equal(t, "g1", lines[0].Metadata["graphId"])
	assert.Equal(t, "node_label", lines[0].Metadata["contentType"])
	assert.Equal(t, "Odin", lines[0].Metadata["originalContent"])
}

func TestSimilarityIndex_Upsert_Batches(t *testing.T) {
	var batches []int
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		n := 0
		scanner := bufio.NewScanner(r.Body)
		for scanner.Scan() {
			n++
		}
		batches = append(batches, n)
		_, _ = w.Write([]byte(`{"success":true,"result":{}}`))
	})

	records := make([]domain.VectorRecord, MaxUpsertBatch+5)
	for i := range records {
		records[i] = record(fmt.Sprintf("r%d", i))
	}
	require.NoError(t, idx.Upsert(context.Background(), records))
	assert.Equal(t, []int{MaxUpsertBatch, 5}, batches)
}

func TestSimilarityIndex_Upsert_Failure(t *testing.T) {
	idx := newTestIndex(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"errors":[{"code":40012,"message":"vector dimension mismatch"}]}`))
	})

	err := idx.Upsert(context.Background(), []domain.VectorRecord{record("r1")})
	assert.ErrorIs(t, err, domain.ErrUpstreamFetch)
	assert.Contains(t, err.Error(), "vector dimension mismatch")
}

func TestSimilarityIndex_Query(t *testing.T) {
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/acct/vectorize/v2/indexes/knowledge-graphs/query", r.URL.Path)

		var req queryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 4, req.TopK)
		assert.Equal(t, "all", req.ReturnMetadata)
		assert.False(t, req.ReturnValues)

		_, _ = w.Write([]byte(`{"success":true,"result":{"count":1,"matches":[
			{"id":"g1_node_label_n1","score":0.87,"metadata":{
				"graphId":"g1","nodeId":"n1","contentType":"node_label",
				"originalContent":"Odin","createdAt":"2025-03-14T09:26:53Z","nodeType":"fulltext"}}]}}`))
	})

	matches, err := idx.Query(context.Background(), []float32{0.1, 0.2}, driven.QueryOptions{TopK: 4, ReturnMetadata: true})
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Equal(t, "g1_node_label_n1", matches[0].ID)
	assert.InDelta(t, 0.87, matches[0].Score, 1e-9)
	assert.Equal(t, "g1", matches[0].Metadata.GraphID)
	assert.Equal(t, domain.ChunkNodeLabel, matches[0].Metadata.ContentType)
	assert.Equal(t, "fulltext", matches[0].Metadata.Extra["nodeType"])
}

func TestSimilarityIndex_Query_Errors(t *testing.T) {
	idx := newTestIndex(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := idx.Query(context.Background(), []float32{1}, driven.QueryOptions{TopK: 1})
	assert.ErrorIs(t, err, domain.ErrUpstreamFetch)

	matches, err := idx.Query(context.Background(), []float32{1}, driven.QueryOptions{})
	require.NoError(t, err)
	assert.Nil(t, matches)
}
