package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegvisr/graphvec/internal/core/domain"
	"github.com/vegvisr/graphvec/internal/core/ports/driven"
)

func record(id, graphID string, values ...float32) domain.VectorRecord {
	return domain.VectorRecord{
		ID:     id,
		Values: values,
		Metadata: domain.VectorMetadata{
			GraphID:     graphID,
			ContentType: domain.ChunkNodeContent,
			Snippet:     id,
		},
	}
}

func TestSimilarityIndex_QueryOrdersByCosine(t *testing.T) {
	idx := NewSimilarityIndex(2)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []domain.VectorRecord{
		record("same", "g1", 1, 0),
		record("orthogonal", "g2", 0, 1),
		record("diagonal", "g3", 1, 1),
	}))

	matches, err := idx.Query(ctx, []float32{1, 0}, driven.QueryOptions{TopK: 2, ReturnMetadata: true})
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "same", matches[0].ID)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
	assert.Equal(t, "g1", matches[0].Metadata.GraphID)
	assert.Equal(t, "diagonal", matches[1].ID)
	assert.InDelta(t, 0.7071, matches[1].Score, 1e-3)
}

func TestSimilarityIndex_QueryWithoutMetadata(t *testing.T) {
	idx := NewSimilarityIndex(0)
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx, []domain.VectorRecord{record("a", "g1", 1, 0)}))

	matches, err := idx.Query(ctx, []float32{1, 0}, driven.QueryOptions{TopK: 1})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Empty(t, matches[0].Metadata.GraphID)
}

func TestSimilarityIndex_UpsertReplaces(t *testing.T) {
	idx := NewSimilarityIndex(2)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []domain.VectorRecord{record("a", "g1", 1, 0)}))
	require.NoError(t, idx.Upsert(ctx, []domain.VectorRecord{record("a", "g1", 0, 1)}))

	assert.Equal(t, 1, idx.Len())
	matches, err := idx.Query(ctx, []float32{0, 1}, driven.QueryOptions{TopK: 1})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
}

func TestSimilarityIndex_DimensionMismatch(t *testing.T) {
	idx := NewSimilarityIndex(3)
	ctx := context.Background()

	err := idx.Upsert(ctx, []domain.VectorRecord{record("a", "g1", 1, 0)})
	assert.Error(t, err)
	assert.Equal(t, 0, idx.Len())

	_, err = idx.Query(ctx, []float32{1, 0}, driven.QueryOptions{TopK: 1})
	assert.Error(t, err)
}

func TestSimilarityIndex_ZeroTopK(t *testing.T) {
	idx := NewSimilarityIndex(0)
	matches, err := idx.Query(context.Background(), []float32{1}, driven.QueryOptions{})
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.NoError(t, idx.Close())
}
