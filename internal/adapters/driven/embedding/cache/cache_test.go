package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder implements driven.EmbeddingService and counts calls.
type countingEmbedder struct {
	model  string
	calls  int
	err    error
	closed bool
}

func (m *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return []float32{float32(len(text)), 0.5, -1}, nil
}

func (m *countingEmbedder) Dimensions() int { return 3 }
func (m *countingEmbedder) ModelName() string { return m.model }
func (m *countingEmbedder) Ping(_ context.Context) error { return nil }
func (m *countingEmbedder) Close() error {
	m.closed = true
	return nil
}

func TestEmbeddingService_CachesByText(t *testing.T) {
	inner := &countingEmbedder{model: "bge"}
	svc, err := New(inner, Config{})
	require.NoError(t, err)
	defer svc.Close()

	ctx := context.Background()
	first, err := svc.Embed(ctx, "Odin")
	require.NoError(t, err)
	second, err := svc.Embed(ctx, "Odin")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)

	_, err = svc.Embed(ctx, "Thor")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, Stats{Hits: 1, Misses: 2}, svc.Stats())
}

func TestEmbeddingService_KeyIncludesModel(t *testing.T) {
	a := &EmbeddingService{inner: &countingEmbedder{model: "bge-small"}}
	b := &EmbeddingService{inner: &countingEmbedder{model: "bge-base"}}

	assert.NotEqual(t, a.key("Odin"), b.key("Odin"))
	assert.Equal(t, a.key("Odin"), a.key("Odin"))
}

func TestEmbeddingService_ErrorsAreNotCached(t *testing.T) {
	inner := &countingEmbedder{model: "bge", err: errors.New("upstream down")}
	svc, err := New(inner, Config{})
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.Embed(context.Background(), "Odin")
	require.Error(t, err)

	inner.err = nil
	vec, err := svc.Embed(context.Background(), "Odin")
	require.NoError(t, err)
	assert.Len(t, vec, 3)
	assert.Equal(t, 2, inner.calls)
}

func TestEmbeddingService_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	inner := &countingEmbedder{model: "bge"}
	svc, err := New(inner, Config{Dir: dir})
	require.NoError(t, err)
	_, err = svc.Embed(ctx, "Yggdrasil")
	require.NoError(t, err)
	require.NoError(t, svc.Close())
	assert.True(t, inner.closed)

	reopenedInner := &countingEmbedder{model: "bge"}
	reopened, err := New(reopenedInner, Config{Dir: dir})
	require.NoError(t, err)
	defer reopened.Close()

	vec, err := reopened.Embed(ctx, "Yggdrasil")
	require.NoError(t, err)
	assert.Equal(t, []float32{9, 0.5, -1}, vec)
	assert.Equal(t, 0, reopenedInner.calls)
}

func TestEmbeddingService_Delegates(t *testing.T) {
	svc, err := New(&countingEmbedder{model: "bge"}, Config{})
	require.NoError(t, err)
	defer svc.Close()

	assert.Equal(t, 3, svc.Dimensions())
	assert.Equal(t, "bge", svc.ModelName())
	assert.NoError(t, svc.Ping(context.Background()))
}

func TestNew_RequiresInner(t *testing.T) {
	_, err := New(nil, Config{})
	assert.Error(t, err)
}

func TestVectorCodec(t *testing.T) {
	vec := []float32{0, 1.5, -2.25, 3e-8}
	decoded, err := decodeVector(encodeVector(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, decoded)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}
