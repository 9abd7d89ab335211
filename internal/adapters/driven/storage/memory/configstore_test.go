package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	_, ok := store.Get("embedding.provider")
	assert.False(t, ok)

	require.NoError(t, store.Set("embedding.provider", "ollama"))
	require.NoError(t, store.Set("reindex.burst", 3))

	val, ok := store.Get("embedding.provider")
	assert.True(t, ok)
	assert.Equal(t, "ollama", val)

	val, _ = store.Get("reindex.burst")
	assert.Equal(t, 3, val)
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Seed(t *testing.T) {
	seed := map[string]any{"content.provider": "filesystem"}
	store := NewConfigStore(seed)

	require.NoError(t, store.Set("content.provider", "http"))

	val, _ := store.Get("content.provider")
	assert.Equal(t, "http", val)
	assert.Equal(t, "filesystem", seed["content.provider"], "seed map is copied")
}
