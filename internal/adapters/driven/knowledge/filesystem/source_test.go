package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegvisr/graphvec/internal/core/domain"
)

const norseGraph = `{
	"id": "g1",
	"metadata": {"title": "Norse Mythology", "category": "#Mythology"},
	"nodes": [{"id": "n1", "label": "Odin", "info": "Odin is the Allfather"}]
}`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestSource_ListGraphs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "norse.json"), norseGraph)
	writeFile(t, filepath.Join(dir, "nested", "greek.json"), `{"metadata": {"title": "Greek"}}`)
	writeFile(t, filepath.Join(dir, "broken.json"), `{"nodes": [`)
	writeFile(t, filepath.Join(dir, "notes.txt"), "not a graph")
	writeFile(t, filepath.Join(dir, ".hidden", "secret.json"), `{"id": "secret"}`)

	graphs, err := New(dir).ListGraphs(context.Background())
	require.NoError(t, err)
	require.Len(t, graphs, 2)

	assert.Equal(t, "g1", graphs[0].ID)
	assert.Equal(t, "Norse Mythology", graphs[0].Title)
	assert.Equal(t, "#Mythology", graphs[0].Metadata.Category)
	require.Len(t, graphs[0].Nodes, 1)
	assert.NotEmpty(t, graphs[0].CreatedAt)

	assert.Equal(t, "greek", graphs[1].ID, "ID falls back to the file name")
	assert.Equal(t, "Greek", graphs[1].DisplayTitle())
}

func TestSource_ListGraphs_EmptyDir(t *testing.T) {
	graphs, err := New(t.TempDir()).ListGraphs(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, graphs)
	assert.Empty(t, graphs)
}

func TestSource_ListGraphs_MissingDir(t *testing.T) {
	_, err := New("/non/existent/path").ListGraphs(context.Background())
	assert.ErrorIs(t, err, domain.ErrUpstreamFetch)
}

func TestSource_GetGraph(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "g1.json"), norseGraph)
	writeFile(t, filepath.Join(dir, "mythology", "renamed.json"), `{"id": "g2", "nodes": []}`)
	src := New(dir)
	ctx := context.Background()

	t.Run("by file name", func(t *testing.T) {
		doc, err := src.GetGraph(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, "Norse Mythology", doc.Metadata.Title)
		require.Len(t, doc.Nodes, 1)
		assert.Equal(t, domain.NodeInfoText, doc.Nodes[0].Info.Kind)
	})

	t.Run("by id field", func(t *testing.T) {
		doc, err := src.GetGraph(ctx, "g2")
		require.NoError(t, err)
		assert.Equal(t, "g2", doc.ID)
	})

	t.Run("file name does not override id field", func(t *testing.T) {
		_, err := src.GetGraph(ctx, "renamed")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := src.GetGraph(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("path traversal is not followed", func(t *testing.T) {
		_, err := src.GetGraph(ctx, "../g1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("empty id", func(t *testing.T) {
		_, err := src.GetGraph(ctx, " ")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestSource_GetGraph_Corrupt(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "g1.json"), `{"nodes": [`)

	_, err := New(dir).GetGraph(context.Background(), "g1")
	assert.ErrorIs(t, err, domain.ErrUpstreamFetch)
}

func waitForChange(t *testing.T, changes <-chan domain.GraphChange) domain.GraphChange {
	t.Helper()
	select {
	case change, ok := <-changes:
		require.True(t, ok, "channel closed")
		return change
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for graph change")
		return domain.GraphChange{}
	}
}

func TestSource_Watch(t *testing.T) {
	t.Run("reports created graphs", func(t *testing.T) {
		dir := t.TempDir()
		src := New(dir)
		defer src.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes, err := src.Watch(ctx)
		require.NoError(t, err)

		writeFile(t, filepath.Join(dir, "norse.json"), norseGraph)

		change := waitForChange(t, changes)
		assert.Equal(t, domain.GraphCreated, change.Type)
		assert.Contains(t, change.Path, "norse.json")
	})

	t.Run("reports modified graphs with their id", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "g1.json")
		writeFile(t, path, norseGraph)
		src := New(dir)
		defer src.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes, err := src.Watch(ctx)
		require.NoError(t, err)

		writeFile(t, path, norseGraph)

		change := waitForChange(t, changes)
		assert.Equal(t, domain.GraphUpdated, change.Type)
		assert.Equal(t, "g1", change.GraphID)
	})

	t.Run("reports deleted graphs", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "g1.json")
		writeFile(t, path, norseGraph)
		src := New(dir)
		defer src.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes, err := src.Watch(ctx)
		require.NoError(t, err)

		require.NoError(t, os.Remove(path))

		change := waitForChange(t, changes)
		assert.Equal(t, domain.GraphDeleted, change.Type)
		assert.Equal(t, "g1", change.GraphID)
	})

	t.Run("ignores non-graph files", func(t *testing.T) {
		dir := t.TempDir()
		src := New(dir)
		defer src.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes, err := src.Watch(ctx)
		require.NoError(t, err)

		writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
		writeFile(t, filepath.Join(dir, "g1.json"), norseGraph)

		change := waitForChange(t, changes)
		assert.Contains(t, change.Path, "g1.json")
	})

	t.Run("closes channel when context is cancelled", func(t *testing.T) {
		src := New(t.TempDir())
		defer src.Close()

		ctx, cancel := context.WithCancel(context.Background())
		changes, err := src.Watch(ctx)
		require.NoError(t, err)

		cancel()

		select {
		case _, ok := <-changes:
			if ok {
				for range changes {
				}
			}
		case <-time.After(time.Second):
			t.Fatal("channel did not close after context cancellation")
		}
	})

	t.Run("returns error for non-existent directory", func(t *testing.T) {
		changes, err := New("/non/existent/path").Watch(context.Background())
		assert.Error(t, err)
		assert.Nil(t, changes)
		assert.Contains(t, err.Error(), "root path error")
	})

	t.Run("returns error when closed", func(t *testing.T) {
		src := New(t.TempDir())
		require.NoError(t, src.Close())

		changes, err := src.Watch(context.Background())
		assert.Error(t, err)
		assert.Nil(t, changes)
		assert.Contains(t, err.Error(), "closed")
	})
}
