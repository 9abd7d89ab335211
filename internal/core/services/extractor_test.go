package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegvisr/graphvec/internal/core/domain"
)

func TestExtractChunks_NorseMythology(t *testing.T) {
	chunks, err := ExtractChunks(norseGraph())
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	summary := chunks[0]
	assert.Equal(t, domain.ChunkGraphSummary, summary.Kind)
	assert.Equal(t, "g1", summary.GraphID)
	assert.Empty(t, summary.NodeID)
	assert.Equal(t, "Norse Mythology Gods of the north #Mythology #Norse", summary.Text)
	assert.Equal(t, "Norse Mythology", summary.Metadata["title"])
	assert.Equal(t, "tor@vegvisr.org", summary.Metadata["createdBy"])
	assert.Equal(t, []string{"Mythology", "Norse"}, summary.Metadata["categories"])

	label := chunks[1]
	assert.Equal(t, domain.ChunkNodeLabel, label.Kind)
	assert.Equal(t, "n1", label.NodeID)
	assert.Equal(t, "Odin", label.Text)
	assert.Equal(t, "fulltext", label.Metadata["nodeType"])
	assert.Equal(t, "#f4e2d8", label.Metadata["nodeColor"])

	content := chunks[2]
	assert.Equal(t, domain.ChunkNodeContent, content.Kind)
	assert.Equal(t, "Odin is the Allfather of the Norse gods", content.Text)
	assert.Equal(t, "Odin", content.Metadata["nodeLabel"])
	assert.Equal(t, "text", content.Metadata["infoType"])

	ids := make([]string, 0, len(chunks))
	for _, c := range chunks {
		ids = append(ids, AllocateVectorID(c.GraphID, c.Kind.String(), c.NodeID))
	}
	assert.Equal(t, []string{"g1_graph_summary_graph", "g1_node_label_n1", "g1_node_content_n1"}, ids)
}

func TestExtractChunks_HiddenNodesContributeNothing(t *testing.T) {
	doc := &domain.GraphDocument{
		ID: "g1",
		Nodes: []domain.Node{
			{ID: "hidden", Label: "Secret", Info: domain.TextInfo("never indexed"), Visible: boolPtr(false)},
			{ID: "shown", Label: "Public", Visible: boolPtr(true)},
		},
	}

	chunks, err := ExtractChunks(doc)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "shown", chunks[0].NodeID)
	for _, c := range chunks {
		assert.NotEqual(t, "hidden", c.NodeID)
	}
}

func TestExtractChunks_DropsBlankText(t *testing.T) {
	doc := &domain.GraphDocument{
		ID:       "g1",
		Metadata: domain.GraphMetadata{CreatedBy: "someone"},
		Nodes: []domain.Node{
			{ID: "n1", Label: "   ", Info: domain.TextInfo("  \n\t ")},
			{ID: "n2"},
		},
	}

	chunks, err := ExtractChunks(doc)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestExtractChunks_LabelAndContentAreIndependent(t *testing.T) {
	doc := &domain.GraphDocument{
		ID:    "g1",
		Nodes: []domain.Node{{ID: "n1", Label: "Same", Info: domain.TextInfo("Same")}},
	}

	chunks, err := ExtractChunks(doc)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, domain.ChunkNodeLabel, chunks[0].Kind)
	assert.Equal(t, domain.ChunkNodeContent, chunks[1].Kind)
}

func TestExtractChunks_StructuredInfoIsCanonical(t *testing.T) {
	var doc domain.GraphDocument
	raw := `{"id":"g1","nodes":[{"id":"n1","info":{"zeta":1,"alpha":{"b":2,"a":[true,1.50]}}}]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	chunks, err := ExtractChunks(&doc)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, `{"alpha":{"a":[true,1.50],"b":2},"zeta":1}`, chunks[0].Text)
	assert.Equal(t, "structured", chunks[0].Metadata["infoType"])
	assert.Equal(t, "", chunks[0].Metadata["nodeLabel"])
}

func TestExtractChunks_PartialSummary(t *testing.T) {
	doc := &domain.GraphDocument{
		ID:       "g1",
		Metadata: domain.GraphMetadata{Category: "#Only"},
	}

	chunks, err := ExtractChunks(doc)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "#Only", chunks[0].Text)
	assert.Equal(t, []string{"Only"}, chunks[0].Metadata["categories"])
}

func TestExtractChunks_Validation(t *testing.T) {
	_, err := ExtractChunks(nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = ExtractChunks(&domain.GraphDocument{ID: "  "})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestExtractChunks_UnserializableStructuredInfo(t *testing.T) {
	doc := &domain.GraphDocument{
		ID: "g1",
		Nodes: []domain.Node{{
			ID:   "n1",
			Info: domain.NodeInfo{Kind: domain.NodeInfoStructured, Raw: json.RawMessage(`{broken`)},
		}},
	}

	_, err := ExtractChunks(doc)
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestSplitCategories(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"#A", []string{"A"}},
		{"#A #B", []string{"A", "B"}},
		{"##A# #", []string{"A"}},
		{"plain", []string{"plain"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, splitCategories(tt.in))
		})
	}
}
