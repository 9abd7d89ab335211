package services

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/vegvisr/graphvec/internal/core/domain"
)

func TestAllocateVectorID_ShortInputs(t *testing.T) {
	assert.Equal(t, "g1_graph_summary_graph", AllocateVectorID("g1", "graph_summary", ""))
	assert.Equal(t, "g1_node_label_n1", AllocateVectorID("g1", "node_label", "n1"))
	assert.Equal(t, "g1_node_content_n1", AllocateVectorID("g1", "node_content", "n1"))
}

func TestAllocateVectorID_TruncatesPrefixes(t *testing.T) {
	graphID := strings.Repeat("g", 40)
	id := AllocateVectorID(graphID, "a_very_long_content_type", "n1")

	assert.Equal(t, strings.Repeat("g", 20)+"_a_very_long_con_n1", id)
}

func TestAllocateVectorID_HashesLongNodeIDs(t *testing.T) {
	graphID := "c9b3f8f2-36c4-4a9b-8b1e-0d7a8b2f4e11"
	nodeID := "node-" + strings.Repeat("x", 60)

	id := AllocateVectorID(graphID, "node_content", nodeID)

	sum := sha256.Sum256([]byte(nodeID))
	want := graphID[:20] + "_node_content_" + nodeID[:8] + hex.EncodeToString(sum[:])[:8]
	assert.Equal(t, want, id)
	assert.LessOrEqual(t, len(id), domain.MaxVectorIDBytes)
}

func TestAllocateVectorID_NodeIDExactlyFillsBudget(t *testing.T) {
	graphID := strings.Repeat("g", 20)
	// 63 - 20 - 12 - 2 = 29 bytes of budget for node_content.
	nodeID := strings.Repeat("n", 29)

	id := AllocateVectorID(graphID, "node_content", nodeID)

	assert.Equal(t, graphID+"_node_content_"+nodeID, id)
	assert.Len(t, id, domain.MaxVectorIDBytes)

	longer := AllocateVectorID(graphID, "node_content", nodeID+"n")
	assert.NotContains(t, longer, nodeID)
	assert.LessOrEqual(t, len(longer), domain.MaxVectorIDBytes)
}

func TestAllocateVectorID_BoundedAndDeterministic(t *testing.T) {
	kinds := []string{"graph_summary", "node_label", "node_content", strings.Repeat("k", 30)}
	for gl := 0; gl <= 50; gl += 5 {
		for nl := 0; nl <= 120; nl += 7 {
			for _, kind := range kinds {
				graphID := strings.Repeat("g", gl)
				nodeID := strings.Repeat("n", nl)

				id := AllocateVectorID(graphID, kind, nodeID)

				assert.LessOrEqual(t, len(id), domain.MaxVectorIDBytes, "graph=%d node=%d kind=%s", gl, nl, kind)
				assert.Equal(t, id, AllocateVectorID(graphID, kind, nodeID))
			}
		}
	}
}

func TestAllocateVectorID_SharedPrefixesStayDistinct(t *testing.T) {
	prefix := "section-introduction-paragraph-" + strings.Repeat("p", 40)
	seen := make(map[string]string)

	for _, suffix := range []string{"a", "b", "c", "aa", "ab", "-1", "-2"} {
		nodeID := prefix + suffix
		id := AllocateVectorID("graph-1", "node_content", nodeID)
		if other, ok := seen[id]; ok {
			t.Fatalf("collision between %q and %q: %s", other, nodeID, id)
		}
		seen[id] = nodeID
	}
	assert.Len(t, seen, 7)
}

func TestAllocateVectorID_MultiByteStaysValidUTF8(t *testing.T) {
	graphID := strings.Repeat("ø", 15) // 30 bytes
	nodeID := strings.Repeat("å", 40)  // 80 bytes

	id := AllocateVectorID(graphID, "node_label", nodeID)

	assert.True(t, utf8.ValidString(id))
	assert.LessOrEqual(t, len(id), domain.MaxVectorIDBytes)
	assert.True(t, strings.HasPrefix(id, strings.Repeat("ø", 10)+"_node_label_"))
}

func TestTruncateBytes(t *testing.T) {
	assert.Equal(t, "abc", truncateBytes("abc", 5))
	assert.Equal(t, "ab", truncateBytes("abc", 2))
	assert.Equal(t, "", truncateBytes("abc", 0))
	// "é" is two bytes; a cut through it backs off to the rune start.
	assert.Equal(t, "a", truncateBytes("aé", 2))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "hello", truncateRunes("hello", 10))
	assert.Equal(t, "hel", truncateRunes("hello", 3))
	assert.Equal(t, "æøå", truncateRunes("æøåæøå", 3))
	assert.Equal(t, "", truncateRunes("abc", 0))
}
