package services

import (
	"crypto/sha256"
	"encoding/hex"
	"unicode/utf8"

	"github.com/vegvisr/graphvec/internal/core/domain"
)

// Vector ID layout limits.
const (
	maxGraphIDPart     = 20
	maxContentTypePart = 15
	idSeparators       = 2

	// Overflowing node IDs keep a short prefix and a hash suffix.
	nodePrefixLen = 8
	nodeHashLen   = 8

	// graphNodeSentinel stands in for the node of graph-level chunks.
	graphNodeSentinel = "graph"
)

// AllocateVectorID returns the storage key for a chunk's vector.
//
// The ID is graphPart_typePart_nodePart and never exceeds
// domain.MaxVectorIDBytes. It is a pure function of its inputs, so
// re-indexing the same chunk overwrites the same record. Node IDs too long for
// the remaining budget are replaced by a short prefix plus the first 8 hex
// characters of their SHA-256, which keeps IDs with long shared prefixes distinct.
func AllocateVectorID(graphID, contentType, nodeID string) string {
	if nodeID == "" {
		nodeID = graphNodeSentinel
	}

	graphPart := truncateBytes(graphID, maxGraphIDPart)
	typePart := truncateBytes(contentType, maxContentTypePart)

	budget := domain.MaxVectorIDBytes - len(graphPart) - len(typePart) - idSeparators

	nodePart := nodeID
	if len(nodeID) > budget {
		sum := sha256.Sum256([]byte(nodeID))
		prefix := truncateBytes(nodeID, max(0, min(nodePrefixLen, budget-nodeHashLen)))
		nodePart = prefix + hex.EncodeToString(sum[:])[:nodeHashLen]
	}

	return graphPart + "_" + typePart + "_" + nodePart
}

// truncateBytes returns the longest prefix of s that is at most n bytes and
// ends on a rune boundary.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// truncateRunes returns at most n characters of s.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
