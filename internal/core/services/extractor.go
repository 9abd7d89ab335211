package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vegvisr/graphvec/internal/core/domain"
)

// Node info content types recorded in chunk metadata.
const (
	infoContentText       = "text"
	infoContentStructured = "structured"
)

// ExtractChunks turns a graph document into the chunks submitted for embedding.
//
// The graph yields one graph_summary chunk built from its title, description
// and category. Every visible node yields a node_label chunk when it has a
// label and a node_content chunk when it carries info. Chunks whose text is
// blank are dropped. Output order is summary first, then nodes in document order.
func ExtractChunks(doc *domain.GraphDocument) ([]domain.ContentChunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: graph document is required", domain.ErrValidation)
	}
	if strings.TrimSpace(doc.ID) == "" {
		return nil, fmt.Errorf("%w: graph document has no id", domain.ErrValidation)
	}

	chunks := make([]domain.ContentChunk, 0, 1+2*len(doc.Nodes))

	summary := joinNonEmpty(doc.Metadata.Title, doc.Metadata.Description, doc.Metadata.Category)
	if summary != "" {
		chunks = append(chunks, domain.ContentChunk{
			GraphID: doc.ID,
			Kind:    domain.ChunkGraphSummary,
			Text:    summary,
			Metadata: map[string]any{
				"title":      doc.Metadata.Title,
				"createdBy":  doc.Metadata.CreatedBy,
				"categories": splitCategories(doc.Metadata.Category),
			},
		})
	}

	for _, node := range doc.Nodes {
		if !node.IsVisible() {
			continue
		}

		if strings.TrimSpace(node.Label) != "" {
			chunks = append(chunks, domain.ContentChunk{
				GraphID: doc.ID,
				NodeID:  node.ID,
				Kind:    domain.ChunkNodeLabel,
				Text:    node.Label,
				Metadata: map[string]any{
					"nodeType":  node.Type,
					"nodeColor": node.Color,
				},
			})
		}

		if !node.Info.IsPresent() {
			continue
		}
		text, contentType, err := nodeInfoText(node.Info)
		if err != nil {
			return nil, fmt.Errorf("%w: graph %s node %s: %w", domain.ErrExtraction, doc.ID, node.ID, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		chunks = append(chunks, domain.ContentChunk{
			GraphID: doc.ID,
			NodeID:  node.ID,
			Kind:    domain.ChunkNodeContent,
			Text:    text,
			Metadata: map[string]any{
				"nodeLabel": node.Label,
				"nodeType":  node.Type,
				"infoType":  contentType,
			},
		})
	}

	return chunks, nil
}

// nodeInfoText returns the embeddable text of a node's info.
// Structured values become compact JSON with sorted object keys so the same
// value always produces the same text.
func nodeInfoText(info domain.NodeInfo) (string, string, error) {
	switch info.Kind {
	case domain.NodeInfoText:
		return info.Text, infoContentText, nil
	case domain.NodeInfoStructured:
		canonical, err := canonicalJSON(info.Raw)
		if err != nil {
			return "", "", err
		}
		return canonical, infoContentStructured, nil
	default:
		return "", "", nil
	}
}

func canonicalJSON(raw json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return "", fmt.Errorf("decode structured info: %w", err)
	}

	// encoding/json sorts map keys.
	out, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode structured info: %w", err)
	}
	return string(out), nil
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.TrimSpace(strings.Join(kept, " "))
}

// splitCategories splits "#Mythology #Norse" into ["Mythology", "Norse"].
func splitCategories(category string) []string {
	parts := strings.Split(category, "#")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
