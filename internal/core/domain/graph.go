package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// GraphDocument is a knowledge graph as served by the content API.
// It is read-only input to the indexing pipeline.
type GraphDocument struct {
	// ID uniquely identifies the graph.
	ID string `json:"id"`

	// Metadata holds the graph-level descriptive fields.
	Metadata GraphMetadata `json:"metadata"`

	// Nodes are the graph's nodes in document order.
	Nodes []Node `json:"nodes"`
}

// GraphMetadata holds the descriptive fields of a graph.
type GraphMetadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	// Category is a '#'-separated list of categories, e.g. "#Mythology #Norse".
	Category  string `json:"category,omitempty"`
	CreatedBy string `json:"createdBy,omitempty"`
}

// Node is a single node of a knowledge graph.
type Node struct {
	ID    string   `json:"id"`
	Label string   `json:"label,omitempty"`
	Info  NodeInfo `json:"info"`
	Type  string   `json:"type,omitempty"`
	Color string   `json:"color,omitempty"`

	// Visible is nil when the source omits the field. Only an explicit
	// false hides the node.
	Visible *bool `json:"visible,omitempty"`
}

// IsVisible reports whether the node takes part in indexing.
func (n Node) IsVisible() bool {
	return n.Visible == nil || *n.Visible
}

// NodeInfoKind discriminates the NodeInfo union.
type NodeInfoKind string

// NodeInfo kinds.
const (
	// NodeInfoNone means the node carries no info.
	NodeInfoNone NodeInfoKind = ""

	// NodeInfoText is a plain string.
	NodeInfoText NodeInfoKind = "text"

	// NodeInfoStructured is any non-string JSON value (object, array, number, bool).
	NodeInfoStructured NodeInfoKind = "structured"
)

// NodeInfo is the node's rich content. Upstream it is either a string or an
// arbitrary JSON value; the distinction is resolved once while decoding.
type NodeInfo struct {
	Kind NodeInfoKind

	// Text is set when Kind is NodeInfoText.
	Text string

	// Raw is the original JSON when Kind is NodeInfoStructured.
	Raw json.RawMessage
}

// TextInfo returns a text NodeInfo.
func TextInfo(s string) NodeInfo {
	if s == "" {
		return NodeInfo{}
	}
	return NodeInfo{Kind: NodeInfoText, Text: s}
}

// StructuredInfo returns a structured NodeInfo for v.
func StructuredInfo(v any) (NodeInfo, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return NodeInfo{}, fmt.Errorf("marshal structured info: %w", err)
	}
	var info NodeInfo
	if err := info.UnmarshalJSON(raw); err != nil {
		return NodeInfo{}, err
	}
	return info, nil
}

// IsPresent reports whether the node carries info worth indexing.
func (i NodeInfo) IsPresent() bool {
	return i.Kind != NodeInfoNone
}

// UnmarshalJSON implements json.Unmarshaler.
// Empty strings, false and null decode to an absent NodeInfo, mirroring the
// upstream truthiness check.
func (i *NodeInfo) UnmarshalJSON(data []byte) error {
	*i = NodeInfo{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("false")) {
		return nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("decode node info: %w", err)
		}
		*i = TextInfo(s)
		return nil
	}

	if !json.Valid(trimmed) {
		return fmt.Errorf("decode node info: invalid JSON")
	}
	i.Kind = NodeInfoStructured
	i.Raw = append(json.RawMessage(nil), trimmed...)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (i NodeInfo) MarshalJSON() ([]byte, error) {
	switch i.Kind {
	case NodeInfoText:
		return json.Marshal(i.Text)
	case NodeInfoStructured:
		if len(i.Raw) == 0 {
			return []byte("null"), nil
		}
		return i.Raw, nil
	default:
		return []byte("null"), nil
	}
}

// GraphSummary is one entry of the corpus listing. Listings may or may not
// embed nodes; keyword search uses whatever is present.
type GraphSummary struct {
	ID        string        `json:"id"`
	Title     string        `json:"title,omitempty"`
	CreatedAt string        `json:"createdAt,omitempty"`
	Metadata  GraphMetadata `json:"metadata"`
	Nodes     []Node        `json:"nodes,omitempty"`
}

// DisplayTitle returns the best available title for the summary.
func (s GraphSummary) DisplayTitle() string {
	if s.Metadata.Title != "" {
		return s.Metadata.Title
	}
	if s.Title != "" {
		return s.Title
	}
	return "No title"
}

// GraphChangeType describes what happened to a graph file.
type GraphChangeType string

// Graph change types.
const (
	GraphCreated GraphChangeType = "created"
	GraphUpdated GraphChangeType = "updated"
	GraphDeleted GraphChangeType = "deleted"
)

// GraphChange is one observed change to a locally stored graph.
type GraphChange struct {
	Type    GraphChangeType
	GraphID string

	// Path is the file that changed.
	Path string
}
