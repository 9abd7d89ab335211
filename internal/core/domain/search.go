package domain

import "time"

// SearchType selects which retrieval paths a search runs.
type SearchType string

// Available search types.
const (
	// SearchTypeVector runs nearest-neighbour search over embeddings only.
	SearchTypeVector SearchType = "vector"

	// SearchTypeKeyword runs substring matching over the corpus listing only.
	SearchTypeKeyword SearchType = "keyword"

	// SearchTypeHybrid runs both and fuses the results.
	SearchTypeHybrid SearchType = "hybrid"
)

// IsValid returns true if the search type is recognised.
func (t SearchType) IsValid() bool {
	switch t {
	case SearchTypeVector, SearchTypeKeyword, SearchTypeHybrid:
		return true
	default:
		return false
	}
}

// UsesVector returns true if the vector path runs for this type.
func (t SearchType) UsesVector() bool {
	return t == SearchTypeVector || t == SearchTypeHybrid
}

// UsesKeyword returns true if the keyword path runs for this type.
func (t SearchType) UsesKeyword() bool {
	return t == SearchTypeKeyword || t == SearchTypeHybrid
}

// String returns the string representation.
func (t SearchType) String() string {
	return string(t)
}

// MatchType records which path produced a search result.
type MatchType string

// Match types.
const (
	MatchVector  MatchType = "vector"
	MatchKeyword MatchType = "keyword"
	MatchHybrid  MatchType = "hybrid"
)

// Search limits.
const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 100

	// DefaultKeywordScore is the fixed relevance of keyword hits.
	// Substring matching carries no ranking signal of its own.
	DefaultKeywordScore = 0.8
)

// SearchRequest is a query against the index.
type SearchRequest struct {
	Query      string     `json:"query"`
	SearchType SearchType `json:"searchType,omitempty"`
	Limit      int        `json:"limit,omitempty"`
}

// MatchedContent is one piece of evidence for a search result.
type MatchedContent struct {
	NodeID      string  `json:"nodeId,omitempty"`
	ContentType string  `json:"contentType"`
	Snippet     string  `json:"snippet"`
	Score       float64 `json:"score"`
}

// SearchResult is one ranked graph.
type SearchResult struct {
	GraphID        string           `json:"graphId"`
	RelevanceScore float64          `json:"relevanceScore"`
	MatchType      MatchType        `json:"matchType"`
	MatchedContent []MatchedContent `json:"matchedContent"`
}

// SearchResponse is the outcome of a search.
type SearchResponse struct {
	Query          string         `json:"query"`
	SearchType     SearchType     `json:"searchType"`
	Results        []SearchResult `json:"results"`
	TotalResults   int            `json:"totalResults"`
	ResponseTimeMs int64          `json:"responseTime"`
	Message        string         `json:"message,omitempty"`
	Suggestions    []string       `json:"suggestions"`
}

// NoResultSuggestions are returned when a search matches nothing.
func NoResultSuggestions() []string {
	return []string{"Try different keywords", "Use more general terms", "Check spelling"}
}

// EmptyIndexSuggestions are returned when vector search runs before any reindex.
func EmptyIndexSuggestions() []string {
	return []string{"Run POST /reindex-all to vectorize your content", "Use keyword search for now"}
}

// SearchAnalytics is a best-effort record of one executed search.
type SearchAnalytics struct {
	ID             string
	Query          string
	SearchType     SearchType
	ResultsCount   int
	ResponseTimeMs int64
	Metadata       map[string]any
	CreatedAt      time.Time
}
