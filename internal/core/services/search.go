package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vegvisr/graphvec/internal/core/domain"
	"github.com/vegvisr/graphvec/internal/core/ports/driven"
	"github.com/vegvisr/graphvec/internal/core/ports/driving"
	"github.com/vegvisr/graphvec/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// Messages returned alongside search results.
const (
	msgEmptyIndex       = "No vectors found - run reindexing first to enable vector search"
	msgVectorDegraded   = "Vector search unavailable - showing keyword results only"
	msgKeywordDegraded  = "Keyword search unavailable - showing vector results only"
	defaultQueryTimeout = 10 * time.Second
)

// Matched content types reported by the keyword path.
const (
	matchTitle       = "title"
	matchDescription = "description"
)

// SearchConfig holds tunables for the search service.
type SearchConfig struct {
	DefaultLimit int
	KeywordScore float64

	// QueryTimeout bounds each call to the embedding service and the index.
	QueryTimeout time.Duration
}

// graphHits collects the evidence for one graph from one or both paths.
type graphHits struct {
	graphID      string
	vectorScore  float64
	keywordScore float64
	fromVector   bool
	fromKeyword  bool
	content      []domain.MatchedContent
}

func (h *graphHits) score() float64 {
	return max(h.vectorScore, h.keywordScore)
}

func (h *graphHits) matchType() domain.MatchType {
	switch {
	case h.fromVector && h.fromKeyword:
		return domain.MatchHybrid
	case h.fromVector:
		return domain.MatchVector
	default:
		return domain.MatchKeyword
	}
}

// vectorOutcome is the result of the vector path.
type vectorOutcome struct {
	hits       map[string]*graphHits
	order      []string
	emptyIndex bool
}

// SearchService provides vector, keyword and hybrid search over graphs.
type SearchService struct {
	embedder  driven.EmbeddingService
	index     driven.SimilarityIndex
	store     driven.EmbeddingStore
	source    driven.GraphSource
	analytics driven.AnalyticsStore
	cfg       SearchConfig
	now       func() time.Time
}

// NewSearchService creates a new search service.
// The embedder, index and source are optional (can be nil); a search type
// that needs a missing one fails, and hybrid search degrades to the other path.
func NewSearchService(
	embedder driven.EmbeddingService,
	index driven.SimilarityIndex,
	store driven.EmbeddingStore,
	source driven.GraphSource,
	cfg SearchConfig,
) *SearchService {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = domain.DefaultSearchLimit
	}
	if cfg.KeywordScore <= 0 {
		cfg.KeywordScore = domain.DefaultKeywordScore
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = defaultQueryTimeout
	}
	return &SearchService{
		embedder: embedder,
		index:    index,
		store:    store,
		source:   source,
		cfg:      cfg,
		now:      time.Now,
	}
}

// SetAnalyticsStore sets the store searches are recorded in.
func (s *SearchService) SetAnalyticsStore(store driven.AnalyticsStore) {
	s.analytics = store
}

// SetClock replaces the clock used for response timing.
func (s *SearchService) SetClock(now func() time.Time) {
	s.now = now
}

// Search runs a vector, keyword or hybrid search.
func (s *SearchService) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	start := s.now()
	logger.Section("Search Execution")

	query, searchType, limit, err := s.normalise(req)
	if err != nil {
		return nil, err
	}
	logger.Debug("Query: %q, type: %s, limit: %d", query, searchType, limit)

	var (
		merged   = make(map[string]*graphHits)
		order    []string
		message  string
		vecErr   error
		kwErr    error
		vecCount int
		kwCount  int
	)

	add := func(h *graphHits) {
		existing, ok := merged[h.graphID]
		if !ok {
			merged[h.graphID] = h
			order = append(order, h.graphID)
			return
		}
		existing.fromVector = existing.fromVector || h.fromVector
		existing.fromKeyword = existing.fromKeyword || h.fromKeyword
		existing.vectorScore = max(existing.vectorScore, h.vectorScore)
		existing.keywordScore = max(existing.keywordScore, h.keywordScore)
		existing.content = append(existing.content, h.content...)
	}

	emptyIndex := false
	if searchType.UsesVector() {
		var out vectorOutcome
		out, vecErr = s.vectorSearch(ctx, query, limit)
		if vecErr != nil {
			if isFatalSearchError(vecErr) || searchType == domain.SearchTypeVector {
				logger.Warn("Vector search failed: %v", vecErr)
				return nil, fmt.Errorf("vector search: %w", vecErr)
			}
			logger.Warn("Vector search failed, continuing with keyword search: %v", vecErr)
		} else {
			emptyIndex = out.emptyIndex
			for _, id := range out.order {
				add(out.hits[id])
			}
			vecCount = len(out.order)
		}
	}

	if searchType.UsesKeyword() {
		var hits []*graphHits
		hits, kwErr = s.keywordSearch(ctx, query, limit)
		if kwErr != nil {
			if searchType == domain.SearchTypeKeyword || vecErr != nil {
				logger.Warn("Keyword search failed: %v", kwErr)
				if vecErr != nil {
					return nil, fmt.Errorf("hybrid search: %w", errors.Join(vecErr, kwErr))
				}
				return nil, fmt.Errorf("keyword search: %w", kwErr)
			}
			logger.Warn("Keyword search failed, continuing with vector results: %v", kwErr)
		} else {
			for _, h := range hits {
				add(h)
			}
			kwCount = len(hits)
		}
	}
	logger.Debug("Path results: vector=%d graphs, keyword=%d graphs", vecCount, kwCount)

	results := rankResults(merged, order, limit)

	switch {
	case emptyIndex:
		message = msgEmptyIndex
	case vecErr != nil:
		message = msgVectorDegraded
	case kwErr != nil:
		message = msgKeywordDegraded
	}

	suggestions := []string{}
	switch {
	case emptyIndex:
		suggestions = domain.EmptyIndexSuggestions()
	case len(results) == 0:
		suggestions = domain.NoResultSuggestions()
	}

	elapsed := s.now().Sub(start).Milliseconds()
	resp := &domain.SearchResponse{
		Query:          query,
		SearchType:     searchType,
		Results:        results,
		TotalResults:   len(results),
		ResponseTimeMs: elapsed,
		Message:        message,
		Suggestions:    suggestions,
	}

	logger.Info("Search %q (%s): %d results in %dms", query, searchType, len(results), elapsed)

	s.recordAnalytics(ctx, resp, limit, vecErr != nil || kwErr != nil)
	return resp, nil
}

func (s *SearchService) normalise(req domain.SearchRequest) (string, domain.SearchType, int, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return "", "", 0, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}

	searchType := req.SearchType
	if searchType == "" {
		searchType = domain.SearchTypeHybrid
	}
	if !searchType.IsValid() {
		return "", "", 0, fmt.Errorf("%w: unknown search type %q", domain.ErrValidation, searchType)
	}

	limit := req.Limit
	switch {
	case limit < 0:
		return "", "", 0, fmt.Errorf("%w: limit must not be negative", domain.ErrValidation)
	case limit == 0:
		limit = s.cfg.DefaultLimit
	}
	limit = min(max(limit, 1), domain.MaxSearchLimit)

	return query, searchType, limit, nil
}

// vectorSearch embeds the query and groups index matches by graph.
func (s *SearchService) vectorSearch(ctx context.Context, query string, limit int) (vectorOutcome, error) {
	out := vectorOutcome{hits: make(map[string]*graphHits)}

	if s.embedder == nil {
		return out, fmt.Errorf("%w: %w", domain.ErrUpstreamFetch, domain.ErrEmbeddingUnavailable)
	}
	if s.index == nil {
		return out, fmt.Errorf("%w: %w", domain.ErrUpstreamFetch, domain.ErrVectorIndexUnavailable)
	}

	// The query vector is checked before the empty-index short-circuit.
	embedCtx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	vector, err := s.embedder.Embed(embedCtx, query)
	cancel()
	if err != nil {
		return out, fmt.Errorf("%w: embed query: %w", domain.ErrUpstreamFetch, err)
	}
	if err := validateVector(vector); err != nil {
		return out, err
	}
	logger.Debug("Query vector generated: %d dimensions", len(vector))

	count, err := s.store.Count(ctx)
	if err != nil {
		return out, fmt.Errorf("count vectors: %w", err)
	}
	if count == 0 {
		logger.Info("No vectors found in database - need to run reindexing first")
		out.emptyIndex = true
		return out, nil
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	matches, err := s.index.Query(queryCtx, vector, driven.QueryOptions{
		TopK:           limit * 2,
		ReturnMetadata: true,
	})
	cancel()
	if err != nil {
		return out, fmt.Errorf("%w: query index: %w", domain.ErrUpstreamFetch, err)
	}
	logger.Debug("Index query returned %d matches", len(matches))

	for _, m := range matches {
		graphID := m.Metadata.GraphID
		if graphID == "" {
			logger.Debug("Skipping match %s without graph id", m.ID)
			continue
		}
		h, ok := out.hits[graphID]
		if !ok {
			h = &graphHits{graphID: graphID, fromVector: true}
			out.hits[graphID] = h
			out.order = append(out.order, graphID)
		}
		h.vectorScore = max(h.vectorScore, m.Score)
		h.content = append(h.content, domain.MatchedContent{
			NodeID:      m.Metadata.NodeID,
			ContentType: m.Metadata.ContentType.String(),
			Snippet:     m.Metadata.Snippet,
			Score:       m.Score,
		})
	}

	return out, nil
}

// keywordSearch matches the query as a case-insensitive substring against
// the corpus listing.
func (s *SearchService) keywordSearch(ctx context.Context, query string, limit int) ([]*graphHits, error) {
	if s.source == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamFetch, domain.ErrContentSourceUnavailable)
	}

	graphs, err := s.source.ListGraphs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list graphs: %w", domain.ErrUpstreamFetch, err)
	}

	needle := strings.ToLower(query)
	score := s.cfg.KeywordScore

	var hits []*graphHits
	for _, g := range graphs {
		if len(hits) >= limit {
			break
		}
		content := keywordMatches(g, needle, score)
		if len(content) == 0 {
			continue
		}
		hits = append(hits, &graphHits{
			graphID:      g.ID,
			keywordScore: score,
			fromKeyword:  true,
			content:      content,
		})
	}
	return hits, nil
}

func keywordMatches(g domain.GraphSummary, needle string, score float64) []domain.MatchedContent {
	var out []domain.MatchedContent
	match := func(nodeID, contentType, text string) {
		if text != "" && strings.Contains(strings.ToLower(text), needle) {
			out = append(out, domain.MatchedContent{
				NodeID:      nodeID,
				ContentType: contentType,
				Snippet:     truncateRunes(text, domain.MaxSnippetChars),
				Score:       score,
			})
		}
	}

	title := g.Metadata.Title
	if title == "" {
		title = g.Title
	}
	match("", matchTitle, title)
	match("", matchDescription, g.Metadata.Description)

	for _, n := range g.Nodes {
		match(n.ID, domain.ChunkNodeLabel.String(), n.Label)
		if n.Info.Kind == domain.NodeInfoText {
			match(n.ID, domain.ChunkNodeContent.String(), n.Info.Text)
		}
	}
	return out
}

// rankResults orders graphs by relevance (ties by graph ID) and truncates to limit.
func rankResults(hits map[string]*graphHits, order []string, limit int) []domain.SearchResult {
	results := make([]domain.SearchResult, 0, len(order))
	for _, id := range order {
		h := hits[id]
		content := h.content
		sort.SliceStable(content, func(i, j int) bool {
			return content[i].Score > content[j].Score
		})
		results = append(results, domain.SearchResult{
			GraphID:        h.graphID,
			RelevanceScore: h.score(),
			MatchType:      h.matchType(),
			MatchedContent: content,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].RelevanceScore != results[j].RelevanceScore {
			return results[i].RelevanceScore > results[j].RelevanceScore
		}
		return results[i].GraphID < results[j].GraphID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// recordAnalytics saves the search. Failures are logged and never surface.
func (s *SearchService) recordAnalytics(ctx context.Context, resp *domain.SearchResponse, limit int, degraded bool) {
	if s.analytics == nil {
		return
	}
	record := domain.SearchAnalytics{
		ID:             uuid.NewString(),
		Query:          resp.Query,
		SearchType:     resp.SearchType,
		ResultsCount:   resp.TotalResults,
		ResponseTimeMs: resp.ResponseTimeMs,
		Metadata: map[string]any{
			"limit":    limit,
			"degraded": degraded,
		},
		CreatedAt: s.now().UTC(),
	}
	if err := s.analytics.RecordSearch(ctx, record); err != nil {
		logger.Error("Analytics logging failed: %v", err)
	}
}

// isFatalSearchError reports errors that hybrid search must not degrade away.
func isFatalSearchError(err error) bool {
	return errors.Is(err, domain.ErrInvalidVector) || errors.Is(err, domain.ErrValidation)
}
