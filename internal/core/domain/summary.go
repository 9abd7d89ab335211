package domain

import "time"

// IndexAction controls the single-document index path.
type IndexAction string

// Index actions.
const (
	// IndexActionUpsert skips graphs that already have vectors.
	IndexActionUpsert IndexAction = "upsert"

	// IndexActionForce re-embeds regardless of existing vectors.
	IndexActionForce IndexAction = "force"
)

// IsValid returns true if the action is recognised.
func (a IndexAction) IsValid() bool {
	return a == IndexActionUpsert || a == IndexActionForce
}

// IndexRequest asks for one graph to be indexed.
type IndexRequest struct {
	GraphID string         `json:"graphId"`
	Graph   *GraphDocument `json:"graphData,omitempty"`
	Action  IndexAction    `json:"action,omitempty"`
}

// IndexSummary is the outcome of indexing one graph.
type IndexSummary struct {
	Success           bool     `json:"success"`
	Message           string   `json:"message"`
	GraphID           string   `json:"graphId"`
	ContentChunks     int      `json:"contentChunks"`
	VectorsCreated    int      `json:"vectorsCreated"`
	MetadataStored    int      `json:"metadataStored"`
	AlreadyVectorized bool     `json:"alreadyVectorized,omitempty"`
	ExistingVectors   int      `json:"existingVectors,omitempty"`
	Failures          []string `json:"failures,omitempty"`
}

// StepFailures counts failures per reindex step.
type StepFailures struct {
	Lookup         int `json:"lookup"`
	Fetch          int `json:"fetch"`
	Extraction     int `json:"extraction"`
	Embedding      int `json:"embedding"`
	VectorUpsert   int `json:"vectorUpsert"`
	MetadataInsert int `json:"metadataInsert"`
}

// ReindexSummary is the outcome of a batch reindex.
type ReindexSummary struct {
	Success            bool          `json:"success"`
	Message            string        `json:"message"`
	Processed          int           `json:"processed"`
	Skipped            int           `json:"skipped"`
	Empty              int           `json:"empty"`
	Errors             int           `json:"errors"`
	TotalConsidered    int           `json:"total"`
	SuccessRatePercent int           `json:"successRatePercent"`
	Steps              StepFailures  `json:"steps"`
	Interrupted        bool          `json:"interrupted,omitempty"`
	Duration           time.Duration `json:"durationNs"`
}

// ComputeSuccessRate sets SuccessRatePercent from Processed and TotalConsidered.
func (s *ReindexSummary) ComputeSuccessRate() {
	if s.TotalConsidered == 0 {
		s.SuccessRatePercent = 0
		return
	}
	s.SuccessRatePercent = int(float64(s.Processed)*100/float64(s.TotalConsidered) + 0.5)
}
