package domain

// GraphVectorStatus is the vectorization state of one graph.
type GraphVectorStatus struct {
	IsVectorized bool `json:"isVectorized"`
	VectorCount  int  `json:"vectorCount"`
}

// VectorizationStatus reports the state of a set of graphs.
type VectorizationStatus struct {
	StatusMap       map[string]GraphVectorStatus `json:"statusMap"`
	TotalGraphs     int                          `json:"totalGraphs"`
	VectorizedCount int                          `json:"vectorizedCount"`
}

// ContentSample describes one node seen while analysing the corpus.
type ContentSample struct {
	GraphID        string `json:"graphId"`
	NodeID         string `json:"nodeId"`
	NodeLabel      string `json:"nodeLabel,omitempty"`
	ContentPreview string `json:"contentPreview"`
	ContentType    string `json:"contentType"`
}

// ContentAnalysis estimates the indexing workload of the corpus.
type ContentAnalysis struct {
	TotalGraphs           int             `json:"totalGraphs"`
	SampleSize            int             `json:"sampleSize"`
	SampledNodes          int             `json:"totalNodes"`
	ContentTypes          map[string]int  `json:"contentTypes"`
	EstimatedVectors      int             `json:"estimatedVectors"`
	EstimatedTotalNodes   int             `json:"estimatedTotalNodes"`
	EstimatedTotalVectors int             `json:"estimatedTotalVectors"`
	SampleContent         []ContentSample `json:"sampleContent"`
	CurrentlyVectorized   int             `json:"currentlyVectorized"`
	NeedsVectorization    int             `json:"needsVectorization"`
	FetchErrors           int             `json:"fetchErrors"`
}

// HealthStatus is returned by the health probe.
type HealthStatus struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}
