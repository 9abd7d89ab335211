package domain

import "time"

const unknownDescription = "Unknown"

// EmbeddingProvider identifies an embedding service.
type EmbeddingProvider string

// Available embedding providers.
const (
	// EmbeddingProviderWorkersAI is Cloudflare Workers AI.
	EmbeddingProviderWorkersAI EmbeddingProvider = "workersai"

	// EmbeddingProviderOllama is a local Ollama instance.
	EmbeddingProviderOllama EmbeddingProvider = "ollama"

	// EmbeddingProviderOpenAI is the OpenAI API.
	EmbeddingProviderOpenAI EmbeddingProvider = "openai"
)

// IsValid returns true if the provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case EmbeddingProviderWorkersAI, EmbeddingProviderOllama, EmbeddingProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p EmbeddingProvider) RequiresAPIKey() bool {
	return p == EmbeddingProviderWorkersAI || p == EmbeddingProviderOpenAI
}

// String returns the string representation.
func (p EmbeddingProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p EmbeddingProvider) Description() string {
	switch p {
	case EmbeddingProviderWorkersAI:
		return "Cloudflare Workers AI (cloud)"
	case EmbeddingProviderOllama:
		return "Ollama (local)"
	case EmbeddingProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// VectorIndexProvider identifies a similarity index backend.
type VectorIndexProvider string

// Available similarity index providers.
const (
	// VectorIndexVectorize is Cloudflare Vectorize.
	VectorIndexVectorize VectorIndexProvider = "vectorize"

	// VectorIndexQdrant is a Qdrant server over gRPC.
	VectorIndexQdrant VectorIndexProvider = "qdrant"

	// VectorIndexMemory is an exact in-process index persisted in the data directory.
	VectorIndexMemory VectorIndexProvider = "memory"
)

// IsValid returns true if the provider is recognised.
func (p VectorIndexProvider) IsValid() bool {
	switch p {
	case VectorIndexVectorize, VectorIndexQdrant, VectorIndexMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p VectorIndexProvider) String() string {
	return string(p)
}

// ContentProvider identifies where graph documents come from.
type ContentProvider string

// Available content providers.
const (
	// ContentProviderHTTP is the knowledge-graph content API.
	ContentProviderHTTP ContentProvider = "http"

	// ContentProviderFilesystem is a directory of graph JSON files.
	ContentProviderFilesystem ContentProvider = "filesystem"
)

// IsValid returns true if the provider is recognised.
func (p ContentProvider) IsValid() bool {
	return p == ContentProviderHTTP || p == ContentProviderFilesystem
}

// String returns the string representation.
func (p ContentProvider) String() string {
	return string(p)
}

// ServerSettings holds HTTP server configuration.
type ServerSettings struct {
	// Addr is the listen address, e.g. ":8787".
	Addr string
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	Provider EmbeddingProvider
	Model    string

	// BaseURL overrides the provider's API endpoint.
	BaseURL string

	// AccountID is the Cloudflare account (Workers AI only).
	AccountID string

	// APIKey is the bearer token (Workers AI, OpenAI).
	APIKey string

	// Timeout bounds each embedding call.
	Timeout time.Duration

	// CacheEnabled turns on the on-disk embedding cache.
	CacheEnabled bool

	// CacheDir is where the cache lives. Empty means in-memory.
	CacheDir string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	if e.Provider == EmbeddingProviderWorkersAI && e.AccountID == "" {
		return false
	}
	return true
}

// VectorIndexSettings holds similarity index configuration.
type VectorIndexSettings struct {
	Provider VectorIndexProvider

	// Name is the Vectorize index or Qdrant collection.
	Name string

	// Address is the Qdrant gRPC address or a Vectorize base URL override.
	Address string

	AccountID string
	APIKey    string

	// Dimensions is the embedding vector size.
	Dimensions int

	// Timeout bounds each index call.
	Timeout time.Duration
}

// IsConfigured returns true if the similarity index is set up.
func (v VectorIndexSettings) IsConfigured() bool {
	switch v.Provider {
	case VectorIndexMemory:
		return true
	case VectorIndexQdrant:
		return v.Address != "" && v.Name != ""
	case VectorIndexVectorize:
		return v.AccountID != "" && v.APIKey != "" && v.Name != ""
	default:
		return false
	}
}

// ContentSettings holds graph source configuration.
type ContentSettings struct {
	Provider ContentProvider

	// BaseURL is the content API root (http provider).
	BaseURL string

	// Dir is the graph directory (filesystem provider).
	Dir string

	// Timeout bounds each content API call.
	Timeout time.Duration
}

// StorageSettings holds metadata store configuration.
type StorageSettings struct {
	// DataDir holds the SQLite database. Empty means ~/.graphvec/data.
	DataDir string
}

// ReindexSettings holds batch reindex throttling.
type ReindexSettings struct {
	// RequestsPerSecond is the sustained document rate.
	RequestsPerSecond float64

	// Burst is the token bucket size.
	Burst int

	// SampleSize is the default count for sample reindexes and analysis.
	SampleSize int
}

// SearchSettings holds search behaviour configuration.
type SearchSettings struct {
	DefaultLimit int
	KeywordScore float64
}

// AppSettings holds all application settings.
type AppSettings struct {
	Server      ServerSettings
	Embedding   EmbeddingSettings
	VectorIndex VectorIndexSettings
	Content     ContentSettings
	Storage     StorageSettings
	Reindex     ReindexSettings
	Search      SearchSettings
}

// EffectiveVectorIndex returns the similarity index settings with missing
// Cloudflare credentials taken from the embedding settings. Workers AI and
// Vectorize usually share one account and token.
func (a AppSettings) EffectiveVectorIndex() VectorIndexSettings {
	v := a.VectorIndex
	if v.AccountID == "" {
		v.AccountID = a.Embedding.AccountID
	}
	if v.APIKey == "" {
		v.APIKey = a.Embedding.APIKey
	}
	return v
}

// DefaultAppSettings returns settings with sensible defaults.
// The embedding provider is left unconfigured; the similarity index defaults
// to the local in-process index.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Server: ServerSettings{Addr: ":8787"},
		Embedding: EmbeddingSettings{
			Model:   "@cf/baai/bge-base-en-v1.5",
			Timeout: 30 * time.Second,
		},
		VectorIndex: VectorIndexSettings{
			Provider:   VectorIndexMemory,
			Name:       "knowledge-graphs",
			Dimensions: 768, // bge-base-en-v1.5
			Timeout:    30 * time.Second,
		},
		Content: ContentSettings{
			Provider: ContentProviderHTTP,
			BaseURL:  "https://knowledge.vegvisr.org",
			Timeout:  30 * time.Second,
		},
		Reindex: ReindexSettings{
			RequestsPerSecond: 10, // one document per 100ms
			Burst:             1,
			SampleSize:        5,
		},
		Search: SearchSettings{
			DefaultLimit: DefaultSearchLimit,
			KeywordScore: DefaultKeywordScore,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []EmbeddingProvider {
	return []EmbeddingProvider{
		EmbeddingProviderWorkersAI,
		EmbeddingProviderOllama,
		EmbeddingProviderOpenAI,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[EmbeddingProvider]string {
	return map[EmbeddingProvider]string{
		EmbeddingProviderWorkersAI: "@cf/baai/bge-base-en-v1.5",
		EmbeddingProviderOllama:    "nomic-embed-text",
		EmbeddingProviderOpenAI:    "text-embedding-3-small",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Workers AI models
		"@cf/baai/bge-small-en-v1.5": 384,
		"@cf/baai/bge-base-en-v1.5":  768,
		"@cf/baai/bge-large-en-v1.5": 1024,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
