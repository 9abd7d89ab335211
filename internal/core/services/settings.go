package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vegvisr/graphvec/internal/core/domain"
	"github.com/vegvisr/graphvec/internal/core/ports/driven"
	"github.com/vegvisr/graphvec/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyServerAddr = "server.addr"

	keyEmbedProvider  = "embedding.provider"
	keyEmbedModel     = "embedding.model"
	keyEmbedBaseURL   = "embedding.base_url"
	keyEmbedAccountID = "embedding.account_id"
	keyEmbedAPIKey    = "embedding.api_key"
	keyEmbedTimeout   = "embedding.timeout_seconds"
	keyEmbedCacheDir  = "embedding.cache_dir"
	keyEmbedCacheOn   = "embedding.cache_enabled"

	keyVectorProvider  = "vector_index.provider"
	keyVectorName      = "vector_index.name"
	keyVectorAddress   = "vector_index.address"
	keyVectorAccountID = "vector_index.account_id"
	keyVectorAPIKey    = "vector_index.api_key"
	keyVectorDims      = "vector_index.dimensions"
	keyVectorTimeout   = "vector_index.timeout_seconds"

	keyContentProvider = "content.provider"
	keyContentBaseURL  = "content.base_url"
	keyContentDir      = "content.dir"

	keyStorageDataDir = "storage.data_dir"

	keyReindexRPS    = "reindex.requests_per_second"
	keyReindexBurst  = "reindex.burst"
	keyReindexSample = "reindex.sample_size"

	keySearchLimit        = "search.default_limit"
	keySearchKeywordScore = "search.keyword_score"
)

// keyKind describes how Set parses a string value.
type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindFloat
	kindBool
)

// knownKeys lists every key Set accepts.
var knownKeys = map[string]keyKind{
	keyServerAddr:         kindString,
	keyEmbedProvider:      kindString,
	keyEmbedModel:         kindString,
	keyEmbedBaseURL:       kindString,
	keyEmbedAccountID:     kindString,
	keyEmbedAPIKey:        kindString,
	keyEmbedTimeout:       kindInt,
	keyEmbedCacheDir:      kindString,
	keyEmbedCacheOn:       kindBool,
	keyVectorProvider:     kindString,
	keyVectorName:         kindString,
	keyVectorAddress:      kindString,
	keyVectorAccountID:    kindString,
	keyVectorAPIKey:       kindString,
	keyVectorDims:         kindInt,
	keyVectorTimeout:      kindInt,
	keyContentProvider:    kindString,
	keyContentBaseURL:     kindString,
	keyContentDir:         kindString,
	keyStorageDataDir:     kindString,
	keyReindexRPS:         kindFloat,
	keyReindexBurst:       kindInt,
	keyReindexSample:      kindInt,
	keySearchLimit:        kindInt,
	keySearchKeywordScore: kindFloat,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	validator   driven.EmbeddingConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, validator driven.EmbeddingConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		validator:   validator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Server: domain.ServerSettings{
			Addr: s.getString(keyServerAddr, defaults.Server.Addr),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:     s.getEmbeddingProvider(defaults.Embedding.Provider),
			Model:        s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:      s.lookup(keyEmbedBaseURL), // No default - empty means provider endpoint
			AccountID:    s.lookup(keyEmbedAccountID),
			APIKey:       s.lookup(keyEmbedAPIKey),
			Timeout:      s.getSeconds(keyEmbedTimeout, defaults.Embedding.Timeout),
			CacheEnabled: s.getBool(keyEmbedCacheOn, defaults.Embedding.CacheEnabled),
			CacheDir:     s.lookup(keyEmbedCacheDir),
		},
		VectorIndex: domain.VectorIndexSettings{
			Provider:   s.getVectorProvider(defaults.VectorIndex.Provider),
			Name:       s.getString(keyVectorName, defaults.VectorIndex.Name),
			Address:    s.lookup(keyVectorAddress),
			AccountID:  s.lookup(keyVectorAccountID),
			APIKey:     s.lookup(keyVectorAPIKey),
			Dimensions: s.getInt(keyVectorDims, defaults.VectorIndex.Dimensions),
			Timeout:    s.getSeconds(keyVectorTimeout, defaults.VectorIndex.Timeout),
		},
		Content: domain.ContentSettings{
			Provider: s.getContentProvider(defaults.Content.Provider),
			BaseURL:  s.getString(keyContentBaseURL, defaults.Content.BaseURL),
			Dir:      s.lookup(keyContentDir),
			Timeout:  defaults.Content.Timeout,
		},
		Storage: domain.StorageSettings{
			DataDir: s.lookup(keyStorageDataDir),
		},
		Reindex: domain.ReindexSettings{
			RequestsPerSecond: s.getFloat(keyReindexRPS, defaults.Reindex.RequestsPerSecond),
			Burst:             s.getInt(keyReindexBurst, defaults.Reindex.Burst),
			SampleSize:        s.getInt(keyReindexSample, defaults.Reindex.SampleSize),
		},
		Search: domain.SearchSettings{
			DefaultLimit: s.getInt(keySearchLimit, defaults.Search.DefaultLimit),
			KeywordScore: s.getFloat(keySearchKeywordScore, defaults.Search.KeywordScore),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyServerAddr, settings.Server.Addr},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedAccountID, settings.Embedding.AccountID},
		{keyEmbedTimeout, int(settings.Embedding.Timeout / time.Second)},
		{keyEmbedCacheOn, settings.Embedding.CacheEnabled},
		{keyEmbedCacheDir, settings.Embedding.CacheDir},
		{keyVectorProvider, settings.VectorIndex.Provider.String()},
		{keyVectorName, settings.VectorIndex.Name},
		{keyVectorAddress, settings.VectorIndex.Address},
		{keyVectorAccountID, settings.VectorIndex.AccountID},
		{keyVectorDims, settings.VectorIndex.Dimensions},
		{keyVectorTimeout, int(settings.VectorIndex.Timeout / time.Second)},
		{keyContentProvider, settings.Content.Provider.String()},
		{keyContentBaseURL, settings.Content.BaseURL},
		{keyContentDir, settings.Content.Dir},
		{keyStorageDataDir, settings.Storage.DataDir},
		{keyReindexRPS, settings.Reindex.RequestsPerSecond},
		{keyReindexBurst, settings.Reindex.Burst},
		{keyReindexSample, settings.Reindex.SampleSize},
		{keySearchLimit, settings.Search.DefaultLimit},
		{keySearchKeywordScore, settings.Search.KeywordScore},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Keys are only written when present so an empty form never wipes them.
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	if settings.VectorIndex.APIKey != "" {
		if err := s.configStore.Set(keyVectorAPIKey, settings.VectorIndex.APIKey); err != nil {
			return fmt.Errorf("save vector_index api_key: %w", err)
		}
	}

	return nil
}

// Set updates a single key, parsing value according to the key's type.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := knownKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrValidation, key)
	}

	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", domain.ErrValidation, key)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", domain.ErrValidation, key)
		}
		parsed = f
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrValidation, key)
		}
		parsed = b
	default:
		parsed = value
	}

	if err := validateKeyValue(key, parsed); err != nil {
		return err
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}

	// Switching embedding model updates the index dimensions when known.
	if key == keyEmbedModel {
		if d, ok := domain.EmbeddingDimensions()[value]; ok {
			if err := s.configStore.Set(keyVectorDims, d); err != nil {
				return fmt.Errorf("save %s: %w", keyVectorDims, err)
			}
		}
	}

	return nil
}

func validateKeyValue(key string, value any) error {
	switch key {
	case keyEmbedProvider:
		if p := domain.EmbeddingProvider(value.(string)); !p.IsValid() {
			return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrValidation, p)
		}
	case keyVectorProvider:
		if p := domain.VectorIndexProvider(value.(string)); !p.IsValid() {
			return fmt.Errorf("%w: invalid vector index provider: %s", domain.ErrValidation, p)
		}
	case keyContentProvider:
		if p := domain.ContentProvider(value.(string)); !p.IsValid() {
			return fmt.Errorf("%w: invalid content provider: %s", domain.ErrValidation, p)
		}
	case keySearchLimit:
		if n := value.(int); n < 1 || n > domain.MaxSearchLimit {
			return fmt.Errorf("%w: %s must be between 1 and %d", domain.ErrValidation, key, domain.MaxSearchLimit)
		}
	case keyReindexRPS:
		if f := value.(float64); f <= 0 {
			return fmt.Errorf("%w: %s must be positive", domain.ErrValidation, key)
		}
	}
	return nil
}

// Validate checks the current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if settings.Embedding.Provider != "" && !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %q is missing credentials",
			domain.ErrValidation, settings.Embedding.Provider.Description())
	}

	if !settings.EffectiveVectorIndex().IsConfigured() {
		return fmt.Errorf("%w: vector index %q is not fully configured",
			domain.ErrValidation, settings.VectorIndex.Provider)
	}

	switch settings.Content.Provider {
	case domain.ContentProviderFilesystem:
		if settings.Content.Dir == "" {
			return fmt.Errorf("%w: content.dir is required for the filesystem provider", domain.ErrValidation)
		}
	case domain.ContentProviderHTTP:
		if settings.Content.BaseURL == "" {
			return fmt.Errorf("%w: content.base_url is required for the http provider", domain.ErrValidation)
		}
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.validator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.validator.ValidateEmbedding(&settings.Embedding)
}

// Readers below coerce raw store values. TOML decodes numbers as int64 or
// float64; environment overrides arrive as strings.

func (s *SettingsService) lookup(key string) string {
	val, ok := s.configStore.Get(key)
	if !ok || val == nil {
		return ""
	}
	switch v := val.(type) {
	case string:
		return strings.TrimSpace(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.lookup(key); val != "" {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	f, err := strconv.ParseFloat(s.lookup(key), 64)
	if err != nil || f == 0 {
		return defaultVal
	}
	return int(f)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	f, err := strconv.ParseFloat(s.lookup(key), 64)
	if err != nil || f == 0 {
		return defaultVal
	}
	return f
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	b, err := strconv.ParseBool(s.lookup(key))
	if err != nil {
		return defaultVal
	}
	return b
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	if secs := s.getInt(key, 0); secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultVal
}

func (s *SettingsService) getEmbeddingProvider(defaultVal domain.EmbeddingProvider) domain.EmbeddingProvider {
	provider := domain.EmbeddingProvider(s.lookup(keyEmbedProvider))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getVectorProvider(defaultVal domain.VectorIndexProvider) domain.VectorIndexProvider {
	provider := domain.VectorIndexProvider(s.lookup(keyVectorProvider))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getContentProvider(defaultVal domain.ContentProvider) domain.ContentProvider {
	provider := domain.ContentProvider(s.lookup(keyContentProvider))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
