package factory

import (
	"github.com/vegvisr/graphvec/internal/core/domain"
	"github.com/vegvisr/graphvec/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.EmbeddingConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator validates embedding provider configurations.
type ConfigValidator struct{}

// NewConfigValidator creates a new embedding config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding validates an embedding configuration by pinging the provider.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	return ValidateEmbeddingConfig(config)
}
