package llm

import (
	"context"
	"fmt"
)

// Client is a provider-backed model with tiered model selection
type Client interface {
	GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// GenerateJSON is GenerateContent with the provider's JSON mode where it has one,
	// and with code fences removed from the answer
	GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error)
	GetModel(tier ModelTier) string
	Close() error
}

// NewClient picks the provider implementation named by config.Provider
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey)
	case ProviderOpenRouter:
		return NewOpenRouterClient(config, apiKey, nil)
	}
	return nil, fmt.Errorf("unsupported LLM provider %q", config.Provider)
}
