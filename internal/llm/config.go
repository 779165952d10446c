// Package llm provides centralized LLM configuration and client abstractions.
// Stages of the discovery pipeline depend on the narrow TextCompletion interface;
// Client implementations (Gemini, OpenRouter) sit behind it.
package llm

import (
	"fmt"
	"maps"
	"strings"
)

// ModelTier is the capability level a stage asks for
type ModelTier string

const (
	TierLite     ModelTier = "lite"     // query generation
	TierStandard ModelTier = "standard" // candidate selection
	TierAdvanced ModelTier = "advanced" // content synthesis
)

// Tiers lists every tier, cheapest first
var Tiers = []ModelTier{TierLite, TierStandard, TierAdvanced}

// Provider names an LLM backend
type Provider string

const (
	ProviderGemini     Provider = "gemini"
	ProviderOpenRouter Provider = "openrouter"
)

const (
	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	DefaultOpenRouterModel   = "anthropic/claude-3.5-sonnet"
)

// Config maps tiers to provider model names
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
	BaseURL  string // OpenRouter only
}

// DefaultConfig is the Gemini configuration
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
	}
}

// DefaultOpenRouterConfig routes every tier to DefaultOpenRouterModel
func DefaultOpenRouterConfig() *Config {
	cfg := &Config{Provider: ProviderOpenRouter, BaseURL: DefaultOpenRouterBaseURL}
	return cfg.WithAllModels(DefaultOpenRouterModel)
}

// ConfigForProvider resolves a case-insensitive provider name. Empty means Gemini.
func ConfigForProvider(name string) (*Config, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(name))) {
	case "", ProviderGemini:
		return DefaultGeminiConfig(), nil
	case ProviderOpenRouter:
		return DefaultOpenRouterConfig(), nil
	}
	return nil, fmt.Errorf("unknown LLM provider %q", name)
}

// GetModel returns the model for tier. An unmapped tier falls back to the
// standard model, then the lite one; "" when neither is set.
func (c *Config) GetModel(tier ModelTier) string {
	for _, t := range []ModelTier{tier, TierStandard, TierLite} {
		if model := c.Models[t]; model != "" {
			return model
		}
	}
	return ""
}

// WithModel returns a copy with tier mapped to model
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	cp := c.clone()
	cp.Models[tier] = model
	return cp
}

// WithAllModels returns a copy with every tier mapped to model
func (c *Config) WithAllModels(model string) *Config {
	cp := c.clone()
	for _, tier := range Tiers {
		cp.Models[tier] = model
	}
	return cp
}

func (c *Config) clone() *Config {
	cp := *c
	cp.Models = make(map[ModelTier]string, len(Tiers))
	maps.Copy(cp.Models, c.Models)
	return &cp
}
