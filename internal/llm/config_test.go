package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigs(t *testing.T) {
	gemini := DefaultConfig()
	assert.Equal(t, ProviderGemini, gemini.Provider)
	assert.Empty(t, gemini.BaseURL)
	assert.Equal(t, []string{"gemini-2.5-flash-lite", "gemini-2.5-flash", "gemini-2.5-pro"},
		[]string{gemini.GetModel(TierLite), gemini.GetModel(TierStandard), gemini.GetModel(TierAdvanced)})

	openRouter := DefaultOpenRouterConfig()
	assert.Equal(t, ProviderOpenRouter, openRouter.Provider)
	assert.Equal(t, DefaultOpenRouterBaseURL, openRouter.BaseURL)
	for _, tier := range Tiers {
		assert.Equal(t, DefaultOpenRouterModel, openRouter.GetModel(tier))
	}
}

func TestGetModel(t *testing.T) {
	tests := []struct {
		name   string
		models map[ModelTier]string
		tier   ModelTier
		want   string
	}{
		{name: "exact", models: map[ModelTier]string{TierAdvanced: "pro", TierStandard: "flash"}, tier: TierAdvanced, want: "pro"},
		{name: "falls back to standard", models: map[ModelTier]string{TierStandard: "flash", TierLite: "lite"}, tier: TierAdvanced, want: "flash"},
		{name: "falls back to lite", models: map[ModelTier]string{TierLite: "lite"}, tier: "unknown", want: "lite"},
		{name: "blank entry skipped", models: map[ModelTier]string{TierAdvanced: "", TierLite: "lite"}, tier: TierAdvanced, want: "lite"},
		{name: "empty", models: map[ModelTier]string{}, tier: TierAdvanced, want: ""},
		{name: "nil map", tier: TierLite, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Provider: ProviderGemini, Models: tt.models}
			assert.Equal(t, tt.want, cfg.GetModel(tt.tier))
		})
	}
}

func TestWithModel_DoesNotMutate(t *testing.T) {
	base := DefaultConfig()

	custom := base.WithModel(TierAdvanced, "custom-model")

	assert.Equal(t, "gemini-2.5-pro", base.GetModel(TierAdvanced))
	assert.Equal(t, "custom-model", custom.GetModel(TierAdvanced))
	assert.Equal(t, "gemini-2.5-flash-lite", custom.GetModel(TierLite))
}

func TestWithAllModels(t *testing.T) {
	base := DefaultOpenRouterConfig()

	custom := base.WithAllModels("openai/gpt-4o-mini")

	for _, tier := range Tiers {
		assert.Equal(t, "openai/gpt-4o-mini", custom.GetModel(tier))
		assert.Equal(t, DefaultOpenRouterModel, base.GetModel(tier))
	}
	assert.Equal(t, base.BaseURL, custom.BaseURL)
}

func TestConfigForProvider(t *testing.T) {
	tests := []struct {
		input   string
		want    Provider
		wantErr bool
	}{
		{input: "", want: ProviderGemini},
		{input: "gemini", want: ProviderGemini},
		{input: " OpenRouter ", want: ProviderOpenRouter},
		{input: "mystery", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cfg, err := ConfigForProvider(tt.input)
			if tt.wantErr {
				assert.ErrorContains(t, err, "mystery")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Provider)
		})
	}
}
