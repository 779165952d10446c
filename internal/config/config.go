// Package config loads service configuration from the environment and an optional config file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jonathan/mcp-discovery/internal/catalog"
	"github.com/jonathan/mcp-discovery/internal/llm"
	"github.com/jonathan/mcp-discovery/internal/logging"
	"github.com/jonathan/mcp-discovery/internal/ranking"
	"github.com/jonathan/mcp-discovery/internal/server/ratelimit"
)

// Retrieval modes
const (
	ModeLocal     = "local"
	ModeSmithery  = "smithery"
	ModeWebSearch = "websearch"
)

// Config represents the service configuration.
// Every key can be set from the environment: nested keys map to upper-case names
// joined by underscores (llm.provider -> LLM_PROVIDER).
type Config struct {
	Environment string `mapstructure:"environment"`
	Port        int    `mapstructure:"port"`

	Log  LogConfig  `mapstructure:"log"`
	CORS CORSConfig `mapstructure:"cors"`

	LLM        LLMConfig        `mapstructure:"llm"`
	Gemini     APIKeyConfig     `mapstructure:"gemini"`
	OpenRouter OpenRouterConfig `mapstructure:"openrouter"`

	Retrieval    RetrievalConfig    `mapstructure:"retrieval"`
	Smithery     SmitheryConfig     `mapstructure:"smithery"`
	GoogleSearch GoogleSearchConfig `mapstructure:"google_search"`
	Content      ContentConfig      `mapstructure:"content"`
	Fetch        FetchConfig        `mapstructure:"fetch"`

	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Scoring   ranking.Weights `mapstructure:"scoring"`
	Synthesis SynthesisConfig `mapstructure:"synthesis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// LogConfig controls the structured logger
type LogConfig struct {
	Level  string `mapstructure:"level"` // empty picks a level from the environment
	Format string `mapstructure:"format"`
}

// CORSConfig lists allowed origins as a comma-separated string
type CORSConfig struct {
	Origins string `mapstructure:"origins"`
}

// LLMConfig selects the completion provider
type LLMConfig struct {
	Provider string        `mapstructure:"provider"`
	Model    string        `mapstructure:"model"` // overrides every tier when set
	Timeout  time.Duration `mapstructure:"timeout"`
}

// APIKeyConfig holds a single provider key
type APIKeyConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// OpenRouterConfig holds OpenRouter credentials
type OpenRouterConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// RetrievalConfig selects where candidates come from
type RetrievalConfig struct {
	Mode        string `mapstructure:"mode"`
	Concurrency int    `mapstructure:"concurrency"`
}

// SmitheryConfig holds Smithery registry access
type SmitheryConfig struct {
	APIKey string `mapstructure:"api_key"`
	APIURL string `mapstructure:"api_url"`
}

// GoogleSearchConfig holds Custom Search credentials
type GoogleSearchConfig struct {
	APIKey string `mapstructure:"api_key"`
	CX     string `mapstructure:"cx"`
}

// ContentConfig configures the content parser API used for enrichment
type ContentConfig struct {
	APIKey string `mapstructure:"api_key"`
	URL    string `mapstructure:"url"`
}

// FetchConfig configures direct page fetching
type FetchConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	UseBrowser bool          `mapstructure:"use_browser"`
}

// CatalogConfig selects the local catalog source. Path wins over DatabaseURL; neither uses the embedded catalog.
type CatalogConfig struct {
	Path         string `mapstructure:"path"`
	DatabaseURL  string `mapstructure:"database_url"`
	DiscoveryURL string `mapstructure:"discovery_url"` // overrides the catalog's own discovery URL
}

// SynthesisConfig toggles per-recommendation content generation
type SynthesisConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	Concurrency int  `mapstructure:"concurrency"`
}

// RateLimitConfig configures the server's token bucket limiter
type RateLimitConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	DefaultLimit    int           `mapstructure:"default_limit"`
	DefaultWindow   time.Duration `mapstructure:"default_window"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	Whitelist       string        `mapstructure:"whitelist"`
	Blacklist       string        `mapstructure:"blacklist"`
}

// DefaultConfig returns the configuration used when nothing is set
func DefaultConfig() *Config {
	weights := ranking.DefaultWeights()
	return &Config{
		Environment: "development",
		Port:        8000,
		Log:         LogConfig{Format: "text"},
		CORS:        CORSConfig{Origins: "*"},
		LLM: LLMConfig{
			Provider: string(llm.ProviderGemini),
			Timeout:  60 * time.Second,
		},
		OpenRouter: OpenRouterConfig{BaseURL: llm.DefaultOpenRouterBaseURL},
		Retrieval:  RetrievalConfig{Mode: ModeLocal, Concurrency: ranking.DefaultConcurrency},
		Smithery:   SmitheryConfig{APIURL: catalog.DefaultSmitheryURL},
		Fetch:      FetchConfig{Timeout: 30 * time.Second},
		Scoring:    weights,
		Synthesis:  SynthesisConfig{Enabled: true, Concurrency: 4},
		RateLimit: RateLimitConfig{
			Enabled:         true,
			DefaultLimit:    1000,
			DefaultWindow:   time.Minute,
			CleanupInterval: 5 * time.Minute,
		},
	}
}

// envAliases binds keys whose environment names do not follow the nested naming rule
var envAliases = map[string][]string{
	"catalog.database_url":  {"DATABASE_URL"},
	"catalog.discovery_url": {"DISCOVERY_URL"},
	"content.api_key":       {"ANDISEARCH_API_KEY"},
	"content.url":           {"CONTENT_RETRIEVAL_URL"},
	"fetch.use_browser":     {"USE_BROWSER"},
	"synthesis.enabled":     {"ENABLE_SYNTHESIS"},
}

// LoadConfig reads configuration from the environment, layered over the optional
// config file at path (YAML, JSON or TOML by extension), layered over defaults.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if path != "" {
		if !filepath.IsAbs(path) {
			cwd, err := os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("failed to get current directory: %w", err)
			}
			path = filepath.Join(cwd, path)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = logging.DefaultLevel(cfg.Environment)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("environment", d.Environment)
	v.SetDefault("port", d.Port)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("cors.origins", d.CORS.Origins)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.timeout", d.LLM.Timeout)
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("openrouter.api_key", "")
	v.SetDefault("openrouter.base_url", d.OpenRouter.BaseURL)

	v.SetDefault("retrieval.mode", d.Retrieval.Mode)
	v.SetDefault("retrieval.concurrency", d.Retrieval.Concurrency)
	v.SetDefault("smithery.api_key", "")
	v.SetDefault("smithery.api_url", d.Smithery.APIURL)
	v.SetDefault("google_search.api_key", "")
	v.SetDefault("google_search.cx", "")
	v.SetDefault("content.api_key", "")
	v.SetDefault("content.url", d.Content.URL)
	v.SetDefault("fetch.timeout", d.Fetch.Timeout)
	v.SetDefault("fetch.use_browser", d.Fetch.UseBrowser)

	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.database_url", "")
	v.SetDefault("catalog.discovery_url", d.Catalog.DiscoveryURL)

	v.SetDefault("scoring.title", d.Scoring.Title)
	v.SetDefault("scoring.description", d.Scoring.Description)
	v.SetDefault("scoring.content", d.Scoring.Content)
	v.SetDefault("scoring.cli_command", d.Scoring.CLICommand)
	v.SetDefault("scoring.github_url", d.Scoring.GitHubURL)

	v.SetDefault("synthesis.enabled", d.Synthesis.Enabled)
	v.SetDefault("synthesis.concurrency", d.Synthesis.Concurrency)

	v.SetDefault("rate_limit.enabled", d.RateLimit.Enabled)
	v.SetDefault("rate_limit.default_limit", d.RateLimit.DefaultLimit)
	v.SetDefault("rate_limit.default_window", d.RateLimit.DefaultWindow)
	v.SetDefault("rate_limit.cleanup_interval", d.RateLimit.CleanupInterval)
	v.SetDefault("rate_limit.whitelist", "")
	v.SetDefault("rate_limit.blacklist", "")
}

// Validate checks that the configuration has valid values
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 1 and 65535")
	}

	if _, err := llm.ConfigForProvider(c.LLM.Provider); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.LLM.Timeout < 0 || c.Fetch.Timeout < 0 {
		return fmt.Errorf("config error: timeouts must be non-negative")
	}

	switch c.Retrieval.Mode {
	case ModeLocal:
	case ModeSmithery:
		if c.Smithery.APIKey == "" {
			return fmt.Errorf("config error: SMITHERY_API_KEY is required for retrieval mode %q", c.Retrieval.Mode)
		}
	case ModeWebSearch:
		if c.GoogleSearch.APIKey == "" || c.GoogleSearch.CX == "" {
			return fmt.Errorf("config error: GOOGLE_SEARCH_API_KEY and GOOGLE_SEARCH_CX are required for retrieval mode %q", c.Retrieval.Mode)
		}
	default:
		return fmt.Errorf("config error: unknown retrieval mode %q (want local, smithery or websearch)", c.Retrieval.Mode)
	}

	w := c.Scoring
	if w.Title < 0 || w.Description < 0 || w.Content < 0 || w.CLICommand < 0 || w.GitHubURL < 0 {
		return fmt.Errorf("config error: scoring weights must be non-negative")
	}
	if w.IsZero() {
		return fmt.Errorf("config error: at least one scoring weight must be positive")
	}

	if c.Catalog.Path != "" {
		if _, err := os.Stat(c.Catalog.Path); os.IsNotExist(err) {
			return fmt.Errorf("config error: catalog file not found: %s", c.Catalog.Path)
		}
	}

	return nil
}

// ValidateLLM checks that credentials exist for the configured provider
func (c *Config) ValidateLLM() error {
	if c.LLMAPIKey() == "" {
		name := "GEMINI_API_KEY"
		if c.provider() == llm.ProviderOpenRouter {
			name = "OPENROUTER_API_KEY"
		}
		return fmt.Errorf("config error: %s is required for LLM provider %q", name, c.provider())
	}
	return nil
}

func (c *Config) provider() llm.Provider {
	p := llm.Provider(strings.ToLower(strings.TrimSpace(c.LLM.Provider)))
	if p == "" {
		return llm.ProviderGemini
	}
	return p
}

// LLMAPIKey returns the key for the configured provider
func (c *Config) LLMAPIKey() string {
	if c.provider() == llm.ProviderOpenRouter {
		return c.OpenRouter.APIKey
	}
	return c.Gemini.APIKey
}

// LLMConfig builds the model configuration for the configured provider
func (c *Config) LLMConfig() (*llm.Config, error) {
	cfg, err := llm.ConfigForProvider(c.LLM.Provider)
	if err != nil {
		return nil, err
	}
	if c.LLM.Model != "" {
		cfg = cfg.WithAllModels(c.LLM.Model)
	}
	if cfg.Provider == llm.ProviderOpenRouter && c.OpenRouter.BaseURL != "" {
		cfg.BaseURL = c.OpenRouter.BaseURL
	}
	return cfg, nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// CORSOrigins returns the allowed origins. "*" allows any origin.
func (c *Config) CORSOrigins() []string {
	return SplitList(c.CORS.Origins)
}

// RateLimiter builds the limiter configuration with the default endpoint rules
func (c *Config) RateLimiter() *ratelimit.Config {
	return &ratelimit.Config{
		Enabled:         c.RateLimit.Enabled,
		DefaultLimit:    c.RateLimit.DefaultLimit,
		DefaultWindow:   c.RateLimit.DefaultWindow,
		CleanupInterval: c.RateLimit.CleanupInterval,
		Whitelist:       ratelimit.ParseIPList(c.RateLimit.Whitelist),
		Blacklist:       ratelimit.ParseIPList(c.RateLimit.Blacklist),
		Rules:           ratelimit.DefaultRules(),
	}
}

// SplitList splits a comma-separated list, dropping blanks
func SplitList(list string) []string {
	var out []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
