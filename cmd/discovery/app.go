package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/jonathan/mcp-discovery/internal/catalog"
	"github.com/jonathan/mcp-discovery/internal/config"
	"github.com/jonathan/mcp-discovery/internal/fetch"
	"github.com/jonathan/mcp-discovery/internal/llm"
	"github.com/jonathan/mcp-discovery/internal/logging"
	"github.com/jonathan/mcp-discovery/internal/pipeline"
	"github.com/jonathan/mcp-discovery/internal/queries"
	"github.com/jonathan/mcp-discovery/internal/ranking"
	"github.com/jonathan/mcp-discovery/internal/selection"
	"github.com/jonathan/mcp-discovery/internal/synthesis"
)

// app holds everything a command needs once configuration is loaded
type app struct {
	cfg      *config.Config
	logger   *log.Logger
	catalog  *catalog.Catalog
	pipeline *pipeline.Pipeline
	client   llm.Client
}

// Close releases the LLM client
func (a *app) Close() {
	if a.client != nil {
		if err := a.client.Close(); err != nil {
			a.logger.Warn("failed to close LLM client", "error", err)
		}
	}
}

// loadConfig reads and validates configuration
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *log.Logger {
	return logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
}

// newApp wires the full pipeline. The LLM client is created here and closed by app.Close.
func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateLLM(); err != nil {
		return nil, err
	}
	logger := newLogger(cfg)

	cat, err := loadCatalog(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("catalog loaded", "servers", cat.Len(), "discovery_url", cat.DiscoveryURL())

	llmCfg, err := cfg.LLMConfig()
	if err != nil {
		return nil, err
	}
	client, err := llm.NewClient(ctx, llmCfg, cfg.LLMAPIKey())
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	retriever, err := newRetriever(ctx, cfg, cat, logger)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	p, err := newPipeline(cfg, cat, client, retriever, logger)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, catalog: cat, pipeline: p, client: client}, nil
}

// newPipeline assigns a model tier to each stage
func newPipeline(cfg *config.Config, cat *catalog.Catalog, client llm.Client, retriever ranking.Retriever, logger *log.Logger) (*pipeline.Pipeline, error) {
	queryModel := llm.NewCompleter(client, llm.TierLite, cfg.LLM.Timeout)
	selectModel := llm.NewCompleter(client, llm.TierStandard, cfg.LLM.Timeout).AsJSON()
	contentModel := llm.NewCompleter(client, llm.TierAdvanced, cfg.LLM.Timeout)

	return pipeline.New(pipeline.Dependencies{
		Catalog:     cat,
		Generator:   queries.NewGenerator(queryModel, logger),
		Retriever:   retriever,
		Selector:    selection.NewSelector(selectModel, logger),
		Synthesizer: synthesis.NewSynthesizer(contentModel, cfg.Synthesis.Concurrency, logger),
		Logger:      logger,
	})
}

// loadCatalog reads the catalog from a file, then Postgres, then the embedded default
func loadCatalog(ctx context.Context, cfg *config.Config) (*catalog.Catalog, error) {
	var (
		cat *catalog.Catalog
		err error
	)
	switch {
	case cfg.Catalog.Path != "":
		cat, err = catalog.LoadFile(cfg.Catalog.Path)
	case cfg.Catalog.DatabaseURL != "":
		cat, err = catalog.LoadFromPostgres(ctx, cfg.Catalog.DatabaseURL, cfg.Catalog.DiscoveryURL)
	default:
		cat, err = catalog.Default()
	}
	if err != nil {
		return nil, err
	}

	if cfg.Catalog.DiscoveryURL != "" && cfg.Catalog.DiscoveryURL != cat.DiscoveryURL() {
		cat = catalog.New(cat.Entries(), cfg.Catalog.DiscoveryURL)
	}
	return cat, nil
}

// newRetriever picks the candidate source for the configured retrieval mode
func newRetriever(ctx context.Context, cfg *config.Config, cat *catalog.Catalog, logger *log.Logger) (ranking.Retriever, error) {
	switch cfg.Retrieval.Mode {
	case config.ModeSmithery:
		registry := catalog.NewSmitheryRegistry(cfg.Smithery.APIURL, cfg.Smithery.APIKey, &http.Client{Timeout: cfg.Fetch.Timeout})
		return ranking.NewRegistryRetriever(registry, newFetcher(cfg, logger), cfg.Retrieval.Concurrency, logger), nil
	case config.ModeWebSearch:
		registry, err := catalog.NewWebSearchRegistry(ctx, cfg.GoogleSearch.APIKey, cfg.GoogleSearch.CX)
		if err != nil {
			return nil, err
		}
		return ranking.NewRegistryRetriever(registry, newFetcher(cfg, logger), cfg.Retrieval.Concurrency, logger), nil
	default:
		return ranking.NewLocalRetriever(cat, cfg.Scoring, logger), nil
	}
}

// newFetcher tries the content parser API first when a key is configured, then the page itself
func newFetcher(cfg *config.Config, logger *log.Logger) fetch.ContentFetcher {
	var chain fetch.Chain
	if cfg.Content.APIKey != "" {
		chain = append(chain, fetch.NewParserFetcher(cfg.Content.URL, cfg.Content.APIKey, &http.Client{Timeout: cfg.Fetch.Timeout}, logger))
	}

	opts := fetch.DefaultOptions()
	if cfg.Fetch.Timeout > 0 {
		opts.Timeout = cfg.Fetch.Timeout
	}
	chain = append(chain, fetch.NewPageFetcher(opts, logger, fetch.WithBrowserFallback(cfg.Fetch.UseBrowser)))

	return fetch.WithTimeout(chain, cfg.Fetch.Timeout)
}
