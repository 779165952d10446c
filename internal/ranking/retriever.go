package ranking

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/mcp-discovery/internal/catalog"
	"github.com/jonathan/mcp-discovery/internal/fetch"
	"github.com/jonathan/mcp-discovery/internal/logging"
	"github.com/jonathan/mcp-discovery/internal/types"
)

// Retriever turns search queries into a deduplicated candidate list.
// Candidates for earlier queries come first.
type Retriever interface {
	Retrieve(ctx context.Context, queries []string) ([]types.Candidate, error)
}

// LocalRetriever scores a read-only catalog snapshot. It never calls out and never fails.
type LocalRetriever struct {
	candidates []types.Candidate
	weights    Weights
	logger     *log.Logger
}

// NewLocalRetriever creates a retriever over cat using weights
func NewLocalRetriever(cat *catalog.Catalog, weights Weights, logger *log.Logger) *LocalRetriever {
	entries := cat.Entries()
	candidates := make([]types.Candidate, len(entries))
	for i, e := range entries {
		candidates[i] = e.Candidate()
	}
	return &LocalRetriever{
		candidates: candidates,
		weights:    weights,
		logger:     logging.OrDiscard(logger),
	}
}

// Retrieve implements Retriever
func (r *LocalRetriever) Retrieve(ctx context.Context, queries []string) ([]types.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	perQuery := make([][]types.Candidate, len(queries))
	for i, q := range queries {
		ranked := RankForQuery(r.candidates, q, r.weights)
		results := make([]types.Candidate, len(ranked))
		for j, s := range ranked {
			results[j] = s.Candidate
		}
		perQuery[i] = results
		r.logger.Debug("scored query", "query", q, "matches", len(results))
	}

	merged := MergeByTitle(perQuery)
	r.logger.Info("retrieved candidates", "mode", "local", "queries", len(queries), "count", len(merged))
	return merged, nil
}

// DefaultConcurrency bounds in-flight registry searches and page fetches
const DefaultConcurrency = 4

// RegistryRetriever searches a remote registry per query and enriches each hit
// with the full text of its page.
type RegistryRetriever struct {
	registry    catalog.Registry
	fetcher     fetch.ContentFetcher
	concurrency int
	logger      *log.Logger
}

// NewRegistryRetriever creates a registry-backed retriever. A nil fetcher skips enrichment;
// concurrency below 1 uses DefaultConcurrency.
func NewRegistryRetriever(registry catalog.Registry, fetcher fetch.ContentFetcher, concurrency int, logger *log.Logger) *RegistryRetriever {
	if fetcher == nil {
		fetcher = fetch.Noop
	}
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &RegistryRetriever{
		registry:    registry,
		fetcher:     fetcher,
		concurrency: concurrency,
		logger:      logging.OrDiscard(logger),
	}
}

// Retrieve implements Retriever. A failed search leaves its query's slot empty.
func (r *RegistryRetriever) Retrieve(ctx context.Context, queries []string) ([]types.Candidate, error) {
	start := time.Now()
	defer logging.Since(r.logger, "registry-retrieval", start)

	records := r.search(ctx, queries)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content := r.enrich(ctx, records)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	perQuery := make([][]types.Candidate, len(records))
	for i, slot := range records {
		for _, rec := range slot {
			perQuery[i] = append(perQuery[i], rec.Candidate(content[rec.PageURL]))
		}
	}

	merged := MergeByTitle(perQuery)
	r.logger.Info("retrieved candidates", "mode", "registry", "queries", len(queries), "count", len(merged))
	return merged, nil
}

func (r *RegistryRetriever) search(ctx context.Context, queries []string) [][]catalog.Record {
	slots := make([][]catalog.Record, len(queries))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, q := range queries {
		g.Go(func() error {
			if gCtx.Err() != nil {
				return nil
			}
			if isBlank(q) {
				return nil
			}
			found, err := r.registry.Search(gCtx, q)
			if err != nil {
				r.logger.Warn("registry search failed", "query", q, "error", err)
				return nil
			}
			slots[i] = found
			r.logger.Debug("registry search", "query", q, "results", len(found))
			return nil
		})
	}

	_ = g.Wait()
	return slots
}

// enrich fetches every distinct page URL once. Missing keys mean no content was retrieved.
func (r *RegistryRetriever) enrich(ctx context.Context, slots [][]catalog.Record) map[string]string {
	var urls []string
	seen := make(map[string]bool)
	for _, slot := range slots {
		for _, rec := range slot {
			if rec.PageURL == "" || seen[rec.PageURL] {
				continue
			}
			seen[rec.PageURL] = true
			urls = append(urls, rec.PageURL)
		}
	}

	texts := make([]string, len(urls))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, u := range urls {
		g.Go(func() error {
			if gCtx.Err() != nil {
				return nil
			}
			texts[i] = r.fetcher.Fetch(gCtx, u)
			return nil
		})
	}

	_ = g.Wait()

	content := make(map[string]string, len(urls))
	for i, u := range urls {
		if texts[i] != "" {
			content[u] = texts[i]
		}
	}
	r.logger.Debug("enriched records", "urls", len(urls), "with_content", len(content))
	return content
}
