package ranking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/mcp-discovery/internal/catalog"
	"github.com/jonathan/mcp-discovery/internal/fetch"
	"github.com/jonathan/mcp-discovery/internal/logging"
	"github.com/jonathan/mcp-discovery/internal/types"
)

func testCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Entry{
		{
			Title:       "Filesystem MCP Server",
			Description: "Secure file system access with read and write tools",
			CLICommand:  "npx -y @modelcontextprotocol/server-filesystem",
			GitHubURL:   "https://github.com/modelcontextprotocol/servers",
		},
		{
			Title:       "GitHub MCP Server",
			Description: "Repository, issue and pull request management",
			CLICommand:  "docker run -i ghcr.io/github/github-mcp-server",
			GitHubURL:   "https://github.com/github/github-mcp-server",
		},
		{
			Title:       "PostgreSQL MCP Server",
			Description: "Read-only database access to PostgreSQL",
			Content:     "Inspect schemas and run read-only SQL queries.",
		},
	}, "")
}

func TestLocalRetriever_FileSystemQuery(t *testing.T) {
	r := NewLocalRetriever(testCatalog(), DefaultWeights(), logging.Discard())

	got, err := r.Retrieve(context.Background(), []string{"file system"})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "Filesystem MCP Server", got[0].Title)
	assert.GreaterOrEqual(t, Score(got[0], "file system", DefaultWeights()), 0.3)
}

func TestLocalRetriever_DefaultCatalogFileSystemQuery(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)

	r := NewLocalRetriever(cat, DefaultWeights(), nil)
	got, err := r.Retrieve(context.Background(), []string{"file system"})
	require.NoError(t, err)

	var titles []string
	for _, c := range got {
		titles = append(titles, c.Title)
	}
	assert.Contains(t, titles, "Filesystem MCP Server")
}

func TestLocalRetriever_DedupKeepsFirstQueryPosition(t *testing.T) {
	r := NewLocalRetriever(testCatalog(), DefaultWeights(), nil)

	got, err := r.Retrieve(context.Background(), []string{"postgresql", "github", "read"})
	require.NoError(t, err)

	titles := make([]string, len(got))
	for i, c := range got {
		titles[i] = c.Title
	}
	// every "read" match was already placed by an earlier query
	assert.Equal(t, []string{"PostgreSQL MCP Server", "GitHub MCP Server", "Filesystem MCP Server"}, titles)
}

func TestLocalRetriever_Deterministic(t *testing.T) {
	r := NewLocalRetriever(testCatalog(), DefaultWeights(), nil)
	queries := []string{"mcp", "github", "sql"}

	first, err := r.Retrieve(context.Background(), queries)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := r.Retrieve(context.Background(), queries)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestLocalRetriever_BlankAndEmptyQueries(t *testing.T) {
	r := NewLocalRetriever(testCatalog(), DefaultWeights(), nil)

	got, err := r.Retrieve(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = r.Retrieve(context.Background(), []string{"", "  "})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLocalRetriever_ResultsAreCopies(t *testing.T) {
	r := NewLocalRetriever(testCatalog(), DefaultWeights(), nil)

	got, err := r.Retrieve(context.Background(), []string{"github"})
	require.NoError(t, err)
	require.NotEmpty(t, got)
	got[0].Sources = append(got[0].Sources, types.Source{SourceName: "mutated"})

	again, err := r.Retrieve(context.Background(), []string{"github"})
	require.NoError(t, err)
	assert.Empty(t, again[0].Sources)
}

func TestLocalRetriever_CancelledContext(t *testing.T) {
	r := NewLocalRetriever(testCatalog(), DefaultWeights(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Retrieve(ctx, []string{"github"})
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeRegistry struct {
	results map[string][]catalog.Record
	fail    map[string]bool
	delays  map[string]time.Duration
}

func (f *fakeRegistry) Search(ctx context.Context, query string) ([]catalog.Record, error) {
	if d := f.delays[query]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.fail[query] {
		return nil, errors.New("registry unavailable")
	}
	return f.results[query], nil
}

type countingFetcher struct {
	mu    sync.Mutex
	calls map[string]int
	pages map[string]string
}

func (f *countingFetcher) Fetch(_ context.Context, url string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[url]++
	return f.pages[url]
}

func TestRegistryRetriever_OrderEnrichmentAndDedup(t *testing.T) {
	source := types.NewSource(catalog.SmitherySourceName, "https://smithery.ai/server/slack", "Slack", "Slack")
	registry := &fakeRegistry{
		results: map[string][]catalog.Record{
			"chat": {
				{Title: "Slack", Description: "Slack messaging", PageURL: "https://smithery.ai/server/slack", Source: source},
			},
			"issues": {
				{Title: "Linear", Description: "Issue tracking", Content: "registry summary", PageURL: "https://smithery.ai/server/linear"},
				{Title: "Slack", Description: "duplicate", PageURL: "https://smithery.ai/server/slack"},
			},
		},
		// the first query finishes last; output order must not change
		delays: map[string]time.Duration{"chat": 20 * time.Millisecond},
	}
	fetcher := &countingFetcher{pages: map[string]string{
		"https://smithery.ai/server/slack": "Full Slack page text",
	}}

	r := NewRegistryRetriever(registry, fetcher, 2, logging.Discard())
	got, err := r.Retrieve(context.Background(), []string{"chat", "issues"})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "Slack", got[0].Title)
	assert.Equal(t, "Slack messaging", got[0].Description)
	assert.Equal(t, "Full Slack page text", got[0].Content)
	assert.Equal(t, []types.Source{source}, got[0].Sources)

	assert.Equal(t, "Linear", got[1].Title)
	assert.Equal(t, "registry summary", got[1].Content)
	assert.Empty(t, got[1].Sources)

	assert.Equal(t, 1, fetcher.calls["https://smithery.ai/server/slack"])
	assert.Equal(t, 1, fetcher.calls["https://smithery.ai/server/linear"])
}

func TestRegistryRetriever_FailedSearchIsContained(t *testing.T) {
	registry := &fakeRegistry{
		results: map[string][]catalog.Record{
			"ok": {{Title: "Sentry"}},
		},
		fail: map[string]bool{"broken": true},
	}
	logger, buf := logging.NewTestLogger()

	r := NewRegistryRetriever(registry, nil, 0, logger)
	got, err := r.Retrieve(context.Background(), []string{"broken", "ok"})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "Sentry", got[0].Title)
	assert.Contains(t, buf.String(), "registry search failed")
}

func TestRegistryRetriever_CancelledContext(t *testing.T) {
	registry := &fakeRegistry{
		results: map[string][]catalog.Record{"slow": {{Title: "Slow"}}},
		delays:  map[string]time.Duration{"slow": time.Second},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	r := NewRegistryRetriever(registry, fetch.Noop, 1, nil)
	_, err := r.Retrieve(ctx, []string{"slow"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLocalRetriever_DescriptionPhraseMatch(t *testing.T) {
	cat := catalog.New([]catalog.Entry{
		{Title: "Filesystem Server", Description: "Gives agents filesystem access within allowed roots"},
		{Title: "Weather", Description: "Forecasts"},
	}, "")
	r := NewLocalRetriever(cat, DefaultWeights(), nil)

	got, err := r.Retrieve(context.Background(), []string{"filesystem access"})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "Filesystem Server", got[0].Title)
	assert.GreaterOrEqual(t, Score(got[0], "filesystem access", DefaultWeights()), 0.3)
}
