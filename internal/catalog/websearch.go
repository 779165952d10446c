package catalog

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/jonathan/mcp-discovery/internal/types"
)

// WebSearchSourceName labels registry records found through web search
const WebSearchSourceName = "web search"

// WebSearchRegistry uses Google Custom Search as a registry
type WebSearchRegistry struct {
	svc *customsearch.Service
	cx  string
	num int64
}

// NewWebSearchRegistry creates a web search registry. Extra client options
// (endpoint, HTTP client) are passed through to the customsearch service.
func NewWebSearchRegistry(ctx context.Context, apiKey, cx string, opts ...option.ClientOption) (*WebSearchRegistry, error) {
	if cx == "" {
		return nil, fmt.Errorf("search engine ID (cx) is required")
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}

	return &WebSearchRegistry{svc: svc, cx: cx, num: 5}, nil
}

// Search looks for MCP servers matching the query
func (r *WebSearchRegistry) Search(ctx context.Context, query string) ([]Record, error) {
	q := SearchQuery(query)
	resp, err := r.svc.Cse.List().Cx(r.cx).Q(q).Num(r.num).Context(ctx).Do()
	if err != nil {
		return nil, &RegistryError{Registry: WebSearchSourceName, Query: query, Message: "search failed", Cause: err}
	}

	records := make([]Record, 0, len(resp.Items))
	for _, item := range resp.Items {
		link := types.NormalizeURL(item.Link)
		title := strings.TrimSpace(item.Title)
		if link == "" || title == "" {
			continue
		}

		rec := Record{
			Title:       title,
			Description: strings.TrimSpace(item.Snippet),
			ProjectURL:  link,
			PageURL:     link,
		}
		if types.IsGitHubURL(link) {
			rec.GitHubURL = link
		}
		sourceName := item.DisplayLink
		if sourceName == "" {
			sourceName = WebSearchSourceName
		}
		rec.Source = types.NewSource(sourceName, link, title, rec.Description)
		records = append(records, rec)
	}
	return records, nil
}

// SearchQuery scopes a free-form query to MCP servers
func SearchQuery(query string) string {
	query = strings.TrimSpace(query)
	if strings.Contains(strings.ToLower(query), "mcp") {
		return query
	}
	return query + " MCP server"
}
