package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/mcp-discovery/internal/types"
)

// Registry searches a remote index of MCP servers
type Registry interface {
	Search(ctx context.Context, query string) ([]Record, error)
}

// Record is one raw registry hit before enrichment
type Record struct {
	Title       string
	Description string
	Content     string
	CLICommand  string
	GitHubURL   string
	ProjectURL  string
	// PageURL is fetched for full content during enrichment
	PageURL string
	Source  types.Source
}

// Candidate converts a record, using content as the long-form text when it is
// non-empty and falling back to the record's own content otherwise
func (r Record) Candidate(content string) types.Candidate {
	if strings.TrimSpace(content) == "" {
		content = r.Content
	}
	c := types.Candidate{
		Title:       r.Title,
		Description: r.Description,
		Content:     content,
		CLICommand:  r.CLICommand,
		GitHubURL:   r.GitHubURL,
		ProjectURL:  r.ProjectURL,
		Sources:     []types.Source{},
	}
	if r.Source.SourceName != "" {
		c.Sources = append(c.Sources, r.Source)
	}
	return c
}

// Smithery defaults
const (
	DefaultSmitheryURL  = "https://api.smithery.dev/v1/servers"
	SmitherySourceName  = "smithery.ai"
	smitheryPageBaseURL = "https://smithery.ai/server/"
	smitheryPageSize    = 10
)

// SmitheryRegistry searches the Smithery registry API
type SmitheryRegistry struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	pageSize   int
}

// NewSmitheryRegistry creates a Smithery client. Empty baseURL uses the public API;
// a nil httpClient uses a 30s timeout client.
func NewSmitheryRegistry(baseURL, apiKey string, httpClient *http.Client) *SmitheryRegistry {
	if baseURL == "" {
		baseURL = DefaultSmitheryURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &SmitheryRegistry{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		pageSize:   smitheryPageSize,
	}
}

type smitheryServer struct {
	QualifiedName string `json:"qualifiedName"`
	DisplayName   string `json:"displayName"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Homepage      string `json:"homepage"`
	URL           string `json:"url"`
}

type smitheryResponse struct {
	Servers []smitheryServer `json:"servers"`
}

// Search runs one registry query
func (r *SmitheryRegistry) Search(ctx context.Context, query string) ([]Record, error) {
	u, err := url.Parse(r.baseURL)
	if err != nil {
		return nil, &RegistryError{Registry: SmitherySourceName, Query: query, Message: "invalid registry URL", Cause: err}
	}
	params := u.Query()
	params.Set("q", query)
	params.Set("page", "1")
	params.Set("pageSize", strconv.Itoa(r.pageSize))
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &RegistryError{Registry: SmitherySourceName, Query: query, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, &RegistryError{Registry: SmitherySourceName, Query: query, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &RegistryError{Registry: SmitherySourceName, Query: query, StatusCode: resp.StatusCode, Message: "unexpected status"}
	}

	var body smitheryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &RegistryError{Registry: SmitherySourceName, Query: query, Message: "failed to decode response", Cause: err}
	}

	records := make([]Record, 0, len(body.Servers))
	for _, s := range body.Servers {
		if rec, ok := s.record(); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (s smitheryServer) record() (Record, bool) {
	title := firstNonEmpty(s.DisplayName, s.Name, s.QualifiedName)
	if title == "" {
		return Record{}, false
	}

	pageURL := firstNonEmpty(s.URL, s.Homepage)
	rec := Record{
		Title:       title,
		Description: strings.TrimSpace(s.Description),
		ProjectURL:  types.NormalizeURL(firstNonEmpty(s.Homepage, s.URL)),
		PageURL:     types.NormalizeURL(pageURL),
	}
	if types.IsGitHubURL(pageURL) {
		rec.GitHubURL = types.NormalizeURL(pageURL)
	}

	sourceURL := DefaultDiscoveryURL
	if s.QualifiedName != "" {
		rec.CLICommand = fmt.Sprintf("npx -y @smithery/cli install %s", s.QualifiedName)
		sourceURL = smitheryPageBaseURL + s.QualifiedName
	}
	rec.Source = types.NewSource(SmitherySourceName, sourceURL, title, rec.Description)

	return rec, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
