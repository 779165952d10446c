package types

import (
	"net/url"
	"strings"
)

// Defaults substituted for missing fields in selected candidates and final recommendations
const (
	DefaultDescription = "No description available"
	DefaultCLICommand  = "npm install -g unknown-mcp-server"
	DefaultContent     = "No detailed information available."
	DefaultSourceName  = "GitHub"
	GenericSourceName  = "MCP server"
)

// Source describes where a server was found
type Source struct {
	SourceName        string `json:"source_name"`
	SourceURL         string `json:"source_url"`
	SourceTitle       string `json:"source_title"`
	SourceDescription string `json:"source_description"`
}

// NewSource builds a Source whose URL is either a valid absolute URL or empty
func NewSource(name, rawURL, title, description string) Source {
	return Source{
		SourceName:        strings.TrimSpace(name),
		SourceURL:         NormalizeURL(rawURL),
		SourceTitle:       strings.TrimSpace(title),
		SourceDescription: strings.TrimSpace(description),
	}
}

// Candidate is a catalog record after query matching and before final selection
type Candidate struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	CLICommand  string   `json:"cli_command"`
	GitHubURL   string   `json:"github_url"`
	ProjectURL  string   `json:"project_url"`
	Sources     []Source `json:"sources"`
}

// Clone returns a deep copy so callers never share the Sources backing array
func (c Candidate) Clone() Candidate {
	if c.Sources != nil {
		c.Sources = append([]Source{}, c.Sources...)
	}
	return c
}

// DefaultSource synthesizes a source for a candidate that has none. A valid GitHub URL
// gives a "GitHub" source; otherwise a valid project URL gives a source named after its
// host; otherwise the source is a generic "MCP server" one without a URL.
func (c Candidate) DefaultSource() Source {
	description := c.Description
	if strings.TrimSpace(description) == "" {
		description = DefaultDescription
	}

	if u := NormalizeURL(c.GitHubURL); u != "" {
		return NewSource(DefaultSourceName, u, c.Title, description)
	}
	if u := NormalizeURL(c.ProjectURL); u != "" {
		return NewSource(hostName(u), u, c.Title, description)
	}
	return NewSource(GenericSourceName, "", c.Title, description)
}

// Recommendation is a fully validated candidate. URL fields are valid absolute URLs or empty;
// CLICommand, Description and Content are never empty.
type Recommendation struct {
	Title       string   `json:"title"`
	GitHubURL   string   `json:"github_url"`
	ProjectURL  string   `json:"project_url"`
	Sources     []Source `json:"sources"`
	CLICommand  string   `json:"cli_command"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
}

// RecommendationSet is the ordered result of one discovery request
type RecommendationSet []Recommendation

// Titles returns the recommendation titles in order
func (s RecommendationSet) Titles() []string {
	titles := make([]string, len(s))
	for i, rec := range s {
		titles[i] = rec.Title
	}
	return titles
}

// NormalizeURL returns the trimmed URL when it parses with a scheme and a host, otherwise "".
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	return raw
}

// hostName returns the host of a valid URL without a leading "www."
func hostName(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Hostname() == "" {
		return GenericSourceName
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}

// IsGitHubURL reports whether a valid URL points at github.com
func IsGitHubURL(raw string) bool {
	normalized := NormalizeURL(raw)
	if normalized == "" {
		return false
	}
	parsed, _ := url.Parse(normalized)
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	return host == "github.com"
}
