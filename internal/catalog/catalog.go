// Package catalog holds the read-only set of known MCP servers and the
// remote registries that can stand in for it.
package catalog

import (
	"fmt"
	"strings"

	"github.com/jonathan/mcp-discovery/internal/types"
)

// DefaultDiscoveryURL is where users are sent when nothing matched
const DefaultDiscoveryURL = "https://smithery.ai"

// Entry is one catalog record
type Entry struct {
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Content     string   `yaml:"content,omitempty" json:"content,omitempty"`
	CLICommand  string   `yaml:"cli_command,omitempty" json:"cli_command,omitempty"`
	GitHubURL   string   `yaml:"github_url,omitempty" json:"github_url,omitempty"`
	ProjectURL  string   `yaml:"project_url,omitempty" json:"project_url,omitempty"`
	Category    string   `yaml:"category,omitempty" json:"category,omitempty"`
	Tags        []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// Candidate converts the entry. Local entries carry no sources; the assembler
// derives one from the GitHub URL.
func (e Entry) Candidate() types.Candidate {
	return types.Candidate{
		Title:       e.Title,
		Description: e.Description,
		Content:     e.Content,
		CLICommand:  e.CLICommand,
		GitHubURL:   e.GitHubURL,
		ProjectURL:  e.ProjectURL,
		Sources:     []types.Source{},
	}
}

// Document is the on-disk shape of a catalog file
type Document struct {
	DiscoveryURL string  `yaml:"discovery_url,omitempty" json:"discovery_url,omitempty"`
	Servers      []Entry `yaml:"servers" json:"servers"`
}

// Catalog is an immutable, ordered set of entries
type Catalog struct {
	entries      []Entry
	discoveryURL string
}

// New creates a catalog from entries. The slice is copied.
func New(entries []Entry, discoveryURL string) *Catalog {
	cp := make([]Entry, len(entries))
	copy(cp, entries)
	if strings.TrimSpace(discoveryURL) == "" {
		discoveryURL = DefaultDiscoveryURL
	}
	return &Catalog{entries: cp, discoveryURL: discoveryURL}
}

// Entries returns a copy of the entries in catalog order
func (c *Catalog) Entries() []Entry {
	cp := make([]Entry, len(c.entries))
	copy(cp, c.entries)
	return cp
}

// Len returns the number of entries
func (c *Catalog) Len() int {
	return len(c.entries)
}

// DiscoveryURL is the general entry point for browsing servers
func (c *Catalog) DiscoveryURL() string {
	return c.discoveryURL
}

// Document returns the catalog in its file shape
func (c *Catalog) Document() Document {
	return Document{DiscoveryURL: c.discoveryURL, Servers: c.Entries()}
}

// Summary lists the server families the catalog covers, one line per category
// in first-seen order. It is fed to the query and selection prompts.
func (c *Catalog) Summary() string {
	if len(c.entries) == 0 {
		return ""
	}

	var order []string
	titles := make(map[string][]string)
	for _, e := range c.entries {
		category := strings.TrimSpace(e.Category)
		if category == "" {
			category = "general"
		}
		if _, seen := titles[category]; !seen {
			order = append(order, category)
		}
		titles[category] = append(titles[category], e.Title)
	}

	lines := make([]string, 0, len(order))
	for _, category := range order {
		lines = append(lines, fmt.Sprintf("- %s: %s", category, strings.Join(titles[category], ", ")))
	}
	return strings.Join(lines, "\n")
}
