// Package assembly validates selected candidates into the final recommendation set.
package assembly

import (
	"strings"

	"github.com/jonathan/mcp-discovery/internal/types"
)

// Fallback recommendation text used when nothing usable was selected
const (
	FallbackTitle       = "MCP Server Recommendation"
	FallbackDescription = "No specific MCP server matched this project. Browse the MCP server directory to find one that fits."
	FallbackCLICommand  = "npx -y @smithery/cli search"
	FallbackContent     = "The discovery pipeline could not select a server for this request. " +
		"Try describing the services, databases or APIs your project uses in more detail, " +
		"or browse the directory linked above."
	FallbackSourceName = "MCP server directory"
)

// NormalizeURL returns raw trimmed when it is an absolute URL with scheme and host, otherwise ""
func NormalizeURL(raw string) string {
	return types.NormalizeURL(raw)
}

// NewRecommendation validates one candidate. URL fields that do not parse become "",
// blank text fields take their defaults and an empty source list gets one synthesized source.
// ok is false when the candidate has no title.
func NewRecommendation(c types.Candidate) (types.Recommendation, bool) {
	title := strings.TrimSpace(c.Title)
	if title == "" {
		return types.Recommendation{}, false
	}

	rec := types.Recommendation{
		Title:       title,
		GitHubURL:   NormalizeURL(c.GitHubURL),
		ProjectURL:  NormalizeURL(c.ProjectURL),
		CLICommand:  orDefault(c.CLICommand, types.DefaultCLICommand),
		Description: orDefault(c.Description, types.DefaultDescription),
		Content:     orDefault(c.Content, types.DefaultContent),
		Sources:     make([]types.Source, 0, len(c.Sources)),
	}

	for _, s := range c.Sources {
		s.SourceURL = NormalizeURL(s.SourceURL)
		rec.Sources = append(rec.Sources, s)
	}
	if len(rec.Sources) == 0 {
		rec.Sources = append(rec.Sources, types.Candidate{
			Title:       rec.Title,
			Description: rec.Description,
			GitHubURL:   rec.GitHubURL,
			ProjectURL:  rec.ProjectURL,
		}.DefaultSource())
	}

	return rec, true
}

// Assemble converts the selection into recommendations in order. When no candidate is
// usable the result is a single Fallback pointing at discoveryURL.
func Assemble(selected []types.Candidate, discoveryURL string) types.RecommendationSet {
	set := make(types.RecommendationSet, 0, len(selected))
	for _, c := range selected {
		if rec, ok := NewRecommendation(c); ok {
			set = append(set, rec)
		}
	}

	if len(set) == 0 {
		return types.RecommendationSet{Fallback(discoveryURL)}
	}
	return set
}

// Fallback builds the recommendation returned when nothing was selected
func Fallback(discoveryURL string) types.Recommendation {
	projectURL := NormalizeURL(discoveryURL)
	return types.Recommendation{
		Title:       FallbackTitle,
		ProjectURL:  projectURL,
		CLICommand:  FallbackCLICommand,
		Description: FallbackDescription,
		Content:     FallbackContent,
		Sources: []types.Source{
			types.NewSource(FallbackSourceName, projectURL, FallbackTitle, FallbackDescription),
		},
	}
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
