// Package ranking retrieves and orders candidate MCP servers for a set of search queries.
package ranking

import (
	"sort"
	"strings"

	"github.com/jonathan/mcp-discovery/internal/types"
)

// Weights for each field checked by Score
type Weights struct {
	Title       float64 `mapstructure:"title" json:"title"`
	Description float64 `mapstructure:"description" json:"description"`
	Content     float64 `mapstructure:"content" json:"content"`
	CLICommand  float64 `mapstructure:"cli_command" json:"cli_command"`
	GitHubURL   float64 `mapstructure:"github_url" json:"github_url"`
}

// Default weights for scoring components
const (
	titleWeight       = 0.5
	descriptionWeight = 0.3
	contentWeight     = 0.2
	cliCommandWeight  = 0.1
	githubURLWeight   = 0.1
)

// DefaultWeights returns the default field weights
func DefaultWeights() Weights {
	return Weights{
		Title:       titleWeight,
		Description: descriptionWeight,
		Content:     contentWeight,
		CLICommand:  cliCommandWeight,
		GitHubURL:   githubURLWeight,
	}
}

// IsZero reports whether every weight is zero, in which case nothing can match
func (w Weights) IsZero() bool {
	return w.Title == 0 && w.Description == 0 && w.Content == 0 && w.CLICommand == 0 && w.GitHubURL == 0
}

// Score returns the relevance (0.0 to 1.0) of a candidate for one query.
// Each field containing the query (case-insensitive) adds its weight; the sum is clipped to 1.0.
// A blank query scores 0 for every candidate.
func Score(c types.Candidate, query string, w Weights) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0.0
	}

	score := 0.0
	if containsFold(c.Title, q) {
		score += w.Title
	}
	if containsFold(c.Description, q) {
		score += w.Description
	}
	if containsFold(c.Content, q) {
		score += w.Content
	}
	if containsFold(c.CLICommand, q) {
		score += w.CLICommand
	}
	if containsFold(c.GitHubURL, q) {
		score += w.GitHubURL
	}

	if score > 1.0 {
		score = 1.0
	}
	if score < 0.0 {
		score = 0.0
	}
	return score
}

func containsFold(field, lowerQuery string) bool {
	return field != "" && strings.Contains(strings.ToLower(field), lowerQuery)
}

// Scored pairs a candidate with its score for one query
type Scored struct {
	Candidate types.Candidate `json:"candidate"`
	Score     float64         `json:"score"`
}

// RankForQuery scores every candidate against query, drops zero scores and
// sorts descending. Ties keep catalog order.
func RankForQuery(candidates []types.Candidate, query string, w Weights) []Scored {
	ranked := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		score := Score(c, query, w)
		if score <= 0 {
			continue
		}
		ranked = append(ranked, Scored{Candidate: c, Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
