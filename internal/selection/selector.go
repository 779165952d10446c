// Package selection narrows retrieved candidates to the few best matches with one completion call.
package selection

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jonathan/mcp-discovery/internal/llm"
	"github.com/jonathan/mcp-discovery/internal/logging"
	"github.com/jonathan/mcp-discovery/internal/prompts"
	"github.com/jonathan/mcp-discovery/internal/types"
)

// Selection size guidance passed to the model. Not enforced on the response.
const (
	DefaultMinResults = 2
	DefaultMaxResults = 4
)

// MaxContentRunes bounds each candidate's content in the prompt
const MaxContentRunes = 1000

// NoMatchesMarker replaces the candidate list when retrieval found nothing
const NoMatchesMarker = "No direct matches were found in the search results. Suggest suitable servers from the known MCP server families above instead."

// Selector picks the best candidates for a project
type Selector struct {
	completion llm.TextCompletion
	logger     *log.Logger
	MinResults int
	MaxResults int
}

// NewSelector creates a Selector with the default 2-4 guidance
func NewSelector(completion llm.TextCompletion, logger *log.Logger) *Selector {
	return &Selector{
		completion: completion,
		logger:     logging.OrDiscard(logger),
		MinResults: DefaultMinResults,
		MaxResults: DefaultMaxResults,
	}
}

// selectedItem is one element of the model's JSON array
type selectedItem struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	GitHubURL   string         `json:"github_url"`
	ProjectURL  string         `json:"project_url"`
	CLICommand  string         `json:"cli_command"`
	Content     string         `json:"content"`
	Sources     []types.Source `json:"sources"`
}

// Select asks the model to choose among candidates. It never fails: a collaborator
// error or an unparseable response yields an empty selection.
func (s *Selector) Select(ctx context.Context, pc *types.ProjectContext, candidates []types.Candidate, catalogSummary string) []types.Candidate {
	start := time.Now()
	defer logging.Since(s.logger, "result-selection", start)

	prompt, err := s.BuildPrompt(pc, candidates, catalogSummary)
	if err != nil {
		s.logger.Warn("failed to build selection prompt", "error", err)
		return []types.Candidate{}
	}

	response, err := s.completion.Complete(ctx, prompt)
	if err != nil {
		s.logger.Warn("selection completion failed", "error", err)
		return []types.Candidate{}
	}

	selected, err := ParseSelection(response, candidates)
	if err != nil {
		s.logger.Warn("discarding unparseable selection", "error", err)
		return []types.Candidate{}
	}

	s.logger.Debug("selected candidates", "candidates", len(candidates), "selected", len(selected))
	return selected
}

// BuildPrompt renders the selection template
func (s *Selector) BuildPrompt(pc *types.ProjectContext, candidates []types.Candidate, catalogSummary string) (string, error) {
	if catalogSummary == "" {
		catalogSummary = "(no catalog summary available)"
	}
	return prompts.Render(prompts.File, prompts.KeySelection, map[string]string{
		"Prompt":         pc.Prompt,
		"SpecMetadata":   pc.RenderSpecMetadata(),
		"Files":          pc.RenderFiles(),
		"CatalogSummary": catalogSummary,
		"Candidates":     RenderCandidates(candidates),
		"MinResults":     fmt.Sprintf("%d", s.MinResults),
		"MaxResults":     fmt.Sprintf("%d", s.MaxResults),
	})
}

// RenderCandidates formats candidates as numbered "Result N:" blocks, or NoMatchesMarker when empty
func RenderCandidates(candidates []types.Candidate) string {
	if len(candidates) == 0 {
		return NoMatchesMarker
	}

	blocks := make([]string, len(candidates))
	for i, c := range candidates {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Result %d:\n", i+1))
		sb.WriteString(fmt.Sprintf("Title: %s\n", c.Title))
		sb.WriteString(fmt.Sprintf("Description: %s\n", orDefault(c.Description, types.DefaultDescription)))
		if c.GitHubURL != "" {
			sb.WriteString(fmt.Sprintf("GitHub: %s\n", c.GitHubURL))
		}
		if c.ProjectURL != "" {
			sb.WriteString(fmt.Sprintf("Homepage: %s\n", c.ProjectURL))
		}
		if c.CLICommand != "" {
			sb.WriteString(fmt.Sprintf("Install: %s\n", c.CLICommand))
		}
		sb.WriteString(fmt.Sprintf("Content: %s", truncateContent(c.Content)))
		blocks[i] = sb.String()
	}
	return strings.Join(blocks, "\n\n")
}

// ParseSelection decodes the model response into candidates. Items without a title
// are dropped and missing fields are defaulted. A selected item with no sources
// inherits those of the retrieved candidate with the same title.
func ParseSelection(response string, candidates []types.Candidate) ([]types.Candidate, error) {
	raw := llm.ExtractJSONArray(response)
	if raw == "" {
		return nil, newParseError(response, nil)
	}

	var items []selectedItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, newParseError(raw, err)
	}

	byTitle := make(map[string]types.Candidate, len(candidates))
	for _, c := range candidates {
		key := strings.TrimSpace(c.Title)
		if _, ok := byTitle[key]; !ok {
			byTitle[key] = c
		}
	}

	selected := make([]types.Candidate, 0, len(items))
	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}

		c := types.Candidate{
			Title:       title,
			Description: orDefault(item.Description, types.DefaultDescription),
			Content:     orDefault(item.Content, types.DefaultContent),
			CLICommand:  orDefault(item.CLICommand, types.DefaultCLICommand),
			GitHubURL:   strings.TrimSpace(item.GitHubURL),
			ProjectURL:  strings.TrimSpace(item.ProjectURL),
			Sources:     append([]types.Source{}, item.Sources...),
		}
		if len(c.Sources) == 0 {
			if original, ok := byTitle[title]; ok {
				c.Sources = append(c.Sources, original.Sources...)
			}
		}
		if len(c.Sources) == 0 {
			c.Sources = []types.Source{c.DefaultSource()}
		}

		selected = append(selected, c)
	}

	return selected, nil
}

func truncateContent(content string) string {
	runes := []rune(content)
	if len(runes) <= MaxContentRunes {
		return content
	}
	return string(runes[:MaxContentRunes]) + "..."
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}
