// Package queries turns a project context into search queries with one completion call.
package queries

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jonathan/mcp-discovery/internal/llm"
	"github.com/jonathan/mcp-discovery/internal/logging"
	"github.com/jonathan/mcp-discovery/internal/prompts"
	"github.com/jonathan/mcp-discovery/internal/types"
)

// Generator produces search queries for a project
type Generator struct {
	completion llm.TextCompletion
	logger     *log.Logger
}

// NewGenerator creates a Generator. A nil logger discards output.
func NewGenerator(completion llm.TextCompletion, logger *log.Logger) *Generator {
	return &Generator{completion: completion, logger: logging.OrDiscard(logger)}
}

// Generate asks the model for queries and returns every non-blank response line,
// trimmed, in order. A failed completion is returned as is (a *llm.GenerationError
// when the collaborator is an llm.Completer). An empty result is not an error.
func (g *Generator) Generate(ctx context.Context, pc *types.ProjectContext, catalogSummary string) ([]string, error) {
	start := time.Now()
	defer logging.Since(g.logger, "query-generation", start)

	prompt, err := BuildPrompt(pc, catalogSummary)
	if err != nil {
		return nil, err
	}

	response, err := g.completion.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	queries := ParseQueries(response)
	g.logger.Debug("generated queries", "count", len(queries))
	return queries, nil
}

// BuildPrompt renders the query generation template
func BuildPrompt(pc *types.ProjectContext, catalogSummary string) (string, error) {
	if catalogSummary == "" {
		catalogSummary = "(no catalog summary available)"
	}
	return prompts.Render(prompts.File, prompts.KeyQueries, map[string]string{
		"Prompt":         pc.Prompt,
		"SpecMetadata":   pc.RenderSpecMetadata(),
		"Files":          pc.RenderFiles(),
		"CatalogSummary": catalogSummary,
	})
}

// ParseQueries splits a response on line boundaries, trims each line and drops blanks.
// Lines are otherwise kept verbatim.
func ParseQueries(response string) []string {
	response = strings.ReplaceAll(response, "\r\n", "\n")

	var queries []string
	for _, line := range strings.Split(response, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			queries = append(queries, line)
		}
	}
	return queries
}
