package synthesis

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/mcp-discovery/internal/llm"
	"github.com/jonathan/mcp-discovery/internal/logging"
	"github.com/jonathan/mcp-discovery/internal/prompts"
	"github.com/jonathan/mcp-discovery/internal/types"
)

// DefaultConcurrency bounds in-flight completion calls in SynthesizeAll
const DefaultConcurrency = 4

// Synthesizer rewrites selected candidates for a project
type Synthesizer struct {
	completion  llm.TextCompletion
	logger      *log.Logger
	concurrency int
}

// NewSynthesizer creates a Synthesizer. concurrency below 1 uses DefaultConcurrency.
func NewSynthesizer(completion llm.TextCompletion, concurrency int, logger *log.Logger) *Synthesizer {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Synthesizer{
		completion:  completion,
		logger:      logging.OrDiscard(logger),
		concurrency: concurrency,
	}
}

// Synthesize asks the model to describe one candidate for the project.
// Failures are logged and yield empty Fields.
func (s *Synthesizer) Synthesize(ctx context.Context, pc *types.ProjectContext, c types.Candidate) Fields {
	prompt, err := BuildPrompt(pc, c)
	if err != nil {
		s.logger.Warn("failed to build content prompt", "title", c.Title, "error", err)
		return Fields{}
	}

	response, err := s.completion.Complete(ctx, prompt)
	if err != nil {
		s.logger.Warn("content completion failed", "title", c.Title, "error", err)
		return Fields{}
	}

	fields := ParseResponse(response)
	if fields.IsEmpty() {
		s.logger.Debug("content response had no labeled fields", "title", c.Title)
	}
	return fields
}

// SynthesizeAll synthesizes every candidate concurrently and applies the results.
// Output order matches input order; a failed call leaves its candidate unchanged.
func (s *Synthesizer) SynthesizeAll(ctx context.Context, pc *types.ProjectContext, candidates []types.Candidate) ([]types.Candidate, error) {
	start := time.Now()
	defer logging.Since(s.logger, "content-synthesis", start)

	results := make([]types.Candidate, len(candidates))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, c := range candidates {
		g.Go(func() error {
			if gCtx.Err() != nil {
				results[i] = c.Clone()
				return nil
			}
			results[i] = Apply(c, s.Synthesize(gCtx, pc, c))
			return nil
		})
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// BuildPrompt renders the content template for one candidate
func BuildPrompt(pc *types.ProjectContext, c types.Candidate) (string, error) {
	return prompts.Render(prompts.File, prompts.KeyContent, map[string]string{
		"Prompt":       pc.Prompt,
		"SpecMetadata": pc.RenderSpecMetadata(),
		"Files":        pc.RenderFiles(),
		"Title":        c.Title,
		"Description":  c.Description,
		"GitHubURL":    c.GitHubURL,
		"ProjectURL":   c.ProjectURL,
		"CLICommand":   c.CLICommand,
		"Content":      c.Content,
	})
}
