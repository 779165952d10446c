// Package pipeline orchestrates one discovery request from project context to recommendations.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/jonathan/mcp-discovery/internal/assembly"
	"github.com/jonathan/mcp-discovery/internal/catalog"
	"github.com/jonathan/mcp-discovery/internal/ingestion"
	"github.com/jonathan/mcp-discovery/internal/logging"
	"github.com/jonathan/mcp-discovery/internal/queries"
	"github.com/jonathan/mcp-discovery/internal/ranking"
	"github.com/jonathan/mcp-discovery/internal/selection"
	"github.com/jonathan/mcp-discovery/internal/synthesis"
	"github.com/jonathan/mcp-discovery/internal/types"
)

// Pipeline stage names reported in progress events
const (
	StepContext         = "project_context"
	StepQueries         = "queries"
	StepCandidates      = "candidates"
	StepSelection       = "selection"
	StepSynthesis       = "synthesis"
	StepRecommendations = "recommendations"
)

// Progress event categories
const (
	CategoryIngestion  = "ingestion"
	CategoryRetrieval  = "retrieval"
	CategoryGeneration = "generation"
	CategoryResult     = "result"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step      string `json:"step"`
	Category  string `json:"category"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Content   any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Dependencies are the stage implementations a Pipeline runs. Synthesizer is optional.
type Dependencies struct {
	Catalog     *catalog.Catalog
	Generator   *queries.Generator
	Retriever   ranking.Retriever
	Selector    *selection.Selector
	Synthesizer *synthesis.Synthesizer
	Logger      *log.Logger
}

// Pipeline runs discovery requests. It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	catalog     *catalog.Catalog
	generator   *queries.Generator
	retriever   ranking.Retriever
	selector    *selection.Selector
	synthesizer *synthesis.Synthesizer
	logger      *log.Logger
}

// New validates deps and creates a Pipeline
func New(deps Dependencies) (*Pipeline, error) {
	if deps.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if deps.Generator == nil {
		return nil, fmt.Errorf("query generator is required")
	}
	if deps.Retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if deps.Selector == nil {
		return nil, fmt.Errorf("selector is required")
	}
	return &Pipeline{
		catalog:     deps.Catalog,
		generator:   deps.Generator,
		retriever:   deps.Retriever,
		selector:    deps.Selector,
		synthesizer: deps.Synthesizer,
		logger:      logging.OrDiscard(deps.Logger),
	}, nil
}

// Options control a single run
type Options struct {
	// Synthesize enables per-recommendation content generation when a Synthesizer is configured
	Synthesize bool
	OnProgress ProgressCallback
}

// Result is the outcome of one discovery request
type Result struct {
	RequestID       string
	Queries         []string
	Candidates      int
	Recommendations types.RecommendationSet
	Warnings        []string
}

// Response converts the result to the public response envelope
func (r *Result) Response() types.DiscoveryResponse {
	return types.DiscoveryResponse{
		RequestID:  r.RequestID,
		MCPServers: r.Recommendations,
		Queries:    r.Queries,
		Warnings:   r.Warnings,
	}
}

// Input is the raw request: the prompt, the optional spec and manifest slots and any other files
type Input struct {
	Prompt       string
	SpecFile     *types.NamedFile
	ManifestFile *types.NamedFile
	Files        []types.File
}

// Run builds the project context from input and runs Discover.
// A blank prompt is returned as *types.InvalidInputError.
func (p *Pipeline) Run(ctx context.Context, input Input, opts Options) (*Result, error) {
	pc, err := ingestion.Build(input.Prompt, input.SpecFile, input.ManifestFile, input.Files)
	if err != nil {
		return nil, err
	}
	return p.Discover(ctx, pc, opts)
}

// Discover runs the stages in order. Only caller input errors and context cancellation
// fail the request; stage failures are recorded as warnings and the result always holds
// at least one recommendation.
func (p *Pipeline) Discover(ctx context.Context, pc *types.ProjectContext, opts Options) (*Result, error) {
	if pc == nil || isBlank(pc.Prompt) {
		return nil, &types.InvalidInputError{Field: "prompt", Message: "must be a non-empty string"}
	}

	start := time.Now()
	result := &Result{RequestID: uuid.New().String()}
	logger := p.logger.With("request_id", result.RequestID)
	emit := func(step, category, message string, content any) {
		if opts.OnProgress != nil {
			opts.OnProgress(ProgressEvent{
				Step:      step,
				Category:  category,
				Message:   message,
				RequestID: result.RequestID,
				Content:   content,
			})
		}
	}

	summary := p.catalog.Summary()

	emit(StepContext, CategoryIngestion, fmt.Sprintf("Built project context with %d file(s)", pc.FileCount()), nil)
	logger.Info("discovery started", "files", pc.FileCount(), "synthesize", opts.Synthesize && p.synthesizer != nil)

	// Step 1: search queries
	generated, err := p.generator.Generate(ctx, pc, summary)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Error("query generation failed", "error", err)
		result.Warnings = append(result.Warnings, fmt.Sprintf("query generation failed: %v", err))
	}
	result.Queries = generated
	emit(StepQueries, CategoryGeneration, fmt.Sprintf("Generated %d search queries", len(generated)), generated)

	// Step 2: candidates
	candidates, err := p.retriever.Retrieve(ctx, generated)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Warn("candidate retrieval failed", "error", err)
		result.Warnings = append(result.Warnings, fmt.Sprintf("candidate retrieval failed: %v", err))
		candidates = nil
	}
	result.Candidates = len(candidates)
	emit(StepCandidates, CategoryRetrieval, fmt.Sprintf("Retrieved %d candidate servers", len(candidates)), candidateTitles(candidates))

	// Step 3: selection
	selected := p.selector.Select(ctx, pc, candidates, summary)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	emit(StepSelection, CategoryGeneration, fmt.Sprintf("Selected %d servers", len(selected)), candidateTitles(selected))

	// Step 4: optional synthesis
	if opts.Synthesize && p.synthesizer != nil && len(selected) > 0 {
		selected, err = p.synthesizer.SynthesizeAll(ctx, pc, selected)
		if err != nil {
			return nil, err
		}
		emit(StepSynthesis, CategoryGeneration, fmt.Sprintf("Wrote content for %d servers", len(selected)), nil)
	}

	// Step 5: assembly
	result.Recommendations = assembly.Assemble(selected, p.catalog.DiscoveryURL())
	if len(selected) == 0 {
		result.Warnings = append(result.Warnings, "no servers selected; returning fallback recommendation")
	}
	emit(StepRecommendations, CategoryResult, fmt.Sprintf("Assembled %d recommendations", len(result.Recommendations)), result.Recommendations)

	logger.Info("discovery finished",
		"queries", len(result.Queries),
		"candidates", result.Candidates,
		"recommendations", len(result.Recommendations),
		"duration", time.Since(start))

	return result, nil
}

// IsInvalidInput reports whether err is a caller input error
func IsInvalidInput(err error) bool {
	var invalid *types.InvalidInputError
	return errors.As(err, &invalid)
}

func candidateTitles(candidates []types.Candidate) []string {
	titles := make([]string, len(candidates))
	for i, c := range candidates {
		titles[i] = c.Title
	}
	return titles
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
