package synthesis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/mcp-discovery/internal/llm"
	"github.com/jonathan/mcp-discovery/internal/logging"
	"github.com/jonathan/mcp-discovery/internal/types"
)

func testContext() *types.ProjectContext {
	return &types.ProjectContext{Prompt: "Add error monitoring to my Go service"}
}

// titleEcho answers with a DESCRIPTION naming the server found in the prompt.
// The first server is slowed down so completions finish out of order.
func titleEcho() llm.TextCompletion {
	return llm.CompletionFunc(func(ctx context.Context, prompt string) (string, error) {
		title := between(prompt, "Title: ", "\n")
		if title == "Broken" {
			return "", errors.New("upstream 500")
		}
		if title == "Slow" {
			time.Sleep(20 * time.Millisecond)
		}
		return "DESCRIPTION: described " + title + "\nCONTENT:\nbody for " + title, nil
	})
}

func between(s, start, end string) string {
	i := strings.Index(s, start)
	if i < 0 {
		return ""
	}
	s = s[i+len(start):]
	if j := strings.Index(s, end); j >= 0 {
		return s[:j]
	}
	return s
}

func TestSynthesizeAll_PreservesOrderAndContainsFailures(t *testing.T) {
	logger, buf := logging.NewTestLogger()
	s := NewSynthesizer(titleEcho(), 3, logger)

	input := []types.Candidate{
		{Title: "Slow", Description: "a"},
		{Title: "Broken", Description: "unchanged", Content: "kept"},
		{Title: "Fast", Description: "c"},
	}

	got, err := s.SynthesizeAll(context.Background(), testContext(), input)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "Slow", got[0].Title)
	assert.Equal(t, "described Slow", got[0].Description)
	assert.Equal(t, "body for Slow", got[0].Content)

	assert.Equal(t, input[1], got[1])

	assert.Equal(t, "described Fast", got[2].Description)
	assert.Contains(t, buf.String(), "content completion failed")
}

func TestSynthesize_UnlabeledResponse(t *testing.T) {
	s := NewSynthesizer(llm.CompletionFunc(func(context.Context, string) (string, error) {
		return "no labels here", nil
	}), 0, nil)

	f := s.Synthesize(context.Background(), testContext(), types.Candidate{Title: "Sentry"})
	assert.True(t, f.IsEmpty())
}

func TestSynthesizeAll_Cancelled(t *testing.T) {
	s := NewSynthesizer(titleEcho(), 1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.SynthesizeAll(ctx, testContext(), []types.Candidate{{Title: "Fast"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildPrompt_IncludesCandidateFields(t *testing.T) {
	prompt, err := BuildPrompt(testContext(), types.Candidate{
		Title:      "Sentry",
		GitHubURL:  "https://github.com/getsentry/sentry-mcp",
		CLICommand: "npx @sentry/mcp-server",
		Content:    "Issue search and stack traces",
	})
	require.NoError(t, err)

	assert.Contains(t, prompt, "Add error monitoring to my Go service")
	assert.Contains(t, prompt, "Title: Sentry\n")
	assert.Contains(t, prompt, "GitHub: https://github.com/getsentry/sentry-mcp")
	assert.Contains(t, prompt, "Install: npx @sentry/mcp-server")
	assert.Contains(t, prompt, "Issue search and stack traces")
	assert.Contains(t, prompt, "CONTENT:")
	assert.NotContains(t, prompt, "{{.")
}
