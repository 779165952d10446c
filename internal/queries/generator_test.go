package queries

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/mcp-discovery/internal/llm"
	"github.com/jonathan/mcp-discovery/internal/logging"
	"github.com/jonathan/mcp-discovery/internal/types"
)

func testContext() *types.ProjectContext {
	return &types.ProjectContext{
		Prompt:       "I need file system access",
		ManifestFile: &types.NamedFile{Name: "package.json", Content: `{"name":"app"}`},
		Files:        map[string]string{},
	}
}

func TestParseQueries(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     []string
	}{
		{name: "unix newlines", response: "filesystem access\ngit integration\n", want: []string{"filesystem access", "git integration"}},
		{name: "windows newlines", response: "a\r\nb\r\n", want: []string{"a", "b"}},
		{name: "blank lines and padding", response: "\n  postgres database  \n\n\t\nslack bot\n", want: []string{"postgres database", "slack bot"}},
		{name: "kept verbatim", response: "1. Search: \"fs\"", want: []string{"1. Search: \"fs\""}},
		{name: "empty", response: "   \n\n", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseQueries(tt.response))
		})
	}
}

func TestGenerate(t *testing.T) {
	var captured string
	completion := llm.CompletionFunc(func(_ context.Context, prompt string) (string, error) {
		captured = prompt
		return "filesystem access\nlocal file tools\n", nil
	})

	logger, buf := logging.NewTestLogger()
	queries, err := NewGenerator(completion, logger).Generate(context.Background(), testContext(), "- Filesystem: local files")
	require.NoError(t, err)

	assert.Equal(t, []string{"filesystem access", "local file tools"}, queries)
	assert.Contains(t, captured, "I need file system access")
	assert.Contains(t, captured, "File: package.json")
	assert.Contains(t, captured, "- Filesystem: local files")
	assert.Contains(t, buf.String(), "generated queries")
}

func TestGenerate_EmptyResponseIsNotAnError(t *testing.T) {
	completion := llm.CompletionFunc(func(context.Context, string) (string, error) {
		return "", nil
	})

	queries, err := NewGenerator(completion, nil).Generate(context.Background(), testContext(), "")
	require.NoError(t, err)
	assert.Empty(t, queries)
}

func TestGenerate_PropagatesGenerationError(t *testing.T) {
	completion := llm.CompletionFunc(func(context.Context, string) (string, error) {
		return "", &llm.GenerationError{Message: "timeout"}
	})

	_, err := NewGenerator(completion, nil).Generate(context.Background(), testContext(), "")
	require.Error(t, err)

	var genErr *llm.GenerationError
	assert.True(t, errors.As(err, &genErr))
}

func TestBuildPrompt_DefaultsSummary(t *testing.T) {
	prompt, err := BuildPrompt(testContext(), "")
	require.NoError(t, err)
	assert.Contains(t, prompt, "(no catalog summary available)")
	assert.NotContains(t, prompt, "{{.")
}
