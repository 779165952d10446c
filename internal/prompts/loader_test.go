package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queryData() map[string]string {
	return map[string]string{
		"Prompt":         "I need file system access",
		"Files":          "(no project files provided)",
		"CatalogSummary": "- files: Filesystem Server",
		"SpecMetadata":   "",
	}
}

func TestGet(t *testing.T) {
	prompt, err := Get(File, KeyQueries)
	require.NoError(t, err)
	assert.Contains(t, prompt, "one query per line")

	_, err = Get("nonexistent.json", "some-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")

	_, err = Get(File, "nonexistent-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet(t *testing.T) {
	assert.Panics(t, func() { MustGet("nonexistent.json", "some-key") })
	assert.NotPanics(t, func() { assert.NotEmpty(t, MustGet(File, KeySelection)) })
}

func TestList(t *testing.T) {
	keys, err := List(File)
	require.NoError(t, err)
	assert.Equal(t, []string{KeyContent, KeyQueries, KeySelection}, keys)
}

func TestRender(t *testing.T) {
	prompt, err := Render(File, KeyQueries, queryData())
	require.NoError(t, err)
	assert.Contains(t, prompt, "Request: I need file system access")
	assert.Contains(t, prompt, "- files: Filesystem Server")
	assert.NotContains(t, prompt, "{{")

	_, err = Render(File, "missing", nil)
	assert.Error(t, err)
}

func TestRender_ValuesAreNotExpanded(t *testing.T) {
	data := queryData()
	data["Prompt"] = "literal {{.Files}} in the request"

	prompt, err := Render(File, KeyQueries, data)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Request: literal {{.Files}} in the request")
}

func TestRender_MissingFieldFails(t *testing.T) {
	data := queryData()
	delete(data, "CatalogSummary")

	_, err := Render(File, KeyQueries, data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CatalogSummary")
}

func TestDiscoveryTemplates_Fields(t *testing.T) {
	tests := []struct {
		key    string
		fields []string
	}{
		{key: KeyQueries, fields: []string{"{{.Prompt}}", "{{.Files}}", "{{.CatalogSummary}}"}},
		{key: KeySelection, fields: []string{"{{.Prompt}}", "{{.Files}}", "{{.CatalogSummary}}", "{{.Candidates}}", "{{.MinResults}}", "{{.MaxResults}}"}},
		{key: KeyContent, fields: []string{"{{.Prompt}}", "{{.Files}}", "{{.Title}}", "{{.Content}}"}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			prompt, err := Get(File, tt.key)
			require.NoError(t, err)
			for _, f := range tt.fields {
				assert.Contains(t, prompt, f)
			}
		})
	}
}

func TestGenerateContent_ListsEveryLabel(t *testing.T) {
	prompt := MustGet(File, KeyContent)
	for _, label := range []string{"TITLE:", "GITHUB_URL:", "PROJECT_URL:", "CLI_COMMAND:", "DESCRIPTION:", "CONTENT:"} {
		assert.Contains(t, prompt, "\n"+label)
	}
}
