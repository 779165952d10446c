package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/mcp-discovery/internal/catalog"
	"github.com/jonathan/mcp-discovery/internal/logging"
	"github.com/jonathan/mcp-discovery/internal/pipeline"
	"github.com/jonathan/mcp-discovery/internal/queries"
	"github.com/jonathan/mcp-discovery/internal/ranking"
	"github.com/jonathan/mcp-discovery/internal/selection"
	"github.com/jonathan/mcp-discovery/internal/server/ratelimit"
	"github.com/jonathan/mcp-discovery/internal/synthesis"
	"github.com/jonathan/mcp-discovery/internal/types"
)

const filesystemSelection = `[{"title": "Filesystem Server", "github_url": "https://github.com/modelcontextprotocol/servers", "cli_command": "npx -y @modelcontextprotocol/server-filesystem"}]`

// fakeModel answers every stage and remembers the prompts it saw
type fakeModel struct {
	mu      sync.Mutex
	prompts []string
}

func (m *fakeModel) Complete(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)

	switch {
	case strings.Contains(prompt, "## Candidates"):
		return filesystemSelection, nil
	case strings.Contains(prompt, "## Server"):
		return "TITLE: Filesystem Server\nDESCRIPTION: Edits project files.\nCONTENT:\nPoint it at the repo.", nil
	default:
		return "filesystem access", nil
	}
}

func (m *fakeModel) sawPrompt(substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.prompts {
		if strings.Contains(p, substr) {
			return true
		}
	}
	return false
}

func (m *fakeModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func newTestServer(t *testing.T, cfg Config) (*Server, *fakeModel) {
	t.Helper()

	model := &fakeModel{}
	cat := catalog.New([]catalog.Entry{
		{
			Title:       "Filesystem Server",
			Category:    "files",
			Description: "Secure filesystem access for local projects",
			GitHubURL:   "https://github.com/modelcontextprotocol/servers",
		},
	}, "https://smithery.ai")

	p, err := pipeline.New(pipeline.Dependencies{
		Catalog:     cat,
		Generator:   queries.NewGenerator(model, nil),
		Retriever:   ranking.NewLocalRetriever(cat, ranking.DefaultWeights(), nil),
		Selector:    selection.NewSelector(model, nil),
		Synthesizer: synthesis.NewSynthesizer(model, 2, nil),
		Logger:      logging.Discard(),
	})
	require.NoError(t, err)

	if cfg.RateLimit == nil {
		cfg.RateLimit = &ratelimit.Config{Enabled: false}
	}
	cfg.Logger = logging.Discard()

	s := New(p, cfg)
	t.Cleanup(s.Close)
	return s, model
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	req.RemoteAddr = "192.0.2.1:1234"
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func multipartRequest(t *testing.T, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, content := range files {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/discover", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, path string, v any) *http.Request {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeDiscovery(t *testing.T, w *httptest.ResponseRecorder) types.DiscoveryResponse {
	t.Helper()
	var resp types.DiscoveryResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp["error"]
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	w := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestHandleDiscover_Multipart(t *testing.T) {
	s, model := newTestServer(t, Config{Synthesize: true})

	req := multipartRequest(t,
		map[string]string{"prompt": "I need file system access"},
		map[string][]byte{
			"package.json": []byte(`{"dependencies": {"express-uploader": "^1.0.0"}}`),
			"notes.txt":    []byte("\xEF\xBB\xBFkeep uploads on disk\r\n"),
		})
	w := serve(s, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeDiscovery(t, w)
	require.Len(t, resp.MCPServers, 1)
	assert.Equal(t, "Filesystem Server", resp.MCPServers[0].Title)
	assert.Equal(t, "Edits project files.", resp.MCPServers[0].Description)
	assert.NotEmpty(t, resp.RequestID)

	assert.True(t, model.sawPrompt("express-uploader"))
	assert.True(t, model.sawPrompt("keep uploads on disk"))
}

func TestHandleDiscover_URLEncodedForm(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	form := url.Values{"prompt": {"I need file system access"}, "synthesize": {"false"}}
	req := httptest.NewRequest(http.MethodPost, "/discover", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := serve(s, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeDiscovery(t, w)
	require.Len(t, resp.MCPServers, 1)
	assert.Equal(t, types.DefaultContent, resp.MCPServers[0].Content)
}

func TestHandleDiscover_BadInput(t *testing.T) {
	tests := []struct {
		name      string
		fields    map[string]string
		files     map[string][]byte
		wantError string
	}{
		{
			name:      "missing prompt",
			fields:    map[string]string{},
			wantError: "prompt",
		},
		{
			name:      "blank prompt",
			fields:    map[string]string{"prompt": "   "},
			wantError: "prompt",
		},
		{
			name:      "binary upload",
			fields:    map[string]string{"prompt": "help"},
			files:     map[string][]byte{"logo.png": {0x89, 0x50, 0x4E, 0x47, 0xff, 0xfe}},
			wantError: "logo.png",
		},
		{
			name:      "bad synthesize flag",
			fields:    map[string]string{"prompt": "help", "synthesize": "maybe"},
			wantError: "synthesize",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, model := newTestServer(t, Config{})

			w := serve(s, multipartRequest(t, tt.fields, tt.files))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decodeError(t, w), tt.wantError)
			assert.Equal(t, 0, model.calls())
		})
	}
}

func TestHandleDiscover_UploadTooLarge(t *testing.T) {
	s, _ := newTestServer(t, Config{MaxUploadBytes: 512})

	req := multipartRequest(t,
		map[string]string{"prompt": "help"},
		map[string][]byte{"big.txt": bytes.Repeat([]byte("a"), 4096)})
	w := serve(s, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestHandleDiscoverJSON(t *testing.T) {
	s, model := newTestServer(t, Config{Synthesize: true})

	mdc := "---\ndescription: Repo rules\n---\nUse the local filesystem."
	synthesize := false
	req := jsonRequest(t, "/discover-json", types.DiscoveryRequest{
		Prompt:     "I need file system access",
		Synthesize: &synthesize,
		Context: &types.ProjectContextPayload{
			UserPrompt:             "I need file system access",
			ProjectMDCFileContents: &mdc,
			AdditionalFiles:        map[string]string{"Makefile": "build:\n\tgo build ./..."},
		},
	})
	w := serve(s, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeDiscovery(t, w)
	require.Len(t, resp.MCPServers, 1)
	assert.Equal(t, "Filesystem Server", resp.MCPServers[0].Title)
	assert.Equal(t, types.DefaultContent, resp.MCPServers[0].Content)
	assert.Equal(t, []string{"filesystem access"}, resp.Queries)

	assert.True(t, model.sawPrompt("Use the local filesystem."))
	assert.True(t, model.sawPrompt("go build ./..."))
	assert.False(t, model.sawPrompt("## Server"))
}

func TestHandleDiscoverJSON_BadInput(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{"malformed json", `{"prompt": `, "invalid request body"},
		{"blank prompt", `{"prompt": "  "}`, "prompt"},
		{"blank context prompt", `{"prompt": "files", "context": {"user_prompt": ""}}`, "user_prompt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, Config{})

			req := httptest.NewRequest(http.MethodPost, "/discover-json", strings.NewReader(tt.body))
			w := serve(s, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decodeError(t, w), tt.wantError)
		})
	}
}

func TestHandleDiscoverStream(t *testing.T) {
	s, _ := newTestServer(t, Config{Synthesize: true})

	w := serve(s, jsonRequest(t, "/discover/stream", map[string]string{"prompt": "I need file system access"}))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	first := strings.Index(body, "event: step")
	result := strings.Index(body, "event: result")
	complete := strings.Index(body, "event: complete")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, result)
	require.NotEqual(t, -1, complete)
	assert.Less(t, first, result)
	assert.Less(t, result, complete)

	assert.Contains(t, body, `"step":"`+pipeline.StepQueries+`"`)
	assert.Contains(t, body, `"step":"`+pipeline.StepRecommendations+`"`)
	assert.Contains(t, body, `"title":"Filesystem Server"`)
	assert.Contains(t, body, `"status":"completed"`)
}

func TestHandleDiscoverStream_InvalidRequestIsNotStreamed(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	w := serve(s, jsonRequest(t, "/discover/stream", map[string]string{"prompt": ""}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestHandleProjectContext(t *testing.T) {
	s, model := newTestServer(t, Config{})

	w := serve(s, jsonRequest(t, "/project-context", map[string]string{"user_prompt": "Build a CLI"}))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","message":"Received project context","prompt":"Build a CLI"}`, w.Body.String())
	assert.Equal(t, 0, model.calls())

	w = serve(s, jsonRequest(t, "/project-context", map[string]string{"user_prompt": ""}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouting_MethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	w := serve(s, httptest.NewRequest(http.MethodGet, "/discover", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORS(t *testing.T) {
	t.Run("any origin", func(t *testing.T) {
		s, _ := newTestServer(t, Config{CORSOrigins: []string{"*"}})

		req := httptest.NewRequest(http.MethodOptions, "/discover", nil)
		req.Header.Set("Origin", "https://app.example.com")
		w := serve(s, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
	})

	t.Run("listed origin", func(t *testing.T) {
		s, _ := newTestServer(t, Config{CORSOrigins: []string{"https://app.example.com"}})

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://app.example.com")
		w := serve(s, req)
		assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

		req = httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w = serve(s, req)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRateLimit(t *testing.T) {
	s, _ := newTestServer(t, Config{RateLimit: &ratelimit.Config{
		Enabled:   true,
		Whitelist: map[string]bool{},
		Blacklist: map[string]bool{},
		Rules: []ratelimit.Rule{
			{Method: http.MethodPost, Path: "/project-context", Limit: 1, Window: time.Hour, Burst: 1},
		},
	}})

	body := map[string]string{"user_prompt": "Build a CLI"}

	w := serve(s, jsonRequest(t, "/project-context", body))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = serve(s, jsonRequest(t, "/project-context", body))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var resp map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "rate_limit_exceeded", resp["error"])
}

func TestClientID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "203.0.113.9:5555"
	assert.Equal(t, "203.0.113.9", clientID(req))

	req.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", clientID(req))
}
