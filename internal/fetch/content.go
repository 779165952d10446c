package fetch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jonathan/mcp-discovery/internal/logging"
)

// DefaultParserURL is the Andi content parser endpoint
const DefaultParserURL = "https://api.andisearch.com/parser/parser"

// DefaultMaxContentRunes bounds the text kept per page
const DefaultMaxContentRunes = 20000

// ContentFetcher retrieves the readable text of a page. It returns "" on any failure.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) string
}

// FetcherFunc adapts a function to ContentFetcher
type FetcherFunc func(ctx context.Context, url string) string

// Fetch calls f
func (f FetcherFunc) Fetch(ctx context.Context, url string) string {
	return f(ctx, url)
}

// Noop never fetches anything
var Noop ContentFetcher = FetcherFunc(func(context.Context, string) string { return "" })

// ParserFetcher asks a content parser API (?url=&api_key=) for the page content
type ParserFetcher struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *log.Logger
}

// NewParserFetcher creates a parser-backed fetcher. Empty endpoint uses the Andi parser;
// a nil httpClient uses a 30s timeout.
func NewParserFetcher(endpoint, apiKey string, httpClient *http.Client, logger *log.Logger) *ParserFetcher {
	if endpoint == "" {
		endpoint = DefaultParserURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &ParserFetcher{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logging.OrDiscard(logger),
	}
}

// Fetch returns the parsed content or "" when the call fails or the status is not 200
func (f *ParserFetcher) Fetch(ctx context.Context, pageURL string) string {
	u, err := url.Parse(f.endpoint)
	if err != nil {
		f.logger.Warn("invalid content parser endpoint", "endpoint", f.endpoint, "err", err)
		return ""
	}
	params := u.Query()
	params.Set("url", pageURL)
	params.Set("api_key", f.apiKey)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		f.logger.Debug("content parser request failed", "url", pageURL, "err", err)
		return ""
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.Debug("content parser request failed", "url", pageURL, "err", err)
		return ""
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		f.logger.Debug("content parser returned non-200", "url", pageURL, "status", resp.StatusCode)
		return ""
	}

	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		f.logger.Debug("content parser returned invalid JSON", "url", pageURL, "err", err)
		return ""
	}
	return body.Content
}

// PageFetcher downloads a page directly and extracts its main text, optionally
// rendering it in a headless browser when the static HTML carries too little text
type PageFetcher struct {
	opts       *Options
	useBrowser bool
	render     Renderer
	maxRunes   int
	logger     *log.Logger
}

// PageOption configures a PageFetcher
type PageOption func(*PageFetcher)

// WithBrowserFallback enables headless rendering for thin pages
func WithBrowserFallback(enabled bool) PageOption {
	return func(f *PageFetcher) { f.useBrowser = enabled }
}

// WithRenderer replaces the headless renderer
func WithRenderer(r Renderer) PageOption {
	return func(f *PageFetcher) { f.render = r }
}

// WithMaxRunes bounds the returned text; 0 disables the limit
func WithMaxRunes(n int) PageOption {
	return func(f *PageFetcher) { f.maxRunes = n }
}

// NewPageFetcher creates a direct page fetcher
func NewPageFetcher(opts *Options, logger *log.Logger, options ...PageOption) *PageFetcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	f := &PageFetcher{
		opts:     opts,
		render:   RenderWithBrowser,
		maxRunes: DefaultMaxContentRunes,
		logger:   logging.OrDiscard(logger),
	}
	for _, o := range options {
		o(f)
	}
	return f
}

// Fetch returns the main text of the page, or "" on failure
func (f *PageFetcher) Fetch(ctx context.Context, pageURL string) string {
	extractor := ExtractorFor(DetectPlatform(pageURL))

	var text string
	if page, err := Get(ctx, pageURL, f.opts); err != nil {
		f.logger.Debug("page fetch failed", "url", pageURL, "err", err)
	} else if text, err = extractor.Text(page.HTML); err != nil {
		f.logger.Debug("text extraction failed", "url", pageURL, "err", err)
	}

	if f.useBrowser && needsRender(text) {
		html, err := f.render(ctx, pageURL, f.opts.timeout())
		if err != nil {
			f.logger.Debug("browser render failed", "url", pageURL, "err", err)
		} else if rendered, err := extractor.Text(html); err == nil && len(rendered) > len(text) {
			text = rendered
		}
	}

	return truncateRunes(text, f.maxRunes)
}

// Chain tries fetchers in order and returns the first non-empty content
type Chain []ContentFetcher

// Fetch implements ContentFetcher
func (c Chain) Fetch(ctx context.Context, pageURL string) string {
	for _, f := range c {
		if ctx.Err() != nil {
			return ""
		}
		if content := f.Fetch(ctx, pageURL); strings.TrimSpace(content) != "" {
			return content
		}
	}
	return ""
}

// WithTimeout bounds every call of f
func WithTimeout(f ContentFetcher, timeout time.Duration) ContentFetcher {
	if timeout <= 0 {
		return f
	}
	return FetcherFunc(func(ctx context.Context, pageURL string) string {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return f.Fetch(ctx, pageURL)
	})
}
