// Package fetch retrieves page content for registry results. Fetchers never
// fail the caller: a page that cannot be fetched yields an empty string.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (compatible; MCPDiscovery/1.0)"

	maxBodyBytes = 5 << 20
)

// Page is a downloaded document
type Page struct {
	URL         string
	HTML        string
	ContentType string
	StatusCode  int
}

// Error reports a failed download. Status is set when the server answered.
type Error struct {
	URL    string
	Status int
	Reason string
	Cause  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("fetch %s: %s", e.URL, e.Reason)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures Get
type Options struct {
	Timeout    time.Duration
	UserAgent  string
	Headers    map[string]string
	HTTPClient *http.Client // takes precedence over Timeout
}

func DefaultOptions() *Options {
	return &Options{Timeout: DefaultTimeout, UserAgent: DefaultUserAgent}
}

func (o *Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

func (o *Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return &http.Client{Timeout: o.timeout()}
}

// Get downloads rawURL. Non-200 answers return the Page together with an *Error
// so callers can inspect the status.
func Get(ctx context.Context, rawURL string, opts *Options) (*Page, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	if u, err := url.Parse(rawURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &Error{URL: rawURL, Reason: "invalid URL", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{URL: rawURL, Reason: "bad request", Cause: err}
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := opts.httpClient().Do(req)
	if err != nil {
		return nil, &Error{URL: rawURL, Reason: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{URL: rawURL, Status: resp.StatusCode, Reason: "read body", Cause: err}
	}

	page := &Page{
		URL:         rawURL,
		HTML:        string(body),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}
	if resp.StatusCode != http.StatusOK {
		return page, &Error{URL: rawURL, Status: resp.StatusCode, Reason: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}
	return page, nil
}

// chrome is stripped from every page before text is read
const chrome = "nav, footer, header, script, style, noscript, svg, iframe, .ad, .advertisement, .sidebar, .cookie-banner, .popup"

// Extractor pulls readable text out of HTML. The first Content selector that
// matches wins; without a match the whole body is used.
type Extractor struct {
	Content []string
	Noise   []string
}

// ExtractorFor returns the selectors tuned for a hosting platform
func ExtractorFor(p Platform) Extractor {
	return Extractor{Content: PlatformContentSelectors(p), Noise: PlatformNoiseSelectors(p)}
}

// Text returns the extracted text with blank lines removed and every line trimmed
func (x Extractor) Text(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(chrome).Remove()
	if len(x.Noise) > 0 {
		doc.Find(strings.Join(x.Noise, ", ")).Remove()
	}

	root := doc.Find("body")
	for _, sel := range x.Content {
		if m := doc.Find(sel); m.Length() > 0 {
			root = m.First()
			break
		}
	}
	return compactLines(root.Text()), nil
}

// DefaultTextSelectors match the main region of a generic page
func DefaultTextSelectors() []string {
	return []string{"main", "article", ".content", "#content", ".main-content", "#main-content"}
}

func compactLines(text string) string {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	return b.String()
}

// truncateRunes cuts text to at most n runes; n <= 0 disables the limit
func truncateRunes(text string, n int) string {
	if n <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
