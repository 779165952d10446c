package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/chromedp/chromedp"
)

// minStaticRunes is the least text a static download must yield before the
// page is trusted not to be rendered client-side
const minStaticRunes = 200

// settleDelay lets client-side frameworks finish their first render
const settleDelay = 2 * time.Second

func needsRender(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) < minStaticRunes
}

// Renderer loads a page in a browser and returns the resulting document
type Renderer func(ctx context.Context, url string, timeout time.Duration) (string, error)

// RenderWithBrowser loads url in headless Chrome. Chrome or Chromium must be installed.
func RenderWithBrowser(ctx context.Context, url string, timeout time.Duration) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Headless,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(DefaultUserAgent),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	tabCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()

	var doc string
	if err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(settleDelay),
		chromedp.Evaluate(`document.documentElement.outerHTML`, &doc),
	); err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}
	return doc, nil
}
