// Package fetch - platform.go provides platform detection and platform-specific selectors.
package fetch

import (
	"net/url"
	"strings"
)

// Platform represents a site that commonly hosts MCP server pages.
type Platform string

const (
	// PlatformGitHub is a GitHub repository or tree page
	PlatformGitHub Platform = "github"
	// PlatformNPM is an npm package page
	PlatformNPM Platform = "npm"
	// PlatformPyPI is a PyPI project page
	PlatformPyPI Platform = "pypi"
	// PlatformSmithery is a Smithery registry page
	PlatformSmithery Platform = "smithery"
	// PlatformUnknown is an unrecognized site
	PlatformUnknown Platform = "unknown"
)

// DetectPlatform identifies the hosting platform from a URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")

	switch {
	case host == "github.com":
		return PlatformGitHub
	case host == "npmjs.com" || strings.HasSuffix(host, ".npmjs.com"):
		return PlatformNPM
	case host == "pypi.org":
		return PlatformPyPI
	case host == "smithery.ai" || strings.HasSuffix(host, ".smithery.ai"):
		return PlatformSmithery
	default:
		return PlatformUnknown
	}
}

// PlatformContentSelectors returns content selectors optimized for a specific platform.
func PlatformContentSelectors(platform Platform) []string {
	switch platform {
	case PlatformGitHub:
		return []string{
			"article.markdown-body", // rendered README
			"#readme",
			".markdown-body",
		}
	case PlatformNPM:
		return []string{
			"#readme",
			"article",
		}
	case PlatformPyPI:
		return []string{
			".project-description",
			"#description",
		}
	case PlatformSmithery:
		return []string{
			"main",
			"article",
		}
	default:
		return DefaultTextSelectors()
	}
}

// PlatformNoiseSelectors returns noise exclusion selectors for a specific platform.
func PlatformNoiseSelectors(platform Platform) []string {
	common := []string{
		"form",
		".social-share",
		".share-buttons",
		".cookie-consent",
		".gdpr-notice",
	}

	switch platform {
	case PlatformGitHub:
		return append(common,
			".file-navigation",
			".js-header-wrapper",
			".octicon",
			".anchor",
		)
	case PlatformNPM:
		return append(common,
			"#top",
			"[aria-label='Package sidebar']",
		)
	default:
		return common
	}
}
