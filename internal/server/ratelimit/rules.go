package ratelimit

import (
	"net/http"
	"strings"
	"time"
)

// Rule limits one method and path. A Path ending in "/" matches by prefix.
// A Limit of zero or less means unlimited.
type Rule struct {
	Method string
	Path   string
	Limit  int
	Window time.Duration
	Burst  int // defaults to Limit
}

// DefaultRules returns the per-endpoint limits for the discovery API.
// Discovery endpoints each cost several completion calls and get the strictest limits.
func DefaultRules() []Rule {
	return []Rule{
		{Method: http.MethodGet, Path: "/health", Limit: 0},
		{Method: http.MethodPost, Path: "/discover", Limit: 30, Window: time.Hour, Burst: 5},
		{Method: http.MethodPost, Path: "/discover-json", Limit: 30, Window: time.Hour, Burst: 5},
		{Method: http.MethodPost, Path: "/discover/stream", Limit: 30, Window: time.Hour, Burst: 5},
		{Method: http.MethodPost, Path: "/project-context", Limit: 120, Window: time.Minute, Burst: 20},
	}
}

// Match returns the rule for method and path: an exact path first, then the longest prefix rule.
func Match(rules []Rule, method, path string) (Rule, bool) {
	for _, r := range rules {
		if r.Method == method && r.Path == path {
			return r, true
		}
	}

	best, found := Rule{}, false
	for _, r := range rules {
		if r.Method != method || !strings.HasSuffix(r.Path, "/") || !strings.HasPrefix(path, r.Path) {
			continue
		}
		if !found || len(r.Path) > len(best.Path) {
			best, found = r, true
		}
	}
	return best, found
}

// ParseIPList parses a comma-separated list of client IPs into a set
func ParseIPList(list string) map[string]bool {
	set := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			set[ip] = true
		}
	}
	return set
}
