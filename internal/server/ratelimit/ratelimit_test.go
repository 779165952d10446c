package ratelimit

import (
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testConfig(rules ...Rule) *Config {
	return &Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{},
		Blacklist:     map[string]bool{},
		Rules:         rules,
	}
}

func TestLimiter_BurstThenDeny(t *testing.T) {
	clock := newFakeClock()
	l := NewLimiter(testConfig(Rule{Method: http.MethodPost, Path: "/discover", Limit: 60, Window: time.Hour, Burst: 3}), WithClock(clock.Now))
	defer l.Stop()

	for i := 0; i < 3; i++ {
		info := l.Allow("10.0.0.1", http.MethodPost, "/discover")
		require.True(t, info.Allowed, "request %d", i+1)
		assert.Equal(t, 60, info.Limit)
		assert.Equal(t, 2-i, info.Remaining)
	}

	info := l.Allow("10.0.0.1", http.MethodPost, "/discover")
	assert.False(t, info.Allowed)
	assert.Equal(t, time.Minute, info.RetryAfter)

	// another client has its own bucket
	assert.True(t, l.Allow("10.0.0.2", http.MethodPost, "/discover").Allowed)
}

func TestLimiter_Refill(t *testing.T) {
	clock := newFakeClock()
	l := NewLimiter(testConfig(Rule{Method: http.MethodPost, Path: "/discover", Limit: 60, Window: time.Hour, Burst: 1}), WithClock(clock.Now))
	defer l.Stop()

	require.True(t, l.Allow("c", http.MethodPost, "/discover").Allowed)
	require.False(t, l.Allow("c", http.MethodPost, "/discover").Allowed)

	clock.Advance(30 * time.Second)
	assert.False(t, l.Allow("c", http.MethodPost, "/discover").Allowed)

	clock.Advance(31 * time.Second)
	info := l.Allow("c", http.MethodPost, "/discover")
	assert.True(t, info.Allowed)
	assert.True(t, info.ResetTime.After(clock.Now()))
}

func TestLimiter_DefaultLimitForUnmatchedPath(t *testing.T) {
	l := NewLimiter(testConfig(), WithClock(newFakeClock().Now))
	defer l.Stop()

	info := l.Allow("c", http.MethodGet, "/anything")
	assert.True(t, info.Allowed)
	assert.Equal(t, 100, info.Limit)
}

func TestLimiter_Unmetered(t *testing.T) {
	cfg := testConfig(DefaultRules()...)
	cfg.Whitelist["trusted"] = true
	cfg.Blacklist["blocked"] = true
	l := NewLimiter(cfg)
	defer l.Stop()

	health := l.Allow("c", http.MethodGet, "/health")
	assert.True(t, health.Allowed)
	assert.Equal(t, 0, health.Limit)

	for i := 0; i < 50; i++ {
		require.True(t, l.Allow("trusted", http.MethodPost, "/discover").Allowed)
	}
	assert.False(t, l.Allow("blocked", http.MethodGet, "/health").Allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	l := NewLimiter(&Config{Enabled: false})
	defer l.Stop()

	for i := 0; i < 10; i++ {
		info := l.Allow("c", http.MethodPost, "/discover")
		assert.True(t, info.Allowed)
		assert.Equal(t, 0, info.Limit)
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	l := NewLimiter(testConfig(Rule{Method: http.MethodPost, Path: "/discover", Limit: 10, Window: time.Hour}), WithClock(newFakeClock().Now))
	defer l.Stop()

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("c", http.MethodPost, "/discover").Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), allowed.Load())
}

func TestLimiter_Evict(t *testing.T) {
	clock := newFakeClock()
	l := NewLimiter(testConfig(), WithClock(clock.Now))
	defer l.Stop()

	l.Allow("old", http.MethodGet, "/a")
	clock.Advance(2 * time.Hour)
	l.Allow("new", http.MethodGet, "/a")

	assert.Equal(t, 1, l.Evict())
	assert.Equal(t, 0, l.Evict())
}

func TestLimiter_StopTwice(t *testing.T) {
	cfg := testConfig()
	cfg.CleanupInterval = time.Millisecond
	l := NewLimiter(cfg)
	l.Stop()
	l.Stop()
}

func TestNewLimiter_NilConfig(t *testing.T) {
	l := NewLimiter(nil)
	defer l.Stop()

	assert.True(t, l.Allow("c", http.MethodPost, "/discover").Allowed)
}

func TestMatch(t *testing.T) {
	rules := []Rule{
		{Method: http.MethodPost, Path: "/discover", Limit: 1},
		{Method: http.MethodGet, Path: "/catalog/", Limit: 2},
		{Method: http.MethodGet, Path: "/catalog/servers/", Limit: 3},
	}

	tests := []struct {
		method, path string
		wantLimit    int
		wantOK       bool
	}{
		{http.MethodPost, "/discover", 1, true},
		{http.MethodGet, "/discover", 0, false},
		{http.MethodPost, "/discover/stream", 0, false},
		{http.MethodGet, "/catalog/summary", 2, true},
		{http.MethodGet, "/catalog/servers/slack", 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rule, ok := Match(rules, tt.method, tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantLimit, rule.Limit)
		})
	}
}

func TestParseIPList(t *testing.T) {
	assert.Equal(t, map[string]bool{"1.2.3.4": true, "::1": true}, ParseIPList(" 1.2.3.4, ,::1"))
	assert.Empty(t, ParseIPList(""))
}
