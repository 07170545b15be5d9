// Package ratelimit provides per-tool token bucket rate limiting for the MCP server.
package ratelimit

import (
	"sync"
	"time"

	apperrors "github.com/nvandessel/ratingsim/internal/errors"
)

// Limiter implements a per-key token bucket rate limiter.
// Each key gets its own bucket with the configured rate and burst.
// It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64          // tokens per second
	burst   int              // max burst size (also initial token count)
	nowFunc func() time.Time // injectable clock for testing
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// NewLimiter creates a rate limiter with the given rate (tokens/sec) and burst size.
// The burst size also serves as the initial number of tokens available.
func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		nowFunc: time.Now,
	}
}

// Allow reports whether a request for key may proceed, consuming a token if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.burst), lastCheck: now}
		l.buckets[key] = b
	}

	if elapsed := now.Sub(b.lastCheck).Seconds(); elapsed > 0 {
		b.tokens = min(b.tokens+l.rate*elapsed, float64(l.burst))
		b.lastCheck = now
	}

	if b.tokens < 1.0 {
		return false
	}
	b.tokens--
	return true
}

// ToolLimiters maps tool names to their rate limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters creates the default per-tool limits. Simulations are the
// expensive calls and get the tightest budget.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		"simulate_ratings": NewLimiter(30.0/60.0, 5), // 30/minute, burst 5
		"team_win_rate":    NewLimiter(30.0/60.0, 5), // 30/minute, burst 5
		"expected_score":   NewLimiter(5.0, 50),      // 300/minute, burst 50
		"list_runs":        NewLimiter(1.0, 10),      // 60/minute, burst 10
		"export_runs":      NewLimiter(5.0/60.0, 2),  // 5/minute, burst 2
		"import_runs":      NewLimiter(5.0/60.0, 2),  // 5/minute, burst 2
	}
}

// CheckLimit returns a CodeRateLimited error when toolName has exhausted its
// budget. Tools without a configured limiter are always allowed.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil
	}

	if !limiter.Allow(toolName) {
		return apperrors.WithMetadata(apperrors.CodeRateLimited,
			"rate limit exceeded for "+toolName+", please try again shortly",
			map[string]string{"tool": toolName})
	}
	return nil
}
