package server

import (
	"fmt"
	"sync"
	"time"
)

// RateLimiter enforces a fixed-window per-minute request budget per client.
type RateLimiter struct {
	mu             sync.Mutex
	limitPerMinute int
	windows        map[string]*clientWindow
}

type clientWindow struct {
	count       int
	windowStart time.Time
}

// NewRateLimiter creates a limiter allowing limitPerMinute requests per
// client per minute. Zero or negative disables limiting at the middleware.
func NewRateLimiter(limitPerMinute int) *RateLimiter {
	return &RateLimiter{
		limitPerMinute: limitPerMinute,
		windows:        make(map[string]*clientWindow),
	}
}

// Allow records a request for the client and reports whether it fits the
// budget. The typed error carries retry timing for response headers.
func (rl *RateLimiter) Allow(clientID string) *RateLimitError {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	win, ok := rl.windows[clientID]
	if !ok || now.Sub(win.windowStart) >= time.Minute {
		rl.windows[clientID] = &clientWindow{count: 1, windowStart: now}
		return nil
	}

	if win.count >= rl.limitPerMinute {
		return &RateLimitError{
			Limit:      rl.limitPerMinute,
			RetryAfter: time.Minute - now.Sub(win.windowStart),
		}
	}
	win.count++
	return nil
}

// Usage returns the request count in the client's current window.
func (rl *RateLimiter) Usage(clientID string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	win, ok := rl.windows[clientID]
	if !ok || time.Since(win.windowStart) >= time.Minute {
		return 0
	}
	return win.count
}

// RateLimitError reports a rejected request.
type RateLimitError struct {
	Limit      int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded (limit: %d/min, retry after: %v)", e.Limit, e.RetryAfter)
}
