// Package limiter provides a rate limiting middleware.
package limiter

import (
	"sync"

	"github.com/sweetpotato0/transagent/middleware"
)

// RateLimiter caps the number of questions processed before Reset.
type RateLimiter struct {
	mu          sync.Mutex
	maxRequests int
	counter     int
}

// NewRateLimiter creates a rate limiting middleware.
func NewRateLimiter(maxRequests int) *RateLimiter {
	return &RateLimiter{maxRequests: maxRequests}
}

// Name returns the middleware name
func (m *RateLimiter) Name() string {
	return "RateLimiter"
}

// Execute rejects the question when the limit is reached.
func (m *RateLimiter) Execute(ctx *middleware.Context, next middleware.Handler) error {
	m.mu.Lock()
	if m.counter >= m.maxRequests {
		m.mu.Unlock()
		return middleware.ErrRateLimitExceeded
	}
	m.counter++
	m.mu.Unlock()
	return next(ctx)
}

// Reset resets the rate limiter counter.
func (m *RateLimiter) Reset() {
	m.mu.Lock()
	m.counter = 0
	m.mu.Unlock()
}

// Counter returns the current request count.
func (m *RateLimiter) Counter() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counter
}
