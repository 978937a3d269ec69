package middleware

import (
	"sync"

	"github.com/sweetpotato0/roundtable/errors"
)

// CallLimiter caps the total number of backend calls a session may make,
// retries included. It backstops a runaway retry policy.
type CallLimiter struct {
	mu       sync.Mutex
	maxCalls int
	counts   map[string]int
}

// NewCallLimiter creates a call limiting middleware
func NewCallLimiter(maxCalls int) *CallLimiter {
	return &CallLimiter{
		maxCalls: maxCalls,
		counts:   make(map[string]int),
	}
}

// Name returns the middleware name
func (m *CallLimiter) Name() string {
	return "CallLimiter"
}

// Execute checks the per-session call count
func (m *CallLimiter) Execute(ctx *Context, next Handler) error {
	m.mu.Lock()
	count := m.counts[ctx.SessionID]
	if m.maxCalls > 0 && count >= m.maxCalls {
		m.mu.Unlock()
		return errors.NewProviderError(errors.KindRateLimited, ctx.Speaker, "session call budget exhausted")
	}
	m.counts[ctx.SessionID] = count + 1
	m.mu.Unlock()

	return next(ctx)
}

// Release clears the count for a finished session.
func (m *CallLimiter) Release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.counts, sessionID)
}
