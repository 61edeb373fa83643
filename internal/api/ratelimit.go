package api

import (
	"sync"

	"golang.org/x/time/rate"
)

// SessionLimiter keeps one token bucket per session.
type SessionLimiter struct {
	mu       sync.Mutex
	rps      rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func NewSessionLimiter(rps float64, burst int) *SessionLimiter {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &SessionLimiter{rps: rate.Limit(rps), burst: burst, limiters: map[string]*rate.Limiter{}}
}

func (l *SessionLimiter) Allow(sessionID string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[sessionID]
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.limiters[sessionID] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}
