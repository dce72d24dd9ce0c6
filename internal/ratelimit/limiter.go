// Package ratelimit admits or rejects chat requests under three stacked
// policies: a per-session daily cap, a global daily cap and a per-session
// sliding window.
package ratelimit

import (
	"sync"
	"time"

	"github.com/liliang-cn/standbot/internal/config"
	"github.com/liliang-cn/standbot/internal/domain"
	"github.com/liliang-cn/standbot/internal/session"
)

// Limiter enforces the admission policies. Per-session state lives in the
// session store; the global counter has its own lock, always taken after the
// session lock.
type Limiter struct {
	cfg      config.RateLimitConfig
	sessions *session.Store
	now      func() time.Time

	globalMu sync.Mutex
	global   domain.DailyCount
}

// NewLimiter creates a limiter over the given session store
func NewLimiter(cfg config.RateLimitConfig, sessions *session.Store) *Limiter {
	return &Limiter{
		cfg:      cfg,
		sessions: sessions,
		now:      time.Now,
	}
}

// SetClock overrides the time source. Only meant for tests.
func (l *Limiter) SetClock(now func() time.Time) {
	l.now = now
}

// Allow admits one request for sessionID or returns a *domain.RateLimitError
// naming the first policy that failed. Checking and recording happen in one
// critical section, so concurrent requests never both see room for the last
// slot, and a rejected request leaves every counter untouched.
func (l *Limiter) Allow(sessionID string) error {
	now := l.now()
	day := domain.DayOf(now)
	window := l.cfg.Window()

	var rejected domain.RateLimitPolicy
	l.sessions.WithCounters(sessionID, func(c *session.Counters) {
		if c.Daily.Current(day) >= l.cfg.MaxUserRequestsPerDay {
			rejected = domain.PolicySessionDaily
			return
		}

		l.globalMu.Lock()
		defer l.globalMu.Unlock()

		if l.global.Current(day) >= l.cfg.MaxGlobalRequestsPerDay {
			rejected = domain.PolicyGlobalDaily
			return
		}
		if c.PruneWindow(now, window) >= l.cfg.MaxRequests {
			rejected = domain.PolicyWindow
			return
		}

		c.Daily.Increment(day)
		l.global.Increment(day)
		c.Window = append(c.Window, now)
	})

	if rejected != "" {
		return &domain.RateLimitError{Policy: rejected}
	}
	return nil
}

// Status reports the session's window usage and the configured limits.
func (l *Limiter) Status(sessionID string) domain.RateLimitStatus {
	now := l.now()
	var inWindow int
	l.sessions.WithCounters(sessionID, func(c *session.Counters) {
		inWindow = c.PruneWindow(now, l.cfg.Window())
	})
	return domain.RateLimitStatus{
		RequestsThisWindow: inWindow,
		PerWindowLimit:     l.cfg.MaxRequests,
		WindowSeconds:      l.cfg.WindowSeconds,
		PerDayLimit:        l.cfg.MaxUserRequestsPerDay,
	}
}

// GlobalCount returns the number of requests admitted today across all sessions
func (l *Limiter) GlobalCount() int {
	day := domain.DayOf(l.now())
	l.globalMu.Lock()
	defer l.globalMu.Unlock()
	return l.global.Current(day)
}
