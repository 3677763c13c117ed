package flow

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter throttles actions per key, such as recovery requests per email.
type Limiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	idle    time.Duration
	entries map[string]*limiterEntry
	now     func() time.Time
}

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewLimiter allows perMinute events per key per minute with a burst of the
// same size. perMinute <= 0 disables limiting.
func NewLimiter(perMinute int) *Limiter {
	l := &Limiter{
		limit:   rate.Inf,
		idle:    10 * time.Minute,
		entries: make(map[string]*limiterEntry),
		now:     time.Now,
	}
	if perMinute > 0 {
		l.limit = rate.Every(time.Minute / time.Duration(perMinute))
		l.burst = perMinute
	}
	return l
}

// Allow reports whether an event for key may happen now.
func (l *Limiter) Allow(key string) bool {
	if l == nil || l.limit == rate.Inf {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.seen = now
	return e.lim.AllowN(now, 1)
}

func (l *Limiter) sweep(now time.Time) {
	for k, e := range l.entries {
		if now.Sub(e.seen) > l.idle {
			delete(l.entries, k)
		}
	}
}
