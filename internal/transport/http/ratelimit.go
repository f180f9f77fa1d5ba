package http

import (
	"sync"
	"time"
)

// rateLimiter counts frames in fixed one minute windows. It is safe for
// concurrent use.
type rateLimiter struct {
	mu      sync.Mutex
	limit   int
	counter int
	window  time.Time
	now     func() time.Time
}

func newRateLimiter(limit int) *rateLimiter {
	return &rateLimiter{
		limit: limit,
		now:   time.Now,
	}
}

func (r *rateLimiter) allow() bool {
	if r == nil || r.limit <= 0 {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.Sub(r.window) >= time.Minute {
		r.window = now
		r.counter = 0
	}
	r.counter++
	return r.counter <= r.limit
}
