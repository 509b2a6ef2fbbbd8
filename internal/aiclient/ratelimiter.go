package aiclient

import (
	"sync"
	"time"
)

// RateLimiter is a token bucket with a requests-per-minute budget, one
// instance per media type. Wait is the single synchronization point: the
// first request never blocks, and no two consecutive successful requests
// complete within less than min_delay = 60/rpm.
type RateLimiter struct {
	mu       sync.Mutex
	minDelay time.Duration
	last     time.Time
	hasLast  bool
	sleep    func(time.Duration)
}

// NewRateLimiter returns a limiter budgeted at rpm requests per minute.
func NewRateLimiter(rpm int) *RateLimiter {
	if rpm <= 0 {
		rpm = 1
	}
	return &RateLimiter{
		minDelay: time.Minute / time.Duration(rpm),
		sleep:    time.Sleep,
	}
}

// Wait blocks until a request may proceed under this limiter's budget.
func (r *RateLimiter) Wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.hasLast {
		r.hasLast = true
		r.last = time.Now()
		return
	}

	elapsed := time.Since(r.last)
	if elapsed < r.minDelay {
		r.sleep(r.minDelay - elapsed)
	}
	r.last = time.Now()
}
