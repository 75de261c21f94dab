package discord

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter throttles analytics commands per user.
type RateLimiter struct {
	mu    sync.Mutex
	users map[string]*rate.Limiter
	limit rate.Limit
	burst int
}

// NewRateLimiter allows perSecond commands per user on average, with bursts of burst.
// perSecond <= 0 disables limiting.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &RateLimiter{users: make(map[string]*rate.Limiter), limit: limit, burst: burst}
}

func (rl *RateLimiter) get(userID string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	l, ok := rl.users[userID]
	if !ok {
		l = rate.NewLimiter(rl.limit, rl.burst)
		rl.users[userID] = l
	}
	return l
}

func (rl *RateLimiter) CanUse(userID string) bool {
	return rl.get(userID).Allow()
}

// TimeUntilNext reports how long userID has to wait for the next command.
func (rl *RateLimiter) TimeUntilNext(userID string) time.Duration {
	r := rl.get(userID).Reserve()
	defer r.Cancel()
	if !r.OK() {
		return 0
	}
	return r.Delay()
}
