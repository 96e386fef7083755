package http

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterSweepInterval = 3 * time.Minute

// ipRateLimiter keeps one token bucket per client IP.
type ipRateLimiter struct {
	mu        sync.Mutex
	limits    map[string]*rate.Limiter
	r         rate.Limit
	b         int
	lastSweep time.Time
	now       func() time.Time
}

func newIPRateLimiter(rps float64, burst int) *ipRateLimiter {
	if rps <= 0 {
		return &ipRateLimiter{}
	}
	if burst <= 0 {
		burst = 1
	}
	return &ipRateLimiter{
		limits:    make(map[string]*rate.Limiter),
		r:         rate.Limit(rps),
		b:         burst,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (l *ipRateLimiter) allow(ip string) bool {
	if l == nil || l.limits == nil {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= limiterSweepInterval {
		l.sweep(now)
	}

	limiter, ok := l.limits[ip]
	if !ok {
		limiter = rate.NewLimiter(l.r, l.b)
		l.limits[ip] = limiter
	}
	return limiter.AllowN(now, 1)
}

// sweep drops buckets that have refilled completely, i.e. idle clients.
func (l *ipRateLimiter) sweep(now time.Time) {
	for ip, limiter := range l.limits {
		if limiter.TokensAt(now) >= float64(limiter.Burst()) {
			delete(l.limits, ip)
		}
	}
	l.lastSweep = now
}
