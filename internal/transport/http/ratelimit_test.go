package http

import (
	"testing"
	"time"
)

func TestIPRateLimiterDisabled(t *testing.T) {
	limiter := newIPRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		if !limiter.allow("10.0.0.1") {
			t.Fatalf("disabled limiter must always allow")
		}
	}
}

func TestIPRateLimiterPerIP(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	limiter := newIPRateLimiter(1, 2)
	limiter.now = func() time.Time { return now }
	limiter.lastSweep = now

	if !limiter.allow("a") || !limiter.allow("a") {
		t.Fatalf("burst of two should be allowed")
	}
	if limiter.allow("a") {
		t.Fatalf("third request in the same instant should be rejected")
	}
	if !limiter.allow("b") {
		t.Fatalf("other clients have their own bucket")
	}

	now = now.Add(time.Second)
	if !limiter.allow("a") {
		t.Fatalf("bucket should refill after a second")
	}
}

func TestIPRateLimiterSweepsIdleClients(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	limiter := newIPRateLimiter(10, 1)
	limiter.now = func() time.Time { return now }
	limiter.lastSweep = now

	limiter.allow("idle")
	now = now.Add(limiterSweepInterval)
	limiter.allow("active")

	if _, ok := limiter.limits["idle"]; ok {
		t.Fatalf("idle client should have been swept")
	}
	if _, ok := limiter.limits["active"]; !ok {
		t.Fatalf("active client should be tracked")
	}
}
