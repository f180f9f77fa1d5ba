package http

import (
	"testing"
	"time"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := newRateLimiter(2)
	rl.now = func() time.Time { return now }

	if !rl.allow() || !rl.allow() {
		t.Fatal("expected first two frames to pass")
	}
	if rl.allow() {
		t.Fatal("expected third frame to be limited")
	}

	now = now.Add(time.Minute)
	if !rl.allow() {
		t.Fatal("expected a new window to reset the counter")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := newRateLimiter(0)
	for range 100 {
		if !rl.allow() {
			t.Fatal("expected disabled limiter to allow everything")
		}
	}

	var nilLimiter *rateLimiter
	if !nilLimiter.allow() {
		t.Fatal("expected nil limiter to allow")
	}
}
