package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestFixedWindowLimiterBlocksOverQuota(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewFixedWindowLimiter(redis.Addr(), "", "test:ratelimit", 2, time.Second)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	if !limiter.Allow("ip-1") {
		t.Fatal("first request should pass")
	}
	if !limiter.Allow("ip-1") {
		t.Fatal("second request should pass")
	}
	if limiter.Allow("ip-1") {
		t.Fatal("third request should be blocked")
	}
	if !limiter.Allow("ip-2") {
		t.Fatal("other keys have their own budget")
	}
}

func TestFixedWindowLimiterFailsClosed(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewFixedWindowLimiter(redis.Addr(), "", "test:ratelimit", 1, time.Second)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	redis.Close()
	if limiter.Allow("ip-1") {
		t.Fatal("limiter should fail closed on redis errors")
	}
}

func TestFixedWindowLimiterNilAllowsEverything(t *testing.T) {
	var limiter *FixedWindowLimiter
	if !limiter.Allow("ip-1") {
		t.Fatal("nil limiter means rate limiting disabled")
	}
}

func TestFixedWindowLimiterValidatesArgs(t *testing.T) {
	if _, err := NewFixedWindowLimiter("", "", "p", 1, time.Second); err == nil {
		t.Fatal("expected error for empty redis addr")
	}
	if _, err := NewFixedWindowLimiter("localhost:6379", "", "p", 0, time.Second); err == nil {
		t.Fatal("expected error for zero limit")
	}
}
