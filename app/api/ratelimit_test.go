package api

import (
	"testing"
	"time"
)

func TestIPRateLimiterAllowAndRecover(t *testing.T) {
	limiter := NewIPRateLimiter(50 * time.Millisecond)

	allowed, _ := limiter.Allow("1.2.3.4")
	if !allowed {
		t.Fatal("Expected first request to be allowed")
	}

	allowed, retryAfter := limiter.Allow("1.2.3.4")
	if allowed {
		t.Fatal("Expected second request to be denied")
	}
	if retryAfter <= 0 {
		t.Errorf("Expected positive retry-after, got %v", retryAfter)
	}

	time.Sleep(60 * time.Millisecond)

	if allowed, _ := limiter.Allow("1.2.3.4"); !allowed {
		t.Error("Expected request to be allowed after the window elapsed")
	}
}

func TestIPRateLimiterPerClient(t *testing.T) {
	limiter := NewIPRateLimiter(time.Hour)

	if allowed, _ := limiter.Allow("1.2.3.4"); !allowed {
		t.Fatal("Expected first client to be allowed")
	}
	if allowed, _ := limiter.Allow("5.6.7.8"); !allowed {
		t.Error("Expected a different client to have its own budget")
	}
	if allowed, _ := limiter.Allow("1.2.3.4"); allowed {
		t.Error("Expected first client to be exhausted")
	}
}

func TestIPRateLimiterPeekDoesNotConsume(t *testing.T) {
	limiter := NewIPRateLimiter(time.Hour)

	// Unknown clients peek as available
	if allowed, _ := limiter.Peek("1.2.3.4"); !allowed {
		t.Fatal("Expected peek on a fresh client to report available")
	}

	for i := 0; i < 5; i++ {
		if allowed, _ := limiter.Peek("1.2.3.4"); !allowed {
			t.Fatalf("Peek %d consumed the client's token", i)
		}
	}

	if allowed, _ := limiter.Allow("1.2.3.4"); !allowed {
		t.Error("Expected token to still be available after peeks")
	}

	allowed, retryAfter := limiter.Peek("1.2.3.4")
	if allowed {
		t.Error("Expected peek to report exhaustion after Allow")
	}
	if retryAfter <= 0 {
		t.Errorf("Expected positive retry-after, got %v", retryAfter)
	}
}
