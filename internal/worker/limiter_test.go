package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_AllowWithinBurst(t *testing.T) {
	limiter := NewLimiter(1, 2)

	if !limiter.Allow("llm") {
		t.Error("First request should be allowed")
	}
	if !limiter.Allow("llm") {
		t.Error("Second request should fit the burst")
	}
	if limiter.Allow("llm") {
		t.Error("Third request should exceed the burst")
	}
}

func TestLimiter_ResourcesAreIndependent(t *testing.T) {
	limiter := NewLimiter(1, 1)

	if !limiter.Allow("llm") {
		t.Error("llm budget should start full")
	}
	if !limiter.Allow("retrieval") {
		t.Error("retrieval budget should be unaffected by llm usage")
	}
}

func TestLimiter_WaitRespectsCancellation(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	limiter.Allow("llm") // Drain the burst

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, "llm"); err == nil {
		t.Error("Expected Wait to fail when the context expires first")
	}
}

func TestLimiter_SetResourceRate(t *testing.T) {
	limiter := NewLimiter(1, 1)
	limiter.SetResourceRate("llm", 100, 10)

	allowed := 0
	for i := 0; i < 10; i++ {
		if limiter.Allow("llm") {
			allowed++
		}
	}
	if allowed != 10 {
		t.Errorf("Expected the raised burst to admit 10 requests, got %d", allowed)
	}
}

func TestLimiter_ZeroBurstDefaults(t *testing.T) {
	limiter := NewLimiter(1, 0)

	if !limiter.Allow("llm") {
		t.Error("Default burst should admit at least one request")
	}
}

func TestLimiter_ZeroRateDefaults(t *testing.T) {
	limiter := NewLimiter(0, 0)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// A literal zero rate would park Wait until the deadline.
	if err := limiter.Wait(ctx, "llm"); err != nil {
		t.Errorf("Expected the default rate to admit a request, got %v", err)
	}
}
