package worker

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter rate-limits access to named resources. Batch processing keys it
// by logical resource ("llm", "retrieval") so parallel workers share one
// budget per backend instead of one per worker.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a limiter with the given default budget per resource.
// A zero or negative rate would block every Wait forever, so both knobs
// fall back to usable defaults.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 2
	}
	if burst <= 0 {
		burst = 5
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(requestsPerSecond),
		defaultBurst: burst,
	}
}

// Wait blocks until the resource's budget admits one request
func (l *Limiter) Wait(ctx context.Context, resource string) error {
	return l.getLimiter(resource).Wait(ctx)
}

// Allow reports whether one request fits the budget without blocking
func (l *Limiter) Allow(resource string) bool {
	return l.getLimiter(resource).Allow()
}

func (l *Limiter) getLimiter(resource string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[resource]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, exists := l.limiters[resource]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[resource] = limiter

	return limiter
}

// SetResourceRate overrides the budget for one resource
func (l *Limiter) SetResourceRate(resource string, requestsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}

	l.limiters[resource] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}
