// Package ratelimit implements the rate-limiting and resilience half of the
// Rate Limiter & Job Queue (L8): one token bucket per adapter, circuit
// breaking, and retry with jittered backoff.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	selerr "selecta/types/errors"
)

// Policy parameterizes retry behavior from the loaded Configuration
// (spec.md §6: retry_max_attempts, retry_base_delay_ms, retry_jitter_ratio).
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	JitterRatio float64
}

// Limiter owns one token bucket and one circuit breaker per adapter name,
// and wraps adapter calls with exponential-backoff retry (spec.md §4.8).
type Limiter struct {
	policy Policy

	mu       sync.Mutex
	buckets  map[string]*rate.Limiter
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

// NewLimiter constructs a Limiter using policy for every adapter's retry
// behavior.
func NewLimiter(policy Policy) *Limiter {
	return &Limiter{
		policy:   policy,
		buckets:  make(map[string]*rate.Limiter),
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

// Register declares an adapter's rate_budget_per_minute (spec.md §4.3,
// §4.8), creating its token bucket and circuit breaker if not already
// present. Safe to call multiple times for the same adapter.
func (l *Limiter) Register(adapterName string, rateBudgetPerMinute int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.buckets[adapterName]; ok {
		return
	}
	if rateBudgetPerMinute <= 0 {
		rateBudgetPerMinute = 60
	}
	perSecond := rate.Limit(float64(rateBudgetPerMinute) / 60.0)
	l.buckets[adapterName] = rate.NewLimiter(perSecond, max(1, rateBudgetPerMinute/10))

	settings := gobreaker.Settings{
		Name:    adapterName,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	l.breakers[adapterName] = gobreaker.NewCircuitBreaker[any](settings)
}

// Do acquires a token for adapterName (suspending the caller until the next
// refill or until ctx is cancelled, per spec.md §4.8 and §5), then calls fn
// through the adapter's circuit breaker with retry-with-jittered-backoff on
// retryable failures. Authentication errors never retry.
func (l *Limiter) Do(ctx context.Context, adapterName string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	bucket, ok := l.buckets[adapterName]
	breaker := l.breakers[adapterName]
	l.mu.Unlock()
	if !ok {
		l.Register(adapterName, 60)
		l.mu.Lock()
		bucket = l.buckets[adapterName]
		breaker = l.breakers[adapterName]
		l.mu.Unlock()
	}

	if err := bucket.Wait(ctx); err != nil {
		return selerr.New(selerr.KindCancelled, "rate limiter: wait cancelled", err)
	}

	operation := func() (any, error) {
		err := fn(ctx)
		if err != nil && !selerr.KindOf(err).Retryable() {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	_, err := breaker.Execute(func() (any, error) {
		return l.retry(ctx, operation)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return selerr.New(selerr.KindTransient, fmt.Sprintf("%s: circuit breaker open", adapterName), err)
		}
		return err
	}
	return nil
}

func (l *Limiter) retry(ctx context.Context, operation func() (any, error)) (any, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = l.policy.baseDelay()
	b.RandomizationFactor = l.policy.jitterRatio()
	// WithMaxRetries counts retries after the first call, so maxAttempts-1
	// retries give maxAttempts calls in total.
	bounded := backoff.WithMaxRetries(b, uint64(l.policy.maxAttempts()-1))
	withCtx := backoff.WithContext(bounded, ctx)
	return backoff.RetryWithData(operation, withCtx)
}

func (p Policy) baseDelay() time.Duration {
	if p.BaseDelay <= 0 {
		return 250 * time.Millisecond
	}
	return p.BaseDelay
}

func (p Policy) jitterRatio() float64 {
	if p.JitterRatio <= 0 {
		return 0.2
	}
	return p.JitterRatio
}

func (p Policy) maxAttempts() int {
	if p.MaxAttempts <= 0 {
		return 5
	}
	return p.MaxAttempts
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
