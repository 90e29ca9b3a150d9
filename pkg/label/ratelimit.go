package label

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// RateLimiterConfig configures request pacing against the GitHub API
type RateLimiterConfig struct {
	// BaseDelay is the minimum delay between requests
	BaseDelay time.Duration

	// MaxDelay caps any single wait, including waits for a window reset
	MaxDelay time.Duration

	// BackoffFactor grows the throttle delay while the remaining budget
	// stays below MinRemainingRequests
	BackoffFactor float64

	// Jitter adds randomness to delays to avoid thundering herd
	Jitter float64

	// ConcurrencyLimit is the maximum number of concurrent repository
	// operations
	ConcurrencyLimit int

	// MinRemainingRequests is the threshold below which throttling starts
	MinRemainingRequests int

	// ThrottleDelay is the full delay applied when the remaining budget
	// reaches zero; lower deficits scale it down proportionally
	ThrottleDelay time.Duration
}

// DefaultRateLimiterConfig returns a default rate limiter configuration
func DefaultRateLimiterConfig() *RateLimiterConfig {
	return &RateLimiterConfig{
		BaseDelay:            100 * time.Millisecond,
		MaxDelay:             30 * time.Second,
		BackoffFactor:        2.0,
		Jitter:               0.1,
		ConcurrencyLimit:     4,
		MinRemainingRequests: 100,
		ThrottleDelay:        2 * time.Second,
	}
}

// RateLimiterStats provides statistics about rate limiter usage
type RateLimiterStats struct {
	RemainingRequests  int           `json:"remaining_requests"`
	ResetTime          time.Time     `json:"reset_time"`
	CurrentDelay       time.Duration `json:"current_delay"`
	ConcurrentSlots    int           `json:"concurrent_slots"`
	MaxConcurrentSlots int           `json:"max_concurrent_slots"`
	TotalWaits         int64         `json:"total_waits"`
	TotalDelayTime     time.Duration `json:"total_delay_time"`
}

// RateLimiter paces GitHub API calls and bounds how many repositories are
// processed concurrently. It is shared by every client taking part in a
// multi-repository run.
type RateLimiter struct {
	config *RateLimiterConfig
	mu     sync.RWMutex

	// Rate limit tracking, fed from API response headers
	remaining    int
	resetTime    time.Time
	lastCall     time.Time
	backoffDelay time.Duration

	// Concurrency control
	semaphore chan struct{}

	// Statistics
	stats RateLimiterStats

	// Random source for jitter
	rand *rand.Rand
}

// NewRateLimiter creates a rate limiter; a nil config uses the defaults
func NewRateLimiter(config *RateLimiterConfig) *RateLimiter {
	if config == nil {
		config = DefaultRateLimiterConfig()
	}
	if config.ConcurrencyLimit <= 0 {
		config.ConcurrencyLimit = 1
	}

	limiter := &RateLimiter{
		config:       config,
		remaining:    5000, // GitHub's default hourly budget
		resetTime:    time.Now().Add(time.Hour),
		backoffDelay: config.BaseDelay,
		semaphore:    make(chan struct{}, config.ConcurrencyLimit),
		rand:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	limiter.stats.MaxConcurrentSlots = config.ConcurrencyLimit

	return limiter
}

// Wait blocks until it's safe to make an API call
func (rl *RateLimiter) Wait(ctx context.Context) error {
	rl.mu.Lock()

	delay := rl.calculateDelay()
	if delay > 0 {
		rl.stats.TotalWaits++
		rl.stats.TotalDelayTime += delay

		// Release the lock while waiting
		rl.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		rl.mu.Lock()
	}

	rl.lastCall = time.Now()
	rl.mu.Unlock()
	return nil
}

// UpdateLimits records the remaining request budget and window reset time
// reported by the most recent API response
func (rl *RateLimiter) UpdateLimits(remaining int, reset time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.remaining = remaining
	rl.resetTime = reset
	rl.stats.RemainingRequests = remaining
	rl.stats.ResetTime = reset

	// Grow the throttle while the budget stays low; recover once it refills
	if remaining < rl.config.MinRemainingRequests {
		rl.backoffDelay = time.Duration(float64(rl.backoffDelay) * rl.config.BackoffFactor)
		if rl.backoffDelay > rl.config.MaxDelay {
			rl.backoffDelay = rl.config.MaxDelay
		}
	} else {
		rl.backoffDelay = rl.config.BaseDelay
	}
}

// GetDelay returns the delay the next Wait call would observe
func (rl *RateLimiter) GetDelay() time.Duration {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	return rl.calculateDelay()
}

// AcquireSlot acquires a slot for concurrent processing, blocking while the
// limit is reached
func (rl *RateLimiter) AcquireSlot(ctx context.Context) error {
	select {
	case rl.semaphore <- struct{}{}:
		rl.mu.Lock()
		rl.stats.ConcurrentSlots++
		rl.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReleaseSlot releases a slot for concurrent processing
func (rl *RateLimiter) ReleaseSlot() {
	select {
	case <-rl.semaphore:
		rl.mu.Lock()
		rl.stats.ConcurrentSlots--
		rl.mu.Unlock()
	default:
		// No slot to release
	}
}

// GetStats returns current rate limiter statistics
func (rl *RateLimiter) GetStats() RateLimiterStats {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	stats := rl.stats
	stats.CurrentDelay = rl.calculateDelay()
	return stats
}

// calculateDelay computes the wait before the next API call. Callers must
// hold at least a read lock.
func (rl *RateLimiter) calculateDelay() time.Duration {
	now := time.Now()

	var totalDelay time.Duration

	// Base spacing between consecutive calls
	if !rl.lastCall.IsZero() {
		sinceLast := now.Sub(rl.lastCall)
		if sinceLast < rl.config.BaseDelay {
			totalDelay = rl.config.BaseDelay - sinceLast
		}
	}

	// Low-budget throttling only matters inside the current window
	if now.Before(rl.resetTime) && rl.remaining < rl.config.MinRemainingRequests {
		if rl.backoffDelay > totalDelay {
			totalDelay = rl.backoffDelay
		}

		throttle := rl.throttleDelay()
		if throttle > totalDelay {
			totalDelay = throttle
		}
	}

	// Jitter to avoid thundering herd across workers
	if rl.config.Jitter > 0 && totalDelay > 0 {
		totalDelay += time.Duration(rl.rand.Float64() * rl.config.Jitter * float64(totalDelay))
	}

	if totalDelay > rl.config.MaxDelay {
		totalDelay = rl.config.MaxDelay
	}

	return totalDelay
}

// throttleDelay scales ThrottleDelay by how far the remaining budget has
// fallen below the threshold. A drained budget waits for the window reset,
// capped by MaxDelay via calculateDelay.
func (rl *RateLimiter) throttleDelay() time.Duration {
	if rl.remaining <= 0 {
		waitTime := time.Until(rl.resetTime)
		if waitTime > 0 {
			return waitTime
		}
		return 0
	}

	remainingRatio := float64(rl.remaining) / float64(rl.config.MinRemainingRequests)
	if remainingRatio >= 1.0 {
		return 0
	}

	return time.Duration(float64(rl.config.ThrottleDelay) * (1.0 - remainingRatio))
}
