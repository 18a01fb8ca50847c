package common

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var rateLog = logrus.WithField("component", "ratelimit")

// RateLimiter tracks API weight reported by the venue.
type RateLimiter struct {
	usedWeight    int
	limit         int
	lastReset     time.Time
	resetInterval time.Duration
	mu            sync.RWMutex
}

// NewRateLimiter creates a new rate limiter.
// limit: maximum weight allowed (e.g., 1200 for spot)
// resetInterval: time window (e.g., 1 minute)
func NewRateLimiter(limit int, resetInterval time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:         limit,
		resetInterval: resetInterval,
		lastReset:     time.Now(),
	}
}

// UpdateFromHeader records the used weight from an API response header.
func (rl *RateLimiter) UpdateFromHeader(headerValue string) {
	if headerValue == "" {
		return
	}

	weight, err := strconv.Atoi(headerValue)
	if err != nil {
		return
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if time.Since(rl.lastReset) >= rl.resetInterval {
		rl.usedWeight = 0
		rl.lastReset = time.Now()
	}

	rl.usedWeight = weight

	percentage := float64(rl.usedWeight) / float64(rl.limit) * 100
	fields := logrus.Fields{"used": rl.usedWeight, "limit": rl.limit, "pct": percentage}
	if percentage >= 95 {
		rateLog.WithFields(fields).Error("rate limit critical, approaching ban threshold")
	} else if percentage >= 80 {
		rateLog.WithFields(fields).Warn("rate limit warning")
	}
}

// GetUsage returns current usage information.
func (rl *RateLimiter) GetUsage() (used int, limit int, percentage float64) {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	if time.Since(rl.lastReset) >= rl.resetInterval {
		return 0, rl.limit, 0
	}

	return rl.usedWeight, rl.limit, float64(rl.usedWeight) / float64(rl.limit) * 100
}

// ShouldDelay reports whether the next request should wait for the window to roll.
func (rl *RateLimiter) ShouldDelay() bool {
	_, _, pct := rl.GetUsage()
	return pct >= 90
}

// Wait blocks until the window resets when usage is above the delay threshold.
func (rl *RateLimiter) Wait(ctx context.Context) {
	if !rl.ShouldDelay() {
		return
	}
	rl.mu.RLock()
	remaining := rl.resetInterval - time.Since(rl.lastReset)
	rl.mu.RUnlock()
	if remaining <= 0 {
		return
	}
	rateLog.WithField("wait", remaining).Warn("rate limit: delaying request")
	t := time.NewTimer(remaining)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
