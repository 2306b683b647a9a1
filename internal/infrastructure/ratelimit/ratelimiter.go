// Package ratelimit tracks the per-tenant request budget against the
// upstream ads API. Accounts of one tenant share a budget, so concurrent
// orchestrator invocations for the same tenant stay under the platform limit.
package ratelimit

import (
	"context"
	"time"
)

// BudgetConfig bounds requests per rolling window. Zero disables a window.
type BudgetConfig struct {
	RequestsPerMinute int
	RequestsPerHour   int
}

// Limiter answers whether one more upstream request fits the budget.
type Limiter interface {
	Allow(ctx context.Context, key string, cfg BudgetConfig) (bool, error)
	Reset(ctx context.Context, key string) error
}

// NoopLimiter always allows; used when redis is not configured.
type NoopLimiter struct{}

func NewNoopLimiter() Limiter { return NoopLimiter{} }

func (NoopLimiter) Allow(context.Context, string, BudgetConfig) (bool, error) { return true, nil }
func (NoopLimiter) Reset(context.Context, string) error                      { return nil }

// window pairs a rolling duration with its limit.
type window struct {
	duration time.Duration
	limit    int
}

func windowsFor(cfg BudgetConfig) []window {
	return []window{
		{time.Minute, cfg.RequestsPerMinute},
		{time.Hour, cfg.RequestsPerHour},
	}
}
