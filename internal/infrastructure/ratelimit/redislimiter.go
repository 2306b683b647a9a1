package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter implements a sliding-window budget on redis sorted sets, so
// independently running sync processes for the same tenant share one budget.
type RedisLimiter struct {
	client *redis.Client
}

func NewRedisLimiter(client *redis.Client) Limiter {
	return &RedisLimiter{client: client}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, cfg BudgetConfig) (bool, error) {
	now := time.Now()
	for _, w := range windowsFor(cfg) {
		if w.limit <= 0 {
			continue
		}
		ok, err := l.checkWindow(ctx, key, w, now)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (l *RedisLimiter) checkWindow(ctx context.Context, key string, w window, now time.Time) (bool, error) {
	redisKey := fmt.Sprintf("meridian:budget:%s:%s", key, w.duration)
	windowStart := now.Add(-w.duration).UnixNano()
	nowNano := now.UnixNano()

	pipe := l.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart))
	zcard := pipe.ZCard(ctx, redisKey)
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(nowNano), Member: nowNano})
	pipe.Expire(ctx, redisKey, w.duration+time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate budget pipeline: %w", err)
	}
	return zcard.Val() < int64(w.limit), nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	for _, w := range windowsFor(BudgetConfig{RequestsPerMinute: 1, RequestsPerHour: 1}) {
		redisKey := fmt.Sprintf("meridian:budget:%s:%s", key, w.duration)
		if err := l.client.Del(ctx, redisKey).Err(); err != nil {
			return err
		}
	}
	return nil
}
