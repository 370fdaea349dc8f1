package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitRepository tracks per-user sent counters in fixed hourly and
// daily windows. Counters are shared by every dispatch running for the
// user, so increments must be atomic.
type RateLimitRepository interface {
	IncrementSent(ctx context.Context, userID string, now time.Time) error
	HourlySentCount(ctx context.Context, userID string, now time.Time) (int, error)
	DailySentCount(ctx context.Context, userID string, now time.Time) (int, error)
}

type RedisRateLimitRepository struct {
	client redis.UniversalClient
}

func NewRateLimitRepository(client redis.UniversalClient) RateLimitRepository {
	return &RedisRateLimitRepository{client: client}
}

func hourKey(userID string, now time.Time) string {
	return "alerts:sent:hour:" + userID + ":" + now.UTC().Format("2006010215")
}

func dayKey(userID string, now time.Time) string {
	return "alerts:sent:day:" + userID + ":" + now.UTC().Format("20060102")
}

// IncrementSent bumps both window counters with INCR, setting the TTL on
// the first increment of each window.
func (r *RedisRateLimitRepository) IncrementSent(ctx context.Context, userID string, now time.Time) error {
	if err := r.incr(ctx, hourKey(userID, now), 2*time.Hour); err != nil {
		return err
	}
	return r.incr(ctx, dayKey(userID, now), 48*time.Hour)
}

func (r *RedisRateLimitRepository) incr(ctx context.Context, key string, ttl time.Duration) error {
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		return r.client.Expire(ctx, key, ttl).Err()
	}
	return nil
}

func (r *RedisRateLimitRepository) HourlySentCount(ctx context.Context, userID string, now time.Time) (int, error) {
	return r.count(ctx, hourKey(userID, now))
}

func (r *RedisRateLimitRepository) DailySentCount(ctx context.Context, userID string, now time.Time) (int, error) {
	return r.count(ctx, dayKey(userID, now))
}

func (r *RedisRateLimitRepository) count(ctx context.Context, key string) (int, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(val)
}
