package ratelimit

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"herald/internal/domain/notification"

	"github.com/redis/go-redis/v9"
)

var _ notification.UserRateLimiter = (*RedisUserLimiter)(nil)

// RedisUserLimiter enforces per-user dispatch rate limits using Redis
// sorted sets. It uses a sliding window approach: each dispatch is a member
// scored by its timestamp.
type RedisUserLimiter struct {
	client     *redis.Client
	maxPerHour int
	window     time.Duration
}

// NewRedisUserLimiter creates a new Redis-based per-user rate limiter.
func NewRedisUserLimiter(redisAddr, password string, db int, maxPerHour int) *RedisUserLimiter {
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: password,
		DB:       db,
	})

	return &RedisUserLimiter{
		client:     client,
		maxPerHour: maxPerHour,
		window:     time.Hour,
	}
}

// Allow checks whether a dispatch can proceed for the given user ID.
// Uses a Redis sorted set with timestamps as scores for a sliding window counter.
func (r *RedisUserLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	setKey := fmt.Sprintf("herald:ratelimit:%s", userID)
	now := time.Now()
	windowStart := now.Add(-r.window)

	pipe := r.client.Pipeline()

	// Remove expired entries (outside the sliding window)
	pipe.ZRemRangeByScore(ctx, setKey, "-inf", fmt.Sprintf("%d", windowStart.UnixNano()))

	// Count remaining entries in the window
	countCmd := pipe.ZCard(ctx, setKey)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("checking dispatch rate limit: %w", err)
	}

	count := countCmd.Val()

	// If at or over the limit, deny
	if count >= int64(r.maxPerHour) {
		return false, nil
	}

	// Generate a unique member to avoid collisions on concurrent requests
	randBytes := make([]byte, 4)
	_, _ = rand.Read(randBytes)
	member := redis.Z{
		Score:  float64(now.UnixNano()),
		Member: fmt.Sprintf("%d:%s", now.UnixNano(), hex.EncodeToString(randBytes)),
	}
	pipe2 := r.client.Pipeline()
	pipe2.ZAdd(ctx, setKey, member)
	pipe2.Expire(ctx, setKey, r.window+time.Minute) // TTL slightly longer than window for cleanup

	_, err = pipe2.Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("recording rate limit entry: %w", err)
	}

	return true, nil
}

// Close closes the Redis connection.
func (r *RedisUserLimiter) Close() error {
	return r.client.Close()
}
