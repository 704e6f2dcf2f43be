package ratelimit

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter throttles login attempts per username. A nil limiter permits
// everything, and redis failures fail open: a broken cache must not lock
// everyone out.
type LoginLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewLoginLimiter(client *redis.Client, limit int, window time.Duration) *LoginLimiter {
	if client == nil || limit <= 0 {
		return nil
	}
	return &LoginLimiter{client: client, limit: limit, window: window}
}

func (l *LoginLimiter) Allow(ctx context.Context, username string) bool {
	if l == nil {
		return true
	}

	key := "login_attempts:" + strings.ToLower(strings.TrimSpace(username))
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return true
	}
	if count == 1 {
		_ = l.client.Expire(ctx, key, l.window).Err()
	}
	return count <= int64(l.limit)
}

// Reset clears the attempt counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, username string) {
	if l == nil {
		return
	}
	key := "login_attempts:" + strings.ToLower(strings.TrimSpace(username))
	_ = l.client.Del(ctx, key).Err()
}
