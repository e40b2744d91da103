// Package ratelimit allows one action per key within a fixed window. Keys
// expire on their own through the Redis TTL, so no sweeping is needed.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisClient is the part of *redis.Client the limiter needs.
type RedisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

type Limiter struct {
	client RedisClient
	prefix string
	window time.Duration
	now    func() time.Time
}

func New(client RedisClient, prefix string, window time.Duration) *Limiter {
	return &Limiter{
		client: client,
		prefix: prefix,
		window: window,
		now:    time.Now,
	}
}

func (l *Limiter) key(subject string) string {
	return fmt.Sprintf("rate_limit:%s:%s", l.prefix, subject)
}

// Allow claims the window for subject. It returns false while an earlier
// claim is still live.
func (l *Limiter) Allow(ctx context.Context, subject string) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key(subject), l.now().Unix(), l.window).Result()
	if err != nil {
		zap.L().Error("failed to set rate limit", zap.String("subject", subject), zap.Error(err))
		return false, err
	}
	if !ok {
		zap.L().Info("rate limit exceeded", zap.String("subject", subject))
	}
	return ok, nil
}
