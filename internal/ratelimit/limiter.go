package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// IntakeLimiter throttles complaint submissions per citizen using a Redis
// counter with a rolling hourly window. When Redis is unreachable the limiter
// fails open: throttling is advisory, losing it must never block intake.
type IntakeLimiter struct {
	client  *redis.Client
	perHour int
	logger  *zap.Logger
}

// NewIntakeLimiter constructs the limiter. A nil client disables throttling.
func NewIntakeLimiter(client *redis.Client, perHour int, logger *zap.Logger) *IntakeLimiter {
	return &IntakeLimiter{client: client, perHour: perHour, logger: logger}
}

// Allow reports whether the submitter may file another complaint this hour.
func (l *IntakeLimiter) Allow(ctx context.Context, submitterID string) bool {
	if l == nil || l.client == nil || l.perHour <= 0 {
		return true
	}

	key := fmt.Sprintf("intake:%s:%s", submitterID, time.Now().UTC().Format("2006010215"))
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		l.logger.Warn("intake limiter unavailable", zap.Error(err))
		return true
	}
	if count == 1 {
		l.client.Expire(ctx, key, time.Hour)
	}
	return count <= int64(l.perHour)
}
