package security

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

type RateLimiter struct {
	redis *redis.Client
}

func NewRateLimiter(redisClient *redis.Client) *RateLimiter {
	return &RateLimiter{redis: redisClient}
}

// Limit returns a route middleware that allows max requests per window,
// keyed by the authenticated user when available and the client IP
// otherwise.
func (r *RateLimiter) Limit(scope string, max int, window time.Duration) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		identifier := e.RealIP()
		if e.Auth != nil {
			identifier = "user:" + e.Auth.Id
		}

		allowed, err := r.allow(e.Request.Context(), scope, identifier, max, window)
		if err == nil && !allowed {
			return apis.NewApiError(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil)
		}

		return e.Next()
	}
}

// allow counts the request against the window. Redis errors fail open; rate
// limiting is protection, not a dependency.
func (r *RateLimiter) allow(ctx context.Context, scope, identifier string, max int, window time.Duration) (bool, error) {
	key := fmt.Sprintf("ratelimit:%s:%s", scope, identifier)

	count, err := r.redis.Incr(ctx, key).Result()
	if err != nil {
		return true, err
	}

	if count == 1 {
		r.redis.Expire(ctx, key, window)
	}

	return count <= int64(max), nil
}
