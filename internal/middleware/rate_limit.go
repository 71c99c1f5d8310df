package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/deppfellow/tours/internal/config"
	"github.com/deppfellow/tours/internal/errs"
	"github.com/deppfellow/tours/internal/logger"
	"github.com/deppfellow/tours/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// RateLimitMessage is returned with the 429.
const RateLimitMessage = "Too many requests from this IP, please try again in an hour!"

// RateStore counts requests per key in fixed windows.
type RateStore interface {
	// Hit counts one request for key and returns the count in the current
	// window and the time left until the window resets.
	Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RedisRateStore keeps one counter per key that expires with its window.
type RedisRateStore struct {
	client *redis.Client
	prefix string
}

func NewRedisRateStore(client *redis.Client) *RedisRateStore {
	return &RedisRateStore{client: client, prefix: "ratelimit:"}
}

func (s *RedisRateStore) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	key = s.prefix + key

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("incr %s: %w", key, err)
	}

	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return count, 0, fmt.Errorf("ttl %s: %w", key, err)
	}

	// first hit of the window, or a counter left without expiry
	if count == 1 || ttl < 0 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return count, 0, fmt.Errorf("expire %s: %w", key, err)
		}
		ttl = window
	}

	return count, ttl, nil
}

// RateLimitMiddleware limits requests per client IP.
type RateLimitMiddleware struct {
	server *server.Server
	store  RateStore
	cfg    *config.RateLimitConfig
}

// NewRateLimitMiddleware limits with counters kept in Redis.
func NewRateLimitMiddleware(s *server.Server) *RateLimitMiddleware {
	return NewRateLimitMiddlewareWithStore(s, NewRedisRateStore(s.Redis))
}

func NewRateLimitMiddlewareWithStore(s *server.Server, store RateStore) *RateLimitMiddleware {
	cfg := s.Config.RateLimit
	if cfg == nil {
		cfg = config.DefaultRateLimitConfig()
	}

	return &RateLimitMiddleware{
		server: s,
		store:  store,
		cfg:    cfg,
	}
}

// Limit answers 429 once a client IP has made more than the configured
// number of requests in the current window. Rate limit headers are set on
// every response. When the store fails the request is let through.
func (r *RateLimitMiddleware) Limit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			count, ttl, err := r.store.Hit(c.Request().Context(), c.RealIP(), r.cfg.Window)
			if err != nil {
				GetLogger(c).Error().Err(err).Msg("rate limit store unavailable, allowing request")
				return next(c)
			}

			remaining := int64(r.cfg.Requests) - count
			if remaining < 0 {
				remaining = 0
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(r.cfg.Requests))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(int64(ttl.Seconds()), 10))

			if count > int64(r.cfg.Requests) {
				h.Set(echo.HeaderRetryAfter, strconv.FormatInt(int64(ttl.Seconds()), 10))
				r.RecordRateLimitHit(c.Path())
				return errs.NewTooManyRequestsError(RateLimitMessage)
			}

			return next(c)
		}
	}
}

// RecordRateLimitHit sends a RateLimitHit event to New Relic.
func (r *RateLimitMiddleware) RecordRateLimitHit(endpoint string) {
	if r.server.LoggerService == nil {
		return
	}

	err := r.server.LoggerService.RecordEvent("RateLimitHit", map[string]interface{}{
		"endpoint": endpoint,
	})
	if err != nil && !errors.Is(err, logger.ErrNotConfigured) {
		r.server.Logger.Warn().Err(err).Str("endpoint", endpoint).Msg("rate limit hit not recorded")
	}
}
