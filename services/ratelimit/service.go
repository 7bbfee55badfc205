// Package ratelimit throttles credential-exchange attempts to slow down
// brute-force attacks against the login endpoint.
package ratelimit

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/keyfront/keyfront/utils"
)

// Config holds the throttle settings
type Config struct {
	// MaxAttempts is the number of attempts allowed per window. Defaults to 10.
	MaxAttempts int
	// Window is the fixed counting window. Defaults to 1m.
	Window time.Duration
}

// LoginThrottle counts login attempts per client in Redis using a fixed
// window. Like the cache, it fails open: when the backend is unreachable
// the attempt is allowed and the failure logged.
type LoginThrottle struct {
	client      redis.UniversalClient
	logger      *zap.Logger
	maxAttempts int
	window      time.Duration
}

// NewLoginThrottle creates a new LoginThrottle
func NewLoginThrottle(client redis.UniversalClient, logger *zap.Logger, cfg Config) *LoginThrottle {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &LoginThrottle{
		client:      client,
		logger:      logger,
		maxAttempts: cfg.MaxAttempts,
		window:      cfg.Window,
	}
}

// Allow records one attempt for the key and reports whether it is within
// the limit.
func (t *LoginThrottle) Allow(ctx context.Context, key string) bool {
	redisKey := fmt.Sprintf("ratelimit:login:%s", key)

	count, err := t.client.Incr(ctx, redisKey).Result()
	if err != nil {
		t.logger.Warn("rate limit check failed, allowing request",
			zap.String("key", key),
			zap.Error(err))
		return true
	}

	// First attempt in the window starts the expiry clock.
	if count == 1 {
		if err := t.client.Expire(ctx, redisKey, t.window).Err(); err != nil {
			t.logger.Warn("failed to set rate limit window",
				zap.String("key", key),
				zap.Error(err))
		}
	}

	return count <= int64(t.maxAttempts)
}

// Limit is a middleware that throttles requests per client IP
func (t *LoginThrottle) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !t.Allow(r.Context(), clientIP(r)) {
			t.logger.Warn("login attempt rate limited",
				zap.String("remote_addr", r.RemoteAddr))
			_ = utils.WriteJSON(w, http.StatusTooManyRequests, utils.ErrorResponse{
				Error:   "rate_limit_exceeded",
				Message: "Too many login attempts, try again later",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
