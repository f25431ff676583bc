package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ieraasyl/StreamLink/pkg/utils"
	"github.com/rs/zerolog/log"
)

// RateLimitCounter increments a per-IP, per-endpoint counter. RedisDB
// implements it.
type RateLimitCounter interface {
	IncrementRateLimit(ctx context.Context, ip, endpoint string, window time.Duration) (int64, error)
}

// RateLimiter limits requests per client IP with counters shared by every
// instance through Redis. It protects the credential endpoints from
// password guessing.
type RateLimiter struct {
	counter        RateLimitCounter
	requestsPerMin int
	window         time.Duration
}

// NewRateLimiter creates a rate limiter.
//
// Example:
//
//	limiter := middleware.NewRateLimiter(redisDB, 20, time.Minute)
//	r.With(limiter.Limit("login")).Post("/login", h.Login)
func NewRateLimiter(counter RateLimitCounter, requestsPerMin int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		counter:        counter,
		requestsPerMin: requestsPerMin,
		window:         window,
	}
}

// Limit returns middleware counting requests to endpoint. When Redis is
// unavailable requests are let through.
func (rl *RateLimiter) Limit(endpoint string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ExtractClientIP(r)

			count, err := rl.counter.IncrementRateLimit(r.Context(), ip, endpoint, rl.window)
			if err != nil {
				log.Error().Err(err).Str("ip", ip).Msg("Failed to check rate limit")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.requestsPerMin))

			if count > int64(rl.requestsPerMin) {
				log.Warn().
					Str("ip", ip).
					Str("endpoint", endpoint).
					Int64("count", count).
					Msg("Rate limit exceeded")

				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
				utils.RespondWithError(w, r, http.StatusTooManyRequests, "Too many attempts. Please try again later.")
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(rl.requestsPerMin-int(count)))
			next.ServeHTTP(w, r)
		})
	}
}
