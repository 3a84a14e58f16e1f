package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fitmate/backend/internal/auth"
	"github.com/fitmate/backend/internal/telemetry/metrics"

	"github.com/go-redis/redis_rate/v9"
)

type RequestRateLimiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

func RateLimit(
	rateLimiter RequestRateLimiter,
	routerName string,
	allowedPerMin int,
	metricsManager *metrics.Manager,
) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowRequest(w, r, next, rateLimiter, routerName, allowedPerMin, metricsManager)
		})
	}
}

// RateLimitPerUser throttles per authenticated user instead of per route.
// Requests without a user in the context fall back to the shared route key.
func RateLimitPerUser(
	rateLimiter RequestRateLimiter,
	routerName string,
	allowedPerMin int,
	metricsManager *metrics.Manager,
) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := routerName
			if userID, ok := auth.UserIDFromContext(r.Context()); ok {
				key = fmt.Sprintf("%s::%s", routerName, userID)
			}
			allowRequest(w, r, next, rateLimiter, key, allowedPerMin, metricsManager)
		})
	}
}

func allowRequest(
	w http.ResponseWriter,
	r *http.Request,
	next http.Handler,
	rateLimiter RequestRateLimiter,
	key string,
	allowedPerMin int,
	metricsManager *metrics.Manager,
) {
	res, err := rateLimiter.Allow(
		r.Context(),
		key,
		redis_rate.PerMinute(allowedPerMin),
	)
	if err != nil {
		http.Error(w, "rate limit internal error", http.StatusInternalServerError)
		return
	}

	if res.Allowed > 0 {
		next.ServeHTTP(w, r)
		return
	}

	metricsManager.CounterRateLimitedRequests.Inc()
	w.Header().Set("Retry-After", fmt.Sprintf("%f", res.RetryAfter.Seconds()))
	http.Error(
		w,
		fmt.Sprintf("retry after %f seconds", res.RetryAfter.Seconds()),
		http.StatusTooManyRequests,
	)
}
