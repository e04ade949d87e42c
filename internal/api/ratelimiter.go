package api

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

type rateLimiter interface {
	Allow() bool
}

type tokenBucket struct {
	limiter *rate.Limiter
}

// newTokenBucketLimiter returns nil when either bound is not positive, which
// disables limiting entirely.
func newTokenBucketLimiter(ratePerSecond float64, burst int) rateLimiter {
	if ratePerSecond <= 0 || burst <= 0 {
		return nil
	}
	return &tokenBucket{
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

func (b *tokenBucket) Allow() bool {
	if b == nil || b.limiter == nil {
		return true
	}
	return b.limiter.Allow()
}

// retryAfterSeconds estimates how long a client should wait for the next token.
func (b *tokenBucket) retryAfterSeconds() int {
	limit := float64(b.limiter.Limit())
	if limit <= 0 {
		return 1
	}
	wait := int(1/limit + 0.999)
	return max(wait, 1)
}

func rateLimitMiddleware(limiter rateLimiter, rejected prometheus.Counter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limiter.Allow() {
			next.ServeHTTP(w, r)
			return
		}
		if rejected != nil {
			rejected.Inc()
		}
		if bucket, ok := limiter.(*tokenBucket); ok {
			w.Header().Set("Retry-After", strconv.Itoa(bucket.retryAfterSeconds()))
		}
		writeError(w, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded, please retry shortly")
	})
}
