package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"

	"github.com/juju/ratelimit"
	"github.com/labstack/echo/v4"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// KeyFunc picks the bucket for a request. Defaults to the client IP.
	KeyFunc func(c echo.Context) string
}

// DefaultRateLimitConfig returns default rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 20,
		BurstSize:         100,
	}
}

// pruneThreshold is the tracked-client count above which idle buckets are
// dropped on the next insert.
const pruneThreshold = 10000

// bucketStore holds one token bucket per client key.
type bucketStore struct {
	mu      sync.Mutex
	buckets map[string]*ratelimit.Bucket
	rate    float64
	burst   int64
}

func newBucketStore(cfg RateLimitConfig) *bucketStore {
	rate := cfg.RequestsPerSecond
	if rate <= 0 {
		// juju/ratelimit cannot build a bucket that never refills.
		rate = DefaultRateLimitConfig().RequestsPerSecond
	}
	burst := int64(cfg.BurstSize)
	if burst < 1 {
		burst = 1
	}
	return &bucketStore{
		buckets: make(map[string]*ratelimit.Bucket),
		rate:    rate,
		burst:   burst,
	}
}

func (s *bucketStore) get(key string) *ratelimit.Bucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[key]
	if !ok {
		if len(s.buckets) >= pruneThreshold {
			s.prune()
		}
		b = ratelimit.NewBucketWithRate(s.rate, s.burst)
		s.buckets[key] = b
	}
	return b
}

// prune drops buckets that have refilled completely; their clients are
// indistinguishable from new ones. Callers hold s.mu.
func (s *bucketStore) prune() {
	for key, b := range s.buckets {
		if b.Available() >= b.Capacity() {
			delete(s.buckets, key)
		}
	}
}

// retryAfter is the whole number of seconds until one token refills.
func (s *bucketStore) retryAfter() int {
	secs := int(math.Ceil(1 / s.rate))
	if secs < 1 {
		return 1
	}
	return secs
}

// RateLimit returns a per-client rate limiting middleware.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	store := newBucketStore(cfg)
	keyOf := cfg.KeyFunc
	if keyOf == nil {
		keyOf = func(c echo.Context) string { return c.RealIP() }
	}
	limit := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', -1, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			bucket := store.get(keyOf(c))
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)

			if bucket.TakeAvailable(1) == 0 {
				h.Set("Retry-After", strconv.Itoa(store.retryAfter()))
				h.Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}

			h.Set("X-RateLimit-Remaining", strconv.FormatInt(bucket.Available(), 10))
			return next(c)
		}
	}
}
