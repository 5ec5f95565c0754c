package middleware

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/jiu-academy-api/pkg/errors"
	"github.com/noah-isme/jiu-academy-api/pkg/response"
)

// AuthRateLimitMessage is returned when the auth limiter trips.
const AuthRateLimitMessage = "Too many login attempts, please try again after 15 minutes"

// HitCounter counts hits on key within a fixed window and reports the time left in it.
type HitCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

type rateLimitRecorder interface {
	RecordRateLimited(route string)
}

// RateLimiter enforces max requests per window per client IP. Counts live in Redis
// (fixed window); when Redis is absent or failing the in-memory bucket decides.
type RateLimiter struct {
	counter  HitCounter
	fallback *memoryLimiter
	max      int
	window   time.Duration
	message  string
	recorder rateLimitRecorder
	logger   *zap.Logger
}

// NewRateLimiter builds a limiter. counter may be nil.
func NewRateLimiter(counter HitCounter, max int, window time.Duration, recorder rateLimitRecorder, logger *zap.Logger) *RateLimiter {
	if max <= 0 {
		max = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{
		counter:  counter,
		fallback: newMemoryLimiter(max, window),
		max:      max,
		window:   window,
		message:  AuthRateLimitMessage,
		recorder: recorder,
		logger:   logger,
	}
}

// Middleware limits the route; scope namespaces the counters.
func (l *RateLimiter) Middleware(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		allowed, remaining, retryAfter := l.allow(c.Request.Context(), "ratelimit:"+scope+":"+ip)

		c.Header("RateLimit-Limit", strconv.Itoa(l.max))
		c.Header("RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			if l.recorder != nil {
				l.recorder.RecordRateLimited(scope)
			}
			l.logger.Warn("rate limit exceeded", zap.String("scope", scope), zap.String("ip", ip))
			response.Abort(c, appErrors.Clone(appErrors.ErrTooManyRequests, l.message))
			return
		}
		c.Next()
	}
}

func (l *RateLimiter) allow(ctx context.Context, key string) (bool, int, time.Duration) {
	if l.counter != nil {
		count, ttl, err := l.counter.Hit(ctx, key, l.window)
		if err == nil {
			remaining := l.max - int(count)
			if remaining < 0 {
				remaining = 0
			}
			if ttl <= 0 {
				ttl = l.window
			}
			return count <= int64(l.max), remaining, ttl
		}
		l.logger.Warn("rate limit store unavailable, using memory limiter", zap.Error(err))
	}
	return l.fallback.allow(key)
}

// memoryPruneEvery is how many calls pass between sweeps of full buckets.
const memoryPruneEvery = 1024

// memoryLimiter is a token bucket per key refilled at max tokens per window.
type memoryLimiter struct {
	capacity float64
	perSec   float64
	mu       sync.Mutex
	state    map[string]*bucket
	calls    int
	now      func() time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

func newMemoryLimiter(max int, window time.Duration) *memoryLimiter {
	return &memoryLimiter{
		capacity: float64(max),
		perSec:   float64(max) / window.Seconds(),
		state:    make(map[string]*bucket),
		now:      time.Now,
	}
}

func (l *memoryLimiter) allow(key string) (bool, int, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.calls++
	if l.calls%memoryPruneEvery == 0 {
		l.prune(now)
	}
	b, ok := l.state[key]
	if !ok {
		b = &bucket{tokens: l.capacity, last: now}
		l.state[key] = b
	}
	b.tokens = math.Min(l.capacity, b.tokens+now.Sub(b.last).Seconds()*l.perSec)
	b.last = now

	if b.tokens < 1 {
		wait := time.Duration((1 - b.tokens) / l.perSec * float64(time.Second))
		return false, 0, wait
	}
	b.tokens--
	return true, int(b.tokens), 0
}

// prune drops buckets that have refilled completely; a fresh bucket is identical.
func (l *memoryLimiter) prune(now time.Time) {
	for key, b := range l.state {
		if b.tokens+now.Sub(b.last).Seconds()*l.perSec >= l.capacity {
			delete(l.state, key)
		}
	}
}
