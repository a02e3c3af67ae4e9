package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/MrSnakeDoc/tabwarden/internal/logger"
	"github.com/MrSnakeDoc/tabwarden/internal/utils"
)

// RateLimitConfig sizes a per-client token bucket.
type RateLimitConfig struct {
	Burst             int              // bucket capacity
	RefillPerIPPerMin int              // tokens regained per minute
	MaxEntries        int              // tracked clients before an early sweep, 0 = unbounded
	SweepInterval     time.Duration    // how often idle buckets are dropped
	IdleTTL           time.Duration    // idle time after which a bucket is dropped
	TrustProxy        bool             // resolve the client from proxy headers
	Logger            logger.Logger    // optional, throttled requests are logged at Warn
	Now               func() time.Time // optional clock
}

type bucket struct {
	tokens   float64
	refilled time.Time
	seen     time.Time
}

// limiter keeps one bucket per client key under a single mutex;
// event batches are small and infrequent enough for that.
type limiter struct {
	cfg      RateLimitConfig
	perSec   float64
	capacity float64

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

func newLimiter(cfg RateLimitConfig) *limiter {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	cfg.Burst = max(cfg.Burst, 1)
	cfg.RefillPerIPPerMin = max(cfg.RefillPerIPPerMin, 1)
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &limiter{
		cfg:       cfg,
		perSec:    float64(cfg.RefillPerIPPerMin) / 60.0,
		capacity:  float64(cfg.Burst),
		buckets:   make(map[string]*bucket),
		lastSweep: cfg.Now(),
	}
}

// take consumes a token for key. When none is left it returns how many
// seconds until one is.
func (l *limiter) take(key string) (ok bool, remaining, retryAfter int) {
	now := l.cfg.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	full := l.cfg.MaxEntries > 0 && len(l.buckets) >= l.cfg.MaxEntries
	if full || now.Sub(l.lastSweep) >= l.cfg.SweepInterval {
		l.sweepLocked(now)
	}

	b, found := l.buckets[key]
	if !found {
		b = &bucket{tokens: l.capacity, refilled: now}
		l.buckets[key] = b
	}
	b.seen = now

	if elapsed := now.Sub(b.refilled).Seconds(); elapsed > 0 {
		b.tokens = math.Min(l.capacity, b.tokens+elapsed*l.perSec)
		b.refilled = now
	}

	if b.tokens < 1 {
		wait := int(math.Ceil((1 - b.tokens) / l.perSec))
		return false, 0, max(wait, 1)
	}
	b.tokens--
	return true, int(b.tokens), 0
}

func (l *limiter) sweepLocked(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.seen) > l.cfg.IdleTTL {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}

// RateLimit throttles each client IP with a token bucket and answers 429
// with Retry-After once the bucket is empty.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	l := newLimiter(cfg)
	limit := strconv.Itoa(l.cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, l.cfg.TrustProxy)
			ok, remaining, retryAfter := l.take(ip)

			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !ok {
				if l.cfg.Logger != nil {
					l.cfg.Logger.Warn("client rate limited",
						logger.String("ip", ip),
						logger.String("path", r.URL.Path),
						logger.Int("retry_after_s", retryAfter))
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
