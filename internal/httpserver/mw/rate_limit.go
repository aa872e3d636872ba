package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type RateLimitConfig struct {
	RPS           float64       // sustained requests per second per client IP
	Burst         int           // bucket size
	IdleTTL       time.Duration // forget clients idle for this long
	SweepInterval time.Duration
	TrustProxy    bool
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiterSet struct {
	cfg       RateLimitConfig
	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

func newLimiterSet(cfg RateLimitConfig) *limiterSet {
	if cfg.RPS <= 0 {
		cfg.RPS = 10
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	return &limiterSet{
		cfg:       cfg,
		visitors:  make(map[string]*visitor, 256),
		lastSweep: time.Now(),
	}
}

func (ls *limiterSet) get(key string, now time.Time) *rate.Limiter {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if now.Sub(ls.lastSweep) >= ls.cfg.SweepInterval {
		for k, v := range ls.visitors {
			if now.Sub(v.lastSeen) > ls.cfg.IdleTTL {
				delete(ls.visitors, k)
			}
		}
		ls.lastSweep = now
	}

	v, ok := ls.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(ls.cfg.RPS), ls.cfg.Burst)}
		ls.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// RateLimit applies a token bucket per client IP and answers 429 with a
// Retry-After header once it is empty.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	ls := newLimiterSet(cfg)
	limitStr := strconv.Itoa(ls.cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			lim := ls.get(clientIP(r, ls.cfg.TrustProxy), now)

			w.Header().Set("X-RateLimit-Limit", limitStr)
			res := lim.ReserveN(now, 1)
			if delay := res.DelayFrom(now); delay > 0 {
				res.CancelAt(now)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
				w.Header().Set("X-RateLimit-Remaining", "0")
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}

			remaining := int(math.Floor(lim.TokensAt(now)))
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			next.ServeHTTP(w, r)
		})
	}
}
