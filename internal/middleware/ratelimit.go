package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/fleetpunch/attendance-backend/internal/utils"
	"golang.org/x/time/rate"
)

// idle limiters are swept once the map grows past this.
const limiterSweepSize = 1024

// RateLimiter hands out one token bucket per worker.
type RateLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*workerLimiter
	now      func() time.Time
}

type workerLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*workerLimiter),
		now:      time.Now,
	}
}

func (rl *RateLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if len(rl.limiters) >= limiterSweepSize {
		for k, l := range rl.limiters {
			if now.Sub(l.lastSeen) > time.Minute {
				delete(rl.limiters, k)
			}
		}
	}

	l, ok := rl.limiters[key]
	if !ok {
		l = &workerLimiter{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = l
	}
	l.lastSeen = now
	return l.lim
}

// Middleware rejects requests over the worker's budget with 429. It must run
// after BearerMiddleware; requests without a worker pass through.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		workerID, ok := utils.GetWorkerIDFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		res := rl.get(workerID).ReserveN(rl.now(), 1)
		if !res.OK() {
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many location updates")
			return
		}
		if delay := res.DelayFrom(rl.now()); delay > 0 {
			res.CancelAt(rl.now())
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many location updates")
			return
		}
		next.ServeHTTP(w, r)
	})
}
