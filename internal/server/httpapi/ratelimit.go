package httpapi

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// phoneLimiter holds one token bucket per phone number plus the last time
// it was touched, so idle entries can be evicted.
type phoneLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter throttles code sending per phone number. Abusing /send_code
// is the cheap way to spam SMS, so the budget is small.
type RateLimiter struct {
	ratePerMinute int
	burst         int

	mu       sync.Mutex
	limiters map[string]*phoneLimiter

	stopCh chan struct{}
}

// NewRateLimiter creates a limiter allowing ratePerMinute requests per phone
// with the given burst and starts a background eviction loop.
func NewRateLimiter(ratePerMinute, burst int) *RateLimiter {
	rl := &RateLimiter{
		ratePerMinute: ratePerMinute,
		burst:         burst,
		limiters:      make(map[string]*phoneLimiter),
		stopCh:        make(chan struct{}),
	}

	go rl.cleanupLoop(5 * time.Minute)

	return rl
}

// Stop terminates the eviction goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// Allow reports whether the phone may request another code now.
func (rl *RateLimiter) Allow(phone string) bool {
	return rl.getOrCreate(phone).Allow()
}

func (rl *RateLimiter) limit() rate.Limit {
	return rate.Limit(float64(rl.ratePerMinute) / 60.0)
}

func (rl *RateLimiter) getOrCreate(phone string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if pl, ok := rl.limiters[phone]; ok {
		pl.lastAccess = time.Now()
		return pl.limiter
	}

	limiter := rate.NewLimiter(rl.limit(), rl.burst)
	rl.limiters[phone] = &phoneLimiter{limiter: limiter, lastAccess: time.Now()}
	return limiter
}

func (rl *RateLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(interval * 2)
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) cleanup(ttl time.Duration) {
	now := time.Now()
	rl.mu.Lock()
	for phone, pl := range rl.limiters {
		if now.Sub(pl.lastAccess) > ttl {
			delete(rl.limiters, phone)
		}
	}
	rl.mu.Unlock()
}

// entryCount returns the number of tracked phones, for tests.
func (rl *RateLimiter) entryCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// writeRateLimitResponse writes a 429 with a Retry-After estimating when the
// next token becomes available.
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	retryAfterSec := int(math.Ceil(1.0 / float64(r)))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	writeError(w, http.StatusTooManyRequests, "too many requests, please try again later")
}
