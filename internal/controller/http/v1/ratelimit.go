package v1

import (
	"net/http"
	"sync"
	"time"
)

// rateLimiter admits up to max requests per client IP within a fixed
// window. Requests over quota are rejected before the pipeline runs.
type rateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitorWindow
	max       int
	window    time.Duration
	lastPrune time.Time
}

type visitorWindow struct {
	start time.Time
	count int
}

func newRateLimiter(max int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		visitors:  make(map[string]*visitorWindow),
		max:       max,
		window:    window,
		lastPrune: time.Now(),
	}
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r)) {
			respondError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *rateLimiter) allow(ip string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.pruneLocked(now)

	v, ok := rl.visitors[ip]
	if !ok || now.Sub(v.start) >= rl.window {
		rl.visitors[ip] = &visitorWindow{start: now, count: 1}
		return true
	}

	if v.count >= rl.max {
		return false
	}

	v.count++
	return true
}

// pruneLocked drops expired windows at most once per window to keep the
// visitor map from growing without bound.
func (rl *rateLimiter) pruneLocked(now time.Time) {
	if now.Sub(rl.lastPrune) < rl.window {
		return
	}

	for ip, v := range rl.visitors {
		if now.Sub(v.start) >= rl.window {
			delete(rl.visitors, ip)
		}
	}

	rl.lastPrune = now
}
