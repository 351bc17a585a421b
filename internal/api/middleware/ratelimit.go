package middleware

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gundersenerik/dice/internal/auth"
)

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// RateLimiter is a token-bucket limiter keyed on the authenticated
// user, so one user hammering /generate cannot starve others behind
// the same NAT. Unauthenticated requests fall back to the remote
// address.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64 // tokens per second
	burst   float64 // max tokens
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    rps,
		burst:   float64(burst),
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) callerKey(r *http.Request) string {
	if u := auth.UserFromContext(r.Context()); u != nil {
		return "user:" + u.ID.String()
	}
	return "addr:" + r.RemoteAddr
}

func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.callerKey(r)

		rl.mu.Lock()
		b, exists := rl.buckets[key]
		if !exists {
			b = &bucket{tokens: rl.burst, lastSeen: time.Now()}
			rl.buckets[key] = b
		}

		elapsed := time.Since(b.lastSeen).Seconds()
		b.tokens += elapsed * rl.rate
		if b.tokens > rl.burst {
			b.tokens = rl.burst
		}
		b.lastSeen = time.Now()

		if b.tokens < 1 {
			rl.mu.Unlock()
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
			return
		}

		b.tokens--
		rl.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for key, b := range rl.buckets {
			if time.Since(b.lastSeen) > 3*time.Minute {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}
