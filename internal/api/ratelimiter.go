package api

import (
	"net"
	"net/http"
	"strconv"
	"sync"

	"golang.org/x/time/rate"
)

const maxTrackedClients = 10_000

type rateLimiter interface {
	Allow(client string) bool
}

// clientLimiter keeps one token bucket per client address. When the table is
// full it is reset rather than grown.
type clientLimiter struct {
	mu      sync.Mutex
	rate    rate.Limit
	burst   int
	clients map[string]*rate.Limiter
}

func newTokenBucketLimiter(ratePerSecond float64, burst int) rateLimiter {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}

	return &clientLimiter{
		rate:    rate.Limit(ratePerSecond),
		burst:   burst,
		clients: make(map[string]*rate.Limiter),
	}
}

func (l *clientLimiter) Allow(client string) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	limiter, ok := l.clients[client]
	if !ok {
		if len(l.clients) >= maxTrackedClients {
			l.clients = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.clients[client] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow()
}

func (l *clientLimiter) retryAfterSeconds() int {
	if l == nil || l.rate <= 0 {
		return 1
	}
	seconds := int(1 / float64(l.rate))
	if seconds < 1 {
		return 1
	}
	return seconds
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func rateLimitMiddleware(limiter rateLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limiter.Allow(clientKey(r)) {
			next.ServeHTTP(w, r)
			return
		}
		if cl, ok := limiter.(*clientLimiter); ok {
			w.Header().Set("Retry-After", strconv.Itoa(cl.retryAfterSeconds()))
		}
		writeError(w, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded, please retry shortly")
	})
}
