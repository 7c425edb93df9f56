package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultMaxClients bounds how many client buckets a RateLimiter tracks.
const DefaultMaxClients = 10000

// RateLimiter throttles requests per client IP with a token bucket each.
// Mount it on the unauthenticated routes (register, login).
//
// Clients are keyed on the socket address recorded by PeerAddr, so headers
// such as X-Forwarded-For cannot mint fresh buckets. WithTrustedProxy keys on
// the forwarded address instead, for deployments behind a proxy that
// overwrites those headers.
type RateLimiter struct {
	mu         sync.Mutex
	limiters   map[string]*visitor
	rate       rate.Limit
	burst      int
	idleTTL    time.Duration
	maxClients int
	trustProxy bool
	logger     *slog.Logger
	now        func() time.Time
}

// RateLimiterOption customises a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithTrustedProxy keys clients on r.RemoteAddr as rewritten by chi's RealIP.
func WithTrustedProxy() RateLimiterOption {
	return func(rl *RateLimiter) { rl.trustProxy = true }
}

// WithMaxClients caps the number of tracked clients. When the cap is hit the
// least recently seen client is forgotten.
func WithMaxClients(n int) RateLimiterOption {
	return func(rl *RateLimiter) {
		if n > 0 {
			rl.maxClients = n
		}
	}
}

type peerKey struct{}

// PeerAddr records the socket address of the request before any middleware
// rewrites RemoteAddr. Mount it ahead of chi's RealIP.
func PeerAddr(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), peerKey{}, r.RemoteAddr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows rps requests per second per IP with the given burst.
func NewRateLimiter(rps float64, burst int, logger *slog.Logger, opts ...RateLimiterOption) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	rl := &RateLimiter{
		limiters:   make(map[string]*visitor),
		rate:       rate.Limit(rps),
		burst:      burst,
		idleTTL:    10 * time.Minute,
		maxClients: DefaultMaxClients,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.limiters[key]
	if !ok {
		if len(rl.limiters) >= rl.maxClients {
			rl.evictLocked()
		}
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = v
	}
	v.lastSeen = rl.now()
	return v.limiter
}

// Handler rejects requests over budget with 429 and a Retry-After header.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.clientKey(r)
		if !rl.limiter(key).Allow() {
			rl.logger.WarnContext(r.Context(), "rate limit exceeded",
				"client", key,
				"method", r.Method,
				"path", r.URL.Path,
			)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(rl.rate)))
			writeError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// evictLocked drops idle clients, or the least recently seen one when none
// are idle.
func (rl *RateLimiter) evictLocked() {
	rl.cleanupLocked()
	if len(rl.limiters) < rl.maxClients {
		return
	}
	var oldestKey string
	var oldest time.Time
	for k, v := range rl.limiters {
		if oldestKey == "" || v.lastSeen.Before(oldest) {
			oldestKey, oldest = k, v.lastSeen
		}
	}
	delete(rl.limiters, oldestKey)
}

// Cleanup forgets clients idle for longer than the idle TTL.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.cleanupLocked()
}

func (rl *RateLimiter) cleanupLocked() {
	cutoff := rl.now().Add(-rl.idleTTL)
	for k, v := range rl.limiters {
		if v.lastSeen.Before(cutoff) {
			delete(rl.limiters, k)
		}
	}
}

// StartCleanup runs Cleanup every interval until stop is closed.
func (rl *RateLimiter) StartCleanup(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.Cleanup()
			case <-stop:
				return
			}
		}
	}()
}

// clientKey returns the client host without its port. It uses the socket
// address from PeerAddr unless the limiter trusts the proxy headers.
func (rl *RateLimiter) clientKey(r *http.Request) string {
	addr := r.RemoteAddr
	if !rl.trustProxy {
		if peer, ok := r.Context().Value(peerKey{}).(string); ok {
			addr = peer
		}
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

func retryAfterSeconds(l rate.Limit) int {
	if l <= 0 {
		return 60
	}
	s := int(1 / float64(l))
	if s < 1 {
		s = 1
	}
	return s
}
