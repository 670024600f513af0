package httpapi

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type RateLimitConfig struct {
	IPPerMinute     int
	IPBurst         int
	TenantPerMinute int
	TenantBurst     int
}

// RateLimiter applies a token bucket per client IP and another per tenant.
type RateLimiter struct {
	ipLimiter     *limiterStore
	tenantLimiter *limiterStore
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		ipLimiter:     newLimiterStore(cfg.IPPerMinute, cfg.IPBurst),
		tenantLimiter: newLimiterStore(cfg.TenantPerMinute, cfg.TenantBurst),
	}
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ip := clientIP(r); ip != "" && !l.ipLimiter.allow(w, ip) {
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}
		if tenantID := strings.TrimSpace(r.Header.Get("X-Tenant-ID")); tenantID != "" && !l.tenantLimiter.allow(w, tenantID) {
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Run prunes idle buckets every interval until ctx is done.
func (l *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.ipLimiter.prune(2 * interval)
			l.tenantLimiter.prune(2 * interval)
		}
	}
}

type keyLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiterStore struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*keyLimiter
}

func newLimiterStore(perMinute, burst int) *limiterStore {
	if perMinute <= 0 {
		perMinute = 60
	}
	if burst <= 0 {
		burst = 20
	}
	return &limiterStore{
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
		limiters: make(map[string]*keyLimiter),
	}
}

// allow takes a token for key, setting Retry-After on w when none is left.
func (s *limiterStore) allow(w http.ResponseWriter, key string) bool {
	s.mu.Lock()
	l, ok := s.limiters[key]
	if !ok {
		l = &keyLimiter{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.limiters[key] = l
	}
	l.lastSeen = time.Now()
	s.mu.Unlock()

	reservation := l.limiter.Reserve()
	if d := reservation.Delay(); d > 0 {
		reservation.Cancel()
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Max(1, math.Ceil(d.Seconds())))))
		return false
	}
	return true
}

func (s *limiterStore) prune(idle time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, l := range s.limiters {
		if time.Since(l.lastSeen) > idle {
			delete(s.limiters, key)
		}
	}
}

// clientIP relies on chi's RealIP having rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
