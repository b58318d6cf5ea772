package api

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cybercell/complaint-portal-api/config"
)

// Limiter decides whether one more request under key fits its window
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit rejects requests beyond the limiter's budget for the client address
// with 429. Limiter failures let the request through. The client address is the
// connection peer unless that peer is one of trusted, in which case it is the
// nearest untrusted X-Forwarded-For hop.
func RateLimit(l Limiter, route string, trusted []string) func(http.Handler) http.Handler {
	proxies := make(map[string]struct{}, len(trusted))
	for _, p := range trusted {
		proxies[p] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := route + ":" + limitAddr(r, proxies)
			ok, err := l.Allow(r.Context(), key)
			if err != nil {
				zap.S().Warnw("rate limiter unavailable, allowing request", "key", key, "error", err)
				ok = true
			}
			if !ok {
				config.ErrorStatus("too many requests", http.StatusTooManyRequests, w, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// limitAddr walks X-Forwarded-For right to left while the hop is a trusted proxy.
// Headers from untrusted peers are ignored.
func limitAddr(r *http.Request, proxies map[string]struct{}) string {
	addr := remoteHost(r)
	if _, ok := proxies[addr]; !ok {
		return addr
	}
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		addr = hop
		if _, ok := proxies[hop]; !ok {
			break
		}
	}
	return addr
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ClientIP returns the address r claims to come from: the first X-Forwarded-For
// hop, then X-Real-IP, then the connection's remote host. It returns "" when none
// is known. Headers are client controlled so the result is for records only.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return remoteHost(r)
}

type bucket struct {
	count int
	start time.Time
}

// MemoryLimiter is a fixed-window limiter local to this process
type MemoryLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]bucket
	lastGC  time.Time
}

// NewMemoryLimiter allows limit requests per key in every window
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		buckets: map[string]bucket{},
		lastGC:  time.Now(),
	}
}

// Allow implements Limiter
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if now.Sub(l.lastGC) > time.Minute {
		for k, b := range l.buckets {
			if now.Sub(b.start) > 3*l.window {
				delete(l.buckets, k)
			}
		}
		l.lastGC = now
	}
	b, ok := l.buckets[key]
	if !ok || now.Sub(b.start) >= l.window {
		l.buckets[key] = bucket{count: 1, start: now}
		return true, nil
	}
	if b.count >= l.limit {
		return false, nil
	}
	b.count++
	l.buckets[key] = b
	return true, nil
}

// RedisLimiter is a fixed-window limiter shared by every instance using the same redis
type RedisLimiter struct {
	client redis.Cmdable
	limit  int
	window time.Duration
}

// NewRedisLimiter allows limit requests per key in every window, counted in client
func NewRedisLimiter(client redis.Cmdable, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window}
}

// Allow implements Limiter
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := "ratelimit:" + key
	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(l.limit), nil
}
