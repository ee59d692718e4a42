package httpmiddleware

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Counter increments the request count stored under key. The TTL is applied
// when the key is first created.
type Counter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// RateLimitConfig configures the fixed window rate limiter.
type RateLimitConfig struct {
	// Max is the number of requests a client may make per window.
	Max int
	// Window is the length of each window. Windows are aligned to the clock.
	Window time.Duration
	// KeyFunc identifies the client. Defaults to the client IP.
	KeyFunc func(*http.Request) string
	// Counter stores the per-window counts. Defaults to an in-process
	// MemoryCounter; pass a shared counter to limit across replicas.
	Counter Counter
}

type rateLimiter struct {
	cfg RateLimitConfig
	now func() time.Time
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = clientIP
	}
	if cfg.Counter == nil {
		cfg.Counter = NewMemoryCounter()
	}
	return &rateLimiter{cfg: cfg, now: time.Now}
}

// RateLimit returns a middleware that allows at most cfg.Max requests per
// client in each window and answers 429 beyond that. Counter failures let
// the request through.
func RateLimit(cfg RateLimitConfig) Middleware {
	return newRateLimiter(cfg).middleware
}

// RateLimitWithCleanup is RateLimit with an in-process counter that drops
// expired windows until ctx is done. A configured Counter is used as is.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	if cfg.Counter == nil {
		mc := NewMemoryCounter()
		go mc.Run(ctx, 2*cfg.Window)
		cfg.Counter = mc
	}
	return RateLimit(cfg)
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := rl.now()
		start := now.Truncate(rl.cfg.Window)
		resetAt := start.Add(rl.cfg.Window)
		key := fmt.Sprintf("%s:%d", rl.cfg.KeyFunc(r), start.Unix())

		count, err := rl.cfg.Counter.IncrWithTTL(r.Context(), key, resetAt.Sub(now))
		if err != nil {
			zctx.From(r.Context()).Warn("Rate limit counter failed", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		remaining := max(rl.cfg.Max-int(count), 0)
		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Max))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if count > int64(rl.cfg.Max) {
			h.Set("Retry-After", strconv.Itoa(int(math.Ceil(resetAt.Sub(now).Seconds()))))
			h.Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"code":    http.StatusTooManyRequests,
				"message": "rate limit exceeded",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the
// host part of RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// MemoryCounter is a Counter kept in process memory.
type MemoryCounter struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]*counterEntry
}

type counterEntry struct {
	count   int64
	expires time.Time
}

// NewMemoryCounter returns an empty MemoryCounter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{now: time.Now, entries: make(map[string]*counterEntry)}
}

// IncrWithTTL implements Counter.
func (c *MemoryCounter) IncrWithTTL(_ context.Context, key string, ttl time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	e, ok := c.entries[key]
	if !ok || !now.Before(e.expires) {
		e = &counterEntry{expires: now.Add(ttl)}
		c.entries[key] = e
	}
	e.count++
	return e.count, nil
}

// Sweep drops every entry expired at now.
func (c *MemoryCounter) Sweep(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, key)
		}
	}
}

// Len returns the number of live keys.
func (c *MemoryCounter) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Run sweeps the counter every interval until ctx is done.
func (c *MemoryCounter) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.Sweep(now)
		}
	}
}
