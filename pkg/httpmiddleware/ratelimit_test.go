package httpmiddleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// clock is a settable time source shared by the limiter and its counter.
type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestLimiter(cfg RateLimitConfig, clk *clock) http.Handler {
	mc := NewMemoryCounter()
	mc.now = clk.now
	if cfg.Counter == nil {
		cfg.Counter = mc
	}
	rl := newRateLimiter(cfg)
	rl.now = clk.now
	return rl.middleware(okHandler())
}

func get(h http.Handler, remoteAddr string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimit_WithinAndOverLimit(t *testing.T) {
	clk := &clock{t: time.Date(2025, 6, 15, 12, 0, 10, 0, time.UTC)}
	h := newTestLimiter(RateLimitConfig{Max: 3, Window: time.Minute}, clk)

	for i := range 3 {
		w := get(h, "192.168.1.1:12345", nil)
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(2-i), w.Header().Get("X-RateLimit-Remaining"))
	}

	w := get(h, "192.168.1.1:12345", nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "50", w.Header().Get("Retry-After"))
	assert.Equal(t, "1749988860", w.Header().Get("X-RateLimit-Reset"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, float64(429), body["code"])
	assert.Equal(t, "rate limit exceeded", body["message"])
}

func TestRateLimit_NextWindowResets(t *testing.T) {
	clk := &clock{t: time.Date(2025, 6, 15, 12, 0, 59, 0, time.UTC)}
	h := newTestLimiter(RateLimitConfig{Max: 1, Window: time.Minute}, clk)

	require.Equal(t, http.StatusOK, get(h, "10.0.0.1:1", nil).Code)
	require.Equal(t, http.StatusTooManyRequests, get(h, "10.0.0.1:1", nil).Code)

	clk.t = clk.t.Add(2 * time.Second)
	assert.Equal(t, http.StatusOK, get(h, "10.0.0.1:1", nil).Code)
}

func TestRateLimit_ClientKeys(t *testing.T) {
	clk := &clock{t: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)}
	h := newTestLimiter(RateLimitConfig{Max: 1, Window: time.Minute}, clk)

	assert.Equal(t, http.StatusOK, get(h, "10.0.0.1:1", nil).Code)
	assert.Equal(t, http.StatusOK, get(h, "10.0.0.2:1", nil).Code)

	// Forwarded headers take precedence over the proxy address.
	xff := map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}
	assert.Equal(t, http.StatusOK, get(h, "10.0.0.1:1", xff).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(h, "10.0.0.9:1", xff).Code)

	realIP := map[string]string{"X-Real-IP": "198.51.100.4"}
	assert.Equal(t, http.StatusOK, get(h, "10.0.0.1:1", realIP).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(h, "10.0.0.1:1", realIP).Code)
}

func TestRateLimit_CustomKeyFunc(t *testing.T) {
	clk := &clock{t: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)}
	h := newTestLimiter(RateLimitConfig{
		Max:     1,
		Window:  time.Minute,
		KeyFunc: func(r *http.Request) string { return r.Header.Get("X-Cart") },
	}, clk)

	assert.Equal(t, http.StatusOK, get(h, "10.0.0.1:1", map[string]string{"X-Cart": "a"}).Code)
	assert.Equal(t, http.StatusOK, get(h, "10.0.0.1:1", map[string]string{"X-Cart": "b"}).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(h, "10.0.0.2:1", map[string]string{"X-Cart": "a"}).Code)
}

type failingCounter struct{}

func (failingCounter) IncrWithTTL(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("redis down")
}

func TestRateLimit_CounterErrorLetsRequestThrough(t *testing.T) {
	clk := &clock{t: time.Now()}
	h := newTestLimiter(RateLimitConfig{Max: 1, Window: time.Minute, Counter: failingCounter{}}, clk)

	for range 3 {
		w := get(h, "10.0.0.1:1", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestMemoryCounter_Sweep(t *testing.T) {
	clk := &clock{t: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)}
	mc := NewMemoryCounter()
	mc.now = clk.now

	n, err := mc.IncrWithTTL(context.Background(), "a", time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, _ = mc.IncrWithTTL(context.Background(), "a", time.Second)
	assert.Equal(t, int64(2), n)
	_, _ = mc.IncrWithTTL(context.Background(), "b", time.Minute)

	mc.Sweep(clk.t.Add(2 * time.Second))
	assert.Equal(t, 1, mc.Len())

	// An expired key starts over even before it is swept.
	clk.t = clk.t.Add(2 * time.Minute)
	n, _ = mc.IncrWithTTL(context.Background(), "b", time.Minute)
	assert.Equal(t, int64(1), n)
}
