package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// toggle is a check whose result can be switched between rounds.
type toggle struct{ err atomic.Pointer[error] }

func (c *toggle) set(err error) { c.err.Store(&err) }

func (c *toggle) check(context.Context) error {
	if p := c.err.Load(); p != nil {
		return *p
	}
	return nil
}

func serve(t *testing.T, handler http.HandlerFunc) (int, Status) {
	t.Helper()
	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body Status
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return w.Code, body
}

func rounds(h *Health, liveness bool, n int) {
	for range n {
		for _, p := range h.snapshot(liveness) {
			p.run(context.Background(), h.now())
		}
	}
}

func TestProbeThresholds(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		failures int
		want     bool
	}{
		{name: "below default threshold", failures: 2, want: true},
		{name: "at default threshold", failures: 3, want: false},
		{name: "custom threshold", opts: []Option{WithThresholds(1, 1)}, failures: 1, want: false},
		{name: "threshold floor is one", opts: []Option{WithThresholds(0, 0)}, failures: 1, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New()
			var c toggle
			c.set(errors.New("connection refused"))
			h.AddLivenessCheck("db", time.Second, c.check, tt.opts...)

			rounds(h, true, tt.failures)

			code, body := serve(t, h.LiveEndpoint)
			assert.Equal(t, tt.want, body.Checks["db"].Passing)
			assert.Equal(t, "connection refused", body.Checks["db"].Error)
			if tt.want {
				assert.Equal(t, http.StatusOK, code)
			} else {
				assert.Equal(t, http.StatusServiceUnavailable, code)
				assert.Equal(t, "unavailable", body.Status)
			}
		})
	}
}

func TestProbeRecovery(t *testing.T) {
	h := New()
	var c toggle
	c.set(errors.New("down"))
	h.AddLivenessCheck("cache", time.Second, c.check, WithThresholds(1, 2))

	rounds(h, true, 1)
	code, _ := serve(t, h.LiveEndpoint)
	require.Equal(t, http.StatusServiceUnavailable, code)

	c.set(nil)
	rounds(h, true, 1)
	code, _ = serve(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code, "one success is not enough")

	rounds(h, true, 1)
	code, body := serve(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, body.Checks["cache"].Error)
}

func TestReadyEndpoint(t *testing.T) {
	h := New()
	h.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	h.AddReadinessCheck("postgres", time.Second, func(context.Context) error { return nil })

	code, body := serve(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.False(t, h.IsReady())
	assert.Equal(t, "not accepting traffic", body.Checks["ready"].Error)

	h.SetReady(true)
	rounds(h, false, 1)
	code, body = serve(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, h.IsReady())
	require.NotNil(t, body.Checks["postgres"].CheckedAt)
	assert.True(t, body.Checks["postgres"].CheckedAt.Equal(h.now()))

	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestReadyEndpoint_FailingProbe(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.AddReadinessCheck("redis", time.Second, func(context.Context) error {
		return errors.New("i/o timeout")
	}, WithThresholds(1, 1))

	rounds(h, false, 1)
	code, body := serve(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "i/o timeout", body.Checks["redis"].Error)
	assert.False(t, h.IsReady())

	// Liveness is unaffected by readiness probes.
	code, body = serve(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Nil(t, body.Checks)
}

func TestStartStop(t *testing.T) {
	h := New()
	h.SetReady(true)
	var calls atomic.Int32
	h.AddReadinessCheck("postgres", time.Second, func(context.Context) error {
		calls.Add(1)
		return errors.New("refused")
	}, WithThresholds(1, 1))

	h.Start(context.Background(), time.Hour)
	require.Eventually(t, func() bool { return !h.IsReady() }, time.Second, 5*time.Millisecond)

	h.Stop()
	h.Stop()
	assert.Equal(t, int32(1), calls.Load())
}

func TestCheckTimeout(t *testing.T) {
	h := New()
	h.AddLivenessCheck("slow", 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, WithThresholds(1, 1))

	rounds(h, true, 1)
	_, body := serve(t, h.LiveEndpoint)
	assert.False(t, body.Checks["slow"].Passing)
	assert.Contains(t, body.Checks["slow"].Error, "deadline exceeded")
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestCheckers(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, PingCheck("postgres", pinger{})(ctx))
	err := PingCheck("postgres", pinger{err: errors.New("refused")})(ctx)
	require.Error(t, err)
	assert.Equal(t, "ping postgres: refused", err.Error())

	require.NoError(t, GoroutineCountCheck(100000)(ctx))
	require.Error(t, GoroutineCountCheck(0)(ctx))
}
