// Package health serves liveness and readiness probes backed by periodic
// checks. A check flips to failing only after several consecutive errors and
// back to passing after several consecutive successes.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// CheckFunc returns nil when the checked dependency is usable.
type CheckFunc func(ctx context.Context) error

// Option tunes a single probe.
type Option func(*probe)

// WithThresholds sets how many consecutive failures mark a probe failing and
// how many consecutive successes mark it passing again.
func WithThresholds(failures, successes int) Option {
	return func(p *probe) {
		p.failureThreshold = max(failures, 1)
		p.successThreshold = max(successes, 1)
	}
}

type probeState struct {
	passing bool
	err     error
	checked time.Time
}

type probe struct {
	name             string
	timeout          time.Duration
	fn               CheckFunc
	failureThreshold int
	successThreshold int

	// Streaks are touched only by the goroutine running the probe.
	fails     int
	successes int

	state atomic.Pointer[probeState]
}

func newProbe(name string, timeout time.Duration, fn CheckFunc, opts []Option) *probe {
	p := &probe{name: name, timeout: timeout, fn: fn, failureThreshold: 3, successThreshold: 1}
	for _, o := range opts {
		o(p)
	}
	p.state.Store(&probeState{passing: true})
	return p
}

func (p *probe) run(ctx context.Context, now time.Time) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.fn(ctx)
	passing := p.state.Load().passing
	if err != nil {
		p.successes = 0
		p.fails++
		if p.fails >= p.failureThreshold {
			passing = false
		}
	} else {
		p.fails = 0
		p.successes++
		if p.successes >= p.successThreshold {
			passing = true
		}
	}
	p.state.Store(&probeState{passing: passing, err: err, checked: now})
}

// Health holds the registered probes and the manual readiness switch.
type Health struct {
	ready atomic.Bool
	now   func() time.Time

	mu        sync.Mutex
	liveness  []*probe
	readiness []*probe
	cancel    context.CancelFunc
	done      chan struct{}
}

// New returns a Health that reports not ready until SetReady(true).
func New() *Health {
	return &Health{now: time.Now}
}

// AddLivenessCheck registers a check that decides whether the process
// should be restarted.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc, opts ...Option) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, newProbe(name, timeout, fn, opts))
}

// AddReadinessCheck registers a check that decides whether the process
// should receive traffic.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc, opts ...Option) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, newProbe(name, timeout, fn, opts))
}

// Start runs every probe once, then again each interval, until Stop is
// called or ctx is done.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	h.mu.Lock()
	if h.cancel != nil {
		h.mu.Unlock()
		return
	}
	ctx, h.cancel = context.WithCancel(ctx)
	h.done = make(chan struct{})
	probes := append(append([]*probe(nil), h.liveness...), h.readiness...)
	done := h.done
	h.mu.Unlock()

	go func() {
		defer close(done)
		h.runAll(ctx, probes)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.runAll(ctx, probes)
			}
		}
	}()
}

// runAll runs one round of probes concurrently and waits for all of them.
func (h *Health) runAll(ctx context.Context, probes []*probe) {
	now := h.now()
	var g errgroup.Group
	for _, p := range probes {
		g.Go(func() error {
			p.run(ctx, now)
			return nil
		})
	}
	_ = g.Wait()
}

// Stop halts the probe loop and waits for the running round to finish.
func (h *Health) Stop() {
	h.mu.Lock()
	cancel, done := h.cancel, h.done
	h.cancel, h.done = nil, nil
	h.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// SetReady flips the manual readiness switch. Shutdown sets it to false so
// load balancers drain the instance first.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the switch is on and every readiness probe passes.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	_, ok := report(h.snapshot(false))
	return ok
}

func (h *Health) snapshot(liveness bool) []*probe {
	h.mu.Lock()
	defer h.mu.Unlock()
	if liveness {
		return append([]*probe(nil), h.liveness...)
	}
	return append([]*probe(nil), h.readiness...)
}

// Status is the body of both probe endpoints.
type Status struct {
	Status string                 `json:"status"`
	Checks map[string]CheckStatus `json:"checks,omitempty"`
}

// CheckStatus describes one probe.
type CheckStatus struct {
	Passing   bool       `json:"passing"`
	Error     string     `json:"error,omitempty"`
	CheckedAt *time.Time `json:"checked_at,omitempty"`
}

func report(probes []*probe) (map[string]CheckStatus, bool) {
	checks := make(map[string]CheckStatus, len(probes))
	ok := true
	for _, p := range probes {
		st := p.state.Load()
		cs := CheckStatus{Passing: st.passing}
		if st.err != nil {
			cs.Error = st.err.Error()
		}
		if !st.checked.IsZero() {
			checked := st.checked
			cs.CheckedAt = &checked
		}
		if !st.passing {
			ok = false
		}
		checks[p.name] = cs
	}
	return checks, ok
}

// LiveEndpoint serves /livez.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	checks, ok := report(h.snapshot(true))
	writeStatus(w, checks, ok)
}

// ReadyEndpoint serves /readyz. It fails while the readiness switch is off
// even when every probe passes.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	checks, ok := report(h.snapshot(false))
	if !h.ready.Load() {
		checks["ready"] = CheckStatus{Error: "not accepting traffic"}
		ok = false
	}
	writeStatus(w, checks, ok)
}

func writeStatus(w http.ResponseWriter, checks map[string]CheckStatus, ok bool) {
	body := Status{Status: "ok", Checks: checks}
	code := http.StatusOK
	if !ok {
		body.Status = "unavailable"
		code = http.StatusServiceUnavailable
	}
	if len(checks) == 0 {
		body.Checks = nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
