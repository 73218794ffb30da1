// Package health backs the /livez and /readyz endpoints.
//
// Registered checks run on their own tickers in the background. State changes
// are threshold-gated the way Kubernetes liveness checks are: a check flips
// to unhealthy only after failing consecutively, and back after succeeding,
// so a single slow database ping does not bounce the service out of rotation.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc reports the health of one component. Nil means healthy.
type CheckFunc func(ctx context.Context) error

const (
	// defaultFailureThreshold is how many consecutive failures flip a check
	// to unhealthy.
	defaultFailureThreshold = 3
	// defaultSuccessThreshold is how many consecutive successes flip it back.
	defaultSuccessThreshold = 1
)

// checkState is one registered check plus its runtime state.
//
// run() executes on a single goroutine, so the consecutive counters are
// unsynchronized. healthy and lastErr are read by HTTP handlers from
// arbitrary goroutines and therefore use atomics.
type checkState struct {
	name             string
	timeout          time.Duration
	check            CheckFunc
	failureThreshold int
	successThreshold int

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	consecutiveFails int
	consecutiveOK    int
}

func newCheckState(name string, timeout time.Duration, check CheckFunc) *checkState {
	c := &checkState{
		name:             name,
		timeout:          timeout,
		check:            check,
		failureThreshold: defaultFailureThreshold,
		successThreshold: defaultSuccessThreshold,
	}
	// Healthy until proven otherwise, so registration order cannot make a
	// fresh process flap.
	c.healthy.Store(true)
	return c
}

func (c *checkState) isHealthy() bool {
	return c.healthy.Load()
}

func (c *checkState) lastError() error {
	if e := c.lastErr.Load(); e != nil {
		return *e
	}
	return nil
}

// run executes the check once and applies the thresholds. Single goroutine
// only.
func (c *checkState) run(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.check(checkCtx)
	c.lastErr.Store(&err)

	if err != nil {
		c.consecutiveOK = 0
		c.consecutiveFails++
		if c.consecutiveFails >= c.failureThreshold {
			c.healthy.Store(false)
		}
		return
	}
	c.consecutiveFails = 0
	c.consecutiveOK++
	if c.consecutiveOK >= c.successThreshold {
		c.healthy.Store(true)
	}
}

// Health holds the service's liveness and readiness checks.
type Health struct {
	ready atomic.Bool

	// mu guards the check slices and cancel. Handlers copy the slices under
	// RLock and release before touching check state.
	mu              sync.RWMutex
	livenessChecks  []*checkState
	readinessChecks []*checkState
	cancel          context.CancelFunc
}

// New creates a Health service. It starts not-ready; call SetReady(true) once
// startup completes.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a check that decides whether the process should
// be restarted.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.livenessChecks = append(h.livenessChecks, newCheckState(name, timeout, check))
}

// AddReadinessCheck registers a check that decides whether the service should
// receive traffic, such as database connectivity.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readinessChecks = append(h.readinessChecks, newCheckState(name, timeout, check))
}

// Start launches one background goroutine per registered check, each ticking
// at interval. Register all checks before calling Start.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	checks := make([]*checkState, 0, len(h.livenessChecks)+len(h.readinessChecks))
	checks = append(checks, h.livenessChecks...)
	checks = append(checks, h.readinessChecks...)
	h.mu.Unlock()

	for _, c := range checks {
		go runCheckLoop(ctx, c, interval)
	}
}

func runCheckLoop(ctx context.Context, c *checkState, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// First run happens immediately, not one interval in.
	c.run(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.run(ctx)
		}
	}
}

// SetReady flips the manual readiness gate. Set false during graceful
// shutdown to drain traffic before the listener closes.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the manual gate is open and every readiness check
// passes.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}

	h.mu.RLock()
	checks := h.readinessChecks
	h.mu.RUnlock()

	for _, c := range checks {
		if !c.isHealthy() {
			return false
		}
	}
	return true
}

// Stop cancels the background check goroutines. Safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves /livez: 200 {"status":"ok"} while every liveness check
// passes, 503 with the failing checks otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	checks := make([]*checkState, len(h.livenessChecks))
	copy(checks, h.livenessChecks)
	h.mu.RUnlock()

	writeStatus(w, collectFailures(checks))
}

// ReadyEndpoint serves /readyz: 200 only when the manual gate is open and
// every readiness check passes.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	ready := h.ready.Load()

	h.mu.RLock()
	checks := make([]*checkState, len(h.readinessChecks))
	copy(checks, h.readinessChecks)
	h.mu.RUnlock()

	failures := collectFailures(checks)
	if !ready {
		failures["_readiness"] = "service is not ready"
	}
	writeStatus(w, failures)
}

// collectFailures maps check name to last error for every unhealthy check.
// It reports the stored result; it never re-runs a check on the request path.
func collectFailures(checks []*checkState) map[string]string {
	failures := make(map[string]string)
	for _, c := range checks {
		if c.isHealthy() {
			continue
		}
		if err := c.lastError(); err != nil {
			failures[c.name] = err.Error()
		} else {
			failures[c.name] = "check is unhealthy"
		}
	}
	return failures
}

func writeStatus(w http.ResponseWriter, failures map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	resp := statusResponse{Status: "ok"}
	status := http.StatusOK
	if len(failures) > 0 {
		resp.Status = "unhealthy"
		resp.Checks = failures
		status = http.StatusServiceUnavailable
	}

	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
