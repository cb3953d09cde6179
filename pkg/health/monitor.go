// Package health tracks per-server health state from periodic probes.
// State reads are lock-free snapshots from the routing path's point of
// view: probing never holds a lock across a network round-trip.
package health

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/anthanhphan/go-hashring-balancer/pkg/resilience"
	"github.com/anthanhphan/gosdk/logger"
)

var ErrUnknownServer = errors.New("server not registered with health monitor")

// State is the health of a single server.
type State string

const (
	// StateUnknown is the initial state of a newly registered server.
	// Unknown servers are not eligible for selection until the first
	// probe completes.
	StateUnknown   State = "unknown"
	StateHealthy   State = "healthy"
	StateUnhealthy State = "unhealthy"
)

// Prober performs one health check attempt against a backend address
// and reports the elapsed time. A nil error means the backend returned
// the expected success signal within the context deadline.
type Prober interface {
	Probe(ctx context.Context, addr string) (time.Duration, error)
}

// Config tunes probe scheduling and the condemnation threshold.
type Config struct {
	// Interval between probes of one server.
	Interval time.Duration
	// Timeout for a single probe attempt.
	Timeout time.Duration
	// Retries is the number of consecutive failed probes required to
	// flip a server to unhealthy. A single success flips it back.
	Retries int
	// Workers bounds the number of concurrently executing probes.
	Workers int
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 10 * time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Second
	}
	if c.Retries <= 0 {
		c.Retries = 3
	}
	if c.Workers <= 0 {
		c.Workers = 8
	}
	return c
}

// ProbeStatus is a snapshot of one server's probe bookkeeping.
type ProbeStatus struct {
	State            State         `json:"state"`
	LastChecked      time.Time     `json:"last_checked"`
	LastLatency      time.Duration `json:"last_latency"`
	ConsecutiveFails int           `json:"consecutive_fails"`
	LastError        string        `json:"last_error,omitempty"`
}

type serverProbe struct {
	addr   string
	cancel context.CancelFunc

	state       State
	fails       int
	lastChecked time.Time
	lastLatency time.Duration
	lastError   string
}

// Monitor runs one probe loop per registered server. Loops are
// cancelled individually on deregistration, so removing one server
// never disturbs the others' schedules.
type Monitor struct {
	mu      sync.RWMutex
	cfg     Config
	prober  Prober
	pool    *resilience.WorkerPool
	servers map[string]*serverProbe

	rootCtx    context.Context
	rootCancel context.CancelFunc
	wg         sync.WaitGroup
	closed     bool
}

func NewMonitor(cfg Config, prober Prober) *Monitor {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Monitor{
		cfg:        cfg,
		prober:     prober,
		pool:       resilience.NewWorkerPool(cfg.Workers, cfg.Workers*2),
		servers:    make(map[string]*serverProbe),
		rootCtx:    ctx,
		rootCancel: cancel,
	}
}

// Register starts probing a server. The server stays in StateUnknown
// until its first probe completes.
func (m *Monitor) Register(serverID, addr string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	if _, exists := m.servers[serverID]; exists {
		return
	}

	ctx, cancel := context.WithCancel(m.rootCtx)
	m.servers[serverID] = &serverProbe{
		addr:   addr,
		cancel: cancel,
		state:  StateUnknown,
	}

	m.wg.Add(1)
	go m.probeLoop(ctx, serverID, addr)
}

// Deregister cancels future probes for the server. An in-flight
// probe's result is discarded once the entry is gone.
func (m *Monitor) Deregister(serverID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, exists := m.servers[serverID]; exists {
		p.cancel()
		delete(m.servers, serverID)
	}
}

// IsHealthy is a non-blocking snapshot read used by the routing path.
func (m *Monitor) IsHealthy(serverID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.servers[serverID]
	return ok && p.state == StateHealthy
}

// State returns the server's health state and whether it is registered.
func (m *Monitor) State(serverID string) (State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.servers[serverID]
	if !ok {
		return StateUnknown, false
	}
	return p.state, true
}

// Status returns a snapshot of one server's probe bookkeeping.
func (m *Monitor) Status(serverID string) (ProbeStatus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.servers[serverID]
	if !ok {
		return ProbeStatus{}, false
	}
	return p.status(), true
}

// Snapshot returns a copy of every server's probe status.
func (m *Monitor) Snapshot() map[string]ProbeStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]ProbeStatus, len(m.servers))
	for id, p := range m.servers {
		out[id] = p.status()
	}
	return out
}

// ForceState overrides a server's health state, for manual operator
// intervention. The next probe cycle may flip it back.
func (m *Monitor) ForceState(serverID string, healthy bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.servers[serverID]
	if !ok {
		return ErrUnknownServer
	}
	if healthy {
		p.state = StateHealthy
	} else {
		p.state = StateUnhealthy
	}
	p.fails = 0
	p.lastChecked = time.Now()
	return nil
}

// Close stops every probe loop and waits for them to exit.
func (m *Monitor) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.rootCancel()
	m.wg.Wait()
	m.pool.Close()
}

func (p *serverProbe) status() ProbeStatus {
	return ProbeStatus{
		State:            p.state,
		LastChecked:      p.lastChecked,
		LastLatency:      p.lastLatency,
		ConsecutiveFails: p.fails,
		LastError:        p.lastError,
	}
}

func (m *Monitor) probeLoop(ctx context.Context, serverID, addr string) {
	defer m.wg.Done()

	// First probe right away so a new server does not sit in
	// StateUnknown for a whole interval.
	m.runProbe(ctx, serverID, addr)

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.runProbe(ctx, serverID, addr)
		}
	}
}

// runProbe executes one probe attempt through the worker pool and
// waits no longer than the probe timeout. A prober that ignores its
// deadline is abandoned, counted as a failure, and the loop moves on.
func (m *Monitor) runProbe(ctx context.Context, serverID, addr string) {
	probeCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	type probeResult struct {
		latency time.Duration
		err     error
	}
	// Buffered: a late result from an abandoned probe must not block
	// the worker that produced it.
	resultCh := make(chan probeResult, 1)

	err := m.pool.Submit(probeCtx, func() {
		latency, probeErr := m.prober.Probe(probeCtx, addr)
		resultCh <- probeResult{latency: latency, err: probeErr}
	})
	if err != nil {
		if ctx.Err() == nil {
			m.recordFailure(serverID, 0, err)
		}
		return
	}

	select {
	case res := <-resultCh:
		if res.err != nil {
			m.recordFailure(serverID, res.latency, res.err)
		} else {
			m.recordSuccess(serverID, res.latency)
		}
	case <-probeCtx.Done():
		if ctx.Err() != nil {
			// Deregistered or shutting down: discard the result.
			return
		}
		m.recordFailure(serverID, m.cfg.Timeout, probeCtx.Err())
	}
}

func (m *Monitor) recordSuccess(serverID string, latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.servers[serverID]
	if !ok {
		return
	}
	p.fails = 0
	p.lastChecked = time.Now()
	p.lastLatency = latency
	p.lastError = ""
	if p.state != StateHealthy {
		prev := p.state
		p.state = StateHealthy
		logger.Infow("Server is now healthy", "server", serverID, "previous", string(prev))
	}
}

func (m *Monitor) recordFailure(serverID string, latency time.Duration, probeErr error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.servers[serverID]
	if !ok {
		return
	}
	p.fails++
	p.lastChecked = time.Now()
	p.lastLatency = latency
	if probeErr != nil {
		p.lastError = probeErr.Error()
	}
	if p.state != StateUnhealthy && p.fails >= m.cfg.Retries {
		prev := p.state
		p.state = StateUnhealthy
		logger.Warnw("Server is now unhealthy",
			"server", serverID, "previous", string(prev),
			"consecutive_fails", p.fails, "error", p.lastError)
	}
}
