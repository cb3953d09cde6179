package health

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProber replays a fixed sequence of probe outcomes, repeating
// the last one once the script is exhausted.
type scriptedProber struct {
	mu      sync.Mutex
	script  []error
	calls   int
	latency time.Duration
}

func (p *scriptedProber) Probe(ctx context.Context, addr string) (time.Duration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.calls
	p.calls++
	if idx >= len(p.script) {
		idx = len(p.script) - 1
	}
	return p.latency, p.script[idx]
}

func (p *scriptedProber) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *scriptedProber) setScript(script []error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.script = script
	p.calls = 0
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func TestMonitor_UnknownUntilFirstProbe(t *testing.T) {
	release := make(chan struct{})
	prober := &blockingProber{release: release}

	m := NewMonitor(Config{Interval: 10 * time.Millisecond, Timeout: time.Second, Retries: 3}, prober)
	defer m.Close()

	m.Register("s1", "127.0.0.1:9001")

	state, ok := m.State("s1")
	require.True(t, ok)
	assert.Equal(t, StateUnknown, state)
	assert.False(t, m.IsHealthy("s1"), "unknown servers are not eligible")

	close(release)
	waitFor(t, time.Second, func() bool { return m.IsHealthy("s1") })
}

type blockingProber struct {
	release chan struct{}
}

func (p *blockingProber) Probe(ctx context.Context, addr string) (time.Duration, error) {
	select {
	case <-p.release:
		return time.Millisecond, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func TestMonitor_FlapResistance(t *testing.T) {
	down := errors.New("connection refused")
	// Healthy, then two failures followed by a success: with retries=3
	// the server must never flip to unhealthy.
	prober := &scriptedProber{script: []error{nil, down, down, nil}, latency: time.Millisecond}

	m := NewMonitor(Config{Interval: 5 * time.Millisecond, Timeout: time.Second, Retries: 3}, prober)
	defer m.Close()

	m.Register("s1", "127.0.0.1:9001")
	waitFor(t, time.Second, func() bool { return m.IsHealthy("s1") })

	sawUnhealthy := false
	waitFor(t, time.Second, func() bool {
		if state, _ := m.State("s1"); state == StateUnhealthy {
			sawUnhealthy = true
		}
		return prober.callCount() >= 5
	})

	assert.False(t, sawUnhealthy, "two failures out of three retries must not condemn")
	assert.True(t, m.IsHealthy("s1"))
}

func TestMonitor_CondemnationAndFastRecovery(t *testing.T) {
	down := errors.New("connection refused")
	prober := &scriptedProber{script: []error{down}, latency: time.Millisecond}

	m := NewMonitor(Config{Interval: 5 * time.Millisecond, Timeout: time.Second, Retries: 2}, prober)
	defer m.Close()

	m.Register("s1", "127.0.0.1:9001")
	waitFor(t, time.Second, func() bool {
		state, _ := m.State("s1")
		return state == StateUnhealthy
	})

	status, ok := m.Status("s1")
	require.True(t, ok)
	assert.GreaterOrEqual(t, status.ConsecutiveFails, 2)
	assert.NotEmpty(t, status.LastError)

	// A single successful probe recovers the server.
	prober.setScript([]error{nil})
	waitFor(t, time.Second, func() bool { return m.IsHealthy("s1") })
}

func TestMonitor_DeregisterCancelsProbes(t *testing.T) {
	prober := &scriptedProber{script: []error{nil}, latency: time.Millisecond}

	m := NewMonitor(Config{Interval: 5 * time.Millisecond, Timeout: time.Second, Retries: 3}, prober)
	defer m.Close()

	m.Register("s1", "127.0.0.1:9001")
	waitFor(t, time.Second, func() bool { return prober.callCount() >= 2 })

	m.Deregister("s1")
	assert.False(t, m.IsHealthy("s1"))
	if _, ok := m.State("s1"); ok {
		t.Fatalf("deregistered server still visible")
	}

	settled := prober.callCount()
	time.Sleep(50 * time.Millisecond)
	// At most one in-flight probe may still land after deregistration.
	assert.LessOrEqual(t, prober.callCount(), settled+1)
}

func TestMonitor_SlowProbeDoesNotStallScheduler(t *testing.T) {
	// The prober ignores its deadline entirely.
	prober := proberFunc(func(ctx context.Context, addr string) (time.Duration, error) {
		time.Sleep(300 * time.Millisecond)
		return 300 * time.Millisecond, nil
	})

	m := NewMonitor(Config{
		Interval: 10 * time.Millisecond,
		Timeout:  10 * time.Millisecond,
		Retries:  2,
		Workers:  4,
	}, prober)
	defer m.Close()

	m.Register("s1", "127.0.0.1:9001")

	// Timed-out probes count as failures well before the prober returns.
	waitFor(t, 200*time.Millisecond, func() bool {
		state, _ := m.State("s1")
		return state == StateUnhealthy
	})
}

type proberFunc func(ctx context.Context, addr string) (time.Duration, error)

func (f proberFunc) Probe(ctx context.Context, addr string) (time.Duration, error) {
	return f(ctx, addr)
}

func TestMonitor_ForceState(t *testing.T) {
	prober := &scriptedProber{script: []error{nil}, latency: time.Millisecond}

	m := NewMonitor(Config{Interval: time.Hour, Timeout: time.Second, Retries: 3}, prober)
	defer m.Close()

	m.Register("s1", "127.0.0.1:9001")
	waitFor(t, time.Second, func() bool { return m.IsHealthy("s1") })

	require.NoError(t, m.ForceState("s1", false))
	assert.False(t, m.IsHealthy("s1"))

	require.NoError(t, m.ForceState("s1", true))
	assert.True(t, m.IsHealthy("s1"))

	assert.ErrorIs(t, m.ForceState("ghost", false), ErrUnknownServer)
}

func TestMonitor_SnapshotIsCopy(t *testing.T) {
	prober := &scriptedProber{script: []error{nil}, latency: time.Millisecond}

	m := NewMonitor(Config{Interval: time.Hour, Timeout: time.Second, Retries: 3}, prober)
	defer m.Close()

	m.Register("s1", "127.0.0.1:9001")
	m.Register("s2", "127.0.0.1:9002")
	waitFor(t, time.Second, func() bool { return m.IsHealthy("s1") && m.IsHealthy("s2") })

	snap := m.Snapshot()
	require.Len(t, snap, 2)

	require.NoError(t, m.ForceState("s1", false))
	assert.Equal(t, StateHealthy, snap["s1"].State, "snapshot must not track later changes")
}
