package service

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/anthanhphan/go-hashring-balancer/internal/balancer/domain"
	"github.com/anthanhphan/go-hashring-balancer/internal/balancer/port"
	"github.com/anthanhphan/go-hashring-balancer/pkg/hashring"
	"github.com/anthanhphan/go-hashring-balancer/pkg/health"
	"github.com/anthanhphan/go-hashring-balancer/pkg/stats"
	"github.com/anthanhphan/gosdk/logger"
)

// Balancer ties the hash ring, the health monitor and the statistics
// collector together to answer "which server should serve key K right
// now". It owns the Server records; ring and monitor only reference
// servers by name.
type Balancer struct {
	mu        sync.RWMutex
	ring      *hashring.Ring
	monitor   *health.Monitor
	collector *stats.Collector
	servers   map[string]domain.Server

	// maxCandidates caps the failover scan; 0 means every registered
	// server is tried before giving up.
	maxCandidates int
}

var _ port.BalancerService = (*Balancer)(nil)

func NewBalancer(ring *hashring.Ring, monitor *health.Monitor, collector *stats.Collector, maxCandidates int) *Balancer {
	return &Balancer{
		ring:          ring,
		monitor:       monitor,
		collector:     collector,
		servers:       make(map[string]domain.Server),
		maxCandidates: maxCandidates,
	}
}

// AddServer registers a backend with the ring, the health monitor and
// the statistics collector. The weight check runs before any mutation,
// so a rejected server leaves no partial state behind.
func (b *Balancer) AddServer(server domain.Server) error {
	if server.Weight < 1 {
		return fmt.Errorf("%w: got %d", hashring.ErrInvalidWeight, server.Weight)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ring.AddServer(server.Name, server.Weight); err != nil {
		return err
	}
	b.monitor.Register(server.Name, server.Addr())
	b.collector.Register(server.Name)
	b.servers[server.Name] = server

	logger.Infow("Added server", "server", server.String())
	return nil
}

// RemoveServer removes the backend everywhere: ring positions, probe
// loop and counters. Nothing outlives the server.
func (b *Balancer) RemoveServer(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ring.RemoveServer(name); err != nil {
		return err
	}
	b.monitor.Deregister(name)
	b.collector.Remove(name)
	delete(b.servers, name)

	logger.Infow("Removed server", "server", name)
	return nil
}

// SelectServer resolves a key through the ring and returns the first
// candidate the health monitor considers healthy. Routing failures are
// surfaced, never retried here; retrying is the caller's decision.
func (b *Balancer) SelectServer(key string) (domain.Server, error) {
	b.mu.RLock()
	n := len(b.servers)
	b.mu.RUnlock()
	if b.maxCandidates > 0 && b.maxCandidates < n {
		n = b.maxCandidates
	}

	candidates, err := b.ring.LookupCandidates(key, n)
	if err != nil {
		if errors.Is(err, hashring.ErrEmptyRing) {
			return domain.Server{}, domain.ErrNoServersAvailable
		}
		return domain.Server{}, err
	}

	for _, name := range candidates {
		if !b.monitor.IsHealthy(name) {
			continue
		}
		b.mu.RLock()
		server, ok := b.servers[name]
		b.mu.RUnlock()
		if !ok {
			// Raced with removal; the next candidate takes over.
			continue
		}
		b.collector.RecordRequest(name)
		return server, nil
	}

	return domain.Server{}, domain.ErrNoHealthyServer
}

// ReportOutcome records the result of a forwarded request. Reports for
// servers removed in the meantime are dropped by the collector.
func (b *Balancer) ReportOutcome(name string, latency time.Duration, failed bool) {
	b.collector.RecordLatency(name, latency)
	if failed {
		b.collector.RecordError(name)
	}
}

func (b *Balancer) GetServer(name string) (domain.ServerStatus, error) {
	b.mu.RLock()
	server, ok := b.servers[name]
	b.mu.RUnlock()
	if !ok {
		return domain.ServerStatus{}, fmt.Errorf("%w: %s", hashring.ErrServerNotFound, name)
	}
	return b.statusOf(server), nil
}

// GetServerList returns every server with its health and statistics
// snapshots, ordered by name.
func (b *Balancer) GetServerList() []domain.ServerStatus {
	b.mu.RLock()
	servers := make([]domain.Server, 0, len(b.servers))
	for _, s := range b.servers {
		servers = append(servers, s)
	}
	b.mu.RUnlock()

	sort.Slice(servers, func(i, j int) bool { return servers[i].Name < servers[j].Name })

	out := make([]domain.ServerStatus, 0, len(servers))
	for _, s := range servers {
		out = append(out, b.statusOf(s))
	}
	return out
}

func (b *Balancer) GetAggregateStats() domain.AggregateStats {
	healthSnap := b.monitor.Snapshot()
	statsSnap := b.collector.Snapshot()

	agg := domain.AggregateStats{TotalServers: len(healthSnap)}
	for _, st := range healthSnap {
		switch st.State {
		case health.StateHealthy:
			agg.HealthyServers++
		default:
			agg.UnhealthyServers++
		}
	}
	for _, st := range statsSnap {
		agg.TotalRequests += st.Requests
		agg.TotalErrors += st.Errors
	}
	if agg.TotalRequests > 0 {
		agg.ErrorRate = float64(agg.TotalErrors) / float64(agg.TotalRequests)
	}
	return agg
}

// MarkServerHealth manually overrides the monitor's verdict, until the
// next probe cycle has its own say.
func (b *Balancer) MarkServerHealth(name string, healthy bool) error {
	if err := b.monitor.ForceState(name, healthy); err != nil {
		if errors.Is(err, health.ErrUnknownServer) {
			return fmt.Errorf("%w: %s", hashring.ErrServerNotFound, name)
		}
		return err
	}
	logger.Infow("Manually set server health", "server", name, "healthy", healthy)
	return nil
}

// UpdateWeight re-places a server on the ring with a new weight. Health
// state and statistics are kept; only ring positions change.
func (b *Balancer) UpdateWeight(name string, weight int) error {
	if weight < 1 {
		return fmt.Errorf("%w: got %d", hashring.ErrInvalidWeight, weight)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	server, ok := b.servers[name]
	if !ok {
		return fmt.Errorf("%w: %s", hashring.ErrServerNotFound, name)
	}
	if err := b.ring.RemoveServer(name); err != nil {
		return err
	}
	if err := b.ring.AddServer(name, weight); err != nil {
		return err
	}
	server.Weight = weight
	b.servers[name] = server

	logger.Infow("Updated server weight", "server", name, "weight", weight)
	return nil
}

func (b *Balancer) ResetStats() {
	b.collector.Reset()
	logger.Infow("Reset all server statistics")
}

// DebugLookup exposes the raw ring resolution for a key.
func (b *Balancer) DebugLookup(key string, n int) (domain.KeyLookup, error) {
	if n <= 0 {
		n = 3
	}
	candidates, err := b.ring.LookupCandidates(key, n)
	if err != nil {
		if errors.Is(err, hashring.ErrEmptyRing) {
			return domain.KeyLookup{}, domain.ErrNoServersAvailable
		}
		return domain.KeyLookup{}, err
	}

	lookup := domain.KeyLookup{
		Key:        key,
		Hash:       b.ring.HashKey(key),
		Candidates: candidates,
	}
	for _, name := range candidates {
		if b.monitor.IsHealthy(name) {
			lookup.Selected = name
			break
		}
	}
	return lookup, nil
}

func (b *Balancer) RingInfo(sampleLimit int) domain.RingInfo {
	info := domain.RingInfo{
		TotalVNodes:     b.ring.Len(),
		Servers:         b.ring.Servers(),
		VNodesPerServer: b.ring.VNodeCounts(),
	}
	if sampleLimit > 0 {
		for _, vn := range b.ring.Sample(sampleLimit) {
			info.Sample = append(info.Sample, domain.RingEntry{Hash: vn.Hash, Server: vn.ServerID})
		}
	}
	return info
}

func (b *Balancer) statusOf(server domain.Server) domain.ServerStatus {
	status := domain.ServerStatus{Server: server}
	if probe, ok := b.monitor.Status(server.Name); ok {
		status.Health = probe
	}
	if st, ok := b.collector.Get(server.Name); ok {
		status.Stats = st
	}
	return status
}
