// Package stats tracks per-server request counters and latency for
// routing decisions and the management API.
package stats

import (
	"sync"
	"sync/atomic"
	"time"
)

// ServerStats is a point-in-time copy of one server's counters.
type ServerStats struct {
	Requests    uint64        `json:"requests"`
	Errors      uint64        `json:"errors"`
	AvgLatency  time.Duration `json:"avg_latency"`
	LastLatency time.Duration `json:"last_latency"`
}

// ErrorRate returns errors over requests, 0 when no requests were seen.
func (s ServerStats) ErrorRate() float64 {
	if s.Requests == 0 {
		return 0
	}
	return float64(s.Errors) / float64(s.Requests)
}

// serverCounters are updated with atomics only, so concurrent recorders
// never contend with each other or with snapshot readers.
type serverCounters struct {
	requests      atomic.Uint64
	errors        atomic.Uint64
	latencyTotal  atomic.Int64 // microseconds
	latencyCount  atomic.Uint64
	latencyLatest atomic.Int64 // microseconds
}

func (c *serverCounters) snapshot() ServerStats {
	s := ServerStats{
		Requests:    c.requests.Load(),
		Errors:      c.errors.Load(),
		LastLatency: time.Duration(c.latencyLatest.Load()) * time.Microsecond,
	}
	if n := c.latencyCount.Load(); n > 0 {
		s.AvgLatency = time.Duration(c.latencyTotal.Load()/int64(n)) * time.Microsecond
	}
	return s
}

// Collector maintains counters for every registered server. The map is
// only mutated on server registration and removal; recording goes
// through atomics on the per-server entry.
type Collector struct {
	mu      sync.RWMutex
	servers map[string]*serverCounters
}

func NewCollector() *Collector {
	return &Collector{
		servers: make(map[string]*serverCounters),
	}
}

// Register creates a zeroed counter set for a server. Re-registering an
// existing server keeps its counters.
func (c *Collector) Register(serverID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.servers[serverID]; !exists {
		c.servers[serverID] = &serverCounters{}
	}
}

// Remove discards a server's counters. They do not survive the server.
func (c *Collector) Remove(serverID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.servers, serverID)
}

// RecordRequest counts one routing decision for the server. Updates for
// unregistered servers are dropped; a report can race with removal.
func (c *Collector) RecordRequest(serverID string) {
	if counters := c.get(serverID); counters != nil {
		counters.requests.Add(1)
	}
}

// RecordError counts one failed request outcome for the server.
func (c *Collector) RecordError(serverID string) {
	if counters := c.get(serverID); counters != nil {
		counters.errors.Add(1)
	}
}

// RecordLatency folds one response-time sample into the running mean.
func (c *Collector) RecordLatency(serverID string, d time.Duration) {
	counters := c.get(serverID)
	if counters == nil {
		return
	}
	micros := d.Microseconds()
	counters.latencyTotal.Add(micros)
	counters.latencyCount.Add(1)
	counters.latencyLatest.Store(micros)
}

// Snapshot returns a copy of every server's counters. Callers can
// iterate it freely while recording continues.
func (c *Collector) Snapshot() map[string]ServerStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]ServerStats, len(c.servers))
	for id, counters := range c.servers {
		out[id] = counters.snapshot()
	}
	return out
}

// Get returns one server's counters and whether it is registered.
func (c *Collector) Get(serverID string) (ServerStats, bool) {
	counters := c.get(serverID)
	if counters == nil {
		return ServerStats{}, false
	}
	return counters.snapshot(), true
}

// Reset zeroes every registered server's counters.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id := range c.servers {
		c.servers[id] = &serverCounters{}
	}
}

func (c *Collector) get(serverID string) *serverCounters {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.servers[serverID]
}
