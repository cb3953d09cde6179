package domain

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/anthanhphan/go-hashring-balancer/pkg/health"
	"github.com/anthanhphan/go-hashring-balancer/pkg/stats"
)

var (
	// ErrNoServersAvailable is returned when no servers are registered
	// at all.
	ErrNoServersAvailable = errors.New("no servers available")
	// ErrNoHealthyServer is returned when servers exist but none pass
	// health filtering. The caller decides whether to retry later; the
	// balancer never retries routing internally.
	ErrNoHealthyServer = errors.New("no healthy server available")
)

// Server describes a backend in the balancing pool.
type Server struct {
	Name   string `json:"name"`
	Host   string `json:"host"`
	Port   int    `json:"port"`
	Weight int    `json:"weight"`
}

// Addr returns the host:port dial address.
func (s Server) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// URL returns the base URL requests are forwarded to.
func (s Server) URL() string {
	return fmt.Sprintf("http://%s", s.Addr())
}

func (s Server) String() string {
	return fmt.Sprintf("%s@%s[w=%d]", s.Name, s.Addr(), s.Weight)
}

// ServerStatus bundles a server with its health and statistics
// snapshots for the management API.
type ServerStatus struct {
	Server
	Health health.ProbeStatus `json:"health"`
	Stats  stats.ServerStats  `json:"stats"`
}

// AggregateStats summarizes the whole pool.
type AggregateStats struct {
	TotalServers     int     `json:"total_servers"`
	HealthyServers   int     `json:"healthy_servers"`
	UnhealthyServers int     `json:"unhealthy_servers"`
	TotalRequests    uint64  `json:"total_requests"`
	TotalErrors      uint64  `json:"total_errors"`
	ErrorRate        float64 `json:"error_rate"`
}

// KeyLookup is the result of a debug key resolution.
type KeyLookup struct {
	Key        string   `json:"key"`
	Hash       uint64   `json:"hash"`
	Selected   string   `json:"selected_server,omitempty"`
	Candidates []string `json:"candidate_servers"`
}

// RingEntry is one virtual node in a ring sample.
type RingEntry struct {
	Hash   uint64 `json:"hash"`
	Server string `json:"server"`
}

// RingInfo describes the ring's current shape.
type RingInfo struct {
	TotalVNodes     int            `json:"total_vnodes"`
	Servers         []string       `json:"servers"`
	VNodesPerServer map[string]int `json:"vnodes_per_server"`
	Sample          []RingEntry    `json:"ring_sample,omitempty"`
}
