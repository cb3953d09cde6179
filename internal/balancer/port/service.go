package port

import (
	"time"

	"github.com/anthanhphan/go-hashring-balancer/internal/balancer/domain"
)

// BalancerService is the core contract consumed by the HTTP adapter
// and the discovery adapter.
type BalancerService interface {
	// AddServer registers a backend and starts probing it.
	AddServer(server domain.Server) error
	// RemoveServer removes a backend, its ring positions, its probe
	// loop and its statistics.
	RemoveServer(name string) error
	// SelectServer resolves a key to the first healthy candidate.
	SelectServer(key string) (domain.Server, error)
	// ReportOutcome records the caller-observed result of a forwarded
	// request against the server that handled it.
	ReportOutcome(name string, latency time.Duration, failed bool)

	GetServer(name string) (domain.ServerStatus, error)
	GetServerList() []domain.ServerStatus
	GetAggregateStats() domain.AggregateStats

	// MarkServerHealth overrides a server's health state manually.
	MarkServerHealth(name string, healthy bool) error
	// UpdateWeight re-places a server on the ring with a new weight.
	UpdateWeight(name string, weight int) error
	// ResetStats zeroes every server's counters.
	ResetStats()

	DebugLookup(key string, n int) (domain.KeyLookup, error)
	RingInfo(sampleLimit int) domain.RingInfo
}
