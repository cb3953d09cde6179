package probe

import (
	"context"
	"fmt"
	"net"
	"time"
)

// TCPProber treats a successful TCP connect as a passed probe, for
// backends that expose no HTTP health endpoint.
type TCPProber struct {
	dialer *net.Dialer
}

func NewTCPProber() *TCPProber {
	return &TCPProber{dialer: &net.Dialer{}}
}

func (p *TCPProber) Probe(ctx context.Context, addr string) (time.Duration, error) {
	start := time.Now()
	conn, err := p.dialer.DialContext(ctx, "tcp", addr)
	elapsed := time.Since(start)
	if err != nil {
		return elapsed, fmt.Errorf("tcp probe %s: %w", addr, err)
	}
	_ = conn.Close()
	return elapsed, nil
}
