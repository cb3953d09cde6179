// Package probe implements the health.Prober port over HTTP and TCP.
// A probe's transport error never escapes as-is to the state machine;
// the monitor only sees pass/fail plus elapsed time.
package probe

import (
	"fmt"

	"github.com/anthanhphan/go-hashring-balancer/pkg/health"
)

const (
	TypeHTTP = "http"
	TypeTCP  = "tcp"
)

// New builds a prober of the configured type.
func New(probeType, path string) (health.Prober, error) {
	switch probeType {
	case TypeHTTP, "":
		return NewHTTPProber(path), nil
	case TypeTCP:
		return NewTCPProber(), nil
	default:
		return nil, fmt.Errorf("unknown probe type %q", probeType)
	}
}
