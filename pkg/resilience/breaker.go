// Package resilience provides the failure-isolation primitives used
// around backend traffic: a per-backend circuit breaker and a bounded
// worker pool.
package resilience

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrBreakerOpen = errors.New("circuit breaker is open")

// BreakerOpenError reports an open circuit with a concrete retry delay.
type BreakerOpenError struct {
	Backend    string
	RetryAfter time.Duration
}

func (e *BreakerOpenError) Error() string {
	retryAfter := e.RetryAfter
	if retryAfter < 0 {
		retryAfter = 0
	}
	if e.Backend == "" {
		return fmt.Sprintf("%v: retry in %s", ErrBreakerOpen, retryAfter)
	}
	return fmt.Sprintf("%v for %s: retry in %s", ErrBreakerOpen, e.Backend, retryAfter)
}

func (e *BreakerOpenError) Is(target error) bool {
	return target == ErrBreakerOpen
}

type BreakerState string

const (
	BreakerClosed   BreakerState = "closed"
	BreakerOpen     BreakerState = "open"
	BreakerHalfOpen BreakerState = "half_open"
)

// BreakerConfig tunes one backend's circuit breaker.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that trip
	// the breaker open.
	FailureThreshold int
	// Cooldown is how long the breaker stays open before letting a
	// trial request through.
	Cooldown time.Duration
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 3
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 10 * time.Second
	}
	return c
}

// Breaker is a consecutive-failure circuit breaker for one backend.
// Unlike the health monitor it reacts to live traffic, so a backend
// that fails fast gets fenced off before the next probe cycle runs.
type Breaker struct {
	mu sync.Mutex

	backend string
	cfg     BreakerConfig

	state     BreakerState
	failures  int
	openUntil time.Time
	trialing  bool
}

func NewBreaker(backend string, cfg BreakerConfig) *Breaker {
	return &Breaker{
		backend: backend,
		cfg:     cfg.withDefaults(),
		state:   BreakerClosed,
	}
}

// State reports the breaker state after applying cooldown expiry.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refreshLocked(time.Now())
	return b.state
}

// Allow reports whether a request may proceed. When the breaker is
// open it returns a BreakerOpenError carrying the remaining cooldown.
// In half-open state exactly one trial request is admitted at a time.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.refreshLocked(now)

	switch b.state {
	case BreakerOpen:
		return &BreakerOpenError{Backend: b.backend, RetryAfter: b.openUntil.Sub(now)}
	case BreakerHalfOpen:
		if b.trialing {
			return &BreakerOpenError{Backend: b.backend, RetryAfter: b.openUntil.Sub(now)}
		}
		b.trialing = true
		return nil
	default:
		return nil
	}
}

// Report feeds the outcome of an admitted request back into the breaker.
func (b *Breaker) Report(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerHalfOpen {
		b.trialing = false
		if err != nil {
			b.openLocked()
		} else {
			b.state = BreakerClosed
			b.failures = 0
		}
		return
	}

	if err == nil {
		b.failures = 0
		return
	}
	b.failures++
	if b.failures >= b.cfg.FailureThreshold {
		b.openLocked()
	}
}

func (b *Breaker) refreshLocked(now time.Time) {
	if b.state == BreakerOpen && !now.Before(b.openUntil) {
		b.state = BreakerHalfOpen
		b.trialing = false
	}
}

func (b *Breaker) openLocked() {
	b.state = BreakerOpen
	b.openUntil = time.Now().Add(b.cfg.Cooldown)
	b.failures = 0
	b.trialing = false
}

// BreakerGroup keeps one Breaker per backend, created on first use and
// dropped when the backend is removed from the pool.
type BreakerGroup struct {
	mu       sync.Mutex
	cfg      BreakerConfig
	breakers map[string]*Breaker
}

func NewBreakerGroup(cfg BreakerConfig) *BreakerGroup {
	return &BreakerGroup{
		cfg:      cfg.withDefaults(),
		breakers: make(map[string]*Breaker),
	}
}

// Get returns the backend's breaker, creating it if needed.
func (g *BreakerGroup) Get(backend string) *Breaker {
	g.mu.Lock()
	defer g.mu.Unlock()

	b, ok := g.breakers[backend]
	if !ok {
		b = NewBreaker(backend, g.cfg)
		g.breakers[backend] = b
	}
	return b
}

// Remove drops the backend's breaker state.
func (g *BreakerGroup) Remove(backend string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.breakers, backend)
}

// States returns the current state of every tracked breaker.
func (g *BreakerGroup) States() map[string]BreakerState {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make(map[string]BreakerState, len(g.breakers))
	for backend, b := range g.breakers {
		out[backend] = b.State()
	}
	return out
}
