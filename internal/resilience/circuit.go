package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// CircuitState is the state of a circuit breaker.
type CircuitState int

const (
	// CircuitClosed is the normal operating state.
	CircuitClosed CircuitState = iota
	// CircuitOpen rejects requests immediately after repeated failures.
	CircuitOpen
	// CircuitHalfOpen allows a probe request to test recovery.
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when a call is rejected by an open circuit.
var ErrCircuitOpen = eris.New("circuit breaker is open")

// CircuitConfig controls circuit breaker behavior.
type CircuitConfig struct {
	// FailureThreshold is the consecutive-failure count that opens the circuit.
	FailureThreshold int
	// ResetTimeout is how long the circuit stays open before half-open.
	ResetTimeout time.Duration
	// ShouldTrip overrides which errors count toward the threshold.
	ShouldTrip func(err error) bool
	// OnStateChange is called on state transitions.
	OnStateChange func(from, to CircuitState)
}

// DefaultCircuitConfig returns the defaults used for source lookups.
func DefaultCircuitConfig() CircuitConfig {
	return CircuitConfig{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
	}
}

// Circuit implements the circuit breaker pattern for a single service.
type Circuit struct {
	cfg CircuitConfig

	mu           sync.Mutex
	state        CircuitState
	failures     int
	lastFailure  time.Time

	nowFunc func() time.Time
}

// NewCircuit creates a circuit breaker with the given config.
func NewCircuit(cfg CircuitConfig) *Circuit {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	return &Circuit{cfg: cfg, state: CircuitClosed, nowFunc: time.Now}
}

// Execute runs fn through the breaker, returning ErrCircuitOpen when the
// circuit is open.
func (c *Circuit) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := c.allow(); err != nil {
		return err
	}
	err := fn(ctx)
	c.record(err)
	return err
}

// ExecuteVal is Execute preserving a return value.
func ExecuteVal[T any](ctx context.Context, c *Circuit, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := c.allow(); err != nil {
		return zero, err
	}
	val, err := fn(ctx)
	c.record(err)
	return val, err
}

// State returns the current circuit state.
func (c *Circuit) State() CircuitState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == CircuitOpen && c.nowFunc().Sub(c.lastFailure) >= c.cfg.ResetTimeout {
		return CircuitHalfOpen
	}
	return c.state
}

// Reset forces the circuit back to closed.
func (c *Circuit) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	old := c.state
	c.state = CircuitClosed
	c.failures = 0
	if old != CircuitClosed && c.cfg.OnStateChange != nil {
		c.cfg.OnStateChange(old, CircuitClosed)
	}
}

func (c *Circuit) allow() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == CircuitOpen {
		if c.nowFunc().Sub(c.lastFailure) >= c.cfg.ResetTimeout {
			c.transition(CircuitHalfOpen)
			return nil
		}
		return ErrCircuitOpen
	}
	return nil
}

func (c *Circuit) record(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	trips := c.cfg.ShouldTrip
	if trips == nil {
		trips = func(e error) bool { return e != nil }
	}

	if err == nil || !trips(err) {
		if c.state == CircuitHalfOpen {
			c.transition(CircuitClosed)
		}
		c.failures = 0
		return
	}

	c.failures++
	c.lastFailure = c.nowFunc()

	switch c.state {
	case CircuitClosed:
		if c.failures >= c.cfg.FailureThreshold {
			c.transition(CircuitOpen)
		}
	case CircuitHalfOpen:
		c.transition(CircuitOpen)
	}
}

func (c *Circuit) transition(to CircuitState) {
	from := c.state
	c.state = to
	if c.cfg.OnStateChange != nil {
		c.cfg.OnStateChange(from, to)
	}
}

// Breakers manages one circuit breaker per named service.
type Breakers struct {
	mu       sync.RWMutex
	circuits map[string]*Circuit
	cfg      CircuitConfig
}

// NewBreakers creates a registry of per-service circuit breakers.
func NewBreakers(cfg CircuitConfig) *Breakers {
	return &Breakers{circuits: make(map[string]*Circuit), cfg: cfg}
}

// Get returns the breaker for the named service, creating one if needed.
func (b *Breakers) Get(service string) *Circuit {
	b.mu.RLock()
	c, ok := b.circuits[service]
	b.mu.RUnlock()
	if ok {
		return c
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok = b.circuits[service]; ok {
		return c
	}
	c = NewCircuit(b.cfg)
	b.circuits[service] = c
	return c
}

// States returns a snapshot of all breaker states.
func (b *Breakers) States() map[string]CircuitState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	states := make(map[string]CircuitState, len(b.circuits))
	for name, c := range b.circuits {
		states[name] = c.State()
	}
	return states
}
