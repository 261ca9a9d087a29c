// Package circuitbreaker provides a per-capability circuit breaker with
// closed → open → half-open state transitions.
//
// Each external capability (screening provider, model inference, narrative
// evaluator) gets its own key, so a misbehaving provider stops being called
// without affecting the others.
package circuitbreaker

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// State represents the circuit breaker state.
type State int

const (
	StateClosed   State = iota // Normal: requests flow through
	StateOpen                  // Tripped: requests are rejected
	StateHalfOpen              // Probing: one request allowed to test recovery
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

var cbStateTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "riskgate",
	Subsystem: "circuitbreaker",
	Name:      "state_transitions_total",
	Help:      "Circuit breaker state transitions by capability, from-state, and to-state.",
}, []string{"capability", "from_state", "to_state"})

func init() {
	prometheus.MustRegister(cbStateTransitions)
}

// entry tracks per-capability circuit state.
type entry struct {
	state       State
	failures    int
	lastFailure time.Time
}

// Breaker is a per-capability circuit breaker. It tracks failure counts per
// capability and trips open when failures exceed the threshold. After
// openDuration, the circuit moves to half-open and allows one probe request.
type Breaker struct {
	mu           sync.Mutex
	entries      map[string]*entry
	threshold    int
	openDuration time.Duration
}

// New creates a circuit breaker that opens after threshold consecutive
// failures and stays open for openDuration before probing.
func New(threshold int, openDuration time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if openDuration <= 0 {
		openDuration = 30 * time.Second
	}
	return &Breaker{
		entries:      make(map[string]*entry),
		threshold:    threshold,
		openDuration: openDuration,
	}
}

// Allow returns true if a request to capability should be allowed.
// If the circuit is open and openDuration has elapsed, it transitions to half-open.
func (b *Breaker) Allow(capability string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[capability]
	if !ok {
		return true // No entry = closed
	}

	switch e.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(e.lastFailure) >= b.openDuration {
			b.transition(e, capability, StateHalfOpen)
			return true // Allow one probe
		}
		return false
	case StateHalfOpen:
		return false // Already probing, reject until probe completes
	default:
		return true
	}
}

// RecordSuccess records a successful request. Resets failure count and
// closes the circuit if it was half-open.
func (b *Breaker) RecordSuccess(capability string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[capability]
	if !ok {
		return
	}

	if e.state == StateHalfOpen {
		b.transition(e, capability, StateClosed)
	}
	e.failures = 0
}

// RecordFailure records a failed request. If consecutive failures exceed
// the threshold, trips the circuit open.
func (b *Breaker) RecordFailure(capability string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[capability]
	if !ok {
		e = &entry{state: StateClosed}
		b.entries[capability] = e
	}

	e.failures++
	e.lastFailure = time.Now()

	if e.state == StateHalfOpen {
		// Probe failed, back to open.
		b.transition(e, capability, StateOpen)
		return
	}

	if e.state == StateClosed && e.failures >= b.threshold {
		b.transition(e, capability, StateOpen)
	}
}

// State returns the current state for a capability. Returns StateClosed for
// unknown capabilities.
func (b *Breaker) State(capability string) State {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[capability]
	if !ok {
		return StateClosed
	}
	return e.state
}

// transition changes state and records the transition metric.
// Caller must hold b.mu.
func (b *Breaker) transition(e *entry, capability string, to State) {
	from := e.state
	if from == to {
		return
	}
	e.state = to
	cbStateTransitions.WithLabelValues(capability, from.String(), to.String()).Inc()
}
