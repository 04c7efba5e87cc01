package retry

import (
	"sync"
	"time"
)

// State is a Breaker's position.
type State int

const (
	// StateClosed lets every attempt through.
	StateClosed State = iota
	// StateOpen holds attempts back until the cooldown has passed.
	StateOpen
	// StateHalfOpen lets one trial call through after a cooldown.  Its
	// outcome closes or reopens the breaker.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker counts consecutive failed sessions and, past MaxFailures,
// asks the caller to pause for Cooldown before serving again.  A nil
// *Breaker never pauses.
type Breaker struct {
	MaxFailures int           // default 5
	Cooldown    time.Duration // default 10s
	// OnStateChange runs under the lock on every transition.
	OnStateChange func(from, to State)

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	now      func() time.Time
}

// Wait returns how long to pause before the next attempt, or 0.  Once
// the cooldown has passed the breaker moves to half-open.
func (b *Breaker) Wait() time.Duration {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return 0
	}
	left := b.cooldown() - b.clock().Sub(b.openedAt)
	if left > 0 {
		return left
	}
	b.transition(StateHalfOpen)
	return 0
}

// Record notes the outcome of an attempt.
func (b *Breaker) Record(err error) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.failures = 0
		b.transition(StateClosed)
		return
	}
	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.maxFailures() {
		b.openedAt = b.clock()
		b.transition(StateOpen)
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	if b == nil {
		return StateClosed
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures returns the consecutive failure count.
func (b *Breaker) Failures() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

func (b *Breaker) maxFailures() int {
	if b.MaxFailures > 0 {
		return b.MaxFailures
	}
	return 5
}

func (b *Breaker) cooldown() time.Duration {
	if b.Cooldown > 0 {
		return b.Cooldown
	}
	return 10 * time.Second
}

func (b *Breaker) clock() time.Time {
	if b.now != nil {
		return b.now()
	}
	return time.Now()
}

func (b *Breaker) transition(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if b.OnStateChange != nil {
		b.OnStateChange(from, to)
	}
}
