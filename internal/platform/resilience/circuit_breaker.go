package resilience

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

const (
	defaultFailureThreshold = 5
	defaultOpenTimeout      = 15 * time.Second
	defaultHalfOpenMaxReq   = 2
)

// CircuitBreakerConfig configures one upstream's breaker. A disabled breaker
// allows every request and records nothing.
type CircuitBreakerConfig struct {
	Name             string
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
	// OnStateChange is called outside the breaker lock after each transition.
	OnStateChange func(name string, from, to CircuitState)
}

// CircuitBreaker stops calls to an upstream source after FailureThreshold
// consecutive transient failures and lets HalfOpenMaxReq trial calls through
// once OpenTimeout has passed.
type CircuitBreaker struct {
	mu  sync.Mutex
	cfg CircuitBreakerConfig

	state     CircuitState
	failures  int
	openedAt  time.Time
	inFlight  int
	successes int
	now       func() time.Time
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = defaultFailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaultOpenTimeout
	}
	if cfg.HalfOpenMaxReq < 1 {
		cfg.HalfOpenMaxReq = defaultHalfOpenMaxReq
	}
	return &CircuitBreaker{
		cfg:   cfg,
		state: CircuitStateClosed,
		now:   time.Now,
	}
}

func (b *CircuitBreaker) Enabled() bool {
	return b != nil && b.cfg.Enabled
}

// Allow reserves a call. The returned error wraps ErrCircuitOpen and says how
// long the breaker stays open.
func (b *CircuitBreaker) Allow() error {
	if !b.Enabled() {
		return nil
	}

	b.mu.Lock()
	now := b.now()
	var changed func()
	if b.state == CircuitStateOpen {
		if wait := b.cfg.OpenTimeout - now.Sub(b.openedAt); wait > 0 {
			b.mu.Unlock()
			return fmt.Errorf("%w: %s retry in %s", ErrCircuitOpen, b.cfg.Name, wait.Round(time.Second))
		}
		changed = b.transition(CircuitStateHalfOpen)
	}
	if b.state == CircuitStateHalfOpen {
		if b.inFlight >= b.cfg.HalfOpenMaxReq {
			b.mu.Unlock()
			notify(changed)
			return fmt.Errorf("%w: %s trial calls in flight", ErrCircuitOpen, b.cfg.Name)
		}
		b.inFlight++
	}
	b.mu.Unlock()
	notify(changed)
	return nil
}

// Record reports the outcome of a call admitted by Allow. Only failures worth
// backing off from should be recorded as failed.
func (b *CircuitBreaker) Record(failed bool) {
	if !b.Enabled() {
		return
	}

	b.mu.Lock()
	var changed func()
	switch b.state {
	case CircuitStateClosed:
		if !failed {
			b.failures = 0
			break
		}
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			changed = b.transition(CircuitStateOpen)
		}
	case CircuitStateHalfOpen:
		if b.inFlight > 0 {
			b.inFlight--
		}
		if failed {
			changed = b.transition(CircuitStateOpen)
			break
		}
		b.successes++
		if b.successes >= b.cfg.HalfOpenMaxReq && b.inFlight == 0 {
			changed = b.transition(CircuitStateClosed)
		}
	case CircuitStateOpen:
		if failed {
			b.openedAt = b.now()
		}
	}
	b.mu.Unlock()
	notify(changed)
}

func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen && b.now().Sub(b.openedAt) >= b.cfg.OpenTimeout {
		return CircuitStateHalfOpen
	}
	return b.state
}

// transition must be called with b.mu held. It returns the pending state
// change notification, if any.
func (b *CircuitBreaker) transition(to CircuitState) func() {
	from := b.state
	b.state = to
	b.inFlight = 0
	b.successes = 0
	switch to {
	case CircuitStateOpen:
		b.openedAt = b.now()
	case CircuitStateClosed:
		b.failures = 0
		b.openedAt = time.Time{}
	}

	if b.cfg.OnStateChange == nil || from == to {
		return nil
	}
	name, hook := b.cfg.Name, b.cfg.OnStateChange
	return func() { hook(name, from, to) }
}

func notify(changed func()) {
	if changed != nil {
		changed()
	}
}
