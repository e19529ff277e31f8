package resolver

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/devscholar/reference-engine/internal/domain"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState int

// Circuit breaker states.
const (
	// CircuitClosed is the normal state; calls pass through.
	CircuitClosed CircuitState = iota

	// CircuitOpen rejects calls until the cooldown elapses.
	CircuitOpen

	// CircuitHalfOpen allows a single probe call after the cooldown.
	CircuitHalfOpen
)

// String returns a human-readable state name.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half_open"
	}
	return "unknown"
}

// BreakerConfig configures a circuit breaker.
type BreakerConfig struct {
	// ConsecutiveThreshold is the number of consecutive failures that
	// trips the breaker.
	ConsecutiveThreshold int

	// Cooldown is the initial open-state duration. Repeated trips grow
	// the cooldown exponentially up to MaxCooldown.
	Cooldown time.Duration

	// MaxCooldown caps the grown cooldown. Zero means 10x Cooldown.
	MaxCooldown time.Duration
}

func (c *BreakerConfig) applyDefaults() {
	if c.ConsecutiveThreshold <= 0 {
		c.ConsecutiveThreshold = 5
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 60 * time.Second
	}
	if c.MaxCooldown <= 0 {
		c.MaxCooldown = 10 * c.Cooldown
	}
}

// CircuitBreaker suppresses calls to a provider that keeps failing. It trips
// open after ConsecutiveThreshold consecutive failures, rejects calls for a
// cooldown, then lets a single probe through (half-open). A successful probe
// closes it; a failed probe reopens it with a longer cooldown.
//
// Safe for concurrent use.
type CircuitBreaker struct {
	mu       sync.Mutex
	config   BreakerConfig
	state    CircuitState
	failures int
	openedAt time.Time
	cooldown time.Duration
	schedule *backoff.ExponentialBackOff
	probing  bool
	now      func() time.Time
}

// NewCircuitBreaker creates a closed breaker with the given configuration.
func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	cfg.applyDefaults()
	schedule := backoff.NewExponentialBackOff()
	schedule.InitialInterval = cfg.Cooldown
	schedule.MaxInterval = cfg.MaxCooldown
	schedule.MaxElapsedTime = 0
	schedule.RandomizationFactor = 0
	schedule.Reset()
	return &CircuitBreaker{
		config:   cfg,
		state:    CircuitClosed,
		schedule: schedule,
		now:      time.Now,
	}
}

// WithNow sets the clock, for tests.
func (cb *CircuitBreaker) WithNow(now func() time.Time) *CircuitBreaker {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.now = now
	return cb
}

// Allow reports whether a call may proceed. It returns
// domain.ErrProviderUnavailable while the breaker is open. When the cooldown
// has elapsed it admits exactly one probe call; further callers are rejected
// until that probe reports its outcome.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return nil
	case CircuitOpen:
		if cb.now().Sub(cb.openedAt) < cb.cooldown {
			return domain.ErrProviderUnavailable
		}
		cb.state = CircuitHalfOpen
		cb.probing = true
		return nil
	case CircuitHalfOpen:
		if cb.probing {
			return domain.ErrProviderUnavailable
		}
		cb.probing = true
		return nil
	}
	return nil
}

// RecordSuccess resets the breaker to closed and resets the cooldown
// schedule.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = CircuitClosed
	cb.failures = 0
	cb.probing = false
	cb.schedule.Reset()
}

// RecordFailure counts a consecutive failure. At the threshold, or on a
// failed half-open probe, the breaker opens with the next cooldown from the
// schedule.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	if cb.state == CircuitHalfOpen || cb.failures >= cb.config.ConsecutiveThreshold {
		cb.state = CircuitOpen
		cb.probing = false
		cb.openedAt = cb.now()
		cb.cooldown = cb.schedule.NextBackOff()
	}
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// BreakerRegistry provides one circuit breaker per citation scheme. It is
// safe for concurrent use and lazily creates breakers on first access.
type BreakerRegistry struct {
	mu       sync.Mutex
	breakers map[domain.Scheme]*CircuitBreaker
	config   BreakerConfig
}

// NewBreakerRegistry creates a registry whose breakers all share the given
// configuration.
func NewBreakerRegistry(cfg BreakerConfig) *BreakerRegistry {
	cfg.applyDefaults()
	return &BreakerRegistry{
		breakers: make(map[domain.Scheme]*CircuitBreaker),
		config:   cfg,
	}
}

// Get returns the circuit breaker for a scheme, creating it on first access.
func (r *BreakerRegistry) Get(scheme domain.Scheme) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cb, ok := r.breakers[scheme]; ok {
		return cb
	}
	cb := NewCircuitBreaker(r.config)
	r.breakers[scheme] = cb
	return cb
}

// State returns the state of a scheme's breaker, or CircuitClosed when the
// breaker has not been created yet.
func (r *BreakerRegistry) State(scheme domain.Scheme) CircuitState {
	r.mu.Lock()
	cb, ok := r.breakers[scheme]
	r.mu.Unlock()
	if !ok {
		return CircuitClosed
	}
	return cb.State()
}
