package resolver

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devscholar/reference-engine/internal/domain"
)

// testClock drives breaker timing without sleeping.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBreaker(clock *testClock) *CircuitBreaker {
	return NewCircuitBreaker(BreakerConfig{
		ConsecutiveThreshold: 2,
		Cooldown:             time.Second,
	}).WithNow(clock.Now)
}

func TestBreakerStartsClosed(t *testing.T) {
	cb := newTestBreaker(newTestClock())
	assert.Equal(t, CircuitClosed, cb.State())
	assert.NoError(t, cb.Allow())
}

func TestBreakerTripsAtThreshold(t *testing.T) {
	cb := newTestBreaker(newTestClock())

	cb.RecordFailure()
	assert.Equal(t, CircuitClosed, cb.State())
	assert.NoError(t, cb.Allow())

	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.State())
	assert.ErrorIs(t, cb.Allow(), domain.ErrProviderUnavailable)
}

func TestBreakerSuccessResetsConsecutiveCount(t *testing.T) {
	cb := newTestBreaker(newTestClock())

	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	clock := newTestClock()
	cb := newTestBreaker(clock)

	cb.RecordFailure()
	cb.RecordFailure()
	require.Equal(t, CircuitOpen, cb.State())

	clock.Advance(1100 * time.Millisecond)

	// First caller after the cooldown gets the probe slot.
	assert.NoError(t, cb.Allow())
	assert.Equal(t, CircuitHalfOpen, cb.State())

	// Concurrent callers are rejected until the probe reports back.
	assert.ErrorIs(t, cb.Allow(), domain.ErrProviderUnavailable)

	cb.RecordSuccess()
	assert.Equal(t, CircuitClosed, cb.State())
	assert.NoError(t, cb.Allow())
}

func TestBreakerFailedProbeReopensWithLongerCooldown(t *testing.T) {
	clock := newTestClock()
	cb := newTestBreaker(clock)

	cb.RecordFailure()
	cb.RecordFailure()
	clock.Advance(1100 * time.Millisecond)
	require.NoError(t, cb.Allow())

	cb.RecordFailure()
	require.Equal(t, CircuitOpen, cb.State())

	// The grown cooldown outlasts the initial one second.
	clock.Advance(time.Second)
	assert.ErrorIs(t, cb.Allow(), domain.ErrProviderUnavailable)

	clock.Advance(time.Second)
	assert.NoError(t, cb.Allow())
}

func TestBreakerRegistryReturnsSameInstance(t *testing.T) {
	reg := NewBreakerRegistry(BreakerConfig{})
	cb1 := reg.Get(domain.SchemeArXiv)
	cb2 := reg.Get(domain.SchemeArXiv)
	assert.Same(t, cb1, cb2)
	assert.NotSame(t, cb1, reg.Get(domain.SchemeDOI))
}

func TestBreakerRegistryStateWithoutAccess(t *testing.T) {
	reg := NewBreakerRegistry(BreakerConfig{})
	assert.Equal(t, CircuitClosed, reg.State(domain.SchemeIEEE))
}

func TestBreakerRegistryConcurrentAccess(t *testing.T) {
	reg := NewBreakerRegistry(BreakerConfig{})
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NotNil(t, reg.Get(domain.SchemeDOI))
		}()
	}
	wg.Wait()
}
