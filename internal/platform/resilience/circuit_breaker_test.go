package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFeedDown = errors.New("feed down")

type transitionLog []string

func (l *transitionLog) record(name string, from, to CircuitState) {
	*l = append(*l, name+":"+string(from)+"->"+string(to))
}

func newTestBreaker(t *testing.T, threshold, probes int) (*CircuitBreaker, *time.Time, *transitionLog) {
	t.Helper()

	var transitions transitionLog
	b := NewCircuitBreakerFromConfig(CircuitBreakerConfig{
		Enabled:          true,
		Name:             "odds",
		FailureThreshold: threshold,
		OpenTimeout:      5 * time.Second,
		HalfOpenMaxReq:   probes,
		OnStateChange:    transitions.record,
	})
	require.NotNil(t, b)

	now := time.Date(2011, time.October, 30, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	return b, &now, &transitions
}

func failing() error { return errFeedDown }
func passing() error { return nil }

func TestCircuitBreakerTripsAndRecovers(t *testing.T) {
	b, now, transitions := newTestBreaker(t, 2, 1)

	assert.ErrorIs(t, b.Execute(failing, nil), errFeedDown)
	assert.Equal(t, CircuitStateClosed, b.State())
	assert.ErrorIs(t, b.Execute(failing, nil), errFeedDown)
	assert.Equal(t, CircuitStateOpen, b.State())

	called := false
	err := b.Execute(func() error { called = true; return nil }, nil)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	*now = now.Add(6 * time.Second)
	assert.Equal(t, CircuitStateHalfOpen, b.State())
	require.NoError(t, b.Execute(passing, nil))
	assert.Equal(t, CircuitStateClosed, b.State())

	assert.Equal(t, transitionLog{
		"odds:closed->open",
		"odds:open->half_open",
		"odds:half_open->closed",
	}, *transitions)
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	b, now, _ := newTestBreaker(t, 1, 2)

	_ = b.Execute(failing, nil)
	*now = now.Add(5 * time.Second)

	assert.ErrorIs(t, b.Execute(failing, nil), errFeedDown)
	assert.Equal(t, CircuitStateOpen, b.State())
}

func TestCircuitBreakerIgnoresNonFailures(t *testing.T) {
	b, _, _ := newTestBreaker(t, 1, 1)
	notFailure := func(err error) bool { return !errors.Is(err, errFeedDown) }

	for range 3 {
		assert.ErrorIs(t, b.Execute(failing, notFailure), errFeedDown)
	}
	assert.Equal(t, CircuitStateClosed, b.State())
}

func TestCircuitBreakerLimitsHalfOpenProbes(t *testing.T) {
	b, now, _ := newTestBreaker(t, 1, 1)

	_ = b.Execute(failing, nil)
	*now = now.Add(5 * time.Second)

	err := b.Execute(func() error {
		// A second caller arriving while the probe runs is rejected.
		assert.ErrorIs(t, b.Execute(passing, nil), ErrCircuitOpen)
		return nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, CircuitStateClosed, b.State())
}

func TestCircuitBreakerDropsStaleResults(t *testing.T) {
	b, _, _ := newTestBreaker(t, 1, 1)

	err := b.Execute(func() error {
		// The breaker trips while this call is still running.
		_ = b.Execute(failing, nil)
		return nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, CircuitStateOpen, b.State())
}

func TestNewCircuitBreakerFromConfig(t *testing.T) {
	assert.Nil(t, NewCircuitBreakerFromConfig(CircuitBreakerConfig{Enabled: false}))

	b := NewCircuitBreakerFromConfig(CircuitBreakerConfig{Enabled: true})
	require.NotNil(t, b)
	assert.Equal(t, 5, b.threshold)
	assert.Equal(t, 2, b.probes)
	assert.Equal(t, 15*time.Second, b.openTimeout)

	var disabled *CircuitBreaker
	assert.ErrorIs(t, disabled.Execute(failing, nil), errFeedDown)
	assert.Equal(t, CircuitStateClosed, disabled.State())
}
