package resilience

import (
	"errors"
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

// CircuitBreaker trips after FailureThreshold consecutive failures, rejects
// calls for OpenTimeout, then lets HalfOpenMaxReq probes decide whether to
// close again. Results of calls that started in an older generation are
// ignored so a slow call cannot flip a breaker that already moved on.
type CircuitBreaker struct {
	mu sync.Mutex

	name          string
	threshold     int
	openTimeout   time.Duration
	probes        int
	onStateChange func(name string, from, to CircuitState)
	now           func() time.Time

	state      CircuitState
	generation uint64
	failures   int
	inFlight   int
	successes  int
	expiresAt  time.Time
}

// NewCircuitBreakerFromConfig returns nil when the breaker is disabled. A nil
// breaker runs every call.
func NewCircuitBreakerFromConfig(cfg CircuitBreakerConfig) *CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}
	cfg = NormalizeCircuitBreakerConfig(cfg)
	return &CircuitBreaker{
		name:          cfg.Name,
		threshold:     cfg.FailureThreshold,
		openTimeout:   cfg.OpenTimeout,
		probes:        cfg.HalfOpenMaxReq,
		onStateChange: cfg.OnStateChange,
		now:           time.Now,
		state:         CircuitStateClosed,
	}
}

// Execute runs fn unless the breaker is open. isFailure decides which errors
// count against the dependency; nil treats every error as a failure.
func (b *CircuitBreaker) Execute(fn func() error, isFailure func(error) bool) error {
	if b == nil {
		return fn()
	}

	generation, err := b.before()
	if err != nil {
		return err
	}

	err = fn()
	failed := err != nil
	if failed && isFailure != nil {
		failed = isFailure(err)
	}
	b.after(generation, !failed)
	return err
}

func (b *CircuitBreaker) State() CircuitState {
	if b == nil {
		return CircuitStateClosed
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	state, _ := b.current(b.now())
	return state
}

func (b *CircuitBreaker) before() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, generation := b.current(b.now())
	switch state {
	case CircuitStateOpen:
		return generation, ErrCircuitOpen
	case CircuitStateHalfOpen:
		if b.inFlight >= b.probes {
			return generation, ErrCircuitOpen
		}
	}
	b.inFlight++
	return generation, nil
}

func (b *CircuitBreaker) after(before uint64, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	state, generation := b.current(now)
	if generation != before {
		return
	}
	if b.inFlight > 0 {
		b.inFlight--
	}

	if success {
		switch state {
		case CircuitStateClosed:
			b.failures = 0
		case CircuitStateHalfOpen:
			b.successes++
			if b.successes >= b.probes {
				b.transition(CircuitStateClosed, now)
			}
		}
		return
	}

	switch state {
	case CircuitStateClosed:
		b.failures++
		if b.failures >= b.threshold {
			b.transition(CircuitStateOpen, now)
		}
	case CircuitStateHalfOpen:
		b.transition(CircuitStateOpen, now)
	}
}

// current moves an expired open breaker to half-open. Callers hold mu.
func (b *CircuitBreaker) current(now time.Time) (CircuitState, uint64) {
	if b.state == CircuitStateOpen && !now.Before(b.expiresAt) {
		b.transition(CircuitStateHalfOpen, now)
	}
	return b.state, b.generation
}

func (b *CircuitBreaker) transition(to CircuitState, now time.Time) {
	from := b.state
	if from == to {
		return
	}

	b.state = to
	b.generation++
	b.failures = 0
	b.inFlight = 0
	b.successes = 0
	b.expiresAt = time.Time{}
	if to == CircuitStateOpen {
		b.expiresAt = now.Add(b.openTimeout)
	}

	if b.onStateChange != nil {
		b.onStateChange(b.name, from, to)
	}
}
