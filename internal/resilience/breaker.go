// Package resilience guards the quote source with a circuit breaker.
package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"maxpain-pro/internal/errors"
	"maxpain-pro/internal/market"
)

// State represents the state of a circuit breaker.
type State string

const (
	StateClosed   State = "CLOSED"    // Normal operation
	StateOpen     State = "OPEN"      // Failing, rejecting requests
	StateHalfOpen State = "HALF_OPEN" // Testing whether the source recovered
)

// BreakerConfig holds circuit breaker configuration.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before opening
	FailureThreshold int
	// SuccessThreshold is the number of half-open successes needed to close
	SuccessThreshold int
	// Cooldown is how long the circuit stays open before a trial call
	Cooldown time.Duration
}

// DefaultBreakerConfig returns sensible defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Cooldown:         30 * time.Second,
	}
}

// Breaker implements the circuit breaker pattern.
type Breaker struct {
	name   string
	config BreakerConfig
	now    func() time.Time
	logger zerolog.Logger

	mu              sync.Mutex
	state           State
	failures        int
	successes       int
	openedAt        time.Time
	lastStateChange time.Time

	totalRequests  int64
	totalFailures  int64
	totalSuccesses int64
	totalRejected  int64
}

// BreakerOption configures a Breaker.
type BreakerOption func(*Breaker)

// WithClock overrides the time source used for the cooldown.
func WithClock(now func() time.Time) BreakerOption {
	return func(b *Breaker) {
		b.now = now
	}
}

// WithLogger logs state transitions to logger.
func WithLogger(logger zerolog.Logger) BreakerOption {
	return func(b *Breaker) {
		b.logger = logger
	}
}

// NewBreaker creates a closed circuit breaker. Non-positive thresholds fall
// back to the defaults.
func NewBreaker(name string, config BreakerConfig, opts ...BreakerOption) *Breaker {
	def := DefaultBreakerConfig()
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = def.FailureThreshold
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = def.SuccessThreshold
	}
	if config.Cooldown < 0 {
		config.Cooldown = 0
	}

	b := &Breaker{
		name:   name,
		config: config,
		now:    time.Now,
		logger: zerolog.Nop(),
		state:  StateClosed,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.lastStateChange = b.now()
	return b
}

// Execute runs fn unless the circuit is open. Cancellation and unknown
// symbols are passed through without counting as failures.
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	_, err := Do(b, ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Do is Execute for functions returning a value.
func Do[T any](b *Breaker, ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if err := b.allow(); err != nil {
		return zero, err
	}

	v, err := fn(ctx)
	switch {
	case err == nil:
		b.recordSuccess()
		return v, nil
	case trips(ctx, err):
		b.recordFailure()
	}
	return zero, err
}

// trips reports whether err says something about the source's health.
func trips(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !errors.Is(err, errors.ErrSymbolNotFound) && !errors.Is(err, errors.ErrInvalidInput)
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalRequests++
	if b.state == StateOpen {
		if b.now().Sub(b.openedAt) < b.config.Cooldown {
			b.totalRejected++
			return errors.Wrapf(errors.ErrCircuitOpen, "%s", b.name)
		}
		b.transitionTo(StateHalfOpen)
	}
	return nil
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalSuccesses++
	switch b.state {
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.config.SuccessThreshold {
			b.transitionTo(StateClosed)
		}
	case StateClosed:
		b.failures = 0
	}
}

func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalFailures++
	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.config.FailureThreshold {
			b.transitionTo(StateOpen)
		}
	case StateHalfOpen:
		b.transitionTo(StateOpen)
	}
}

// transitionTo must be called with mu held.
func (b *Breaker) transitionTo(state State) {
	from := b.state
	b.state = state
	b.lastStateChange = b.now()
	b.failures = 0
	b.successes = 0
	if state == StateOpen {
		b.openedAt = b.lastStateChange
	}

	event := b.logger.Info()
	if state == StateOpen {
		event = b.logger.Warn()
	}
	event.Str("breaker", b.name).
		Str("from", string(from)).
		Str("to", string(state)).
		Msg("Circuit state changed")
}

// State returns the current circuit state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Name returns the circuit breaker name.
func (b *Breaker) Name() string {
	return b.name
}

// Stats returns circuit breaker statistics.
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Stats{
		Name:            b.name,
		State:           b.state,
		TotalRequests:   b.totalRequests,
		TotalSuccesses:  b.totalSuccesses,
		TotalFailures:   b.totalFailures,
		TotalRejected:   b.totalRejected,
		CurrentFailures: b.failures,
		LastStateChange: b.lastStateChange,
	}
}

// Stats holds circuit breaker statistics.
type Stats struct {
	Name            string    `json:"name" yaml:"name"`
	State           State     `json:"state" yaml:"state"`
	TotalRequests   int64     `json:"total_requests" yaml:"total_requests"`
	TotalSuccesses  int64     `json:"total_successes" yaml:"total_successes"`
	TotalFailures   int64     `json:"total_failures" yaml:"total_failures"`
	TotalRejected   int64     `json:"total_rejected" yaml:"total_rejected"`
	CurrentFailures int       `json:"current_failures" yaml:"current_failures"`
	LastStateChange time.Time `json:"last_state_change" yaml:"last_state_change"`
}

// FailureRate returns the failure rate as a percentage.
func (s Stats) FailureRate() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return float64(s.TotalFailures) / float64(s.TotalRequests) * 100
}

// GuardedQuotes is a market.QuoteProvider whose calls pass through a Breaker.
type GuardedQuotes struct {
	next    market.QuoteProvider
	breaker *Breaker
}

// Guard wraps next with breaker.
func Guard(next market.QuoteProvider, breaker *Breaker) *GuardedQuotes {
	return &GuardedQuotes{next: next, breaker: breaker}
}

// Quote implements market.QuoteProvider.
func (g *GuardedQuotes) Quote(ctx context.Context, symbol string) (*market.Quote, error) {
	return Do(g.breaker, ctx, func(ctx context.Context) (*market.Quote, error) {
		return g.next.Quote(ctx, symbol)
	})
}

// Breaker returns the guarding breaker.
func (g *GuardedQuotes) Breaker() *Breaker {
	return g.breaker
}
