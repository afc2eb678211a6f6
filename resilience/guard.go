package resilience

import (
	"context"
	"errors"
)

// GuardConfig configures a Guard.
type GuardConfig struct {
	Name     string               `yaml:"-" mapstructure:"-"`
	Breaker  CircuitBreakerConfig `yaml:"breaker" mapstructure:"breaker"`
	Bulkhead BulkheadConfig       `yaml:"bulkhead" mapstructure:"bulkhead"`
}

// Guard runs calls through a bulkhead and then a circuit breaker. Rejections
// by the bulkhead do not count as breaker failures.
type Guard struct {
	breaker  *CircuitBreaker
	bulkhead *Bulkhead
}

// NewGuard builds a Guard, naming both parts after cfg.Name.
func NewGuard(cfg GuardConfig) *Guard {
	cfg.Breaker.Name = cfg.Name
	cfg.Bulkhead.Name = cfg.Name
	return &Guard{
		breaker:  NewCircuitBreaker(cfg.Breaker),
		bulkhead: NewBulkhead(cfg.Bulkhead),
	}
}

// Do runs fn if a bulkhead slot is free and the breaker is not open.
func (g *Guard) Do(ctx context.Context, fn func() error) error {
	return g.bulkhead.Execute(ctx, func() error {
		return g.breaker.Execute(fn)
	})
}

// Breaker exposes the circuit breaker, mostly for health reporting.
func (g *Guard) Breaker() *CircuitBreaker { return g.breaker }

// Bulkhead exposes the bulkhead.
func (g *Guard) Bulkhead() *Bulkhead { return g.bulkhead }

// IsRejection reports whether err came from the guard itself rather than
// from the guarded call.
func IsRejection(err error) bool {
	return errors.Is(err, ErrCircuitOpen) ||
		errors.Is(err, ErrBulkheadFull) ||
		errors.Is(err, ErrBulkheadTimeout)
}
