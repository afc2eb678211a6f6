// Package resilience guards calls to unreliable dependencies.
//
// CircuitBreaker fails fast after repeated failures, Bulkhead caps the number
// of concurrent calls and Guard chains the two:
//
//	g := resilience.NewGuard(resilience.GuardConfig{
//	    Name:     "command",
//	    Breaker:  resilience.CircuitBreakerConfig{MaxFailures: 5, Timeout: 30 * time.Second},
//	    Bulkhead: resilience.BulkheadConfig{MaxConcurrent: 4},
//	})
//	err := g.Do(ctx, func() error { return run(ctx) })
package resilience
