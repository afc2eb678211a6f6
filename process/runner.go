package process

import (
	"context"
	"time"

	"github.com/kbukum/eventhub/resilience"
)

// RunnerConfig holds defaults applied to every command a Runner executes.
type RunnerConfig struct {
	// Timeout bounds each run. Zero means only the caller's context applies.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	// GracePeriod is used when the command does not set its own.
	GracePeriod time.Duration `yaml:"grace_period" mapstructure:"grace_period" validate:"gte=0"`
}

// Runner executes subprocesses with shared defaults and an optional guard.
// The guard's breaker state persists across calls, so repeated failures trip
// it.
type Runner struct {
	config RunnerConfig
	guard  *resilience.Guard
}

// NewRunner creates a Runner. guard may be nil.
func NewRunner(cfg RunnerConfig, guard *resilience.Guard) *Runner {
	return &Runner{config: cfg, guard: guard}
}

// Run executes cmd. Guard rejections are returned unwrapped, so callers can
// test them with resilience.IsRejection.
func (r *Runner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.GracePeriod == 0 {
		cmd.GracePeriod = r.config.GracePeriod
	}
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}
	if r.guard == nil {
		return Run(ctx, cmd)
	}

	var result *Result
	err := r.guard.Do(ctx, func() error {
		var runErr error
		result, runErr = Run(ctx, cmd)
		return runErr
	})
	return result, err
}
