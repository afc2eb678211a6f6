package producer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/kbukum/eventhub/component"
	"github.com/kbukum/eventhub/errors"
	"github.com/kbukum/eventhub/logger"
	"github.com/kbukum/eventhub/observability"
	"github.com/kbukum/eventhub/process"
	"github.com/kbukum/eventhub/resilience"
	"github.com/kbukum/eventhub/validation"
)

var (
	_ component.Component   = (*Command)(nil)
	_ component.Describable = (*Command)(nil)
)

// Failure kinds reported in the "kind" detail of a failed trigger.
const (
	KindLaunch   = "launch"
	KindExit     = "exit"
	KindTimeout  = "timeout"
	KindDecode   = "decode"
	KindRejected = "rejected"
	KindPublish  = "publish"
)

// CommandConfig configures the on-demand producer. The command line is
// fixed at startup; triggers never add to it.
type CommandConfig struct {
	process.Command `yaml:",inline" mapstructure:",squash"`
	// Timeout bounds each run.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	// Encoding names the charset of the command's stdout (WHATWG labels).
	// "utf-8" rejects invalid input instead of replacing it.
	Encoding string `yaml:"encoding" mapstructure:"encoding"`
	// MaxConcurrent caps simultaneous runs.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent" validate:"gte=1"`
	// Breaker stops launching after repeated failures.
	Breaker resilience.CircuitBreakerConfig `yaml:"breaker" mapstructure:"breaker"`
}

// ApplyDefaults fills zero values.
func (c *CommandConfig) ApplyDefaults() {
	if c.Binary == "" {
		c.Binary = "echo"
		if c.Args == nil {
			c.Args = []string{"hello"}
		}
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Encoding == "" {
		c.Encoding = "utf-8"
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 4
	}
	c.Breaker.ApplyDefaults()
}

// Validate checks the configuration, including that Encoding is known.
func (c *CommandConfig) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if _, err := newDecoder(c.Encoding); err != nil {
		return errors.InvalidInput("encoding", err.Error())
	}
	return nil
}

// Output is what a successful trigger published.
type Output struct {
	Text     string
	Duration time.Duration
}

// Command runs a fixed subprocess on demand and publishes its decoded stdout
// as one event. Runs are guarded by a bulkhead and a circuit breaker.
type Command struct {
	config  CommandConfig
	pub     Publisher
	runner  *process.Runner
	guard   *resilience.Guard
	decode  func([]byte) (string, error)
	log     *logger.Logger
	metrics *observability.Metrics
}

// NewCommand validates cfg and builds the producer.
func NewCommand(cfg CommandConfig, pub Publisher, opts ...Option) (*Command, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	decode, err := newDecoder(cfg.Encoding)
	if err != nil {
		return nil, err
	}

	o := buildOptions(opts)
	log := logger.WithComponent("command")

	breaker := cfg.Breaker
	breaker.OnStateChange = func(name string, from, to resilience.State) {
		log.Warn("command breaker state changed", logger.Fields(
			logger.FieldCommand, name,
			"from", from.String(),
			"to", to.String(),
		))
	}
	guard := resilience.NewGuard(resilience.GuardConfig{
		Name:     cfg.Command.String(),
		Breaker:  breaker,
		Bulkhead: resilience.BulkheadConfig{MaxConcurrent: cfg.MaxConcurrent},
	})

	return &Command{
		config:  cfg,
		pub:     pub,
		runner:  process.NewRunner(process.RunnerConfig{Timeout: cfg.Timeout}, guard),
		guard:   guard,
		decode:  decode,
		log:     log,
		metrics: o.metrics,
	}, nil
}

// Trigger runs the command to completion and publishes its output. Failures
// are returned as *errors.AppError and nothing is published.
func (c *Command) Trigger(ctx context.Context) (out Output, err error) {
	oc := observability.NewOperationContext("command", logger.RequestIDFromContext(ctx), c.metrics)
	ctx, span := oc.Start(ctx, observability.SpanCommandRun)
	span.SetAttributes(attribute.String(observability.AttrCommand, c.config.Command.String()))

	var kind string
	defer func() {
		oc.End(ctx, span, "command", kind, err)
		log := c.log.WithContext(ctx)
		if err != nil {
			log.Warn("command failed", logger.Fields(
				logger.FieldCommand, c.config.Command.String(),
				"kind", kind,
				logger.FieldError, err.Error(),
			))
			return
		}
		log.Debug("command published", logger.Fields(
			logger.FieldCommand, c.config.Command.String(),
			logger.FieldDuration, out.Duration.Milliseconds(),
			"bytes", len(out.Text),
		))
	}()

	res, runErr := c.runner.Run(ctx, c.config.Command)
	if runErr != nil {
		kind, err = c.classify(runErr)
		return Output{}, err
	}

	text, decErr := c.decode(res.Stdout)
	if decErr != nil {
		kind = KindDecode
		return Output{}, errors.CommandFailed(c.config.Command.String(), KindDecode, decErr)
	}

	if pubErr := c.pub.Publish(text); pubErr != nil {
		kind = KindPublish
		return Output{}, errors.ServiceUnavailable("event hub").WithCause(pubErr)
	}
	return Output{Text: text, Duration: res.Duration}, nil
}

func (c *Command) classify(err error) (string, error) {
	name := c.config.Command.String()
	if resilience.IsRejection(err) {
		return KindRejected, errors.ServiceUnavailable("command runner").WithCause(err).WithDetail("kind", KindRejected)
	}
	switch kind := process.Kind(err); kind {
	case KindTimeout:
		return kind, errors.Timeout(name).WithCause(err).WithDetail("kind", kind)
	case KindLaunch, KindExit:
		return kind, errors.CommandFailed(name, kind, err)
	default:
		return "", errors.Internal(err)
	}
}

// Config returns the effective configuration.
func (c *Command) Config() CommandConfig { return c.config }

// Name returns the component name.
func (c *Command) Name() string { return "command" }

// Start is a no-op; the command runs per trigger.
func (c *Command) Start(context.Context) error { return nil }

// Stop is a no-op; in-flight runs end with their requests.
func (c *Command) Stop(context.Context) error { return nil }

// Health is degraded while the breaker is not closed.
func (c *Command) Health(context.Context) component.Health {
	state := c.guard.Breaker().State()
	h := component.Health{
		Name:    c.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("breaker %s, %d/%d running", state, c.guard.Bulkhead().InUse(), c.guard.Bulkhead().MaxConcurrent()),
	}
	if state != resilience.StateClosed {
		h.Status = component.StatusDegraded
	}
	return h
}

// Describe returns the startup summary line.
func (c *Command) Describe() component.Description {
	return component.Description{
		Name:    "Command",
		Type:    "producer",
		Details: fmt.Sprintf("%q timeout=%s encoding=%s max=%d", c.config.Command.String(), c.config.Timeout, c.config.Encoding, c.config.MaxConcurrent),
	}
}

// newDecoder returns a function turning raw output into text. UTF-8 is
// validated strictly; other charsets are looked up by WHATWG label.
func newDecoder(name string) (func([]byte) (string, error), error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf-8", "utf8":
		return func(b []byte) (string, error) {
			out, _, err := transform.Bytes(encoding.UTF8Validator, b)
			if err != nil {
				return "", fmt.Errorf("invalid utf-8 output: %w", err)
			}
			return string(out), nil
		}, nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	return func(b []byte) (string, error) {
		out, err := enc.NewDecoder().Bytes(b)
		if err != nil {
			return "", fmt.Errorf("decoding %s output: %w", name, err)
		}
		return string(out), nil
	}, nil
}
