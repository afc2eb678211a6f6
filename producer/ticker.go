package producer

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/kbukum/eventhub/component"
	"github.com/kbukum/eventhub/logger"
	"github.com/kbukum/eventhub/observability"
	"github.com/kbukum/eventhub/validation"
)

var (
	_ component.Component   = (*Ticker)(nil)
	_ component.Describable = (*Ticker)(nil)
)

// TickerConfig configures the periodic producer.
type TickerConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Interval between publishes.
	Interval time.Duration `yaml:"interval" mapstructure:"interval" validate:"gt=0"`
	// Payload is the fixed text published on every tick.
	Payload string `yaml:"payload" mapstructure:"payload"`
	// Sequence publishes an increasing counter (1, 2, 3...) instead of Payload.
	Sequence bool `yaml:"sequence" mapstructure:"sequence"`
}

// ApplyDefaults fills zero values.
func (c *TickerConfig) ApplyDefaults() {
	if c.Interval <= 0 {
		c.Interval = time.Second
	}
	if c.Payload == "" {
		c.Payload = "1"
	}
}

// Validate checks the configuration.
func (c *TickerConfig) Validate() error {
	return validation.Validate(c)
}

// Ticker publishes on a fixed interval whether or not anyone is subscribed.
// Publish failures are logged and counted; they never stop the ticker.
type Ticker struct {
	config  TickerConfig
	pub     Publisher
	log     *logger.Logger
	metrics *observability.Metrics

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	seq     uint64
	sent    uint64
	lastErr error
}

// NewTicker creates a stopped ticker.
func NewTicker(cfg TickerConfig, pub Publisher, opts ...Option) *Ticker {
	cfg.ApplyDefaults()
	o := buildOptions(opts)
	return &Ticker{
		config:  cfg,
		pub:     pub,
		log:     logger.WithComponent("ticker"),
		metrics: o.metrics,
	}
}

// Name returns the component name.
func (t *Ticker) Name() string { return "ticker" }

// Start launches the publishing loop. It is a no-op when disabled or already
// running.
func (t *Ticker) Start(context.Context) error {
	if !t.config.Enabled {
		t.log.Info("ticker disabled")
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.done = make(chan struct{})
	go t.run(ctx, t.done)

	t.log.Info("ticker started", logger.Fields("interval", t.config.Interval.String(), "sequence", t.config.Sequence))
	return nil
}

// Stop ends the loop and waits for it, or for ctx.
func (t *Ticker) Stop(ctx context.Context) error {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()
	if cancel == nil {
		return nil
	}

	cancel()
	select {
	case <-done:
		t.log.Info("ticker stopped", logger.Fields("published", t.Published()))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("ticker: %w", ctx.Err())
	}
}

func (t *Ticker) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	tick := time.NewTicker(t.config.Interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			t.tick(ctx)
		}
	}
}

func (t *Ticker) tick(ctx context.Context) {
	start := time.Now()
	payload := t.next()
	err := t.pub.Publish(payload)

	t.mu.Lock()
	if err == nil {
		t.sent++
	}
	changed := (err == nil) != (t.lastErr == nil)
	t.lastErr = err
	t.mu.Unlock()

	if err != nil {
		t.metrics.RecordOperation(ctx, "ticker", "error", time.Since(start))
		t.metrics.RecordError(ctx, "publish", "ticker")
		// Log transitions only; a stopped hub would otherwise log every tick.
		if changed {
			t.log.Warn("ticker publish failed", logger.ErrorFields("publish", err))
		}
		return
	}
	t.metrics.RecordOperation(ctx, "ticker", "ok", time.Since(start))
	if changed {
		t.log.Info("ticker publishing again")
	}
}

func (t *Ticker) next() string {
	if !t.config.Sequence {
		return t.config.Payload
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	return strconv.FormatUint(t.seq, 10)
}

// Published returns how many ticks were published successfully.
func (t *Ticker) Published() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sent
}

// Health is degraded while publishes are failing.
func (t *Ticker) Health(context.Context) component.Health {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case !t.config.Enabled:
		return component.Health{Name: t.Name(), Status: component.StatusHealthy, Message: "disabled"}
	case t.lastErr != nil:
		return component.Health{Name: t.Name(), Status: component.StatusDegraded, Message: t.lastErr.Error()}
	default:
		return component.Health{Name: t.Name(), Status: component.StatusHealthy, Message: fmt.Sprintf("%d published", t.sent)}
	}
}

// Describe returns the startup summary line.
func (t *Ticker) Describe() component.Description {
	payload := strconv.Quote(t.config.Payload)
	if t.config.Sequence {
		payload = "sequence"
	}
	details := fmt.Sprintf("every %s payload=%s", t.config.Interval, payload)
	if !t.config.Enabled {
		details = "disabled"
	}
	return component.Description{Name: "Ticker", Type: "producer", Details: details}
}
