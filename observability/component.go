package observability

import (
	"context"
	"errors"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/eventhub/component"
)

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component installs the OTLP meter and tracer providers on Start and
// flushes them on Stop. When disabled it does nothing.
type Component struct {
	config   Config
	resource Resource
	mp       *sdkmetric.MeterProvider
	tp       *sdktrace.TracerProvider
}

// NewComponent creates the observability component.
func NewComponent(cfg Config, res Resource) *Component {
	cfg.ApplyDefaults()
	return &Component{config: cfg, resource: res}
}

// Name returns the component name.
func (c *Component) Name() string { return "observability" }

// Start initializes the providers when enabled.
func (c *Component) Start(ctx context.Context) error {
	if !c.config.Enabled {
		return nil
	}
	mp, err := InitMeter(ctx, c.config, c.resource)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	tp, err := InitTracer(ctx, c.config, c.resource)
	if err != nil {
		_ = mp.Shutdown(ctx)
		return fmt.Errorf("observability: %w", err)
	}
	c.mp, c.tp = mp, tp
	return nil
}

// Stop flushes and shuts down the providers.
func (c *Component) Stop(ctx context.Context) error {
	var errs []error
	if c.tp != nil {
		errs = append(errs, c.tp.Shutdown(ctx))
	}
	if c.mp != nil {
		errs = append(errs, c.mp.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// Health reports healthy; export failures are retried by the SDK.
func (c *Component) Health(context.Context) component.Health {
	msg := "disabled"
	if c.config.Enabled {
		msg = "exporting to " + c.config.Endpoint
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy, Message: msg}
}

// Describe returns the startup summary line.
func (c *Component) Describe() component.Description {
	details := "disabled"
	if c.config.Enabled {
		details = fmt.Sprintf("otlp=%s interval=%s sample=%.2f", c.config.Endpoint, c.config.Interval, c.config.SampleRate)
	}
	return component.Description{Name: "Telemetry", Type: "otel", Details: details}
}
