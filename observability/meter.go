package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/eventhub/logger"
)

const meterName = "github.com/kbukum/eventhub"

// InitMeter initializes the OpenTelemetry meter provider and installs it
// globally. The provider must be shut down on application exit.
func InitMeter(ctx context.Context, cfg Config, res Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	r, err := newResource(res)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(r),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", res.ServiceName,
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the service-level instruments: HTTP requests and producer
// operations.
type Metrics struct {
	requestTotal      metric.Int64Counter
	requestDuration   metric.Float64Histogram
	requestActive     metric.Int64UpDownCounter
	operationTotal    metric.Int64Counter
	operationDuration metric.Float64Histogram
	errorTotal        metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	requestTotal, err := meter.Int64Counter("eventhub.http.requests",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating eventhub.http.requests counter: %w", err)
	}

	requestDuration, err := meter.Float64Histogram("eventhub.http.duration",
		metric.WithDescription("Duration of HTTP requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating eventhub.http.duration histogram: %w", err)
	}

	requestActive, err := meter.Int64UpDownCounter("eventhub.http.active",
		metric.WithDescription("Number of in-flight HTTP requests, open streams included"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating eventhub.http.active counter: %w", err)
	}

	operationTotal, err := meter.Int64Counter("eventhub.operations",
		metric.WithDescription("Producer operations by name and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating eventhub.operations counter: %w", err)
	}

	operationDuration, err := meter.Float64Histogram("eventhub.operation.duration",
		metric.WithDescription("Duration of producer operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating eventhub.operation.duration histogram: %w", err)
	}

	errorTotal, err := meter.Int64Counter("eventhub.errors",
		metric.WithDescription("Errors by kind and component"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating eventhub.errors counter: %w", err)
	}

	return &Metrics{
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestActive:     requestActive,
		operationTotal:    operationTotal,
		operationDuration: operationDuration,
		errorTotal:        errorTotal,
	}, nil
}

// DefaultMetrics creates instruments on the global meter provider. It never
// fails: if instrument creation does, it falls back to no-op instruments.
func DefaultMetrics() *Metrics {
	m, err := NewMetrics(Meter(meterName))
	if err != nil {
		logger.Warn("falling back to no-op metrics", logger.ErrorFields("create instruments", err))
		m, _ = NewMetrics(noop.NewMeterProvider().Meter(meterName))
	}
	return m
}

// RecordRequestStart increments the active request count.
func (m *Metrics) RecordRequestStart(ctx context.Context) {
	m.requestActive.Add(ctx, 1)
}

// RecordRequestEnd decrements active requests and records the completed request.
func (m *Metrics) RecordRequestEnd(ctx context.Context, method, route, status string, duration time.Duration) {
	m.requestActive.Add(ctx, -1)
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.String("status", status),
	))
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
	))
}

// RecordOperation records a producer operation.
func (m *Metrics) RecordOperation(ctx context.Context, operation, status string, duration time.Duration) {
	m.operationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
	m.operationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

// RecordError records an error by kind and component.
func (m *Metrics) RecordError(ctx context.Context, kind, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("component", component),
	))
}
