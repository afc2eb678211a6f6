package sse

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/kbukum/eventhub/logger"
)

// Metric instrument names.
const (
	MetricEventsPublished         = "eventhub.events.published"
	MetricEventsDelivered         = "eventhub.events.delivered"
	MetricEventsDropped           = "eventhub.events.dropped"
	MetricSubscribersActive       = "eventhub.subscribers.active"
	MetricSubscribersDisconnected = "eventhub.subscribers.disconnected"
)

type hubMetrics struct {
	eventsPublished metric.Int64Counter
	eventsDelivered metric.Int64Counter
	eventsDropped   metric.Int64Counter
	active          metric.Int64UpDownCounter
	disconnected    metric.Int64Counter
}

// newHubMetrics creates the hub instruments. If any instrument cannot be
// created the hub records nothing.
func newHubMetrics(meter metric.Meter, log *logger.Logger) *hubMetrics {
	m, err := buildHubMetrics(meter)
	if err != nil {
		log.Warn("hub metrics disabled", logger.Fields(logger.FieldError, err.Error()))
		m, _ = buildHubMetrics(noop.NewMeterProvider().Meter(meterName))
	}
	return m
}

func buildHubMetrics(meter metric.Meter) (*hubMetrics, error) {
	published, err := meter.Int64Counter(MetricEventsPublished,
		metric.WithDescription("Events accepted by the hub"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricEventsPublished, err)
	}

	delivered, err := meter.Int64Counter(MetricEventsDelivered,
		metric.WithDescription("Events enqueued into subscriber queues"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricEventsDelivered, err)
	}

	dropped, err := meter.Int64Counter(MetricEventsDropped,
		metric.WithDescription("Events discarded because a subscriber queue was full"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricEventsDropped, err)
	}

	active, err := meter.Int64UpDownCounter(MetricSubscribersActive,
		metric.WithDescription("Currently registered subscribers"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s gauge: %w", MetricSubscribersActive, err)
	}

	disconnected, err := meter.Int64Counter(MetricSubscribersDisconnected,
		metric.WithDescription("Subscriptions ended, by reason"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricSubscribersDisconnected, err)
	}

	return &hubMetrics{
		eventsPublished: published,
		eventsDelivered: delivered,
		eventsDropped:   dropped,
		active:          active,
		disconnected:    disconnected,
	}, nil
}

func (m *hubMetrics) subscribed(ctx context.Context) {
	m.active.Add(ctx, 1)
}

func (m *hubMetrics) unsubscribed(ctx context.Context, reason error) {
	m.active.Add(ctx, -1)
	m.disconnected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reasonLabel(reason))))
}

func (m *hubMetrics) published(ctx context.Context, delivered, dropped int, policy DropPolicy) {
	m.eventsPublished.Add(ctx, 1)
	if delivered > 0 {
		m.eventsDelivered.Add(ctx, int64(delivered))
	}
	if dropped > 0 {
		m.eventsDropped.Add(ctx, int64(dropped), metric.WithAttributes(attribute.String("policy", policy.String())))
	}
}

func reasonLabel(reason error) string {
	switch {
	case reason == nil:
		return "unsubscribed"
	case errors.Is(reason, ErrSlowSubscriber):
		return "slow"
	case errors.Is(reason, ErrHubClosed):
		return "hub_closed"
	default:
		return "other"
	}
}
