package producer

import "github.com/kbukum/eventhub/observability"

// Publisher accepts events for broadcast. *sse.Hub satisfies it.
type Publisher interface {
	Publish(data string) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(data string) error

// Publish calls f(data).
func (f PublisherFunc) Publish(data string) error { return f(data) }

// Option configures optional producer dependencies.
type Option func(*options)

type options struct {
	metrics *observability.Metrics
}

// WithMetrics sets the instruments producers record to. Defaults to
// instruments on the global meter provider.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = observability.DefaultMetrics()
	}
	return o
}
