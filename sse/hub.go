package sse

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/kbukum/eventhub/logger"
	"github.com/kbukum/eventhub/validation"
)

const meterName = "github.com/kbukum/eventhub/sse"

// HubConfig configures a Hub.
type HubConfig struct {
	// QueueSize is the capacity of each subscriber's queue.
	QueueSize int `yaml:"queue_size" mapstructure:"queue_size" validate:"min=1"`
	// DropPolicy applies when a subscriber's queue is full.
	DropPolicy DropPolicy `yaml:"drop_policy" mapstructure:"drop_policy" validate:"oneof=disconnect drop-newest drop-oldest"`
	// HistorySize is how many recent events a new subscriber starts with.
	// Zero means new subscribers only see events published after they join.
	HistorySize int `yaml:"history_size" mapstructure:"history_size" validate:"gte=0"`
}

// ApplyDefaults fills zero values.
func (c *HubConfig) ApplyDefaults() {
	if c.QueueSize <= 0 {
		c.QueueSize = 10
	}
	if c.DropPolicy == "" {
		c.DropPolicy = DropDisconnect
	}
}

// Validate checks the configuration.
func (c *HubConfig) Validate() error {
	return validation.Validate(c)
}

// HubOption configures optional Hub dependencies.
type HubOption func(*Hub)

// WithLogger sets the hub's logger.
func WithLogger(l *logger.Logger) HubOption {
	return func(h *Hub) { h.log = l }
}

// WithMeterProvider sets where hub metrics are recorded. Defaults to the
// global provider.
func WithMeterProvider(mp metric.MeterProvider) HubOption {
	return func(h *Hub) { h.meterProvider = mp }
}

// Hub is the in-process broadcast point between producers and subscribers.
//
// All subscriber state lives behind one mutex. Publish holds it only for
// non-blocking channel operations, which serializes concurrent publishes and
// makes every subscriber see events in publish order. Subscriber channels are
// closed only under the same mutex, so a send never meets a closed channel.
type Hub struct {
	config        HubConfig
	log           *logger.Logger
	meterProvider metric.MeterProvider
	metrics       *hubMetrics

	mu      sync.Mutex
	subs    map[string]*Subscription
	seq     uint64
	history []Event // ring of the last config.HistorySize events, oldest first
	closed  bool
}

// NewHub creates a running hub. Invalid config values fall back to defaults.
func NewHub(cfg HubConfig, opts ...HubOption) *Hub {
	cfg.ApplyDefaults()
	if cfg.HistorySize < 0 {
		cfg.HistorySize = 0
	}

	h := &Hub{
		config: cfg,
		subs:   make(map[string]*Subscription),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.log == nil {
		h.log = logger.WithComponent("hub")
	}
	if h.meterProvider == nil {
		h.meterProvider = otel.GetMeterProvider()
	}
	h.metrics = newHubMetrics(h.meterProvider.Meter(meterName), h.log)
	return h
}

// Config returns the effective configuration.
func (h *Hub) Config() HubConfig { return h.config }

// Subscribe registers a new subscriber. Its queue starts empty, or holds the
// most recent events when HistorySize is set. It fails with ErrHubClosed
// after Stop.
func (h *Hub) Subscribe() (*Subscription, error) {
	sub := &Subscription{
		id:        uuid.NewString(),
		hub:       h,
		events:    make(chan Event, h.config.QueueSize),
		done:      make(chan struct{}),
		createdAt: time.Now(),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	backlog := h.history
	if len(backlog) > h.config.QueueSize {
		backlog = backlog[len(backlog)-h.config.QueueSize:]
	}
	for _, ev := range backlog {
		sub.events <- ev
	}
	h.subs[sub.id] = sub
	total := len(h.subs)
	h.mu.Unlock()

	h.metrics.subscribed(context.Background())
	h.log.Debug("subscriber registered", logger.Fields(
		logger.FieldSubscriberID, sub.id,
		logger.FieldSubscribers, total,
		"backlog", len(backlog),
	))
	return sub, nil
}

// Publish delivers data to every current subscriber and never blocks on
// them. With no subscribers it is a no-op. It fails with ErrHubClosed after
// Stop.
func (h *Hub) Publish(data string) error {
	var (
		delivered, dropped int
		evicted            []string
	)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHubClosed
	}
	h.seq++
	ev := Event{ID: h.seq, Data: data, Time: time.Now()}
	h.remember(ev)

	for id, sub := range h.subs {
		queued, discarded := sub.offer(ev, h.config.DropPolicy)
		if queued {
			delivered++
		}
		if discarded {
			dropped++
		}
		if !queued && h.config.DropPolicy == DropDisconnect {
			delete(h.subs, id)
			sub.closeLocked(ErrSlowSubscriber)
			evicted = append(evicted, id)
		}
	}
	remaining := len(h.subs)
	h.mu.Unlock()

	ctx := context.Background()
	h.metrics.published(ctx, delivered, dropped, h.config.DropPolicy)
	for _, id := range evicted {
		h.metrics.unsubscribed(ctx, ErrSlowSubscriber)
		h.log.Warn("slow subscriber disconnected", logger.Fields(
			logger.FieldSubscriberID, id,
			logger.FieldEventID, ev.ID,
			logger.FieldSubscribers, remaining,
		))
	}
	if dropped > len(evicted) {
		h.log.Warn("events dropped for slow subscribers", logger.Fields(
			logger.FieldEventID, ev.ID,
			logger.FieldPolicy, h.config.DropPolicy.String(),
			"dropped", dropped,
		))
	}
	return nil
}

// remember appends ev to the history ring. Callers hold mu.
func (h *Hub) remember(ev Event) {
	if h.config.HistorySize == 0 {
		return
	}
	if len(h.history) == h.config.HistorySize {
		copy(h.history, h.history[1:])
		h.history = h.history[:len(h.history)-1]
	}
	h.history = append(h.history, ev)
}

// Unsubscribe removes sub and closes its queue. It is idempotent; nil,
// already-removed and foreign subscriptions are ignored.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	if h.subs[sub.id] != sub {
		h.mu.Unlock()
		return
	}
	delete(h.subs, sub.id)
	sub.closeLocked(nil)
	total := len(h.subs)
	h.mu.Unlock()

	h.metrics.unsubscribed(context.Background(), nil)
	h.log.Debug("subscriber removed", logger.Fields(
		logger.FieldSubscriberID, sub.id,
		logger.FieldSubscribers, total,
	))
}

// Stop closes every subscription with ErrHubClosed. Later Subscribe and
// Publish calls fail. Stop is idempotent.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	n := len(h.subs)
	for id, sub := range h.subs {
		sub.closeLocked(ErrHubClosed)
		delete(h.subs, id)
	}
	h.history = nil
	h.mu.Unlock()

	ctx := context.Background()
	for range n {
		h.metrics.unsubscribed(ctx, ErrHubClosed)
	}
	h.log.Debug("hub stopped", logger.Fields(logger.FieldSubscribers, n))
}

// Closed reports whether Stop has been called.
func (h *Hub) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Len returns the number of registered subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// SubscriberIDs returns the registered subscriber IDs, sorted.
func (h *Hub) SubscriberIDs() []string {
	h.mu.Lock()
	ids := make([]string, 0, len(h.subs))
	for id := range h.subs {
		ids = append(ids, id)
	}
	h.mu.Unlock()
	slices.Sort(ids)
	return ids
}

// Subscriber returns a registered subscription by ID, or nil.
func (h *Hub) Subscriber(id string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.subs[id]
}

// Recent returns a copy of the history buffer, oldest first.
func (h *Hub) Recent() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.history)
}

// LastID returns the ID of the most recently published event, 0 if none.
func (h *Hub) LastID() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seq
}

// Subscription is one subscriber's registration: a bounded queue the hub
// fills and the owner drains.
type Subscription struct {
	id        string
	hub       *Hub
	events    chan Event
	done      chan struct{}
	createdAt time.Time

	// guarded by hub.mu
	closed bool
	err    error
}

// ID returns the subscriber's unique identifier.
func (s *Subscription) ID() string { return s.id }

// Events returns the queue. It is closed when the subscription ends; events
// queued before that are still received first.
func (s *Subscription) Events() <-chan Event { return s.events }

// Done is closed when the subscription ends.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// CreatedAt returns when the subscription was registered.
func (s *Subscription) CreatedAt() time.Time { return s.createdAt }

// Alive reports whether the hub still delivers to this subscription.
func (s *Subscription) Alive() bool {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	return !s.closed
}

// Err returns why the subscription ended: nil while alive or after
// Unsubscribe, ErrSlowSubscriber or ErrHubClosed otherwise.
func (s *Subscription) Err() error {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	return s.err
}

// Len returns the number of queued events.
func (s *Subscription) Len() int { return len(s.events) }

// offer enqueues ev without blocking. It reports whether ev was queued and
// whether an event (ev or the oldest queued one) was discarded. Callers hold
// hub.mu, which makes the hub the only sender.
func (s *Subscription) offer(ev Event, policy DropPolicy) (queued, discarded bool) {
	select {
	case s.events <- ev:
		return true, false
	default:
	}
	if policy != DropOldest {
		return false, true
	}
	select {
	case <-s.events:
	default:
	}
	select {
	case s.events <- ev:
		return true, true
	default:
		return false, true
	}
}

// closeLocked ends the subscription. Callers hold hub.mu.
func (s *Subscription) closeLocked(reason error) {
	if s.closed {
		return
	}
	s.closed = true
	s.err = reason
	close(s.events)
	close(s.done)
}
