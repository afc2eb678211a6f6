package sse

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/kbukum/eventhub/validation"
)

// StreamConfig configures how a subscription is presented on the wire.
type StreamConfig struct {
	// Path is the route the stream is mounted on.
	Path string `yaml:"path" mapstructure:"path" validate:"required"`
	// KeepAliveInterval is the idle time after which a keep-alive is sent.
	KeepAliveInterval time.Duration `yaml:"keep_alive_interval" mapstructure:"keep_alive_interval" validate:"gt=0"`
	// KeepAliveText is carried in the keep-alive comment.
	KeepAliveText string `yaml:"keep_alive_text" mapstructure:"keep_alive_text"`
	// Raw disables the HTML wrapping of payloads.
	Raw bool `yaml:"raw" mapstructure:"raw"`
}

// ApplyDefaults fills zero values.
func (c *StreamConfig) ApplyDefaults() {
	if c.Path == "" {
		c.Path = "/todos/stream"
	}
	if c.KeepAliveInterval <= 0 {
		c.KeepAliveInterval = 600 * time.Second
	}
	if c.KeepAliveText == "" {
		c.KeepAliveText = "keep-alive-text"
	}
}

// Validate checks the configuration.
func (c *StreamConfig) Validate() error {
	return validation.Validate(c)
}

// StreamOption customizes a Stream.
type StreamOption func(*Stream)

// WithFormatter replaces the payload formatter.
func WithFormatter(f Formatter) StreamOption {
	return func(s *Stream) { s.format = f }
}

// Stream presents one subscription as a lazy, non-restartable sequence of
// frames. A Stream is used by a single goroutine; Close may be called from
// any goroutine.
type Stream struct {
	hub       *Hub
	sub       *Subscription
	config    StreamConfig
	format    Formatter
	keepAlive *time.Timer
	closeOnce sync.Once
}

// NewStream subscribes to hub. It fails with ErrHubClosed if the hub is
// stopped.
func NewStream(hub *Hub, cfg StreamConfig, opts ...StreamOption) (*Stream, error) {
	cfg.ApplyDefaults()
	sub, err := hub.Subscribe()
	if err != nil {
		return nil, err
	}

	s := &Stream{
		hub:       hub,
		sub:       sub,
		config:    cfg,
		format:    HTMLFormatter,
		keepAlive: time.NewTimer(cfg.KeepAliveInterval),
	}
	if cfg.Raw {
		s.format = RawFormatter
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ID returns the underlying subscriber ID.
func (s *Stream) ID() string { return s.sub.ID() }

// Subscription returns the underlying subscription.
func (s *Stream) Subscription() *Subscription { return s.sub }

// Next blocks until the next event, or until KeepAliveInterval passes with
// no event, in which case it returns a keep-alive frame. The keep-alive
// clock restarts after every frame.
//
// Next returns io.EOF once the subscription has ended and its queue is
// drained, and ctx.Err() when ctx is done.
func (s *Stream) Next(ctx context.Context) (Frame, error) {
	select {
	case ev, ok := <-s.sub.Events():
		if !ok {
			return Frame{}, io.EOF
		}
		s.keepAlive.Reset(s.config.KeepAliveInterval)
		return EventFrame(ev.ID, s.format(ev)), nil
	case <-s.keepAlive.C:
		s.keepAlive.Reset(s.config.KeepAliveInterval)
		return KeepAliveFrame(s.config.KeepAliveText), nil
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

// Err returns why the subscription ended, see Subscription.Err.
func (s *Stream) Err() error { return s.sub.Err() }

// Close unsubscribes. Only the first call has an effect.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		s.hub.Unsubscribe(s.sub)
	})
}
