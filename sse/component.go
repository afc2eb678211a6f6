package sse

import (
	"context"
	"fmt"

	"github.com/kbukum/eventhub/component"
)

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component ties a Hub to the application lifecycle. The hub accepts
// subscribers from construction; stopping the component stops the hub.
type Component struct {
	hub    *Hub
	stream StreamConfig
}

// NewComponent creates a hub from cfg.
func NewComponent(cfg HubConfig, stream StreamConfig, opts ...HubOption) *Component {
	stream.ApplyDefaults()
	return &Component{hub: NewHub(cfg, opts...), stream: stream}
}

// Hub returns the managed hub.
func (c *Component) Hub() *Hub { return c.hub }

// Name returns the component name.
func (c *Component) Name() string { return "hub" }

// Start is a no-op.
func (c *Component) Start(context.Context) error { return nil }

// Stop stops the hub, ending every open stream.
func (c *Component) Stop(context.Context) error {
	c.hub.Stop()
	return nil
}

// Health reports the subscriber count, or unhealthy once stopped.
func (c *Component) Health(context.Context) component.Health {
	if c.hub.Closed() {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "hub stopped"}
	}
	return component.Health{
		Name:    c.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("%d subscribers", c.hub.Len()),
	}
}

// Describe returns the startup summary line.
func (c *Component) Describe() component.Description {
	cfg := c.hub.Config()
	return component.Description{
		Name: "Event Hub",
		Type: "hub",
		Details: fmt.Sprintf("path=%s queue=%d policy=%s history=%d keep-alive=%s",
			c.stream.Path, cfg.QueueSize, cfg.DropPolicy, cfg.HistorySize, c.stream.KeepAliveInterval),
	}
}
