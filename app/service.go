package app

import (
	"context"
	"fmt"

	"github.com/kbukum/eventhub/bootstrap"
	"github.com/kbukum/eventhub/component"
	"github.com/kbukum/eventhub/logger"
	"github.com/kbukum/eventhub/observability"
	"github.com/kbukum/eventhub/producer"
	"github.com/kbukum/eventhub/server"
	"github.com/kbukum/eventhub/server/endpoint"
	"github.com/kbukum/eventhub/sse"
)

// Service is the assembled eventhub: one hub, its producers and the HTTP
// server in front of it.
type Service struct {
	Hub     *sse.Hub
	Ticker  *producer.Ticker
	Command *producer.Command
	Server  *server.Server
	Routes  *Routes

	telemetry *observability.Component
	hub       *sse.Component
}

// New builds the service from cfg. cfg must have defaults applied.
func New(cfg *Config, version string, log *logger.Logger) (*Service, error) {
	metrics := observability.DefaultMetrics()

	hubComponent := sse.NewComponent(cfg.Hub, cfg.Stream, sse.WithLogger(log.WithComponent("hub")))
	hub := hubComponent.Hub()

	command, err := producer.NewCommand(cfg.Command, hub, producer.WithMetrics(metrics))
	if err != nil {
		return nil, fmt.Errorf("command producer: %w", err)
	}
	ticker := producer.NewTicker(cfg.Ticker, hub, producer.WithMetrics(metrics))

	srv := server.New(cfg.Server, log, server.WithMetrics(metrics))
	routes, err := NewRoutes(cfg.Name, hub, command, cfg.Stream)
	if err != nil {
		return nil, fmt.Errorf("routes: %w", err)
	}
	if err := routes.Register(srv); err != nil {
		return nil, fmt.Errorf("routes: %w", err)
	}

	return &Service{
		Hub:       hub,
		Ticker:    ticker,
		Command:   command,
		Server:    srv,
		Routes:    routes,
		telemetry: observability.NewComponent(cfg.Observability, cfg.Resource(version)),
		hub:       hubComponent,
	}, nil
}

// Components returns the lifecycle components in start order. The server
// comes before the hub so that on shutdown the hub stops first, ending every
// open stream, and the server then drains without waiting on them.
func (s *Service) Components() []component.Component {
	return []component.Component{
		s.telemetry,
		server.NewComponent(s.Server),
		s.hub,
		s.Command,
		s.Ticker,
	}
}

// Stats is the application section of /metrics.
func (s *Service) Stats(context.Context) map[string]any {
	return map[string]any{
		"subscribers":    s.Hub.Len(),
		"last_event_id":  s.Hub.LastID(),
		"ticker_events":  s.Ticker.Published(),
		"hub_closed":     s.Hub.Closed(),
		"queue_capacity": s.Hub.Config().QueueSize,
	}
}

// Register builds the service and hands its components to a, and mounts the
// operational endpoints backed by a's registry.
func Register(a *bootstrap.App[*Config]) (*Service, error) {
	s, err := New(a.Cfg, a.Version, a.Logger)
	if err != nil {
		return nil, err
	}
	for _, c := range s.Components() {
		if err := a.RegisterComponent(c); err != nil {
			return nil, err
		}
	}
	s.Server.RegisterDefaultEndpoints(a.Name, endpoint.HealthChecker(a.Components.HealthAll), s.Stats)
	s.Server.ApplyMiddleware()
	return s, nil
}
