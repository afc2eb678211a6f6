package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/eventhub/logger"
	"github.com/kbukum/eventhub/observability"
	"github.com/kbukum/eventhub/server/endpoint"
	"github.com/kbukum/eventhub/server/middleware"
)

const shutdownTimeout = 5 * time.Second

// Option configures optional Server dependencies.
type Option func(*Server)

// WithMetrics records HTTP request metrics through m.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// Server is an HTTP server backed by Gin and served over HTTP/1.1 and h2c,
// so browsers and HTTP/2 clients can hold many streams on one connection.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     Config
	log        *logger.Logger
	metrics    *observability.Metrics

	mu       sync.Mutex
	handler  http.Handler
	listener net.Listener
}

// New creates a Server. Call ApplyDefaults on cfg first if needed; routes
// are registered on GinEngine and the middleware stack with ApplyMiddleware.
func New(cfg Config, log *logger.Logger, opts ...Option) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		engine: gin.New(),
		config: cfg,
		log:    log.WithComponent("server"),
	}
	s.handler = s.engine
	for _, opt := range opts {
		opt(s)
	}

	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          120 * time.Second,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h2c.NewHandler(http.HandlerFunc(s.serveHTTP), h2s),
		ReadHeaderTimeout: time.Duration(cfg.ReadTimeout) * time.Second,
		ReadTimeout:       time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:       time.Duration(cfg.IdleTimeout) * time.Second,
	}
	return s
}

// GinEngine returns the underlying Gin engine for route registration.
func (s *Server) GinEngine() *gin.Engine {
	return s.engine
}

// Handler returns the full handler: middleware stack plus routes. Mostly
// useful with httptest.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.serveHTTP)
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	h := s.handler
	s.mu.Unlock()
	h.ServeHTTP(w, r)
}

// ApplyMiddleware installs the standard stack around every route:
// recovery, request ID, request logging, metrics, CORS and the body size
// limit.
func (s *Server) ApplyMiddleware() {
	stack := []middleware.Middleware{
		middleware.Recovery(s.log),
		middleware.RequestID(),
		middleware.RequestLogger(s.log),
	}
	if s.metrics != nil {
		stack = append(stack, middleware.Metrics(s.metrics, s.routeLabel))
	}
	stack = append(stack,
		middleware.CORS(s.config.CORS),
		middleware.BodySizeLimit(s.config.MaxBodySize),
	)

	h := middleware.Chain(stack...)(s.engine)
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

// routeLabel maps a request to its registered route, keeping metric
// cardinality bounded.
func (s *Server) routeLabel(r *http.Request) string {
	for _, rt := range s.engine.Routes() {
		if rt.Method == r.Method && rt.Path == r.URL.Path {
			return rt.Path
		}
	}
	return "unmatched"
}

// RateLimited wraps handlers that trigger work with the configured limiter.
func (s *Server) RateLimited() gin.HandlerFunc {
	return middleware.GinWrap(middleware.RateLimit(s.config.RateLimit))
}

// RegisterDefaultEndpoints registers /health, /alive, /ready, /info and
// /metrics. stats adds application figures to /metrics; it may be nil.
func (s *Server) RegisterDefaultEndpoints(serviceName string, checker endpoint.HealthChecker, stats endpoint.StatsFunc) {
	s.engine.GET("/health", endpoint.Health(serviceName, checker))
	s.engine.GET("/alive", endpoint.Liveness(serviceName))
	s.engine.GET("/ready", endpoint.Readiness(serviceName, checker))
	s.engine.GET("/info", endpoint.Info(serviceName))
	s.engine.GET("/metrics", endpoint.Metrics(stats))
}

// Start binds the port and begins serving. It returns once the listener is
// bound so the caller knows the port is ready; serving continues in a
// goroutine.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("server error", logger.Fields(logger.FieldError, err.Error()))
		}
	}()

	s.log.Info("HTTP server started", logger.Fields("addr", listener.Addr().String()))
	return nil
}

// Stop gracefully shuts down the server. Open streams must already be
// ending (the hub is stopped first); after the deadline remaining
// connections are closed.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("graceful shutdown incomplete, closing connections", logger.Fields(logger.FieldError, err.Error()))
		_ = s.httpServer.Close()
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.log.Info("HTTP server shut down")
	return nil
}

// Addr returns the bound address once started, the configured one before.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// Started reports whether Start has bound the listener.
func (s *Server) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener != nil
}
