package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kbukum/eventhub/component"
	"github.com/kbukum/eventhub/logger"
	"github.com/kbukum/eventhub/version"
)

const defaultGracefulTimeout = 15 * time.Second

// App owns a service's components and lifecycle. C is the service's config
// type.
type App[C Config] struct {
	Name       string
	Version    string
	Cfg        C
	Components *component.Registry
	Logger     *logger.Logger
	Summary    *Summary

	gracefulTimeout time.Duration
	summaryOut      io.Writer

	onStart []Hook
	onReady []Hook
	onStop  []Hook
}

// NewApp applies defaults to cfg, validates it and initializes logging.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	base := cfg.GetServiceConfig()
	ver := base.Version
	if ver == "" {
		ver = version.GetShortVersion()
	}

	o := resolveOptions(opts)
	app := &App[C]{
		Name:            base.Name,
		Version:         ver,
		Cfg:             cfg,
		Components:      component.NewRegistry(),
		gracefulTimeout: defaultGracefulTimeout,
		summaryOut:      os.Stdout,
	}
	if o.gracefulTimeout > 0 {
		app.gracefulTimeout = o.gracefulTimeout
		app.Components.SetStopTimeout(o.gracefulTimeout)
	}
	if o.summaryOut != nil {
		app.summaryOut = o.summaryOut
	}
	if o.logger != nil {
		app.Logger = o.logger
	} else {
		logger.Init(&base.Logging)
		app.Logger = logger.GetGlobalLogger()
	}

	app.Summary = NewSummary(app.Name, app.Version)
	return app, nil
}

// RegisterComponent adds c to the registry. Components start in
// registration order and stop in reverse.
func (a *App[C]) RegisterComponent(c component.Component) error {
	return a.Components.Register(c)
}

// ReadyCheck reports every component that is not healthy.
func (a *App[C]) ReadyCheck(ctx context.Context) error {
	var issues []string
	for _, h := range a.Components.HealthAll(ctx) {
		if h.Status == component.StatusHealthy {
			continue
		}
		detail := h.Name + "=" + string(h.Status)
		if h.Message != "" {
			detail += "(" + h.Message + ")"
		}
		issues = append(issues, detail)
	}
	if len(issues) > 0 {
		return fmt.Errorf("components not healthy: %s", strings.Join(issues, ", "))
	}
	return nil
}

// Run starts the application, blocks until SIGINT/SIGTERM or ctx is done,
// then shuts down gracefully.
func (a *App[C]) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}

	a.Logger.Info("application ready, waiting for shutdown signal")
	a.WaitForSignal(ctx)

	return a.Shutdown(context.Background())
}

// Start starts the components, runs the start hooks, checks readiness,
// prints the summary and runs the ready hooks. A failed start unwinds the
// components already started.
func (a *App[C]) Start(ctx context.Context) error {
	start := time.Now()
	a.Logger.Info("starting application", logger.Fields("name", a.Name, "version", a.Version))

	if err := a.Components.StartAll(ctx); err != nil {
		a.unwind()
		return fmt.Errorf("failed to start components: %w", err)
	}
	if err := runHooks(ctx, a.onStart); err != nil {
		a.unwind()
		return fmt.Errorf("onStart hook failed: %w", err)
	}

	if err := a.ReadyCheck(ctx); err != nil {
		a.Logger.Warn("ready check reported issues", logger.Fields(logger.FieldError, err.Error()))
	}

	a.Summary.SetStartupDuration(time.Since(start))
	a.Summary.Collect(a.Components)
	a.Summary.Write(a.summaryOut, a.Components)

	if err := runHooks(ctx, a.onReady); err != nil {
		a.unwind()
		return fmt.Errorf("onReady hook failed: %w", err)
	}
	return nil
}

func (a *App[C]) unwind() {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()
	if err := a.Components.StopAll(ctx); err != nil {
		a.Logger.Error("stopping components after failed start", logger.Fields(logger.FieldError, err.Error()))
	}
}

// WaitForSignal blocks until SIGINT/SIGTERM or ctx is done. It returns the
// signal, or nil when ctx ended first.
func (a *App[C]) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("received shutdown signal", logger.Fields("signal", sig.String()))
		return sig
	case <-ctx.Done():
		a.Logger.Info("context canceled, shutting down")
		return nil
	}
}

// Shutdown runs the stop hooks and stops all components in reverse order,
// bounded by the graceful timeout.
func (a *App[C]) Shutdown(ctx context.Context) error {
	a.Logger.Info("shutting down application", logger.Fields("timeout", a.gracefulTimeout.String()))

	ctx, cancel := context.WithTimeout(ctx, a.gracefulTimeout)
	defer cancel()

	var shutdownErr error
	if err := runHooks(ctx, a.onStop); err != nil {
		a.Logger.Error("onStop hook error", logger.Fields(logger.FieldError, err.Error()))
		shutdownErr = err
	}
	if err := a.Components.StopAll(ctx); err != nil {
		a.Logger.Error("shutdown completed with errors", logger.Fields(logger.FieldError, err.Error()))
		if shutdownErr == nil {
			shutdownErr = err
		}
	}

	a.Logger.Info("application shutdown complete")
	return shutdownErr
}
