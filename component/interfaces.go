package component

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health holds health information for a component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a lifecycle-managed part of the service.
type Component interface {
	// Name returns the unique registration name.
	Name() string
	// Start brings the component up. It must not block.
	Start(ctx context.Context) error
	// Stop shuts the component down and releases its resources.
	Stop(ctx context.Context) error
	// Health reports the current status.
	Health(ctx context.Context) Health
}

// Description is a one-line summary logged at startup.
type Description struct {
	Name    string // display name, defaults to Name()
	Type    string // "hub", "producer", "server", ...
	Details string
	Port    int
}

// Describable is optionally implemented by components that want to appear
// in the startup summary.
type Describable interface {
	Describe() Description
}

// Route holds a single HTTP route for the startup summary.
type Route struct {
	Method  string
	Path    string
	Handler string
}

// RouteProvider is optionally implemented by server components to report
// their registered routes.
type RouteProvider interface {
	Routes() []Route
}
