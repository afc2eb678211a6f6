package server

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/eventhub/component"
)

const componentName = "http-server"

var (
	_ component.Component     = (*Component)(nil)
	_ component.Describable   = (*Component)(nil)
	_ component.RouteProvider = (*Component)(nil)
)

// systemPaths are the operational endpoints registered by
// RegisterDefaultEndpoints. They are listed after the application routes.
var systemPaths = map[string]bool{
	"/health":  true,
	"/alive":   true,
	"/ready":   true,
	"/info":    true,
	"/metrics": true,
}

// Component adapts Server to the component lifecycle.
type Component struct {
	server *Server
}

// NewComponent wraps s.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

// Name returns the registration name.
func (c *Component) Name() string { return componentName }

// Start binds the listener and starts serving.
func (c *Component) Start(ctx context.Context) error {
	return c.server.Start(ctx)
}

// Stop shuts the server down.
func (c *Component) Stop(ctx context.Context) error {
	return c.server.Stop(ctx)
}

// Health is healthy once the listener is bound.
func (c *Component) Health(context.Context) component.Health {
	if !c.server.Started() {
		return component.Health{
			Name:    componentName,
			Status:  component.StatusUnhealthy,
			Message: "not listening",
		}
	}
	return component.Health{
		Name:    componentName,
		Status:  component.StatusHealthy,
		Message: "listening on " + c.server.Addr(),
	}
}

// Describe returns the startup summary line.
func (c *Component) Describe() component.Description {
	cfg := c.server.config
	details := fmt.Sprintf("%s, h2c", c.server.Addr())
	if cfg.RateLimit.RequestsPerMinute > 0 {
		details += fmt.Sprintf(", %d req/min on commands", cfg.RateLimit.RequestsPerMinute)
	}
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: details,
		Port:    cfg.Port,
	}
}

// Routes lists the registered routes: application routes by path, then the
// system endpoints.
func (c *Component) Routes() []component.Route {
	ginRoutes := c.server.engine.Routes()
	slices.SortFunc(ginRoutes, func(a, b gin.RouteInfo) int {
		aSys, bSys := systemPaths[a.Path], systemPaths[b.Path]
		if aSys != bSys {
			if aSys {
				return 1
			}
			return -1
		}
		if a.Path != b.Path {
			return strings.Compare(a.Path, b.Path)
		}
		return methodOrder(a.Method) - methodOrder(b.Method)
	})

	routes := make([]component.Route, 0, len(ginRoutes))
	for _, r := range ginRoutes {
		routes = append(routes, component.Route{
			Method:  r.Method,
			Path:    r.Path,
			Handler: formatHandlerName(r.Handler),
		})
	}
	return routes
}

func methodOrder(method string) int {
	switch method {
	case "GET":
		return 0
	case "POST":
		return 1
	case "PUT":
		return 2
	case "PATCH":
		return 3
	case "DELETE":
		return 4
	default:
		return 5
	}
}

// formatHandlerName shortens gin's fully qualified handler name:
// "github.com/kbukum/eventhub/app.(*Routes).Command-fm" -> "app.Command".
func formatHandlerName(name string) string {
	name = path.Base(name)
	name = strings.TrimSuffix(name, "-fm")
	pkg, fn, ok := strings.Cut(name, ".")
	if !ok {
		return name
	}
	parts := strings.Split(fn, ".")
	last := parts[len(parts)-1]
	if strings.HasPrefix(last, "func") && len(parts) > 1 {
		last = parts[len(parts)-2]
	}
	return pkg + "." + last
}
