package bootstrap

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kbukum/eventhub/component"
)

// InfrastructureInfo is one component line in the startup summary.
type InfrastructureInfo struct {
	Name    string
	Type    string // "hub", "producer", "server", ...
	Details string
	Port    int
}

// Summary collects what the service started with and prints it once.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	infrastructure  []InfrastructureInfo
	routes          []component.Route
}

// NewSummary creates an empty summary.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// TrackInfrastructure adds a component line.
func (s *Summary) TrackInfrastructure(name, componentType, details string, port int) {
	s.infrastructure = append(s.infrastructure, InfrastructureInfo{
		Name:    name,
		Type:    componentType,
		Details: details,
		Port:    port,
	})
}

// Collect gathers descriptions and routes from the registered components
// that provide them.
func (s *Summary) Collect(registry *component.Registry) {
	for _, c := range registry.All() {
		if d, ok := c.(component.Describable); ok {
			desc := d.Describe()
			name := desc.Name
			if name == "" {
				name = c.Name()
			}
			s.TrackInfrastructure(name, desc.Type, desc.Details, desc.Port)
		}
		if rp, ok := c.(component.RouteProvider); ok {
			s.routes = append(s.routes, rp.Routes()...)
		}
	}
}

// Write prints the summary to w, with live health from registry when it is
// not nil.
func (s *Summary) Write(w io.Writer, registry *component.Registry) {
	fmt.Fprintf(w, "\n🚀 %s %s started in %.2fs\n", s.serviceName, s.version, s.startupDuration.Seconds())

	if len(s.infrastructure) > 0 {
		fmt.Fprintf(w, "\n📊 Components\n")
		for i, inf := range s.infrastructure {
			details := inf.Details
			if inf.Port > 0 && !strings.Contains(details, fmt.Sprintf(":%d", inf.Port)) {
				details = fmt.Sprintf("%s (:%d)", details, inf.Port)
			}
			fmt.Fprintf(w, "   %s [%s] %s: %s\n", treePrefix(i, len(s.infrastructure)), inf.Type, inf.Name, details)
		}
	}

	if len(s.routes) > 0 {
		fmt.Fprintf(w, "\n🌐 Routes (%d)\n", len(s.routes))
		for i, r := range s.routes {
			fmt.Fprintf(w, "   %s %-7s %s → %s\n", treePrefix(i, len(s.routes)), r.Method, r.Path, r.Handler)
		}
	}

	if registry != nil {
		results := registry.HealthAll(context.Background())
		if len(results) > 0 {
			fmt.Fprintf(w, "\n🏥 Health Check\n")
			healthy := 0
			for i, h := range results {
				msg := ""
				if h.Message != "" {
					msg = " (" + h.Message + ")"
				}
				if h.Status == component.StatusHealthy {
					healthy++
				}
				fmt.Fprintf(w, "   %s %s %s: %s%s\n", treePrefix(i, len(results)), healthStatusIcon(h.Status), h.Name, h.Status, msg)
			}
			if healthy == len(results) {
				fmt.Fprintf(w, "\n✅ All components healthy (%d/%d)\n", healthy, len(results))
			} else {
				fmt.Fprintf(w, "\n⚠️  Some components have issues (%d/%d healthy)\n", healthy, len(results))
			}
		}
	}

	fmt.Fprintln(w)
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func healthStatusIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
