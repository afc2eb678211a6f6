package app

import (
	"fmt"

	"github.com/kbukum/eventhub/config"
	"github.com/kbukum/eventhub/observability"
	"github.com/kbukum/eventhub/producer"
	"github.com/kbukum/eventhub/server"
	"github.com/kbukum/eventhub/sse"
)

// ServiceName is the default service name and config file base name.
const ServiceName = "eventhub"

// Config is the full service configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config          `yaml:"server" mapstructure:"server"`
	Hub           sse.HubConfig          `yaml:"hub" mapstructure:"hub"`
	Stream        sse.StreamConfig       `yaml:"stream" mapstructure:"stream"`
	Ticker        producer.TickerConfig  `yaml:"ticker" mapstructure:"ticker"`
	Command       producer.CommandConfig `yaml:"command" mapstructure:"command"`
	Observability observability.Config   `yaml:"observability" mapstructure:"observability"`
}

// DefaultConfig returns the configuration used when no file sets a value.
// Loading starts from it, so booleans that default to true survive a file
// that omits them.
func DefaultConfig() *Config {
	cfg := &Config{
		ServiceConfig: config.ServiceConfig{Name: ServiceName},
		Ticker:        producer.TickerConfig{Enabled: true},
	}
	cfg.ApplyDefaults()
	return cfg
}

// Load reads configuration from the discovered or given files and the
// environment, on top of DefaultConfig.
func Load(opts ...config.LoaderOption) (*Config, error) {
	cfg := DefaultConfig()
	if err := config.LoadConfig(ServiceName, cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = ServiceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Hub.ApplyDefaults()
	c.Stream.ApplyDefaults()
	c.Ticker.ApplyDefaults()
	c.Command.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	sections := []struct {
		name     string
		validate func() error
	}{
		{"server", c.Server.Validate},
		{"hub", c.Hub.Validate},
		{"stream", c.Stream.Validate},
		{"ticker", c.Ticker.Validate},
		{"command", c.Command.Validate},
		{"observability", c.Observability.Validate},
	}
	for _, s := range sections {
		if err := s.validate(); err != nil {
			return fmt.Errorf("config.%s: %w", s.name, err)
		}
	}
	return nil
}

// Resource describes the service to the telemetry backend.
func (c *Config) Resource(version string) observability.Resource {
	return observability.Resource{
		ServiceName:    c.Name,
		ServiceVersion: version,
		Environment:    c.Environment,
	}
}
