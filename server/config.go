package server

import (
	"fmt"

	"github.com/kbukum/eventhub/server/middleware"
	"github.com/kbukum/eventhub/util"
	"github.com/kbukum/eventhub/validation"
)

// Config holds HTTP server configuration.
type Config struct {
	Host         string                `yaml:"host" mapstructure:"host"`
	Port         int                   `yaml:"port" mapstructure:"port" validate:"gte=0,lte=65535"`
	ReadTimeout  int                   `yaml:"read_timeout" mapstructure:"read_timeout" validate:"gte=0"`   // seconds
	WriteTimeout int                   `yaml:"write_timeout" mapstructure:"write_timeout" validate:"gte=0"` // seconds, streams clear it
	IdleTimeout  int                   `yaml:"idle_timeout" mapstructure:"idle_timeout" validate:"gte=0"`   // seconds
	MaxBodySize  string                `yaml:"max_body_size" mapstructure:"max_body_size"`                  // e.g. "10MB"
	CORS         middleware.CORSConfig `yaml:"cors" mapstructure:"cors"`
	// RateLimit applies to the routes that trigger work, such as POST /cmd.
	RateLimit middleware.RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 3000
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "1MB"
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = []string{"Origin", "Content-Type", "Accept", "Cache-Control", "Last-Event-ID"}
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if c.MaxBodySize != "" {
		if _, err := util.ParseSize(c.MaxBodySize); err != nil {
			return fmt.Errorf("server.max_body_size: %w", err)
		}
	}
	return nil
}

// Addr returns the configured listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
