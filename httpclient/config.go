package httpclient

import (
	"time"

	"github.com/kbukum/eventhub/validation"
)

// Config configures a stream client.
type Config struct {
	// URL is the event stream to subscribe to.
	URL string `yaml:"url" mapstructure:"url" validate:"required,url"`
	// ConnectTimeout bounds dialing and waiting for response headers. The
	// stream itself has no deadline.
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout" validate:"gte=0"`
	// Headers are sent with every connection attempt.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`
	// Reconnect resubscribes after the stream ends or a retryable failure.
	Reconnect bool `yaml:"reconnect" mapstructure:"reconnect"`
	// ReconnectDelay is used until the server announces its own retry delay.
	ReconnectDelay time.Duration `yaml:"reconnect_delay" mapstructure:"reconnect_delay" validate:"gte=0"`
	// MaxReconnects caps consecutive failed attempts. Zero means no cap.
	MaxReconnects int `yaml:"max_reconnects" mapstructure:"max_reconnects" validate:"gte=0"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = time.Second
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
