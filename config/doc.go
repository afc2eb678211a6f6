// Package config loads service configuration.
//
// A YAML file (config.yml) provides the base values, a .env file and the
// process environment override them. Config structs embed ServiceConfig and
// implement ApplyDefaults and Validate:
//
//	type Config struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Hub sse.HubConfig    `yaml:"hub" mapstructure:"hub"`
//	}
//
//	var cfg Config
//	err := config.LoadConfig("eventhub", &cfg, config.WithEnvPrefix("EVENTHUB"))
//
// With a prefix, EVENTHUB_HUB_QUEUE_SIZE=20 sets hub.queue_size.
package config
