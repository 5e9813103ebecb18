package config

import (
	"fmt"
	"time"
)

// APIConfig contains the report API settings.
type APIConfig struct {
	Server APIServerConfig `yaml:"server" mapstructure:"server"`
}

// APIServerConfig configures the HTTP listener.
type APIServerConfig struct {
	Listen            string          `yaml:"listen" mapstructure:"listen"`
	CORSOrigins       []string        `yaml:"cors_origins,omitempty" mapstructure:"cors_origins"`
	ReadHeaderTimeout time.Duration   `yaml:"read_header_timeout" mapstructure:"read_header_timeout"`
	RateLimit         RateLimitConfig `yaml:"rate_limit,omitempty" mapstructure:"rate_limit"`
}

// RateLimitConfig configures per-IP rate limiting.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// ValidateAPI checks the settings needed to serve the API.
func (c *Config) ValidateAPI() error {
	if !c.Index.Enabled {
		return fmt.Errorf("index must be enabled to serve the api")
	}

	if c.API.Server.Listen == "" {
		return fmt.Errorf("api.server.listen is required")
	}

	return c.Validate()
}
