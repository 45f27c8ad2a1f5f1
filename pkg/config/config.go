// Package config loads and validates the server configuration.
package config

import (
	"fmt"
)

// Config is the root application configuration. It is loaded once at startup
// and then shared as a read-only value, so it needs no locking.
type Config struct {
	Server   ServerConfig           `yaml:"server"`
	Routes   map[string]RouteConfig `yaml:"routes"`
	NotFound RouteConfig            `yaml:"not_found"`
	Metrics  MetricsConfig          `yaml:"metrics"`
	LogLevel string                 `yaml:"log_level"`
}

// ServerConfig configures the listener and the worker pool behind it.
type ServerConfig struct {
	// Addr is the TCP listen address, e.g. ":7878".
	Addr string `yaml:"addr"`

	// Workers is the fixed worker pool size. Must be >= 1; the pool rejects
	// smaller values rather than clamping them.
	Workers int `yaml:"workers"`

	// QueueSize bounds the pending-connection queue. When the queue is full
	// new connections are rejected instead of growing memory without bound.
	QueueSize int `yaml:"queue_size"`

	// Per-connection deadlines, in seconds.
	ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds"`
}

// RouteConfig maps a request path to a canned response.
type RouteConfig struct {
	// Status is the HTTP status text written on the response line,
	// e.g. "200 OK".
	Status string `yaml:"status"`

	// File is the path of the file whose contents form the response body.
	File string `yaml:"file"`

	// DelayMS delays the response by the given number of milliseconds
	// before writing (used by the /sleep route to simulate slow work).
	DelayMS int `yaml:"delay_ms"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns a runnable configuration serving the stock routes on the
// conventional port.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:                ":7878",
			Workers:             4,
			QueueSize:           64,
			ReadTimeoutSeconds:  30,
			WriteTimeoutSeconds: 30,
		},
		Routes: map[string]RouteConfig{
			"/": {
				Status: "200 OK",
				File:   "static/hello.html",
			},
			"/sleep": {
				Status:  "200 OK",
				File:    "static/hello.html",
				DelayMS: 5000,
			},
		},
		NotFound: RouteConfig{
			Status: "404 NOT FOUND",
			File:   "static/404.html",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9091",
		},
		LogLevel: "info",
	}
}

// Load reads the YAML file at path on top of the defaults and validates the
// result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := LoadYAML(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Server.Workers < 1 {
		return fmt.Errorf("server.workers must be >= 1, got %d", c.Server.Workers)
	}
	if c.Server.QueueSize < 1 {
		return fmt.Errorf("server.queue_size must be >= 1, got %d", c.Server.QueueSize)
	}
	if c.Server.ReadTimeoutSeconds < 0 || c.Server.WriteTimeoutSeconds < 0 {
		return fmt.Errorf("server timeouts must not be negative")
	}
	for path, route := range c.Routes {
		if err := validateRoute(path, route); err != nil {
			return err
		}
	}
	if err := validateRoute("not_found", c.NotFound); err != nil {
		return err
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr must not be empty when metrics are enabled")
	}
	return nil
}

func validateRoute(path string, route RouteConfig) error {
	if route.Status == "" {
		return fmt.Errorf("route %q: status must not be empty", path)
	}
	if route.File == "" {
		return fmt.Errorf("route %q: file must not be empty", path)
	}
	if route.DelayMS < 0 {
		return fmt.Errorf("route %q: delay_ms must not be negative", path)
	}
	return nil
}
