package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-monolith/mono"
)

var logLevels = map[string]mono.LogLevel{
	"debug": mono.LogLevelDebug,
	"info":  mono.LogLevelInfo,
	"warn":  mono.LogLevelWarn,
	"error": mono.LogLevelError,
}

// Config holds the relay process configuration read from the environment.
type Config struct {
	Port            string        `env:"PORT"             envDefault:"3001"`
	LogLevel        string        `env:"LOG_LEVEL"        envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	InboxSize       int           `env:"RELAY_INBOX_SIZE"        envDefault:"1024"`
	SendBuffer      int           `env:"RELAY_SEND_BUFFER"       envDefault:"256"`
	PingInterval    time.Duration `env:"RELAY_PING_INTERVAL"     envDefault:"25s"`
	PongTimeout     time.Duration `env:"RELAY_PONG_TIMEOUT"      envDefault:"60s"`
	WriteTimeout    time.Duration `env:"RELAY_WRITE_TIMEOUT"     envDefault:"10s"`
	MaxMessageBytes int64         `env:"RELAY_MAX_MESSAGE_BYTES" envDefault:"65536"`
	InboundRate     float64       `env:"RELAY_INBOUND_RATE"      envDefault:"0"`
	InboundBurst    int           `env:"RELAY_INBOUND_BURST"     envDefault:"20"`
	CORSOrigins     string        `env:"RELAY_CORS_ORIGINS"      envDefault:"*"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that cannot be defaulted away.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if _, ok := logLevels[strings.ToLower(c.LogLevel)]; !ok {
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", c.LogLevel))
	}
	if c.InboxSize <= 0 {
		errs = append(errs, fmt.Errorf("RELAY_INBOX_SIZE must be positive, got %d", c.InboxSize))
	}
	if c.SendBuffer <= 0 {
		errs = append(errs, fmt.Errorf("RELAY_SEND_BUFFER must be positive, got %d", c.SendBuffer))
	}
	if c.PingInterval <= 0 {
		errs = append(errs, fmt.Errorf("RELAY_PING_INTERVAL must be positive, got %s", c.PingInterval))
	}
	if c.PongTimeout <= c.PingInterval {
		errs = append(errs, fmt.Errorf("RELAY_PONG_TIMEOUT (%s) must exceed RELAY_PING_INTERVAL (%s)", c.PongTimeout, c.PingInterval))
	}
	if c.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("RELAY_WRITE_TIMEOUT must be positive, got %s", c.WriteTimeout))
	}
	if c.MaxMessageBytes <= 0 {
		errs = append(errs, fmt.Errorf("RELAY_MAX_MESSAGE_BYTES must be positive, got %d", c.MaxMessageBytes))
	}
	if c.InboundRate < 0 {
		errs = append(errs, fmt.Errorf("RELAY_INBOUND_RATE must not be negative, got %g", c.InboundRate))
	}
	if c.InboundRate > 0 && c.InboundBurst <= 0 {
		errs = append(errs, fmt.Errorf("RELAY_INBOUND_BURST must be positive when throttling, got %d", c.InboundBurst))
	}
	return errors.Join(errs...)
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// MonoLogLevel returns the framework log level named by LOG_LEVEL.
// Unknown names fall back to info.
func (c *Config) MonoLogLevel() mono.LogLevel {
	if level, ok := logLevels[strings.ToLower(c.LogLevel)]; ok {
		return level
	}
	return mono.LogLevelInfo
}
