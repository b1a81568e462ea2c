package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/vyrodovalexey/avroute/internal/util"
)

// Default values.
const (
	DefaultPort               = 8080
	DefaultReadTimeout        = 30 * time.Second
	DefaultWriteTimeout       = 30 * time.Second
	DefaultIdleTimeout        = 120 * time.Second
	DefaultShutdownTimeout    = 10 * time.Second
	DefaultMaxRequestBodySize = 10 << 20 // 10 MB
	DefaultMetricsPort        = 9090
	DefaultMetricsPath        = "/metrics"
	DefaultServiceName        = "avroute"
	DefaultStaticContentType  = "application/octet-stream"
)

// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" json:"server"`
	Static  StaticConfig  `yaml:"static" json:"static"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	Tracing TracingConfig `yaml:"tracing" json:"tracing"`
	Filters FiltersConfig `yaml:"filters" json:"filters"`
}

// ServerConfig configures the HTTP listener. Port 0 binds an ephemeral port.
type ServerConfig struct {
	Address            string   `yaml:"address" json:"address"`
	Port               int      `yaml:"port" json:"port"`
	ReadTimeout        Duration `yaml:"readTimeout" json:"readTimeout"`
	WriteTimeout       Duration `yaml:"writeTimeout" json:"writeTimeout"`
	IdleTimeout        Duration `yaml:"idleTimeout" json:"idleTimeout"`
	ShutdownTimeout    Duration `yaml:"shutdownTimeout" json:"shutdownTimeout"`
	MaxRequestBodySize int64    `yaml:"maxRequestBodySize" json:"maxRequestBodySize"`

	SecurityHeaders SecurityHeadersConfig `yaml:"securityHeaders" json:"securityHeaders"`
}

// SecurityHeadersConfig configures the headers added to every response.
// Headers overrides the built-in set; an empty value removes a header.
type SecurityHeadersConfig struct {
	Enabled bool              `yaml:"enabled" json:"enabled"`
	Headers map[string]string `yaml:"headers" json:"headers,omitempty"`
}

// ListenAddress returns the host:port the server binds.
func (c ServerConfig) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Address, c.Port)
}

// StaticConfig configures static file serving.
type StaticConfig struct {
	DefaultContentType string        `yaml:"defaultContentType" json:"defaultContentType"`
	Mounts             []StaticMount `yaml:"mounts" json:"mounts"`
}

// StaticMount maps a URL prefix to a directory.
type StaticMount struct {
	Prefix string `yaml:"prefix" json:"prefix"`
	Dir    string `yaml:"dir" json:"dir"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
}

// MetricsConfig configures the Prometheus listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Address string `yaml:"address" json:"address"`
	Port    int    `yaml:"port" json:"port"`
	Path    string `yaml:"path" json:"path"`
}

// ListenAddress returns the host:port the metrics listener binds.
func (c MetricsConfig) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Address, c.Port)
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	ServiceName  string  `yaml:"serviceName" json:"serviceName"`
	OTLPEndpoint string  `yaml:"otlpEndpoint" json:"otlpEndpoint"`
	SamplingRate float64 `yaml:"samplingRate" json:"samplingRate"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               DefaultPort,
			ReadTimeout:        Duration(DefaultReadTimeout),
			WriteTimeout:       Duration(DefaultWriteTimeout),
			IdleTimeout:        Duration(DefaultIdleTimeout),
			ShutdownTimeout:    Duration(DefaultShutdownTimeout),
			MaxRequestBodySize: DefaultMaxRequestBodySize,
			SecurityHeaders:    SecurityHeadersConfig{Enabled: true},
		},
		Static: StaticConfig{
			DefaultContentType: DefaultStaticContentType,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Port: DefaultMetricsPort,
			Path: DefaultMetricsPath,
		},
		Tracing: TracingConfig{
			ServiceName:  DefaultServiceName,
			SamplingRate: 1.0,
		},
		Filters: defaultFiltersConfig(),
	}
}

var (
	validLogLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"json": true, "console": true}
)

// Validate checks the configuration and returns the first problem found as
// a *util.ConfigError.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateStatic,
		c.validateLogging,
		c.validateMetrics,
		c.validateTracing,
		c.validateFilters,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	s := c.Server
	if err := util.ValidateNonNegativePort(s.Port); err != nil {
		return util.NewConfigErrorWithCause("server.port", "invalid port", err)
	}
	durations := []struct {
		field string
		value Duration
	}{
		{"server.readTimeout", s.ReadTimeout},
		{"server.writeTimeout", s.WriteTimeout},
		{"server.idleTimeout", s.IdleTimeout},
		{"server.shutdownTimeout", s.ShutdownTimeout},
	}
	for _, d := range durations {
		if err := util.ValidateDuration(d.value.Duration()); err != nil {
			return util.NewConfigErrorWithCause(d.field, "invalid duration", err)
		}
	}
	if s.MaxRequestBodySize < 0 {
		return util.NewConfigError("server.maxRequestBodySize", "must not be negative")
	}
	for name := range s.SecurityHeaders.Headers {
		if err := util.ValidateHeaderName(name); err != nil {
			return util.NewConfigErrorWithCause("server.securityHeaders.headers", "invalid header", err)
		}
	}
	return nil
}

func (c *Config) validateStatic() error {
	seen := make(map[string]bool, len(c.Static.Mounts))
	for i, m := range c.Static.Mounts {
		field := fmt.Sprintf("static.mounts[%d]", i)
		if err := util.ValidatePathPrefix(m.Prefix); err != nil {
			return util.NewConfigErrorWithCause(field+".prefix", "invalid prefix", err)
		}
		if err := util.ValidateNonEmpty(m.Dir, "dir"); err != nil {
			return util.NewConfigErrorWithCause(field+".dir", "directory is required", err)
		}
		if seen[m.Prefix] {
			return util.NewConfigError(field+".prefix", "duplicate prefix "+m.Prefix)
		}
		seen[m.Prefix] = true
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return util.NewConfigError("logging.level", "unknown level "+c.Logging.Level)
	}
	if !validLogFormats[strings.ToLower(c.Logging.Format)] {
		return util.NewConfigError("logging.format", "unknown format "+c.Logging.Format)
	}
	return nil
}

func (c *Config) validateMetrics() error {
	if !c.Metrics.Enabled {
		return nil
	}
	if err := util.ValidateNonNegativePort(c.Metrics.Port); err != nil {
		return util.NewConfigErrorWithCause("metrics.port", "invalid port", err)
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return util.NewConfigError("metrics.path", "must start with /")
	}
	if c.Metrics.Port != 0 && c.Metrics.Port == c.Server.Port && c.Metrics.Address == c.Server.Address {
		return util.NewConfigError("metrics.port", "must differ from server.port")
	}
	return nil
}

func (c *Config) validateTracing() error {
	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		return util.NewConfigError("tracing.samplingRate", "must be between 0 and 1")
	}
	return nil
}
