// Package config provides configuration loading and validation for the service.
// Configuration is loaded from YAML files with environment variable overrides
// using a layered system: defaults -> base.yaml -> {profile}.yaml -> env vars.
package config

import "time"

// Config holds all configuration for the service.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Log        LogConfig        `koanf:"log"`
	Database   DatabaseConfig   `koanf:"database"`
	Saga       SagaConfig       `koanf:"saga"`
	Outbox     OutboxConfig     `koanf:"outbox"`
	Dispatcher DispatcherConfig `koanf:"dispatcher"`
	Clients    ClientsConfig    `koanf:"clients"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
}

// DatabaseConfig holds SQLite storage settings.
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// SagaConfig holds saga engine settings. StepTimeout bounds how long a saga
// instance waits for any single participant reply before the deadline
// sweeper compensates it.
type SagaConfig struct {
	StepTimeout   time.Duration `koanf:"step_timeout"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
	SweepBatch    int           `koanf:"sweep_batch"`
}

// OutboxConfig holds message relay settings.
type OutboxConfig struct {
	PollInterval time.Duration `koanf:"poll_interval"`
	BatchSize    int           `koanf:"batch_size"`
	Lease        time.Duration `koanf:"lease"`
	MaxAttempts  int           `koanf:"max_attempts"`
}

// DispatcherConfig holds reply dispatcher settings.
type DispatcherConfig struct {
	Workers     int           `koanf:"workers"`
	QueueDepth  int           `koanf:"queue_depth"`
	MaxAttempts int           `koanf:"max_attempts"`
	MinBackoff  time.Duration `koanf:"min_backoff"`
	MaxBackoff  time.Duration `koanf:"max_backoff"`
}

// ClientsConfig holds the downstream HTTP clients, one per remote
// participant service.
type ClientsConfig struct {
	Board   ClientConfig `koanf:"board"`
	WeClass ClientConfig `koanf:"weclass"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ClientConfig holds downstream HTTP client settings.
type ClientConfig struct {
	BaseURL        string               `koanf:"base_url"`
	Timeout        time.Duration        `koanf:"timeout"`
	Retry          RetryConfig          `koanf:"retry"`
	RateLimit      RateLimitConfig      `koanf:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker"`
}

// RateLimitConfig holds outbound request rate limiting settings.
// A RequestsPerSecond of 0 disables rate limiting for the client.
type RateLimitConfig struct {
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	BurstSize         int     `koanf:"burst_size"`
}

// RetryConfig holds retry policy settings with exponential backoff.
type RetryConfig struct {
	MaxAttempts     int           `koanf:"max_attempts"`
	InitialInterval time.Duration `koanf:"initial_interval"`
	MaxInterval     time.Duration `koanf:"max_interval"`
	Multiplier      float64       `koanf:"multiplier"`
}

// CircuitBreakerConfig holds circuit breaker settings.
type CircuitBreakerConfig struct {
	MaxFailures   int           `koanf:"max_failures"`
	Timeout       time.Duration `koanf:"timeout"`
	HalfOpenLimit int           `koanf:"half_open_limit"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Exporter    string `koanf:"exporter"`
	Endpoint    string `koanf:"endpoint"`
	ServiceName string `koanf:"service_name"`
}
