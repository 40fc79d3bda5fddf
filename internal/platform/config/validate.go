package config

import (
	"errors"
	"fmt"
)

// Validate checks all configuration values and returns aggregated errors.
func (c *Config) Validate() error {
	return errors.Join(
		c.Server.validate(),
		c.Log.validate(),
		c.Database.validate(),
		c.Saga.validate(),
		c.Outbox.validate(),
		c.Dispatcher.validate(),
		c.Clients.Board.validate("clients.board"),
		c.Clients.WeClass.validate("clients.weclass"),
		c.Telemetry.validate(),
	)
}

func (s *ServerConfig) validate() error {
	var errs []error

	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", s.Port))
	}
	if s.ReadTimeout <= 0 {
		errs = append(errs, errors.New("server.read_timeout must be positive"))
	}
	if s.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server.write_timeout must be positive"))
	}

	return errors.Join(errs...)
}

func (l *LogConfig) validate() error {
	var errs []error

	switch l.Level {
	case "debug", "info", "warn", "error":
		// Valid levels.
	default:
		errs = append(errs, fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", l.Level))
	}

	switch l.Format {
	case "json", "text":
		// Valid formats.
	default:
		errs = append(errs, fmt.Errorf("log.format must be one of: json, text; got %q", l.Format))
	}

	return errors.Join(errs...)
}

func (d *DatabaseConfig) validate() error {
	if d.Path == "" {
		return errors.New("database.path must not be empty")
	}
	return nil
}

func (s *SagaConfig) validate() error {
	var errs []error

	if s.StepTimeout <= 0 {
		errs = append(errs, errors.New("saga.step_timeout must be positive"))
	}
	if s.SweepInterval <= 0 {
		errs = append(errs, errors.New("saga.sweep_interval must be positive"))
	}
	if s.SweepBatch < 1 {
		errs = append(errs, fmt.Errorf("saga.sweep_batch must be >= 1, got %d", s.SweepBatch))
	}

	return errors.Join(errs...)
}

func (o *OutboxConfig) validate() error {
	var errs []error

	if o.PollInterval <= 0 {
		errs = append(errs, errors.New("outbox.poll_interval must be positive"))
	}
	if o.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("outbox.batch_size must be >= 1, got %d", o.BatchSize))
	}
	if o.Lease <= 0 {
		errs = append(errs, errors.New("outbox.lease must be positive"))
	}
	if o.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("outbox.max_attempts must be >= 0, got %d", o.MaxAttempts))
	}

	return errors.Join(errs...)
}

func (d *DispatcherConfig) validate() error {
	var errs []error

	if d.Workers < 1 {
		errs = append(errs, fmt.Errorf("dispatcher.workers must be >= 1, got %d", d.Workers))
	}
	if d.QueueDepth < 1 {
		errs = append(errs, fmt.Errorf("dispatcher.queue_depth must be >= 1, got %d", d.QueueDepth))
	}
	if d.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("dispatcher.max_attempts must be >= 1, got %d", d.MaxAttempts))
	}
	if d.MinBackoff <= 0 {
		errs = append(errs, errors.New("dispatcher.min_backoff must be positive"))
	}
	if d.MaxBackoff < d.MinBackoff {
		errs = append(errs, errors.New("dispatcher.max_backoff must be >= dispatcher.min_backoff"))
	}

	return errors.Join(errs...)
}

func (cl *ClientConfig) validate(prefix string) error {
	var errs []error

	if cl.BaseURL == "" {
		errs = append(errs, fmt.Errorf("%s.base_url must not be empty", prefix))
	}
	if cl.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%s.timeout must be positive", prefix))
	}
	if cl.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("%s.retry.max_attempts must be >= 1, got %d", prefix, cl.Retry.MaxAttempts))
	}
	if cl.Retry.Multiplier <= 0 {
		errs = append(errs, fmt.Errorf("%s.retry.multiplier must be positive, got %f", prefix, cl.Retry.Multiplier))
	}
	if cl.RateLimit.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("%s.rate_limit.requests_per_second must be >= 0, got %f",
			prefix, cl.RateLimit.RequestsPerSecond))
	}
	if cl.RateLimit.RequestsPerSecond > 0 && cl.RateLimit.BurstSize < 1 {
		errs = append(errs, fmt.Errorf("%s.rate_limit.burst_size must be >= 1 when rate limiting is enabled, got %d",
			prefix, cl.RateLimit.BurstSize))
	}
	if cl.CircuitBreaker.MaxFailures < 1 {
		errs = append(errs, fmt.Errorf("%s.circuit_breaker.max_failures must be >= 1, got %d",
			prefix, cl.CircuitBreaker.MaxFailures))
	}

	return errors.Join(errs...)
}

func (t *TelemetryConfig) validate() error {
	if !t.Enabled {
		return nil
	}

	var errs []error

	switch t.Exporter {
	case "stdout", "otlp":
		// Valid exporters.
	default:
		errs = append(errs, fmt.Errorf("telemetry.exporter must be one of: stdout, otlp; got %q", t.Exporter))
	}

	if t.Exporter == "otlp" && t.Endpoint == "" {
		errs = append(errs, errors.New("telemetry.endpoint must not be empty when exporter is otlp"))
	}

	return errors.Join(errs...)
}
